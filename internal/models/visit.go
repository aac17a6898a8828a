package models

import (
	"time"
)

// BounceThresholdMs визиты короче этого порога считаются отказами
const BounceThresholdMs = 10000

// Visit одна запись о просмотре страницы
type Visit struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string    `json:"session_id" gorm:"column:session_id;not null;index:idx_visits_session_id"`
	Page      string    `json:"page" gorm:"not null"`
	UserIP    string    `json:"user_ip" gorm:"column:user_ip"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	ISP       string    `json:"isp" gorm:"column:isp"`
	UserAgent *string   `json:"user_agent"`
	Device    *string   `json:"device"`
	Referrer  *string   `json:"referrer"`
	Duration  int64     `json:"duration" gorm:"not null;default:0"`
	LoadTime  *int64    `json:"load_time"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp;not null;index:idx_visits_timestamp"`
}

// VisitInput данные beacon'а о визите. ClientIP определяется транспортом, а не клиентом.
type VisitInput struct {
	SessionID string
	Page      string
	UserAgent *string
	Referrer  *string
	Device    *string
	LoadTime  *int64
	ClientIP  string
}

// DurationInput обновление длительности визита.
// VisitID имеет приоритет, SessionID используется как запасной вариант.
type DurationInput struct {
	VisitID   *int64
	SessionID string
	Duration  *int64
}

// Location результат геолокации IP адреса
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
}

// UnknownLocation используется, когда геолокация недоступна
func UnknownLocation() Location {
	return Location{Country: "Unknown", City: "Unknown", ISP: "Unknown"}
}
