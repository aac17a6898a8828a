package models

import (
	"time"
)

// Action одно взаимодействие пользователя (например, клик).
// С Visit связано только по session_id, внешнего ключа нет.
type Action struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID    string    `json:"session_id" gorm:"column:session_id;not null"`
	Action       string    `json:"action" gorm:"not null"`
	Element      string    `json:"element" gorm:"not null"`
	ElementID    *string   `json:"element_id" gorm:"column:element_id"`
	ElementClass *string   `json:"element_class" gorm:"column:element_class"`
	Timestamp    time.Time `json:"timestamp" gorm:"column:timestamp;not null"`
}

type ActionInput struct {
	SessionID    string
	Action       string
	Element      string
	ElementID    *string
	ElementClass *string
}
