package models

import (
	"time"
)

// DateFilter необязательный диапазон дат для агрегаций.
// Фильтр применяется только если заданы обе границы.
type DateFilter struct {
	Start time.Time
	End   time.Time
}

func (f DateFilter) Active() bool {
	return !f.Start.IsZero() && !f.End.IsZero()
}

type CountryStat struct {
	Country string `json:"country"`
	Visits  int64  `json:"visits"`
}

type MonthlyStat struct {
	Month  string `json:"month"`
	Visits int64  `json:"visits"`
}

type DeviceStat struct {
	Device *string `json:"device"`
	Visits int64   `json:"visits"`
}

type ReferrerStat struct {
	Referrer *string `json:"referrer"`
	Visits   int64   `json:"visits"`
}

type ElementRank struct {
	Element string `json:"element"`
	Clicks  int64  `json:"clicks"`
}

// VisitTotals сводная строка по визитам (количество, суммы и средние)
type VisitTotals struct {
	TotalVisits int64
	TotalTime   int64
	AvgDuration float64
	AvgLoadTime float64
}

// Summary базовая статистика (/analytics)
type Summary struct {
	TotalVisitors  int64         `json:"total_visitors"`
	TotalTimeSpent int64         `json:"total_time_spent"`
	CountryStats   []CountryStat `json:"country_stats"`
	MonthlyStats   []MonthlyStat `json:"monthly_stats"`
}

// ExtendedSummary расширенная статистика (/extended-analytics)
type ExtendedSummary struct {
	TotalVisits     int64          `json:"total_visits"`
	TotalTimeSpent  int64          `json:"total_time_spent"`
	AverageDuration float64        `json:"average_duration"`
	AverageLoadTime float64        `json:"average_load_time"`
	BounceRate      float64        `json:"bounce_rate"`
	DeviceStats     []DeviceStat   `json:"device_stats"`
	ReferrerStats   []ReferrerStat `json:"referrer_stats"`
}
