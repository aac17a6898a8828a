package service

import (
	"strings"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
)

const dateOnly = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDateFilter разбирает start_date/end_date. Фильтр активен только при
// обеих границах. Дата без времени в end_date включает весь день.
// Перевёрнутый диапазон допустим: BETWEEN просто ничего не находит.
func ParseDateFilter(start, end string) (models.DateFilter, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return models.DateFilter{}, nil
	}

	from, _, err := parseBound(start)
	if err != nil {
		return models.DateFilter{}, ErrInvalidDateRange
	}

	to, dateOnlyEnd, err := parseBound(end)
	if err != nil {
		return models.DateFilter{}, ErrInvalidDateRange
	}
	if dateOnlyEnd {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	return models.DateFilter{Start: from.UTC(), End: to.UTC()}, nil
}

func parseBound(value string) (time.Time, bool, error) {
	if t, err := time.Parse(dateOnly, value); err == nil {
		return t, true, nil
	}

	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, false, nil
		}
		lastErr = err
	}
	return time.Time{}, false, lastErr
}
