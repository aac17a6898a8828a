package service

import (
	"errors"
)

// Ошибки клиента (BadRequest). Всё остальное считается сбоем хранилища.
var (
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidDateRange = errors.New("invalid date range")
)

// IsBadRequest сообщает, вызвана ли ошибка некорректным запросом клиента
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrMissingFields) || errors.Is(err, ErrInvalidDateRange)
}
