package mocks

import (
	"context"
	"sync"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
)

// MockLocator возвращает заданную локацию и запоминает запрошенные адреса
type MockLocator struct {
	mu       sync.Mutex
	Location models.Location
	Lookups  []string
}

func NewMockLocator(loc models.Location) *MockLocator {
	return &MockLocator{Location: loc}
}

func (m *MockLocator) Lookup(ctx context.Context, ip string) models.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups = append(m.Lookups, ip)
	return m.Location
}

func (m *MockLocator) LastLookup() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Lookups) == 0 {
		return ""
	}
	return m.Lookups[len(m.Lookups)-1]
}
