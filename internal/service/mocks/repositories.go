package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/repository"
)

// MockVisitRepository implements repository.VisitRepository in memory.
// FailOn makes a named method return the given error; Calls records method names.
type MockVisitRepository struct {
	mu     sync.RWMutex
	visits []*models.Visit
	nextID int64
	FailOn map[string]error
	Calls  []string
}

func NewMockVisitRepository() *MockVisitRepository {
	return &MockVisitRepository{
		nextID: 1,
		FailOn: make(map[string]error),
	}
}

func (m *MockVisitRepository) call(name string) error {
	m.Calls = append(m.Calls, name)
	return m.FailOn[name]
}

func (m *MockVisitRepository) Create(ctx context.Context, visit *models.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Create"); err != nil {
		return err
	}

	visit.ID = m.nextID
	m.nextID++
	if visit.Timestamp.IsZero() {
		visit.Timestamp = time.Now().UTC()
	}
	stored := *visit
	m.visits = append(m.visits, &stored)
	return nil
}

func (m *MockVisitRepository) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetByID"); err != nil {
		return nil, err
	}

	for _, v := range m.visits {
		if v.ID == id {
			copied := *v
			return &copied, nil
		}
	}
	return nil, repository.ErrVisitNotFound
}

func (m *MockVisitRepository) UpdateDuration(ctx context.Context, visitID, duration int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateDuration"); err != nil {
		return 0, err
	}

	for _, v := range m.visits {
		if v.ID == visitID {
			v.Duration = duration
			return 1, nil
		}
	}
	return 0, nil
}

func (m *MockVisitRepository) UpdateLatestDuration(ctx context.Context, sessionID string, duration int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpdateLatestDuration"); err != nil {
		return 0, err
	}

	var latest *models.Visit
	for _, v := range m.visits {
		if v.SessionID != sessionID {
			continue
		}
		if latest == nil || v.Timestamp.After(latest.Timestamp) ||
			(v.Timestamp.Equal(latest.Timestamp) && v.ID > latest.ID) {
			latest = v
		}
	}
	if latest == nil {
		return 0, nil
	}
	latest.Duration = duration
	return 1, nil
}

func (m *MockVisitRepository) filtered(f models.DateFilter) []*models.Visit {
	if !f.Active() {
		return m.visits
	}
	var out []*models.Visit
	for _, v := range m.visits {
		if !v.Timestamp.Before(f.Start) && !v.Timestamp.After(f.End) {
			out = append(out, v)
		}
	}
	return out
}

func (m *MockVisitRepository) CountByCountry(ctx context.Context, f models.DateFilter) ([]models.CountryStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountByCountry"); err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, v := range m.filtered(f) {
		counts[v.Country]++
	}
	stats := []models.CountryStat{}
	for country, n := range counts {
		stats = append(stats, models.CountryStat{Country: country, Visits: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Visits != stats[j].Visits {
			return stats[i].Visits > stats[j].Visits
		}
		return stats[i].Country < stats[j].Country
	})
	return stats, nil
}

func (m *MockVisitRepository) CountDistinctSessions(ctx context.Context, f models.DateFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountDistinctSessions"); err != nil {
		return 0, err
	}

	sessions := make(map[string]struct{})
	for _, v := range m.filtered(f) {
		sessions[v.SessionID] = struct{}{}
	}
	return int64(len(sessions)), nil
}

func (m *MockVisitRepository) SumDuration(ctx context.Context, f models.DateFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SumDuration"); err != nil {
		return 0, err
	}

	var total int64
	for _, v := range m.filtered(f) {
		total += v.Duration
	}
	return total, nil
}

func (m *MockVisitRepository) CountByMonth(ctx context.Context, f models.DateFilter) ([]models.MonthlyStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountByMonth"); err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, v := range m.filtered(f) {
		counts[v.Timestamp.UTC().Format("2006-01")]++
	}
	stats := []models.MonthlyStat{}
	for month, n := range counts {
		stats = append(stats, models.MonthlyStat{Month: month, Visits: n})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Month > stats[j].Month })
	return stats, nil
}

func (m *MockVisitRepository) Totals(ctx context.Context, f models.DateFilter) (*models.VisitTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("Totals"); err != nil {
		return nil, err
	}

	totals := &models.VisitTotals{}
	var loadSum, loadCount int64
	for _, v := range m.filtered(f) {
		totals.TotalVisits++
		totals.TotalTime += v.Duration
		if v.LoadTime != nil {
			loadSum += *v.LoadTime
			loadCount++
		}
	}
	if totals.TotalVisits > 0 {
		totals.AvgDuration = float64(totals.TotalTime) / float64(totals.TotalVisits)
	}
	if loadCount > 0 {
		totals.AvgLoadTime = float64(loadSum) / float64(loadCount)
	}
	return totals, nil
}

func (m *MockVisitRepository) CountBounces(ctx context.Context, f models.DateFilter, thresholdMs int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountBounces"); err != nil {
		return 0, err
	}

	var n int64
	for _, v := range m.filtered(f) {
		if v.Duration < thresholdMs {
			n++
		}
	}
	return n, nil
}

func (m *MockVisitRepository) CountByDevice(ctx context.Context, f models.DateFilter) ([]models.DeviceStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountByDevice"); err != nil {
		return nil, err
	}

	keys, counts := groupNullable(m.filtered(f), func(v *models.Visit) *string { return v.Device })
	stats := []models.DeviceStat{}
	for _, k := range keys {
		stats = append(stats, models.DeviceStat{Device: k, Visits: counts[deref(k)]})
	}
	return stats, nil
}

func (m *MockVisitRepository) CountByReferrer(ctx context.Context, f models.DateFilter) ([]models.ReferrerStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountByReferrer"); err != nil {
		return nil, err
	}

	keys, counts := groupNullable(m.filtered(f), func(v *models.Visit) *string { return v.Referrer })
	stats := []models.ReferrerStat{}
	for _, k := range keys {
		stats = append(stats, models.ReferrerStat{Referrer: k, Visits: counts[deref(k)]})
	}
	return stats, nil
}

const nullKey = "\x00null"

func deref(s *string) string {
	if s == nil {
		return nullKey
	}
	return *s
}

// groupNullable groups by a nullable column, ordered by count desc
func groupNullable(visits []*models.Visit, key func(*models.Visit) *string) ([]*string, map[string]int64) {
	counts := make(map[string]int64)
	var keys []*string
	for _, v := range visits {
		k := key(v)
		if _, seen := counts[deref(k)]; !seen {
			keys = append(keys, k)
		}
		counts[deref(k)]++
	}
	sort.SliceStable(keys, func(i, j int) bool { return counts[deref(keys[i])] > counts[deref(keys[j])] })
	return keys, counts
}

func (m *MockVisitRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = nil
	m.nextID = 1
	m.Calls = nil
}

// MockActionRepository implements repository.ActionRepository for testing
type MockActionRepository struct {
	mu      sync.RWMutex
	actions []*models.Action
	nextID  int64
	Err     error
}

func NewMockActionRepository() *MockActionRepository {
	return &MockActionRepository{nextID: 1}
}

func (m *MockActionRepository) Create(ctx context.Context, action *models.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	action.ID = m.nextID
	m.nextID++
	stored := *action
	m.actions = append(m.actions, &stored)
	return nil
}

func (m *MockActionRepository) RankByElement(ctx context.Context) ([]models.ElementRank, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	counts := make(map[string]int64)
	for _, a := range m.actions {
		counts[a.Element]++
	}
	ranks := []models.ElementRank{}
	for el, n := range counts {
		ranks = append(ranks, models.ElementRank{Element: el, Clicks: n})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Clicks != ranks[j].Clicks {
			return ranks[i].Clicks > ranks[j].Clicks
		}
		return ranks[i].Element < ranks[j].Element
	})
	return ranks, nil
}

func (m *MockActionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.actions)
}

// MockGeoCacheRepository implements repository.GeoCacheRepository for testing
type MockGeoCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]models.Location
	Err   error
}

func NewMockGeoCacheRepository() *MockGeoCacheRepository {
	return &MockGeoCacheRepository{
		cache: make(map[string]models.Location),
	}
}

func (m *MockGeoCacheRepository) Get(ctx context.Context, ip string) (*models.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	loc, exists := m.cache[ip]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	return &loc, nil
}

func (m *MockGeoCacheRepository) Set(ctx context.Context, ip string, loc models.Location, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.cache[ip] = loc
	return nil
}
