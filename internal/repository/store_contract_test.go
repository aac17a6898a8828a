package repository

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(v int64) *int64   { return &v }

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 10, 0, 0, 0, time.UTC)
}

func januaryFilter() models.DateFilter {
	return models.DateFilter{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.January, 31, 23, 59, 59, 0, time.UTC),
	}
}

// seedVisits вставляет US×3, FR×1 в трёх разных месяцах
func seedVisits(t *testing.T, ctx context.Context, repo VisitRepository) []*models.Visit {
	visits := []*models.Visit{
		{SessionID: "s1", Page: "/", Country: "US", City: "Austin", ISP: "Unknown", Device: strPtr("MacIntel"), LoadTime: intPtr(100), Timestamp: day(time.January, 10)},
		{SessionID: "s2", Page: "/pricing", Country: "US", City: "Boston", ISP: "Unknown", Device: strPtr("MacIntel"), LoadTime: intPtr(300), Timestamp: day(time.January, 20)},
		{SessionID: "s3", Page: "/", Country: "US", City: "Denver", ISP: "Unknown", Device: strPtr("Win32"), Referrer: strPtr("https://google.com"), Timestamp: day(time.February, 5)},
		{SessionID: "s4", Page: "/about", Country: "FR", City: "Paris", ISP: "Unknown", Timestamp: day(time.March, 1)},
	}
	for _, v := range visits {
		require.NoError(t, repo.Create(ctx, v))
		require.NotZero(t, v.ID)
	}
	return visits
}

// runAggregationContract одинаковые проверки для sqlite и postgres
func runAggregationContract(t *testing.T, store *Store) {
	ctx := context.Background()
	visits := seedVisits(t, ctx, store.Visits)

	t.Run("новый визит имеет нулевую длительность", func(t *testing.T) {
		got, err := store.Visits.GetByID(ctx, visits[0].ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Duration)
		assert.Equal(t, "s1", got.SessionID)
		assert.NotEqual(t, visits[0].ID, visits[1].ID)
	})

	t.Run("несуществующий визит", func(t *testing.T) {
		_, err := store.Visits.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, ErrVisitNotFound)
	})

	t.Run("статистика по странам без фильтра", func(t *testing.T) {
		stats, err := store.Visits.CountByCountry(ctx, models.DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, []models.CountryStat{{Country: "US", Visits: 3}, {Country: "FR", Visits: 1}}, stats)

		sessions, err := store.Visits.CountDistinctSessions(ctx, models.DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), sessions)
	})

	t.Run("помесячная статистика, новые месяцы первыми", func(t *testing.T) {
		stats, err := store.Visits.CountByMonth(ctx, models.DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, []models.MonthlyStat{
			{Month: "2024-03", Visits: 1},
			{Month: "2024-02", Visits: 1},
			{Month: "2024-01", Visits: 2},
		}, stats)
	})

	t.Run("фильтр по датам применяется ко всем запросам", func(t *testing.T) {
		f := januaryFilter()

		countries, err := store.Visits.CountByCountry(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, []models.CountryStat{{Country: "US", Visits: 2}}, countries)

		months, err := store.Visits.CountByMonth(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, []models.MonthlyStat{{Month: "2024-01", Visits: 2}}, months)

		sessions, err := store.Visits.CountDistinctSessions(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(2), sessions)

		devices, err := store.Visits.CountByDevice(ctx, f)
		require.NoError(t, err)
		require.Len(t, devices, 1)
		assert.Equal(t, "MacIntel", *devices[0].Device)
	})

	t.Run("пустой диапазон даёт нули", func(t *testing.T) {
		f := models.DateFilter{Start: day(time.June, 1), End: day(time.June, 30)}

		total, err := store.Visits.SumDuration(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)

		totals, err := store.Visits.Totals(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, models.VisitTotals{}, *totals)

		countries, err := store.Visits.CountByCountry(ctx, f)
		require.NoError(t, err)
		assert.NotNil(t, countries)
		assert.Empty(t, countries)
	})

	t.Run("обновление длительности и отказы", func(t *testing.T) {
		n, err := store.Visits.UpdateDuration(ctx, visits[0].ID, 5000)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = store.Visits.UpdateDuration(ctx, visits[1].ID, 20000)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = store.Visits.UpdateDuration(ctx, 999999, 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		total, err := store.Visits.SumDuration(ctx, models.DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(25000), total)

		totals, err := store.Visits.Totals(ctx, models.DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), totals.TotalVisits)
		assert.Equal(t, int64(25000), totals.TotalTime)
		assert.InDelta(t, 6250, totals.AvgDuration, 0.001)
		assert.InDelta(t, 200, totals.AvgLoadTime, 0.001)

		bounces, err := store.Visits.CountBounces(ctx, models.DateFilter{}, models.BounceThresholdMs)
		require.NoError(t, err)
		assert.Equal(t, int64(3), bounces)

		bounces, err = store.Visits.CountBounces(ctx, januaryFilter(), models.BounceThresholdMs)
		require.NoError(t, err)
		assert.Equal(t, int64(1), bounces)
	})

	t.Run("устройства и источники", func(t *testing.T) {
		devices, err := store.Visits.CountByDevice(ctx, models.DateFilter{})
		require.NoError(t, err)
		require.Len(t, devices, 3)
		assert.Equal(t, "MacIntel", *devices[0].Device)
		assert.Equal(t, int64(2), devices[0].Visits)

		referrers, err := store.Visits.CountByReferrer(ctx, models.DateFilter{})
		require.NoError(t, err)
		require.Len(t, referrers, 2)
		assert.Nil(t, referrers[0].Referrer)
		assert.Equal(t, int64(3), referrers[0].Visits)
		assert.Equal(t, "https://google.com", *referrers[1].Referrer)
	})

	t.Run("рейтинг действий", func(t *testing.T) {
		for _, el := range []string{"button#buy", "a.nav", "button#buy", "button#buy"} {
			require.NoError(t, store.Actions.Create(ctx, &models.Action{
				SessionID: "s1", Action: "click", Element: el, Timestamp: day(time.January, 10),
			}))
		}

		ranks, err := store.Actions.RankByElement(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.ElementRank{{Element: "button#buy", Clicks: 3}, {Element: "a.nav", Clicks: 1}}, ranks)
	})

	t.Run("сброс actions при старте сохраняет visits", func(t *testing.T) {
		require.NoError(t, store.db.Migrate(ctx, true))

		ranks, err := store.Actions.RankByElement(ctx)
		require.NoError(t, err)
		assert.Empty(t, ranks)

		sessions, err := store.Visits.CountDistinctSessions(ctx, models.DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(4), sessions)
	})
}

// runLatestDurationContract длительность без visit_id попадает только в последний визит сессии
func runLatestDurationContract(t *testing.T, store *Store) {
	ctx := context.Background()

	older := &models.Visit{SessionID: "sess", Page: "/a", Country: "US", Timestamp: day(time.May, 1)}
	newer := &models.Visit{SessionID: "sess", Page: "/b", Country: "US", Timestamp: day(time.May, 2)}
	other := &models.Visit{SessionID: "other", Page: "/c", Country: "US", Timestamp: day(time.May, 3)}
	require.NoError(t, store.Visits.Create(ctx, older))
	require.NoError(t, store.Visits.Create(ctx, newer))
	require.NoError(t, store.Visits.Create(ctx, other))

	n, err := store.Visits.UpdateLatestDuration(ctx, "sess", 7000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Visits.GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Duration)

	got, err = store.Visits.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), got.Duration)

	got, err = store.Visits.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Duration)

	// повторное обновление перезаписывает, а не суммирует
	_, err = store.Visits.UpdateLatestDuration(ctx, "sess", 9000)
	require.NoError(t, err)
	got, err = store.Visits.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), got.Duration)

	n, err = store.Visits.UpdateLatestDuration(ctx, "missing", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
