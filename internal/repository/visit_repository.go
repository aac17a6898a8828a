package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrVisitNotFound = errors.New("visit not found")
)

// VisitRepository доступ к таблице visits. Все методы агрегации принимают
// один и тот же DateFilter, который применяется к каждому запросу.
type VisitRepository interface {
	Create(ctx context.Context, visit *models.Visit) error
	GetByID(ctx context.Context, id int64) (*models.Visit, error)
	UpdateDuration(ctx context.Context, visitID, duration int64) (int64, error)
	UpdateLatestDuration(ctx context.Context, sessionID string, duration int64) (int64, error)

	CountByCountry(ctx context.Context, f models.DateFilter) ([]models.CountryStat, error)
	CountDistinctSessions(ctx context.Context, f models.DateFilter) (int64, error)
	SumDuration(ctx context.Context, f models.DateFilter) (int64, error)
	CountByMonth(ctx context.Context, f models.DateFilter) ([]models.MonthlyStat, error)
	Totals(ctx context.Context, f models.DateFilter) (*models.VisitTotals, error)
	CountBounces(ctx context.Context, f models.DateFilter, thresholdMs int64) (int64, error)
	CountByDevice(ctx context.Context, f models.DateFilter) ([]models.DeviceStat, error)
	CountByReferrer(ctx context.Context, f models.DateFilter) ([]models.ReferrerStat, error)
}

type visitRepository struct {
	db *PostgresDB
	q  queries
}

func NewVisitRepository(db *PostgresDB) VisitRepository {
	return &visitRepository{db: db, q: queries{d: postgresDialect}}
}

func (r *visitRepository) Create(ctx context.Context, visit *models.Visit) error {
	query := `
		INSERT INTO visits (session_id, page, user_ip, country, city, isp, user_agent, device, referrer, duration, load_time, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		visit.SessionID,
		visit.Page,
		visit.UserIP,
		visit.Country,
		visit.City,
		visit.ISP,
		visit.UserAgent,
		visit.Device,
		visit.Referrer,
		visit.Duration,
		visit.LoadTime,
		visit.Timestamp,
	).Scan(&visit.ID)

	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}

	return nil
}

func (r *visitRepository) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	query := `
		SELECT id, session_id, page, COALESCE(user_ip, ''), COALESCE(country, ''), COALESCE(city, ''), COALESCE(isp, ''),
			user_agent, device, referrer, duration, load_time, timestamp
		FROM visits
		WHERE id = $1
	`

	visit := &models.Visit{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&visit.ID,
		&visit.SessionID,
		&visit.Page,
		&visit.UserIP,
		&visit.Country,
		&visit.City,
		&visit.ISP,
		&visit.UserAgent,
		&visit.Device,
		&visit.Referrer,
		&visit.Duration,
		&visit.LoadTime,
		&visit.Timestamp,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	return visit, nil
}

func (r *visitRepository) UpdateDuration(ctx context.Context, visitID, duration int64) (int64, error) {
	query, args := r.q.updateDurationByID(visitID, duration)
	return r.exec(ctx, "failed to update duration", query, args)
}

func (r *visitRepository) UpdateLatestDuration(ctx context.Context, sessionID string, duration int64) (int64, error) {
	query, args := r.q.updateLatestDuration(sessionID, duration)
	return r.exec(ctx, "failed to update duration", query, args)
}

func (r *visitRepository) exec(ctx context.Context, msg, query string, args []any) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	return result.RowsAffected(), nil
}

func (r *visitRepository) CountByCountry(ctx context.Context, f models.DateFilter) ([]models.CountryStat, error) {
	query, args := r.q.countByCountry(f)
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get country stats: %w", err)
	}
	defer rows.Close()

	stats := []models.CountryStat{}
	for rows.Next() {
		var stat models.CountryStat
		var country *string
		if err := rows.Scan(&country, &stat.Visits); err != nil {
			return nil, fmt.Errorf("failed to scan country stat: %w", err)
		}
		if country != nil {
			stat.Country = *country
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country stats: %w", err)
	}

	return stats, nil
}

func (r *visitRepository) CountDistinctSessions(ctx context.Context, f models.DateFilter) (int64, error) {
	query, args := r.q.countDistinctSessions(f)
	return r.scalar(ctx, "failed to count visitors", query, args)
}

func (r *visitRepository) SumDuration(ctx context.Context, f models.DateFilter) (int64, error) {
	query, args := r.q.sumDuration(f)
	return r.scalar(ctx, "failed to sum duration", query, args)
}

func (r *visitRepository) CountBounces(ctx context.Context, f models.DateFilter, thresholdMs int64) (int64, error) {
	query, args := r.q.countBounces(f, thresholdMs)
	return r.scalar(ctx, "failed to count bounces", query, args)
}

func (r *visitRepository) scalar(ctx context.Context, msg, query string, args []any) (int64, error) {
	var value int64
	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&value); err != nil {
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	return value, nil
}

func (r *visitRepository) CountByMonth(ctx context.Context, f models.DateFilter) ([]models.MonthlyStat, error) {
	query, args := r.q.countByMonth(f)
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly stats: %w", err)
	}
	defer rows.Close()

	stats := []models.MonthlyStat{}
	for rows.Next() {
		var stat models.MonthlyStat
		if err := rows.Scan(&stat.Month, &stat.Visits); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stat: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly stats: %w", err)
	}

	return stats, nil
}

func (r *visitRepository) Totals(ctx context.Context, f models.DateFilter) (*models.VisitTotals, error) {
	query, args := r.q.totals(f)

	totals := &models.VisitTotals{}
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&totals.TotalVisits,
		&totals.TotalTime,
		&totals.AvgDuration,
		&totals.AvgLoadTime,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get visit totals: %w", err)
	}

	return totals, nil
}

func (r *visitRepository) CountByDevice(ctx context.Context, f models.DateFilter) ([]models.DeviceStat, error) {
	query, args := r.q.countByDevice(f)
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get device stats: %w", err)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DeviceStat, error) {
		var stat models.DeviceStat
		err := row.Scan(&stat.Device, &stat.Visits)
		return stat, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan device stats: %w", err)
	}

	return nonNil(stats), nil
}

func (r *visitRepository) CountByReferrer(ctx context.Context, f models.DateFilter) ([]models.ReferrerStat, error) {
	query, args := r.q.countByReferrer(f)
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrer stats: %w", err)
	}

	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ReferrerStat, error) {
		var stat models.ReferrerStat
		err := row.Scan(&stat.Referrer, &stat.Visits)
		return stat, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan referrer stats: %w", err)
	}

	return nonNil(stats), nil
}

// nonNil пустой результат отдаётся как [], а не null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
