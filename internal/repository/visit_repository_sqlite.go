package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"gorm.io/gorm"
)

type sqliteVisitRepository struct {
	db *SQLiteDB
	q  queries
}

func NewSQLiteVisitRepository(db *SQLiteDB) VisitRepository {
	return &sqliteVisitRepository{db: db, q: queries{d: sqliteDialect}}
}

func (r *sqliteVisitRepository) Create(ctx context.Context, visit *models.Visit) error {
	if err := r.db.DB.WithContext(ctx).Create(visit).Error; err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

func (r *sqliteVisitRepository) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	var visit models.Visit
	err := r.db.DB.WithContext(ctx).First(&visit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVisitNotFound
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return &visit, nil
}

func (r *sqliteVisitRepository) UpdateDuration(ctx context.Context, visitID, duration int64) (int64, error) {
	query, args := r.q.updateDurationByID(visitID, duration)
	return r.exec(ctx, "failed to update duration", query, args)
}

func (r *sqliteVisitRepository) UpdateLatestDuration(ctx context.Context, sessionID string, duration int64) (int64, error) {
	query, args := r.q.updateLatestDuration(sessionID, duration)
	return r.exec(ctx, "failed to update duration", query, args)
}

func (r *sqliteVisitRepository) exec(ctx context.Context, msg, query string, args []any) (int64, error) {
	result := r.db.DB.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return 0, fmt.Errorf("%s: %w", msg, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *sqliteVisitRepository) CountByCountry(ctx context.Context, f models.DateFilter) ([]models.CountryStat, error) {
	query, args := r.q.countByCountry(f)
	stats := []models.CountryStat{}
	if err := r.db.DB.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to get country stats: %w", err)
	}
	return stats, nil
}

func (r *sqliteVisitRepository) CountDistinctSessions(ctx context.Context, f models.DateFilter) (int64, error) {
	query, args := r.q.countDistinctSessions(f)
	return r.scalar(ctx, "failed to count visitors", query, args)
}

func (r *sqliteVisitRepository) SumDuration(ctx context.Context, f models.DateFilter) (int64, error) {
	query, args := r.q.sumDuration(f)
	return r.scalar(ctx, "failed to sum duration", query, args)
}

func (r *sqliteVisitRepository) CountBounces(ctx context.Context, f models.DateFilter, thresholdMs int64) (int64, error) {
	query, args := r.q.countBounces(f, thresholdMs)
	return r.scalar(ctx, "failed to count bounces", query, args)
}

func (r *sqliteVisitRepository) scalar(ctx context.Context, msg, query string, args []any) (int64, error) {
	var value int64
	if err := r.db.DB.WithContext(ctx).Raw(query, args...).Row().Scan(&value); err != nil {
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	return value, nil
}

func (r *sqliteVisitRepository) CountByMonth(ctx context.Context, f models.DateFilter) ([]models.MonthlyStat, error) {
	query, args := r.q.countByMonth(f)
	stats := []models.MonthlyStat{}
	if err := r.db.DB.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to get monthly stats: %w", err)
	}
	return stats, nil
}

func (r *sqliteVisitRepository) Totals(ctx context.Context, f models.DateFilter) (*models.VisitTotals, error) {
	query, args := r.q.totals(f)

	totals := &models.VisitTotals{}
	err := r.db.DB.WithContext(ctx).Raw(query, args...).Row().Scan(
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

func (r *sqliteVisitRepository) CountByDevice(ctx context.Context, f models.DateFilter) ([]models.DeviceStat, error) {
	query, args := r.q.countByDevice(f)
	stats := []models.DeviceStat{}
	if err := r.db.DB.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to get device stats: %w", err)
	}
	return stats, nil
}

func (r *sqliteVisitRepository) CountByReferrer(ctx context.Context, f models.DateFilter) ([]models.ReferrerStat, error) {
	query, args := r.q.countByReferrer(f)
	stats := []models.ReferrerStat{}
	if err := r.db.DB.WithContext(ctx).Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to get referrer stats: %w", err)
	}
	return stats, nil
}
