package service

import (
	"context"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/repository"
)

// AnalyticsService агрегированная статистика по визитам и действиям
type AnalyticsService interface {
	Summary(ctx context.Context, f models.DateFilter) (*models.Summary, error)
	ExtendedSummary(ctx context.Context, f models.DateFilter) (*models.ExtendedSummary, error)
	ActionRanking(ctx context.Context) ([]models.ElementRank, error)
}

// analyticsService выполняет подзапросы последовательно, без общего снапшота:
// при параллельной записи разные подзапросы могут увидеть немного разные данные
type analyticsService struct {
	visitRepo  repository.VisitRepository
	actionRepo repository.ActionRepository
}

// NewAnalyticsService создаёт новый экземпляр сервиса
func NewAnalyticsService(visitRepo repository.VisitRepository, actionRepo repository.ActionRepository) AnalyticsService {
	return &analyticsService{
		visitRepo:  visitRepo,
		actionRepo: actionRepo,
	}
}

// Summary базовая статистика. Первая ошибка прерывает агрегацию.
func (s *analyticsService) Summary(ctx context.Context, f models.DateFilter) (*models.Summary, error) {
	countries, err := s.visitRepo.CountByCountry(ctx, f)
	if err != nil {
		return nil, err
	}

	visitors, err := s.visitRepo.CountDistinctSessions(ctx, f)
	if err != nil {
		return nil, err
	}

	totalTime, err := s.visitRepo.SumDuration(ctx, f)
	if err != nil {
		return nil, err
	}

	months, err := s.visitRepo.CountByMonth(ctx, f)
	if err != nil {
		return nil, err
	}

	return &models.Summary{
		TotalVisitors:  visitors,
		TotalTimeSpent: totalTime,
		CountryStats:   orEmpty(countries),
		MonthlyStats:   orEmpty(months),
	}, nil
}

// ExtendedSummary расширенная статистика с показателем отказов
func (s *analyticsService) ExtendedSummary(ctx context.Context, f models.DateFilter) (*models.ExtendedSummary, error) {
	totals, err := s.visitRepo.Totals(ctx, f)
	if err != nil {
		return nil, err
	}

	bounces, err := s.visitRepo.CountBounces(ctx, f, models.BounceThresholdMs)
	if err != nil {
		return nil, err
	}

	devices, err := s.visitRepo.CountByDevice(ctx, f)
	if err != nil {
		return nil, err
	}

	referrers, err := s.visitRepo.CountByReferrer(ctx, f)
	if err != nil {
		return nil, err
	}

	return &models.ExtendedSummary{
		TotalVisits:     totals.TotalVisits,
		TotalTimeSpent:  totals.TotalTime,
		AverageDuration: totals.AvgDuration,
		AverageLoadTime: totals.AvgLoadTime,
		BounceRate:      BounceRate(bounces, totals.TotalVisits),
		DeviceStats:     orEmpty(devices),
		ReferrerStats:   orEmpty(referrers),
	}, nil
}

// ActionRanking рейтинг элементов по числу действий за всю историю
func (s *analyticsService) ActionRanking(ctx context.Context) ([]models.ElementRank, error) {
	ranks, err := s.actionRepo.RankByElement(ctx)
	if err != nil {
		return nil, err
	}
	return orEmpty(ranks), nil
}

// BounceRate процент отказов; 0 при отсутствии визитов
func BounceRate(bounces, total int64) float64 {
	if total <= 0 {
		return 0
	}
	rate := float64(bounces) / float64(total) * 100
	if rate > 100 {
		return 100
	}
	return rate
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
