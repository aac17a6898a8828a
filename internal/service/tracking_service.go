package service

import (
	"context"
	"strings"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/geo"
	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/repository"
	"go.uber.org/zap"
)

// TrackingService приём beacon'ов: визиты, действия и длительность
type TrackingService interface {
	TrackVisit(ctx context.Context, input *models.VisitInput) (*models.Visit, error)
	TrackAction(ctx context.Context, input *models.ActionInput) (*models.Action, error)
	TrackDuration(ctx context.Context, input *models.DurationInput) (int64, error)
}

type trackingService struct {
	visitRepo  repository.VisitRepository
	actionRepo repository.ActionRepository
	locator    geo.Locator
	logger     *zap.Logger
	now        func() time.Time
}

// NewTrackingService создаёт новый экземпляр сервиса
func NewTrackingService(
	visitRepo repository.VisitRepository,
	actionRepo repository.ActionRepository,
	locator geo.Locator,
	logger *zap.Logger,
) TrackingService {
	return &trackingService{
		visitRepo:  visitRepo,
		actionRepo: actionRepo,
		locator:    locator,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// TrackVisit записывает новый визит с нулевой длительностью
func (s *trackingService) TrackVisit(ctx context.Context, input *models.VisitInput) (*models.Visit, error) {
	if blank(input.SessionID) || blank(input.Page) {
		return nil, ErrMissingFields
	}

	ip := geo.PublicAddress(input.ClientIP)
	loc := s.locator.Lookup(ctx, ip)

	visit := &models.Visit{
		SessionID: input.SessionID,
		Page:      input.Page,
		UserIP:    ip,
		Country:   loc.Country,
		City:      loc.City,
		ISP:       loc.ISP,
		UserAgent: input.UserAgent,
		Device:    input.Device,
		Referrer:  input.Referrer,
		Duration:  0,
		LoadTime:  input.LoadTime,
		Timestamp: s.now(),
	}

	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, err
	}

	s.logger.Debug("Visit tracked",
		zap.Int64("visit_id", visit.ID),
		zap.String("session_id", visit.SessionID),
		zap.String("country", visit.Country),
	)

	return visit, nil
}

// TrackAction записывает действие без проверки существования визита
func (s *trackingService) TrackAction(ctx context.Context, input *models.ActionInput) (*models.Action, error) {
	if blank(input.SessionID) || blank(input.Action) || blank(input.Element) {
		return nil, ErrMissingFields
	}

	action := &models.Action{
		SessionID:    input.SessionID,
		Action:       input.Action,
		Element:      input.Element,
		ElementID:    input.ElementID,
		ElementClass: input.ElementClass,
		Timestamp:    s.now(),
	}

	if err := s.actionRepo.Create(ctx, action); err != nil {
		return nil, err
	}

	return action, nil
}

// TrackDuration обновляет длительность визита по visit_id, а без него -
// последнего визита сессии. Отсутствие подходящей строки не ошибка:
// возвращается 0 обновлённых строк. Beacon без обоих идентификаторов ни с
// чем не совпадает и тоже принимается.
func (s *trackingService) TrackDuration(ctx context.Context, input *models.DurationInput) (int64, error) {
	if input.Duration == nil {
		return 0, ErrMissingFields
	}

	hasVisitID := input.VisitID != nil && *input.VisitID != 0
	if !hasVisitID && blank(input.SessionID) {
		s.logger.Debug("Duration beacon without visit or session id")
		return 0, nil
	}

	duration := *input.Duration
	if duration < 0 {
		duration = 0
	}

	var (
		affected int64
		err      error
	)
	if hasVisitID {
		affected, err = s.visitRepo.UpdateDuration(ctx, *input.VisitID, duration)
	} else {
		affected, err = s.visitRepo.UpdateLatestDuration(ctx, input.SessionID, duration)
	}
	if err != nil {
		return 0, err
	}

	if affected == 0 {
		s.logger.Debug("Duration update matched no visit",
			zap.String("session_id", input.SessionID),
		)
	}

	return affected, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
