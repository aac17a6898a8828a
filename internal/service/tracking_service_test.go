package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/SergeiKhy/visitor-analytics/internal/geo"
	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/service"
	"github.com/SergeiKhy/visitor-analytics/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTrackingService создаёт тестовое окружение с моковыми репозиториями
func setupTrackingService() (service.TrackingService, *mocks.MockVisitRepository, *mocks.MockActionRepository, *mocks.MockLocator) {
	visitRepo := mocks.NewMockVisitRepository()
	actionRepo := mocks.NewMockActionRepository()
	locator := mocks.NewMockLocator(models.Location{Country: "US", City: "Mountain View", ISP: "Google LLC"})
	logger, _ := zap.NewDevelopment()
	return service.NewTrackingService(visitRepo, actionRepo, locator, logger), visitRepo, actionRepo, locator
}

func ptr[T any](v T) *T {
	return &v
}

// TestTrackingService_TrackVisit_Success проверяет запись визита с геолокацией
func TestTrackingService_TrackVisit_Success(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()
	ctx := context.Background()

	visit, err := svc.TrackVisit(ctx, &models.VisitInput{
		SessionID: "s1",
		Page:      "/home",
		UserAgent: ptr("Mozilla/5.0"),
		Device:    ptr("Desktop"),
		LoadTime:  ptr(int64(320)),
		ClientIP:  "203.0.113.7",
	})

	require.NoError(t, err)
	assert.NotZero(t, visit.ID)
	assert.Equal(t, int64(0), visit.Duration)
	assert.Equal(t, "US", visit.Country)
	assert.Equal(t, "Mountain View", visit.City)
	assert.Equal(t, "Google LLC", visit.ISP)
	assert.Equal(t, "203.0.113.7", visit.UserIP)
	assert.Nil(t, visit.Referrer)
	assert.False(t, visit.Timestamp.IsZero())

	stored, err := visitRepo.GetByID(ctx, visit.ID)
	require.NoError(t, err)
	assert.Equal(t, "/home", stored.Page)
	assert.Equal(t, int64(320), *stored.LoadTime)
}

// TestTrackingService_TrackVisit_LoopbackReplaced проверяет подстановку адреса для loopback
func TestTrackingService_TrackVisit_LoopbackReplaced(t *testing.T) {
	svc, _, _, locator := setupTrackingService()

	visit, err := svc.TrackVisit(context.Background(), &models.VisitInput{
		SessionID: "s1",
		Page:      "/",
		ClientIP:  "127.0.0.1",
	})

	require.NoError(t, err)
	assert.Equal(t, geo.PlaceholderAddress, visit.UserIP)
	assert.Equal(t, geo.PlaceholderAddress, locator.LastLookup())
}

// TestTrackingService_TrackVisit_MissingFields проверяет отклонение неполного визита
func TestTrackingService_TrackVisit_MissingFields(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()

	inputs := []*models.VisitInput{
		{SessionID: "", Page: "/home"},
		{SessionID: "s1", Page: ""},
		{SessionID: "   ", Page: "/home"},
	}

	for _, input := range inputs {
		_, err := svc.TrackVisit(context.Background(), input)
		assert.ErrorIs(t, err, service.ErrMissingFields)
	}
	assert.NotContains(t, visitRepo.Calls, "Create")
}

// TestTrackingService_TrackVisit_StorageError проверяет проброс ошибки хранилища
func TestTrackingService_TrackVisit_StorageError(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()
	visitRepo.FailOn["Create"] = errors.New("disk full")

	_, err := svc.TrackVisit(context.Background(), &models.VisitInput{SessionID: "s1", Page: "/"})

	require.Error(t, err)
	assert.False(t, service.IsBadRequest(err))
}

// TestTrackingService_TrackAction проверяет запись действия без визита
func TestTrackingService_TrackAction(t *testing.T) {
	svc, _, actionRepo, _ := setupTrackingService()

	action, err := svc.TrackAction(context.Background(), &models.ActionInput{
		SessionID: "unknown-session",
		Action:    "click",
		Element:   "BUTTON",
		ElementID: ptr("cta"),
	})

	require.NoError(t, err)
	assert.NotZero(t, action.ID)
	assert.Equal(t, "cta", *action.ElementID)
	assert.Nil(t, action.ElementClass)
	assert.Equal(t, 1, actionRepo.Count())
}

// TestTrackingService_TrackAction_MissingFields проверяет обязательные поля действия
func TestTrackingService_TrackAction_MissingFields(t *testing.T) {
	svc, _, actionRepo, _ := setupTrackingService()

	inputs := []*models.ActionInput{
		{Action: "click", Element: "A"},
		{SessionID: "s1", Element: "A"},
		{SessionID: "s1", Action: "click"},
	}

	for _, input := range inputs {
		_, err := svc.TrackAction(context.Background(), input)
		assert.ErrorIs(t, err, service.ErrMissingFields)
	}
	assert.Equal(t, 0, actionRepo.Count())
}

// TestTrackingService_TrackDuration_ByVisitID проверяет обновление конкретного визита
func TestTrackingService_TrackDuration_ByVisitID(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()
	ctx := context.Background()

	first, err := svc.TrackVisit(ctx, &models.VisitInput{SessionID: "s1", Page: "/a"})
	require.NoError(t, err)
	_, err = svc.TrackVisit(ctx, &models.VisitInput{SessionID: "s1", Page: "/b"})
	require.NoError(t, err)

	affected, err := svc.TrackDuration(ctx, &models.DurationInput{VisitID: ptr(first.ID), Duration: ptr(int64(4200))})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	stored, err := visitRepo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4200), stored.Duration)
}

// TestTrackingService_TrackDuration_LatestInSession проверяет обновление последнего визита сессии
func TestTrackingService_TrackDuration_LatestInSession(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()
	ctx := context.Background()

	first, err := svc.TrackVisit(ctx, &models.VisitInput{SessionID: "s1", Page: "/a"})
	require.NoError(t, err)
	second, err := svc.TrackVisit(ctx, &models.VisitInput{SessionID: "s1", Page: "/b"})
	require.NoError(t, err)

	affected, err := svc.TrackDuration(ctx, &models.DurationInput{SessionID: "s1", Duration: ptr(int64(15000))})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	v1, _ := visitRepo.GetByID(ctx, first.ID)
	v2, _ := visitRepo.GetByID(ctx, second.ID)
	assert.Equal(t, int64(0), v1.Duration)
	assert.Equal(t, int64(15000), v2.Duration)
}

// TestTrackingService_TrackDuration_ZeroVisitIDFallsBack проверяет, что visit_id = 0 не используется
func TestTrackingService_TrackDuration_ZeroVisitIDFallsBack(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()
	ctx := context.Background()

	visit, err := svc.TrackVisit(ctx, &models.VisitInput{SessionID: "s1", Page: "/a"})
	require.NoError(t, err)

	affected, err := svc.TrackDuration(ctx, &models.DurationInput{VisitID: ptr(int64(0)), SessionID: "s1", Duration: ptr(int64(900))})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.Contains(t, visitRepo.Calls, "UpdateLatestDuration")

	stored, _ := visitRepo.GetByID(ctx, visit.ID)
	assert.Equal(t, int64(900), stored.Duration)
}

// TestTrackingService_TrackDuration_NoMatch проверяет, что отсутствие визита не ошибка
func TestTrackingService_TrackDuration_NoMatch(t *testing.T) {
	svc, _, _, _ := setupTrackingService()

	affected, err := svc.TrackDuration(context.Background(), &models.DurationInput{SessionID: "ghost", Duration: ptr(int64(100))})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	affected, err = svc.TrackDuration(context.Background(), &models.DurationInput{VisitID: ptr(int64(999)), Duration: ptr(int64(100))})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

// TestTrackingService_TrackDuration_WithoutIDs beacon без visit_id и session_id принимается без обновлений
func TestTrackingService_TrackDuration_WithoutIDs(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()
	ctx := context.Background()

	visit, err := svc.TrackVisit(ctx, &models.VisitInput{SessionID: "s1", Page: "/a"})
	require.NoError(t, err)

	inputs := []*models.DurationInput{
		{Duration: ptr(int64(100))},
		{VisitID: ptr(int64(0)), SessionID: "  ", Duration: ptr(int64(100))},
	}
	for _, input := range inputs {
		affected, err := svc.TrackDuration(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	}

	stored, _ := visitRepo.GetByID(ctx, visit.ID)
	assert.Equal(t, int64(0), stored.Duration)
	assert.NotContains(t, visitRepo.Calls, "UpdateDuration")
	assert.NotContains(t, visitRepo.Calls, "UpdateLatestDuration")
}

// TestTrackingService_TrackDuration_NegativeClamped проверяет, что длительность не бывает отрицательной
func TestTrackingService_TrackDuration_NegativeClamped(t *testing.T) {
	svc, visitRepo, _, _ := setupTrackingService()
	ctx := context.Background()

	visit, err := svc.TrackVisit(ctx, &models.VisitInput{SessionID: "s1", Page: "/a"})
	require.NoError(t, err)

	_, err = svc.TrackDuration(ctx, &models.DurationInput{VisitID: ptr(visit.ID), Duration: ptr(int64(-50))})
	require.NoError(t, err)

	stored, _ := visitRepo.GetByID(ctx, visit.ID)
	assert.Equal(t, int64(0), stored.Duration)
}

// TestTrackingService_TrackDuration_MissingFields проверяет обязательные поля
func TestTrackingService_TrackDuration_MissingFields(t *testing.T) {
	svc, _, _, _ := setupTrackingService()

	inputs := []*models.DurationInput{
		{SessionID: "s1"},
		{VisitID: ptr(int64(7))},
	}

	for _, input := range inputs {
		_, err := svc.TrackDuration(context.Background(), input)
		assert.ErrorIs(t, err, service.ErrMissingFields)
	}
}
