package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/SergeiKhy/visitor-analytics/internal/metrics"
	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// maxBeaconSize ограничение на размер тела beacon'а
const maxBeaconSize = 64 << 10

var errInvalidJSON = errors.New("invalid json")

type TrackingHandler struct {
	service service.TrackingService
	logger  *zap.Logger
}

func NewTrackingHandler(service service.TrackingService, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type TrackVisitRequest struct {
	SessionID string   `json:"session_id"`
	Page      string   `json:"page"`
	UserAgent *string  `json:"user_agent"`
	Referrer  *string  `json:"referrer"`
	Device    *string  `json:"device"`
	LoadTime  *float64 `json:"load_time"`
}

type TrackVisitResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	VisitID   int64  `json:"visit_id"`
}

type TrackActionRequest struct {
	SessionID    string  `json:"session_id"`
	Action       string  `json:"action"`
	Element      string  `json:"element"`
	ElementID    *string `json:"element_id"`
	ElementClass *string `json:"element_class"`
}

type TrackDurationRequest struct {
	VisitID   *int64   `json:"visit_id"`
	SessionID string   `json:"session_id"`
	Duration  *float64 `json:"duration"`
}

type TrackResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// decodeBeacon читает тело как текст и разбирает JSON независимо от Content-Type:
// sendBeacon отправляет text/plain. Invalid JSON только для тела, которое не
// является JSON; корректный JSON не той формы считается отсутствием полей.
func decodeBeacon(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBeaconSize))
	if err != nil {
		return errInvalidJSON
	}
	if !json.Valid(body) {
		return errInvalidJSON
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return service.ErrMissingFields
	}

	// тело уже валидно: ошибка разбора означает поле не того типа
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrMissingFields, err)
	}
	return nil
}

// writeError переводит ошибку в HTTP ответ: 400 для ошибок клиента, иначе 500
func (h *TrackingHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, errInvalidJSON):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON"})
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing required fields"})
	default:
		h.logger.Error(op, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// roundMs округляет миллисекунды из браузера (performance.now даёт дробные значения)
func roundMs(v *float64) *int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	ms := int64(math.Round(*v))
	return &ms
}

// TrackVisit godoc
// @Summary Track a page view
// @Description Record a visit with server-side geolocation. Duration starts at 0.
// @Tags tracking
// @Accept plain
// @Produce json
// @Param request body TrackVisitRequest true "Visit beacon"
// @Success 200 {object} TrackVisitResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /track-visit [post]
func (h *TrackingHandler) TrackVisit(c *gin.Context) {
	var req TrackVisitRequest
	if err := decodeBeacon(c, &req); err != nil {
		h.writeError(c, "Failed to decode visit", err)
		return
	}

	visit, err := h.service.TrackVisit(c.Request.Context(), &models.VisitInput{
		SessionID: req.SessionID,
		Page:      req.Page,
		UserAgent: req.UserAgent,
		Referrer:  req.Referrer,
		Device:    req.Device,
		LoadTime:  roundMs(req.LoadTime),
		ClientIP:  c.ClientIP(),
	})
	if err != nil {
		h.writeError(c, "Error inserting visit", err)
		return
	}

	metrics.RecordEvent(metrics.EventVisit)
	c.JSON(http.StatusOK, TrackVisitResponse{
		Message:   "Visit tracked successfully",
		SessionID: visit.SessionID,
		VisitID:   visit.ID,
	})
}

// TrackAction godoc
// @Summary Track a user action
// @Description Record an interaction such as a click. Not checked against existing visits.
// @Tags tracking
// @Accept plain
// @Produce json
// @Param request body TrackActionRequest true "Action beacon"
// @Success 200 {object} TrackResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /track-action [post]
func (h *TrackingHandler) TrackAction(c *gin.Context) {
	var req TrackActionRequest
	if err := decodeBeacon(c, &req); err != nil {
		h.writeError(c, "Failed to decode action", err)
		return
	}

	action, err := h.service.TrackAction(c.Request.Context(), &models.ActionInput{
		SessionID:    req.SessionID,
		Action:       req.Action,
		Element:      req.Element,
		ElementID:    req.ElementID,
		ElementClass: req.ElementClass,
	})
	if err != nil {
		h.writeError(c, "Error inserting action", err)
		return
	}

	metrics.RecordEvent(metrics.EventAction)
	c.JSON(http.StatusOK, TrackResponse{
		Message:   "Action tracked successfully",
		SessionID: action.SessionID,
	})
}

// TrackDuration godoc
// @Summary Track time on page
// @Description Set the duration of a visit by visit_id, or of the latest visit of the session.
// @Description Succeeds even when nothing matches.
// @Tags tracking
// @Accept plain
// @Produce json
// @Param request body TrackDurationRequest true "Duration beacon"
// @Success 200 {object} TrackResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /track-duration [post]
func (h *TrackingHandler) TrackDuration(c *gin.Context) {
	var req TrackDurationRequest
	if err := decodeBeacon(c, &req); err != nil {
		h.writeError(c, "Failed to decode duration", err)
		return
	}

	affected, err := h.service.TrackDuration(c.Request.Context(), &models.DurationInput{
		VisitID:   req.VisitID,
		SessionID: req.SessionID,
		Duration:  roundMs(req.Duration),
	})
	if err != nil {
		h.writeError(c, "Error updating duration", err)
		return
	}

	metrics.RecordEvent(metrics.EventDuration)
	if affected == 0 {
		metrics.DurationUnmatched.Inc()
	}

	c.JSON(http.StatusOK, TrackResponse{
		Message:   "Duration tracked successfully",
		SessionID: req.SessionID,
	})
}
