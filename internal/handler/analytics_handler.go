package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  *zap.Logger
}

func NewAnalyticsHandler(service service.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

// dateFilter разбирает start_date/end_date из query
func (h *AnalyticsHandler) dateFilter(c *gin.Context) (models.DateFilter, bool) {
	f, err := service.ParseDateFilter(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid date range"})
		return models.DateFilter{}, false
	}
	return f, true
}

func (h *AnalyticsHandler) storeError(c *gin.Context, op string, err error) {
	if errors.Is(err, service.ErrInvalidDateRange) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid date range"})
		return
	}
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

// GetAnalytics godoc
// @Summary Basic visit summary
// @Description Distinct visitors, total time, visits per country and per month
// @Tags analytics
// @Produce json
// @Param start_date query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param end_date query string false "Range end (RFC3339 or YYYY-MM-DD, whole day)"
// @Success 200 {object} models.Summary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analytics [get]
func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	f, ok := h.dateFilter(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), f)
	if err != nil {
		h.storeError(c, "Failed to get summary", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetExtendedAnalytics godoc
// @Summary Extended visit summary
// @Description Totals, averages, bounce rate, visits per device and per referrer
// @Tags analytics
// @Produce json
// @Param start_date query string false "Range start (RFC3339 or YYYY-MM-DD)"
// @Param end_date query string false "Range end (RFC3339 or YYYY-MM-DD, whole day)"
// @Success 200 {object} models.ExtendedSummary
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /extended-analytics [get]
func (h *AnalyticsHandler) GetExtendedAnalytics(c *gin.Context) {
	f, ok := h.dateFilter(c)
	if !ok {
		return
	}

	summary, err := h.service.ExtendedSummary(c.Request.Context(), f)
	if err != nil {
		h.storeError(c, "Failed to get extended summary", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetActionsRank godoc
// @Summary Most clicked elements
// @Description Actions grouped by element over the whole history. Date parameters are ignored.
// @Tags analytics
// @Produce json
// @Success 200 {array} models.ElementRank
// @Failure 500 {object} ErrorResponse
// @Router /actions-rank [get]
func (h *AnalyticsHandler) GetActionsRank(c *gin.Context) {
	ranks, err := h.service.ActionRanking(c.Request.Context())
	if err != nil {
		h.storeError(c, "Failed to get actions rank", err)
		return
	}

	c.JSON(http.StatusOK, ranks)
}
