package handler

import (
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/middleware"
	"github.com/SergeiKhy/visitor-analytics/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(
	trackingService service.TrackingService,
	analyticsService service.AnalyticsService,
	script *TrackingScript,
	rateLimiter *middleware.RateLimiter,
	apiKey *middleware.APIKey,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SecurityHeaders())

	// Beacon'ы приходят с любых сайтов, куда встроен tracking.js
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", middleware.APIKeyHeader, "Authorization"},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/tracking.js", script.Serve)

	// Rate limiting для beacon'ов и статистики
	limited := router.Group("/")
	limited.Use(rateLimiter.Middleware())

	trackingHandler := NewTrackingHandler(trackingService, logger)
	limited.POST("/track-visit", trackingHandler.TrackVisit)
	limited.POST("/track-action", trackingHandler.TrackAction)
	limited.POST("/track-duration", trackingHandler.TrackDuration)

	// Чтение статистики закрывается API ключом, если ключи заданы
	analyticsHandler := NewAnalyticsHandler(analyticsService, logger)
	stats := limited.Group("/")
	stats.Use(apiKey.Middleware())
	{
		stats.GET("/analytics", analyticsHandler.GetAnalytics)
		stats.GET("/extended-analytics", analyticsHandler.GetExtendedAnalytics)
		stats.GET("/actions-rank", analyticsHandler.GetActionsRank)
	}

	return router
}
