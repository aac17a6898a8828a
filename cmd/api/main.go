package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/config"
	"github.com/SergeiKhy/visitor-analytics/internal/geo"
	"github.com/SergeiKhy/visitor-analytics/internal/handler"
	applog "github.com/SergeiKhy/visitor-analytics/internal/logger"
	"github.com/SergeiKhy/visitor-analytics/internal/middleware"
	"github.com/SergeiKhy/visitor-analytics/internal/report"
	"github.com/SergeiKhy/visitor-analytics/internal/repository"
	"github.com/SergeiKhy/visitor-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := applog.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)

	// Подключение к хранилищу событий
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := repository.OpenStore(ctx, cfg.DB)
	cancel()
	if err != nil {
		logger.Fatal("Failed to open event store", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	defer store.Close()
	logger.Info("Event store ready",
		zap.String("driver", cfg.DB.Driver),
		zap.Bool("actions_reset", cfg.DB.ResetActionsOnStartup),
	)

	// Геолокация
	maxmind, err := geo.NewMaxMindLocator(cfg.GeoIP.CityDBPath, cfg.GeoIP.ASNDBPath, logger)
	if err != nil {
		logger.Fatal("Failed to open GeoIP databases", zap.Error(err))
	}
	defer maxmind.Close()

	var locator geo.Locator = maxmind
	if cfg.Redis.Enabled() {
		redis, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		locator = geo.NewCachedLocator(maxmind, repository.NewGeoCacheRepository(redis), cfg.GeoIP.CacheTTL, logger)
		logger.Info("Connected to Redis, geo cache enabled")
	}

	// Инициализация сервисов
	trackingService := service.NewTrackingService(store.Visits, store.Actions, locator, logger)
	analyticsService := service.NewAnalyticsService(store.Visits, store.Actions)

	// Ежедневный отчёт
	if cfg.Report.Enabled {
		reporter := report.NewReporter(
			analyticsService,
			report.NewSMTPMailer(cfg.Mail),
			cfg.Mail.From,
			cfg.Mail.Recipient,
			logger,
		)
		if err := reporter.Start(); err != nil {
			logger.Fatal("Failed to start reporter", zap.Error(err))
		}
		defer reporter.Stop()
	}

	// Инициализация middleware
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   time.Minute,
	})
	defer rateLimiter.Stop()

	apiKey := middleware.NewAPIKey(cfg.Auth.APIKeys)
	if apiKey.Enabled() {
		logger.Info("API key authentication enabled for analytics", zap.Int("keys_count", len(cfg.Auth.APIKeys)))
	}

	script, err := handler.NewTrackingScript(cfg.App.PublicURL)
	if err != nil {
		logger.Fatal("Failed to build tracking script", zap.Error(err))
	}

	// Настройка роутера
	router := handler.NewRouter(trackingService, analyticsService, script, rateLimiter, apiKey, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port), zap.String("public_url", cfg.App.PublicURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
