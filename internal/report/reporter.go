package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/visitor-analytics/internal/metrics"
	"github.com/SergeiKhy/visitor-analytics/internal/models"
	"github.com/SergeiKhy/visitor-analytics/internal/service"
	"github.com/pariz/gountries"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// Schedule ежедневно в 04:35 по времени сервера
	Schedule = "35 4 * * *"

	Subject            = "Daily Summary Report"
	HighBounceAlert    = "Alert: High Bounce Rate detected!"
	highBounceRate     = 50.0
	topCountriesInMail = 5
	runTimeout         = 2 * time.Minute
)

// Reporter раз в сутки отправляет сводку по всей истории визитов
type Reporter struct {
	analytics service.AnalyticsService
	mailer    Mailer
	from      string
	to        string
	logger    *zap.Logger
	countries *gountries.Query
	cron      *cron.Cron
}

func NewReporter(analytics service.AnalyticsService, mailer Mailer, from, to string, logger *zap.Logger) *Reporter {
	return &Reporter{
		analytics: analytics,
		mailer:    mailer,
		from:      from,
		to:        to,
		logger:    logger,
		countries: gountries.New(),
	}
}

// Start регистрирует задачу в планировщике
func (r *Reporter) Start() error {
	r.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := r.cron.AddFunc(Schedule, r.run); err != nil {
		return fmt.Errorf("failed to schedule daily report: %w", err)
	}

	r.cron.Start()
	r.logger.Info("Daily report scheduled", zap.String("schedule", Schedule), zap.String("recipient", r.to))
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущей отправки
func (r *Reporter) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info("Daily report scheduler stopped")
}

// run вызывается планировщиком. Ошибки только логируются.
func (r *Reporter) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	r.logger.Info("Running daily summary email job")
	err := r.RunOnce(ctx)
	metrics.RecordReport(err)
	if err != nil {
		r.logger.Error("Failed to send daily summary", zap.Error(err))
		return
	}
	r.logger.Info("Daily summary email sent", zap.String("recipient", r.to))
}

// RunOnce собирает статистику без фильтра по датам и отправляет письмо
func (r *Reporter) RunOnce(ctx context.Context) error {
	all := models.DateFilter{}

	summary, err := r.analytics.Summary(ctx, all)
	if err != nil {
		return fmt.Errorf("failed to fetch summary: %w", err)
	}

	extended, err := r.analytics.ExtendedSummary(ctx, all)
	if err != nil {
		return fmt.Errorf("failed to fetch bounce data: %w", err)
	}

	msg := Message{
		From:    r.from,
		To:      r.to,
		Subject: Subject,
		Body:    r.FormatReport(summary, extended),
	}

	if err := r.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}
	return nil
}

// FormatReport текст письма. Строка с предупреждением добавляется при bounce rate > 50%.
func (r *Reporter) FormatReport(summary *models.Summary, extended *models.ExtendedSummary) string {
	var b strings.Builder

	b.WriteString("Daily Summary Report:\n")
	fmt.Fprintf(&b, "Total Visitors: %d\n", summary.TotalVisitors)
	fmt.Fprintf(&b, "Total Visits: %d\n", extended.TotalVisits)
	fmt.Fprintf(&b, "Total Time Spent: %d ms\n", extended.TotalTimeSpent)
	fmt.Fprintf(&b, "Average Duration: %.2f ms\n", extended.AverageDuration)
	fmt.Fprintf(&b, "Average Load Time: %.2f ms\n", extended.AverageLoadTime)
	fmt.Fprintf(&b, "Bounce Rate: %.2f%%\n", extended.BounceRate)

	if len(summary.CountryStats) > 0 {
		b.WriteString("Top Countries:\n")
		for i, stat := range summary.CountryStats {
			if i == topCountriesInMail {
				break
			}
			fmt.Fprintf(&b, "  %s: %d\n", r.countryName(stat.Country), stat.Visits)
		}
	}

	if extended.BounceRate > highBounceRate {
		b.WriteString(HighBounceAlert + "\n")
	}

	return b.String()
}

func (r *Reporter) countryName(code string) string {
	country, err := r.countries.FindCountryByAlpha(code)
	if err != nil {
		return code
	}
	return fmt.Sprintf("%s (%s)", country.Name.Common, code)
}
