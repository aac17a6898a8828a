package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики коллектора, отдаются на /metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "route"},
	)

	EventsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_events_total",
			Help: "Total number of accepted tracking beacons",
		},
		[]string{"kind"}, // visit, action, duration
	)

	DurationUnmatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_duration_unmatched_total",
			Help: "Duration beacons that matched no visit",
		},
	)

	GeoCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_cache_lookups_total",
			Help: "Geo cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	ReportsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "daily_reports_total",
			Help: "Daily summary reports by result",
		},
		[]string{"result"}, // success, failure
	)
)

const (
	EventVisit    = "visit"
	EventAction   = "action"
	EventDuration = "duration"
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordEvent(kind string) {
	EventsTracked.WithLabelValues(kind).Inc()
}

func RecordGeoCache(result string) {
	GeoCacheLookups.WithLabelValues(result).Inc()
}

func RecordReport(err error) {
	if err != nil {
		ReportsSent.WithLabelValues("failure").Inc()
		return
	}
	ReportsSent.WithLabelValues("success").Inc()
}
