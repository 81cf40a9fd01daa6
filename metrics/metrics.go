// Package metrics provides Prometheus metrics for the editor backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editorshell_commands_total",
			Help: "Total number of frontend commands handled",
		},
		[]string{"service", "action", "result"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "editorshell_command_duration_seconds",
			Help:    "Frontend command duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "action"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "editorshell_sessions_active",
			Help: "Number of connected frontend sessions",
		},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "editorshell_notifications_total",
			Help: "Total number of notifications published to frontends",
		},
		[]string{"event"},
	)
)

// RecordResult counts one command reply.
func RecordResult(service, action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	commandsTotal.WithLabelValues(service, action, result).Inc()
}

func RecordDuration(service, action string, d time.Duration) {
	commandDuration.WithLabelValues(service, action).Observe(d.Seconds())
}

func SessionOpened() { sessionsActive.Inc() }
func SessionClosed() { sessionsActive.Dec() }

func RecordNotification(event string) {
	notificationsTotal.WithLabelValues(event).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
