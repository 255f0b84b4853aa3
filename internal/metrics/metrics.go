package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medtrack/notify/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	NotificationsProcessed *prometheus.CounterVec
	NotificationsFailed    *prometheus.CounterVec
	ProcessingLatency      *prometheus.HistogramVec
	ExpiryAlertsFired      prometheus.Counter
	ExpiryAlertErrors      prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct. queueDepth is sampled on every
// scrape via a GaugeFunc so the scheduler needs no metrics wiring.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer, queueDepth func() float64) *Metrics {
	m := &Metrics{
		NotificationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_processed_total",
			Help: "Total number of consumed notification messages by type and outcome.",
		}, []string{"type", "outcome"}),

		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notification dispatches that failed.",
		}, []string{"type"}),

		ProcessingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_processing_seconds",
			Help:    "Per-message processing latency from receive to result emission.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),

		ExpiryAlertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expiry_alerts_fired_total",
			Help: "Total number of expiry alerts sent by the scheduler worker.",
		}),
		ExpiryAlertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expiry_alert_errors_total",
			Help: "Total number of expiry alert sends that failed and were dropped.",
		}),
	}

	reg.MustRegister(
		m.NotificationsProcessed,
		m.NotificationsFailed,
		m.ProcessingLatency,
		m.ExpiryAlertsFired,
		m.ExpiryAlertErrors,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "expiry_scheduler_queue_depth",
			Help: "Current number of pending expiry tasks in the scheduler.",
		}, queueDepth),
	)

	return m
}

// ConsumerHook returns the metric callback expected by consumer.Hooks.
// Centralises the prometheus observation calls so the consumer package
// stays import-free.
func (m *Metrics) ConsumerHook() func(t domain.NotificationType, success bool, latency time.Duration) {
	return func(t domain.NotificationType, success bool, latency time.Duration) {
		outcome := "success"
		if !success {
			outcome = "failure"
			m.NotificationsFailed.WithLabelValues(string(t)).Inc()
		}
		m.NotificationsProcessed.WithLabelValues(string(t), outcome).Inc()
		m.ProcessingLatency.WithLabelValues(string(t)).Observe(latency.Seconds())
	}
}

// SchedulerHooks returns the callbacks expected by scheduler.Hooks.
func (m *Metrics) SchedulerHooks() (onFired, onSendError func()) {
	return m.ExpiryAlertsFired.Inc, m.ExpiryAlertErrors.Inc
}
