package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps the Prometheus collectors for the screening service.
// Each instance owns its registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Screenings        *prometheus.CounterVec
	ScreeningDuration prometheus.Histogram
	Alerts            *prometheus.CounterVec
	Throttled         *prometheus.CounterVec
	Deliveries        *prometheus.CounterVec
	Patterns          *prometheus.CounterVec
	PendingDispatch   prometheus.Gauge
}

// NewMetrics creates and registers the service collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	ns := "wellbot"

	m := &Metrics{
		registry: reg,
		Screenings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "screenings_total",
			Help:      "Texts screened, by resulting level",
		}, []string{"level"}),
		ScreeningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "screening_duration_seconds",
			Help:      "Time from submission to routed alerts",
			Buckets:   prometheus.DefBuckets,
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "alert_instructions_total",
			Help:      "Alert instructions produced, by level and role",
		}, []string{"level", "role"}),
		Throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "alerts_throttled_total",
			Help:      "Alerting results suppressed by a cooldown",
		}, []string{"level"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "deliveries_total",
			Help:      "Notification deliveries, by channel and status",
		}, []string{"channel", "status"}),
		Patterns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "patterns_detected_total",
			Help:      "Behavioral patterns detected in user history",
		}, []string{"type"}),
		PendingDispatch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "pending_dispatch",
			Help:      "Dispatch jobs currently in flight",
		}),
	}

	reg.MustRegister(m.Screenings, m.ScreeningDuration, m.Alerts, m.Throttled, m.Deliveries, m.Patterns, m.PendingDispatch)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) delivery(channel string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.Deliveries.WithLabelValues(channel, status).Inc()
}
