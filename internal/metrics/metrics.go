package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aklny"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry       *prometheus.Registry
	authEvents     *prometheus.CounterVec
	emailFailures  prometheus.Counter
	socketsOpen    prometheus.Gauge
	socketMessages *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication events by operation and outcome.",
		}, []string{"operation", "outcome"}),
		emailFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_delivery_failures_total",
			Help:      "Emails that could not be handed to the mail transport.",
		}),
		socketsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "socket_connections_open",
			Help:      "Currently open realtime connections.",
		}),
		socketMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_events_total",
			Help:      "Realtime events received by event name.",
		}, []string{"event"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		m.authEvents,
		m.emailFailures,
		m.socketsOpen,
		m.socketMessages,
		m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// AuthEvent counts one authentication operation. outcome is "success" or an error kind.
func (m *Metrics) AuthEvent(operation, outcome string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) EmailFailed() {
	if m == nil {
		return
	}
	m.emailFailures.Inc()
}

func (m *Metrics) SocketOpened() {
	if m == nil {
		return
	}
	m.socketsOpen.Inc()
}

func (m *Metrics) SocketClosed() {
	if m == nil {
		return
	}
	m.socketsOpen.Dec()
}

func (m *Metrics) SocketEvent(event string) {
	if m == nil {
		return
	}
	m.socketMessages.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}
