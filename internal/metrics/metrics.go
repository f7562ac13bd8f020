package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "aveirobus"

const (
	SubsystemAPI      = "api"
	SubsystemUpstream = "upstream"
)

// Upstream outcomes
const (
	OutcomeOK     = "ok"
	OutcomeStatus = "status"
	OutcomeError  = "error"
)

type Metricer interface {
	RecordUpstream(service, outcome string, elapsed time.Duration)
	RecordRequest(route string, code int, elapsed time.Duration)
}

type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	APIRequests      *prometheus.CounterVec
	APILatency       *prometheus.HistogramVec

	registry *prometheus.Registry
}

var _ Metricer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	return &Metrics{
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "requests_total",
			Help:      "Number of calls to vendor web services by outcome",
			Namespace: metricsNamespace,
			Subsystem: SubsystemUpstream,
		}, []string{"service", "outcome"}),

		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "request_duration_seconds",
			Help:      "Latency of vendor web service calls",
			Namespace: metricsNamespace,
			Subsystem: SubsystemUpstream,
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),

		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "requests_total",
			Help:      "Number of API requests by route template and status code",
			Namespace: metricsNamespace,
			Subsystem: SubsystemAPI,
		}, []string{"route", "code"}),

		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests by route template",
			Namespace: metricsNamespace,
			Subsystem: SubsystemAPI,
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		registry: registry,
	}
}

func (m *Metrics) RecordUpstream(service, outcome string, elapsed time.Duration) {
	m.UpstreamRequests.WithLabelValues(service, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordRequest(route string, code int, elapsed time.Duration) {
	m.APIRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.APILatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(m.registry, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

type noop struct{}

// Noop discards every observation.
var Noop Metricer = noop{}

func (noop) RecordUpstream(string, string, time.Duration) {}
func (noop) RecordRequest(string, int, time.Duration)     {}
