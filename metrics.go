package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "weather"
)

// Results of an upstream icon fetch.
const (
	fetchOK     = "ok"
	fetchError  = "error"
	fetchStatus = "status"
	fetchEmpty  = "empty"
)

type metrics struct {
	registry *prometheus.Registry

	iconHits      prometheus.Counter
	iconMisses    prometheus.Counter
	iconFetches   *prometheus.CounterVec
	weatherCalls  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

func newMetrics(icons IconCacher) *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "icon", "cache_entries"),
			Help: "Number of weather icons held in memory",
		},
		func() float64 { return float64(icons.Len()) },
	)

	return &metrics{
		registry: registry,
		iconHits: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "icon", "cache_hits_total"),
			Help: "Icon requests answered from memory",
		}),
		iconMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "icon", "cache_misses_total"),
			Help: "Icon requests that had to go upstream",
		}),
		iconFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "icon", "upstream_fetches_total"),
			Help: "Upstream icon fetches by result",
		}, []string{"result"}),
		weatherCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "api", "requests_total"),
			Help: "Upstream weather queries by relayed status code",
		}, []string{"status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "http", "requests_total"),
			Help: "Inbound HTTP requests by handler and status code",
		}, []string{"handler", "code"}),
		httpDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(namespace, "http", "request_duration_seconds"),
			Help:    "Inbound HTTP request duration by handler",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
	}
}

// instrument wraps h with the request counter and duration histogram for name.
func (m *metrics) instrument(name string, h http.Handler) http.Handler {
	labels := prometheus.Labels{"handler": name}
	return promhttp.InstrumentHandlerDuration(
		m.httpDurations.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.httpRequests.MustCurryWith(labels), h),
	)
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
