// Package metrics registers the prometheus collectors shared by the router
// and the page assembler.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics holds all edge renderer collectors.
type Metrics struct {
	RequestTotal    *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
	CacheEvents     *prometheus.CounterVec
	FallbackTotal   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
}

var (
	global *Metrics
	once   sync.Once
)

// New returns the process-wide Metrics instance, registering collectors on
// first use. Re-registration conflicts resolve to the existing collector so
// tests can construct routers repeatedly.
func New() *Metrics {
	once.Do(func() {
		m := &Metrics{
			RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fiddl",
				Subsystem: "edge",
				Name:      "http_requests_total",
				Help:      "Count of processed HTTP requests",
			}, []string{"method", "route", "status"}),
			RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "fiddl",
				Subsystem: "edge",
				Name:      "http_request_duration_seconds",
				Help:      "Latency distribution of HTTP handlers",
				Buckets:   histogramBuckets,
			}, []string{"method", "route", "status"}),
			CacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fiddl",
				Subsystem: "edge",
				Name:      "page_cache_events_total",
				Help:      "Page cache hits and misses by namespace",
			}, []string{"namespace", "event"}),
			FallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fiddl",
				Subsystem: "edge",
				Name:      "fallback_total",
				Help:      "Render failures degraded to passthrough or empty responses",
			}, []string{"route", "stage"}),
			UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "fiddl",
				Subsystem: "edge",
				Name:      "upstream_request_duration_seconds",
				Help:      "Latency of origin shell and data API calls",
				Buckets:   histogramBuckets,
			}, []string{"target"}),
		}
		collectors := []prometheus.Collector{
			m.RequestTotal, m.RequestLatency, m.CacheEvents, m.FallbackTotal, m.UpstreamLatency,
		}
		for _, collector := range collectors {
			if err := prometheus.Register(collector); err != nil {
				if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
					switch v := are.ExistingCollector.(type) {
					case *prometheus.CounterVec:
						switch collector {
						case m.RequestTotal:
							m.RequestTotal = v
						case m.CacheEvents:
							m.CacheEvents = v
						case m.FallbackTotal:
							m.FallbackTotal = v
						}
					case *prometheus.HistogramVec:
						switch collector {
						case m.RequestLatency:
							m.RequestLatency = v
						case m.UpstreamLatency:
							m.UpstreamLatency = v
						}
					}
				}
			}
		}
		global = m
	})
	return global
}

// RecordCacheEvent increments the hit/miss counter for a namespace.
func (m *Metrics) RecordCacheEvent(namespace, event string) {
	if m == nil {
		return
	}
	if namespace == "" {
		namespace = "pages"
	}
	m.CacheEvents.With(prometheus.Labels{"namespace": namespace, "event": event}).Inc()
}

// RecordFallback counts a degraded response for a route.
func (m *Metrics) RecordFallback(route, stage string) {
	if m == nil {
		return
	}
	m.FallbackTotal.With(prometheus.Labels{"route": route, "stage": stage}).Inc()
}
