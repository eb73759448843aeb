package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/campus-api/internal/models"
	appErrors "github.com/noah-isme/campus-api/pkg/errors"
)

const metricsNamespace = "campus"

// Decision outcomes recorded by the eligibility engine. Rejections are
// labelled with their error code instead.
const (
	OutcomeAccepted = "accepted"
	OutcomeError    = "error"
)

type httpCollectors struct {
	latency *prometheus.HistogramVec
	served  *prometheus.CounterVec
	count   uint64
	totalNs uint64
}

type cacheCollectors struct {
	lookup  prometheus.Histogram
	write   prometheus.Histogram
	ratio   prometheus.Gauge
	results *prometheus.CounterVec
	hits    uint64
	misses  uint64
}

// MetricsService owns a private Prometheus registry for HTTP traffic, the
// prerequisite cache and engine decisions, and keeps running totals for the
// JSON summary.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	http      httpCollectors
	cache     cacheCollectors
	decisions *prometheus.CounterVec

	decisionMu     sync.Mutex
	decisionCounts map[string]uint64
}

// NewMetricsService registers every collector on a fresh registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry:       prometheus.NewRegistry(),
		decisionCounts: make(map[string]uint64),
	}

	routeLabels := []string{"method", "route", "status"}
	m.http.latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of served requests by route template.",
		Buckets:   prometheus.DefBuckets,
	}, routeLabels)
	m.http.served = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Served requests by route template.",
	}, routeLabels)

	m.cache.lookup = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "prerequisite_cache",
		Name:      "lookup_seconds",
		Help:      "Latency of prerequisite graph cache lookups.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	m.cache.write = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "prerequisite_cache",
		Name:      "write_seconds",
		Help:      "Latency of prerequisite graph cache writes.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})
	m.cache.ratio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "prerequisite_cache",
		Name:      "hit_ratio",
		Help:      "Hits over lookups since start.",
	})
	m.cache.results = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "prerequisite_cache",
		Name:      "lookups_total",
		Help:      "Prerequisite graph cache lookups by result.",
	}, []string{"result"})

	m.decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "academic_decisions_total",
		Help:      "Eligibility and scheduling decisions by operation and outcome.",
	}, []string{"operation", "outcome"})

	m.registry.MustRegister(
		m.http.latency, m.http.served,
		m.cache.lookup, m.cache.write, m.cache.ratio, m.cache.results,
		m.decisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest satisfies the request metrics middleware.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.http.latency.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.http.served.WithLabelValues(method, route, code).Inc()
	atomic.AddUint64(&m.http.count, 1)
	atomic.AddUint64(&m.http.totalNs, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation counts one prerequisite cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cache.lookup.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		atomic.AddUint64(&m.cache.hits, 1)
	} else {
		atomic.AddUint64(&m.cache.misses, 1)
	}
	m.cache.results.WithLabelValues(result).Inc()
	m.cache.ratio.Set(m.cacheRatio())
}

// ObserveCacheWrite records how long storing a graph took.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cache.write.Observe(duration.Seconds())
}

func (m *MetricsService) cacheRatio() float64 {
	hits := atomic.LoadUint64(&m.cache.hits)
	misses := atomic.LoadUint64(&m.cache.misses)
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// RecordDecision counts the outcome of an engine operation. Typed errors are
// labelled with their code so rejections can be told apart.
func (m *MetricsService) RecordDecision(operation string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeAccepted
	if err != nil {
		outcome = OutcomeError
		if appErr := appErrors.FromError(err); appErr != nil && appErr.Code != appErrors.ErrInternal.Code {
			outcome = appErr.Code
		}
	}
	m.decisions.WithLabelValues(operation, outcome).Inc()

	m.decisionMu.Lock()
	m.decisionCounts[operation+":"+outcome]++
	m.decisionMu.Unlock()
}

// Snapshot summarises the running totals for the admin endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	snap := models.SystemMetrics{
		CacheHitRatio: m.cacheRatio(),
		CacheHits:     atomic.LoadUint64(&m.cache.hits),
		CacheMisses:   atomic.LoadUint64(&m.cache.misses),
		RequestsTotal: atomic.LoadUint64(&m.http.count),
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
	if snap.RequestsTotal > 0 {
		totalNs := atomic.LoadUint64(&m.http.totalNs)
		snap.AverageRequestDurationMs = float64(totalNs) / float64(snap.RequestsTotal) / float64(time.Millisecond)
	}

	m.decisionMu.Lock()
	snap.Decisions = make(map[string]uint64, len(m.decisionCounts))
	for key, count := range m.decisionCounts {
		snap.Decisions[key] = count
	}
	m.decisionMu.Unlock()
	return snap
}
