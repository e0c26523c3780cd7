package services

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "gamechat_rag"

// Pipeline stage names recorded by MetricsService.ObserveStage
const (
	MetricStageEmbed    = "embed"
	MetricStageRetrieve = "retrieve"
	MetricStageFallback = "fallback"
	MetricStageGenerate = "generate"
)

// MetricsService provides application metrics and monitoring
type MetricsService interface {
	ObserveStage(stage string, duration time.Duration, err error)
	IncrementFallback(namespace string)
	ObserveHTTPRequest(method, route string, statusCode int, duration time.Duration)
	Handler() http.Handler
}

// PrometheusMetrics implements MetricsService on a private Prometheus registry
type PrometheusMetrics struct {
	registry     *prometheus.Registry
	stageLatency *prometheus.HistogramVec
	stageErrors  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewPrometheusMetrics creates and registers the pipeline and HTTP collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of each RAG pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stage_errors_total",
			Help:      "Failed RAG pipeline stages.",
		}, []string{"stage"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fallback_searches_total",
			Help:      "Unscoped searches run after an empty scoped search.",
		}, []string{"namespace"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.stageLatency,
		m.stageErrors,
		m.fallbacks,
		m.httpRequests,
		m.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveStage records the latency of one pipeline stage and counts failures
func (m *PrometheusMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage).Inc()
	}
}

// IncrementFallback counts an empty-result fallback for the given namespace label
func (m *PrometheusMetrics) IncrementFallback(namespace string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(namespace).Inc()
}

// ObserveHTTPRequest records one served HTTP request
func (m *PrometheusMetrics) ObserveHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (m *PrometheusMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// noopMetrics discards every observation
type noopMetrics struct{}

// NewNoopMetrics returns a MetricsService that records nothing
func NewNoopMetrics() MetricsService {
	return noopMetrics{}
}

func (noopMetrics) ObserveStage(string, time.Duration, error) {}

func (noopMetrics) IncrementFallback(string) {}

func (noopMetrics) ObserveHTTPRequest(string, string, int, time.Duration) {}

func (noopMetrics) Handler() http.Handler { return http.NotFoundHandler() }
