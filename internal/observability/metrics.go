package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ExemplarTraceIDLabel is the exemplar label carrying the trace identifier.
const ExemplarTraceIDLabel = "TraceID"

// DefaultNamespace prefixes every HTTP metric name.
const DefaultNamespace = "api"

// HTTPMetrics collects request-level HTTP metrics.
type HTTPMetrics interface {
	RegisterApp(appName string)
	RequestStarted(labels RequestLabels)
	RequestFinished(labels RequestLabels, statusCode int)
	ObserveLatency(labels RequestLabels, duration time.Duration, traceID string)
	ObserveException(labels RequestLabels, exceptionType string)
}

// RequestLabels contains metric dimensions shared by every HTTP series.
type RequestLabels struct {
	Method  string
	Path    string
	AppName string
}

// RegistryOptions configures NewRegistry.
type RegistryOptions struct {
	// Namespace prefixes metric names. Defaults to DefaultNamespace.
	Namespace string
	// IncludeRuntime registers the Go runtime and process collectors.
	IncludeRuntime bool
	// Buckets overrides the latency histogram buckets (seconds).
	Buckets []float64
}

// Registry is the process-wide set of HTTP metric series.
type Registry struct {
	registry *prometheus.Registry

	appInfo    *prometheus.GaugeVec
	requests   *prometheus.CounterVec
	responses  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	exceptions *prometheus.CounterVec
	inProgress *prometheus.GaugeVec
}

var _ HTTPMetrics = (*Registry)(nil)

// NewRegistry creates a registry with all metric descriptors registered.
func NewRegistry(opts RegistryOptions) *Registry {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	reg := prometheus.NewRegistry()
	if opts.IncludeRuntime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		appInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "app_info",
				Help:      "Application information.",
			},
			[]string{"app_name"},
		),
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total count of requests by method and path.",
			},
			[]string{"method", "path", "app_name"},
		),
		responses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_total",
				Help:      "Total count of responses by method, path and status codes.",
			},
			[]string{"method", "path", "status_code", "app_name"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "requests_duration_seconds",
				Help:      "Histogram of requests processing time by path (in seconds).",
				Buckets:   buckets,
			},
			[]string{"method", "path", "app_name"},
		),
		exceptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exceptions_total",
				Help:      "Total count of exceptions raised by path and exception type.",
			},
			[]string{"method", "path", "exception_type", "app_name"},
		),
		inProgress: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_progress",
				Help:      "Gauge of requests by method and path currently being processed.",
			},
			[]string{"method", "path", "app_name"},
		),
	}
}

// Gatherer exposes the underlying registry for scraping and inspection.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RegisterApp marks the application as present. It is a one-time marker,
// not a request counter.
func (r *Registry) RegisterApp(appName string) {
	r.appInfo.WithLabelValues(appName).Inc()
}

// RequestStarted increments the in-flight gauge and the request counter.
func (r *Registry) RequestStarted(labels RequestLabels) {
	r.inProgress.WithLabelValues(labels.Method, labels.Path, labels.AppName).Inc()
	r.requests.WithLabelValues(labels.Method, labels.Path, labels.AppName).Inc()
}

// RequestFinished counts the response and decrements the in-flight gauge.
func (r *Registry) RequestFinished(labels RequestLabels, statusCode int) {
	r.responses.WithLabelValues(labels.Method, labels.Path, strconv.Itoa(statusCode), labels.AppName).Inc()
	r.inProgress.WithLabelValues(labels.Method, labels.Path, labels.AppName).Dec()
}

// ObserveLatency records a request duration. A non-empty traceID is attached
// to the observation as an exemplar.
func (r *Registry) ObserveLatency(labels RequestLabels, duration time.Duration, traceID string) {
	observer := r.duration.WithLabelValues(labels.Method, labels.Path, labels.AppName)
	if traceID != "" {
		if eo, ok := observer.(prometheus.ExemplarObserver); ok {
			eo.ObserveWithExemplar(duration.Seconds(), prometheus.Labels{ExemplarTraceIDLabel: traceID})
			return
		}
	}
	observer.Observe(duration.Seconds())
}

// ObserveException counts a handler failure by its type name.
func (r *Registry) ObserveException(labels RequestLabels, exceptionType string) {
	r.exceptions.WithLabelValues(labels.Method, labels.Path, exceptionType, labels.AppName).Inc()
}
