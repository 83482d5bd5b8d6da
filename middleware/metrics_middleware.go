package middleware

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/instrumented-api/internal/observability"
)

// RouteMatcher resolves a request to the template of the declared route
// that fully matches it.
type RouteMatcher interface {
	FullMatch(r *http.Request) (template string, ok bool)
}

// MetricsMiddleware records request metrics labeled by route template
// instead of the raw path.
type MetricsMiddleware struct {
	metrics observability.HTTPMetrics
	matcher RouteMatcher
	appName string
	traceID func(context.Context) string
}

// NewMetricsMiddleware creates the middleware and marks appName as present
// in the registry.
func NewMetricsMiddleware(metrics observability.HTTPMetrics, matcher RouteMatcher, appName string) *MetricsMiddleware {
	m := &MetricsMiddleware{
		metrics: metrics,
		matcher: matcher,
		appName: appName,
		traceID: observability.TraceIDFromContext,
	}
	metrics.RegisterApp(appName)
	return m
}

// HandlerFailure holds the value recovered from a panicking handler.
type HandlerFailure struct {
	Value any
}

// TypeName names the dynamic type of the panic value, without pointer
// indirection (e.g. "handlers.DemoError", "string").
func (f *HandlerFailure) TypeName() string {
	t := reflect.TypeOf(f.Value)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// result is the outcome of invoking the wrapped handler.
type result struct {
	failure *HandlerFailure
}

func (r result) failed() bool {
	return r.failure != nil
}

// invoke runs next and converts a panic into a failure result.
func invoke(next http.Handler, w http.ResponseWriter, r *http.Request) (res result) {
	defer func() {
		if v := recover(); v != nil {
			res.failure = &HandlerFailure{Value: v}
		}
	}()
	next.ServeHTTP(w, r)
	return res
}

// Handler wraps next. Requests that match no declared route pass through
// untouched. For matched requests the in-flight gauge is always restored
// and a handler panic is counted, then re-raised with its original value.
func (m *MetricsMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, matched := m.resolvePath(r)
		if !matched {
			next.ServeHTTP(w, r)
			return
		}

		labels := observability.RequestLabels{
			Method:  strings.ToUpper(r.Method),
			Path:    path,
			AppName: m.appName,
		}

		m.metrics.RequestStarted(labels)
		statusCode := http.StatusInternalServerError
		defer func() {
			m.metrics.RequestFinished(labels, statusCode)
		}()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		res := invoke(next, ww, r)
		if res.failed() {
			m.metrics.ObserveException(labels, res.failure.TypeName())
			panic(res.failure.Value)
		}

		statusCode = ww.Status()
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		m.metrics.ObserveLatency(labels, time.Since(start), m.traceID(r.Context()))
	})
}

// resolvePath returns the matched route template, or the concrete request
// path and false.
func (m *MetricsMiddleware) resolvePath(r *http.Request) (string, bool) {
	if template, ok := m.matcher.FullMatch(r); ok {
		return template, true
	}
	return r.URL.Path, false
}
