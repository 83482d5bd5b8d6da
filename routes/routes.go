package routes

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/instrumented-api/app"
	"github.com/upb/instrumented-api/config"
	"github.com/upb/instrumented-api/handlers"
	"github.com/upb/instrumented-api/internal/routing"
	"github.com/upb/instrumented-api/middleware"
	"github.com/upb/instrumented-api/utils"
)

// RouteTable declares every endpoint of the service in match order. The
// scrape endpoint is part of the table, so scrapes are measured like any
// other request.
func RouteTable(deps *app.Dependencies) *routing.Table {
	cfg := deps.Config
	demo := handlers.NewDemoHandler(cfg.Demo, cfg.Server.SelfURL(), deps.HTTPClient, deps.ContextLogger)
	health := handlers.NewHealthHandler(cfg.AppName)

	return routing.NewTable(
		routing.NewRoute(http.MethodGet, "/", http.HandlerFunc(demo.HandleHome)),
		routing.NewRoute(http.MethodGet, "/io_task", http.HandlerFunc(demo.HandleIOTask)),
		routing.NewRoute(http.MethodGet, "/cpu_task", http.HandlerFunc(demo.HandleCPUTask)),
		routing.NewRoute(http.MethodGet, "/random_sleep", http.HandlerFunc(demo.HandleRandomSleep)),
		routing.NewRoute(http.MethodGet, "/random_status", http.HandlerFunc(demo.HandleRandomStatus)),
		routing.NewRoute(http.MethodGet, "/chain", http.HandlerFunc(demo.HandleChain)),
		routing.NewRoute(http.MethodGet, "/error_test", http.HandlerFunc(demo.HandleErrorTest)),
		routing.NewRoute(http.MethodGet, "/items/{id}", http.HandlerFunc(demo.HandleItem)),
		routing.NewRoute(http.MethodGet, "/healthz", http.HandlerFunc(health.HandleHealth)),
		routing.NewRoute(http.MethodGet, cfg.Observability.MetricsPath, deps.Metrics.Handler(deps.Logger)),
	)
}

// newRouter builds the configured router for table and the matcher that
// resolves route templates against it.
func newRouter(routerName string, table *routing.Table) (http.Handler, middleware.RouteMatcher) {
	if routerName == config.RouterMux {
		r := routing.NewMuxRouter(table)
		r.NotFoundHandler = http.HandlerFunc(notFound)
		r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
		return r, routing.NewMuxMatcher(r)
	}

	r := routing.NewChiRouter(table)
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)
	return r, routing.NewChiMatcher(r)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, "endpoint not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
}

// SetupRoutes configures all application routes and middleware.
//
// Outermost first: tracing, request ID, request log, panic recovery, CORS,
// route-aware metrics, router. Recovery sits outside the metrics layer so a
// handler panic is counted before it becomes a 500.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	router, matcher := newRouter(cfg.Server.Router, RouteTable(deps))

	metrics := middleware.NewMetricsMiddleware(deps.Metrics, matcher, cfg.AppName)

	var h http.Handler = metrics.Handler(router)
	h = cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader, "traceparent", "tracestate", "baggage"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})(h)
	h = chimw.Recoverer(h)
	h = middleware.RequestLogger(deps.ContextLogger)(h)
	h = middleware.RequestID(h)
	h = deps.Tracing.Middleware(h, spanNamer(matcher))

	return h
}

// spanNamer names server spans "<METHOD> <template>", falling back to the
// method alone for unmatched requests.
func spanNamer(matcher middleware.RouteMatcher) func(*http.Request) string {
	return func(r *http.Request) string {
		if template, ok := matcher.FullMatch(r); ok {
			return r.Method + " " + template
		}
		return r.Method
	}
}
