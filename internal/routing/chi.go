package routing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ChiMatcher resolves route templates through a chi router.
type ChiMatcher struct {
	routes chi.Routes
}

// NewChiMatcher wraps routes, typically the application's root mux.
func NewChiMatcher(routes chi.Routes) *ChiMatcher {
	return &ChiMatcher{routes: routes}
}

// FullMatch asks chi whether a handler is registered for the request's
// method and path, and returns the joined route pattern if so.
func (m *ChiMatcher) FullMatch(req *http.Request) (string, bool) {
	path := req.URL.RawPath
	if path == "" {
		path = req.URL.Path
	}

	rctx := chi.NewRouteContext()
	if !m.routes.Match(rctx, req.Method, path) {
		return "", false
	}
	return rctx.RoutePattern(), true
}

// NewChiRouter registers every route of t on a fresh chi mux, in order.
func NewChiRouter(t *Table) *chi.Mux {
	r := chi.NewRouter()
	for _, route := range t.routes {
		r.Method(route.Method, route.Pattern, route.Handler)
	}
	return r
}
