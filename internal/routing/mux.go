package routing

import (
	"net/http"

	"github.com/gorilla/mux"
)

// MuxMatcher resolves route templates through a gorilla/mux router, which
// tries its routes in registration order.
type MuxMatcher struct {
	router *mux.Router
}

// NewMuxMatcher wraps router.
func NewMuxMatcher(router *mux.Router) *MuxMatcher {
	return &MuxMatcher{router: router}
}

// FullMatch returns the path template of the matched route. A method
// mismatch (partial match) or a not-found match is reported as no match.
func (m *MuxMatcher) FullMatch(req *http.Request) (string, bool) {
	var match mux.RouteMatch
	if !m.router.Match(req, &match) || match.MatchErr != nil || match.Route == nil {
		return "", false
	}

	template, err := match.Route.GetPathTemplate()
	if err != nil {
		return "", false
	}
	return template, true
}

// NewMuxRouter registers every route of t on a fresh gorilla/mux router.
func NewMuxRouter(t *Table) *mux.Router {
	r := mux.NewRouter()
	for _, route := range t.routes {
		r.Handle(route.Pattern, route.Handler).Methods(route.Method)
	}
	return r
}
