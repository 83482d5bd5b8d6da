package routing

import (
	"net/http"
	"strings"
)

// MatchResult reports how a request relates to a route.
type MatchResult int

const (
	// MatchNone means the path does not fit the template.
	MatchNone MatchResult = iota
	// MatchPartial means the path fits but the method is not served.
	MatchPartial
	// MatchFull means both method and path fit.
	MatchFull
)

func (m MatchResult) String() string {
	switch m {
	case MatchFull:
		return "full"
	case MatchPartial:
		return "partial"
	default:
		return "none"
	}
}

// segment is one slash-separated piece of a template.
type segment struct {
	literal string
	param   bool
}

// Route is a declared endpoint. It is immutable once created.
type Route struct {
	Method   string
	Pattern  string
	Handler  http.Handler
	segments []segment
}

// NewRoute compiles pattern. Segments written as {name} match any single
// non-empty path segment; everything else matches literally.
func NewRoute(method, pattern string, handler http.Handler) Route {
	return Route{
		Method:   strings.ToUpper(method),
		Pattern:  pattern,
		Handler:  handler,
		segments: compile(pattern),
	}
}

func compile(pattern string) []segment {
	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	for _, p := range parts {
		if len(p) > 2 && strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			segments = append(segments, segment{param: true})
			continue
		}
		segments = append(segments, segment{literal: p})
	}
	return segments
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Match classifies req against the route.
func (r Route) Match(req *http.Request) MatchResult {
	if !r.matchPath(req.URL.Path) {
		return MatchNone
	}
	if !strings.EqualFold(r.Method, req.Method) {
		return MatchPartial
	}
	return MatchFull
}

func (r Route) matchPath(path string) bool {
	// "/a" and "/a/" are distinct routes.
	if path != "/" && r.Pattern != "/" && strings.HasSuffix(path, "/") != strings.HasSuffix(r.Pattern, "/") {
		return false
	}

	parts := splitPath(path)
	if len(parts) != len(r.segments) {
		return false
	}
	for i, seg := range r.segments {
		if seg.param {
			if parts[i] == "" {
				return false
			}
			continue
		}
		if parts[i] != seg.literal {
			return false
		}
	}
	return true
}

// Table is the ordered list of declared routes.
type Table struct {
	routes []Route
}

// NewTable keeps routes in declaration order.
func NewTable(routes ...Route) *Table {
	return &Table{routes: append([]Route(nil), routes...)}
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// FullMatch returns the template of the first route fully matching req.
func (t *Table) FullMatch(req *http.Request) (string, bool) {
	for _, route := range t.routes {
		if route.Match(req) == MatchFull {
			return route.Pattern, true
		}
	}
	return "", false
}
