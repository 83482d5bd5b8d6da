package routing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/mux"
)

// Param returns the value of the named path parameter regardless of which
// router dispatched the request.
func Param(r *http.Request, name string) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if v := rctx.URLParam(name); v != "" {
			return v
		}
	}
	return mux.Vars(r)[name]
}
