// Package routing describes the service's declared HTTP routes.
//
// This package provides:
//   - Route: an immutable method + path template pair with its handler
//   - Table: the ordered route list, resolving requests to the template of
//     the first fully matching route
//   - Adapters resolving templates through a chi or gorilla/mux router
//
// Route templates (e.g. "/items/{id}") are what request metrics are labeled
// with, so that path parameters never create new series.
package routing
