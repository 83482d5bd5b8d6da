// Package observability provides structured logging, metrics, and tracing
// for the instrumented API service.
//
// This package implements:
//   - A process-wide Prometheus registry holding the HTTP request metrics
//     (in-flight, totals, latency with trace exemplars, exceptions)
//   - OpenMetrics text exposition of that registry for pull-based scraping
//   - OpenTelemetry tracing with OTLP/gRPC export and W3C propagation
//   - Context-aware zap logging with optional trace/span correlation
//
// The registry is constructed once at startup and handed to the metrics
// middleware and the scrape handler explicitly; there are no package globals.
package observability
