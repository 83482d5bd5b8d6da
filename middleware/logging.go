package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/instrumented-api/internal/observability"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request. Trace correlation fields are
// added by logger when enabled.
func RequestLogger(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger.Info(r.Context(), "request completed",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int64("duration_ms", time.Since(start).Milliseconds()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.String("request_id", GetRequestIDFromContext(r.Context())))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
