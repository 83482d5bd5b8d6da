package observability

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"
)

// ContentTypeOpenMetrics is the content type of the scrape response.
const ContentTypeOpenMetrics = "application/openmetrics-text; version=1.0.0; charset=utf-8"

// Exposition serializes the current state of every registered series as
// OpenMetrics text. Families are emitted in name order, so a quiescent
// registry always produces the same bytes.
func (r *Registry) Exposition() ([]byte, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeOpenMetrics))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return nil, fmt.Errorf("failed to encode metric family %s: %w", family.GetName(), err)
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			return nil, fmt.Errorf("failed to finish exposition: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// Handler returns the scrape endpoint. Reads have no side effects on the
// registry; a gather or encode failure is reported to the caller as a 500.
func (r *Registry) Handler(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, err := r.Exposition()
		if err != nil {
			logger.Error("metrics exposition failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", ContentTypeOpenMetrics)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}
