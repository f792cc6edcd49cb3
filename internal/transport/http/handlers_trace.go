package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agritrust/internal/trace"
)

// TraceService is the slice of the Traceability Aggregator the transport
// needs.
type TraceService interface {
	Traceability(ctx context.Context, lotID string) (*trace.Traceability, error)
}

type TraceHandler struct {
	traces TraceService
}

func NewTraceHandler(traces TraceService) *TraceHandler {
	return &TraceHandler{traces: traces}
}

func (h *TraceHandler) handleTraceability(w http.ResponseWriter, r *http.Request) {
	t, err := h.traces.Traceability(r.Context(), chi.URLParam(r, "lotId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
