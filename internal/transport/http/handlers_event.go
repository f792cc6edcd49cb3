package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agritrust/internal/ledger"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/requestcontext"
)

// EventService is the slice of the Event Ledger the transport needs.
type EventService interface {
	CreateEvent(ctx context.Context, input ledger.CreateEventInput) (*ledger.Event, error)
	EventsForLot(ctx context.Context, lotID string) ([]*ledger.Event, error)
	EventDetails(ctx context.Context, id string) (*ledger.Event, error)
	VerifyEvent(ctx context.Context, id string) bool
	UpdateEventVerification(ctx context.Context, id string, verified bool) error
}

type EventHandler struct {
	events EventService
}

func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

type createEventRequest struct {
	Type      string           `json:"type"`
	LotID     string           `json:"lotId"`
	Location  *ledger.Location `json:"location"`
	Metadata  map[string]any   `json:"metadata"`
	Documents []string         `json:"documents"`
	Images    []string         `json:"images"`
}

// handleCreate appends an event with the authenticated actor as author.
func (h *EventHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	event, err := h.events.CreateEvent(r.Context(), ledger.CreateEventInput{
		Type:      ledger.EventType(req.Type),
		LotID:     req.LotID,
		Actor:     requestcontext.ActorDID(r.Context()),
		Location:  req.Location,
		Metadata:  req.Metadata,
		Documents: req.Documents,
		Images:    req.Images,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.EventDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) handleListForLot(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.EventsForLot(r.Context(), chi.URLParam(r, "lotId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	verified := h.events.VerifyEvent(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}

type updateVerificationRequest struct {
	Verified bool `json:"verified"`
}

func (h *EventHandler) handleUpdateVerification(w http.ResponseWriter, r *http.Request) {
	var req updateVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.events.UpdateEventVerification(r.Context(), chi.URLParam(r, "id"), req.Verified); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": req.Verified})
}
