package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agritrust/internal/identity"
	dErrors "agritrust/pkg/domain-errors"
)

// IdentityService is the slice of the Identity Registry the transport needs.
type IdentityService interface {
	CreateIdentity(ctx context.Context, name string, sType identity.StakeholderType, location string) (*identity.Identity, error)
	GetIdentity(ctx context.Context, did string) (*identity.Identity, error)
	ListIdentities(ctx context.Context) ([]*identity.Identity, error)
}

type IdentityHandler struct {
	identities IdentityService
}

func NewIdentityHandler(identities IdentityService) *IdentityHandler {
	return &IdentityHandler{identities: identities}
}

type createIdentityRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

func (h *IdentityHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	ident, err := h.identities.CreateIdentity(r.Context(), req.Name, identity.StakeholderType(req.Type), req.Location)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ident)
}

func (h *IdentityHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ident, err := h.identities.GetIdentity(r.Context(), chi.URLParam(r, "did"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ident)
}

func (h *IdentityHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identities, err := h.identities.ListIdentities(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identities)
}
