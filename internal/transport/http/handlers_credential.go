package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agritrust/internal/credential"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/requestcontext"
)

// CredentialService is the slice of the Credential Registry the transport
// needs.
type CredentialService interface {
	Issue(ctx context.Context, issuerDID, subjectDID, claimType string, claims map[string]any, validUntil time.Time) (*credential.Credential, error)
	Verify(ctx context.Context, cred *credential.Credential) bool
	Get(ctx context.Context, id string) (*credential.Credential, error)
	Revoke(ctx context.Context, id, requestingDID string) (credential.RevocationStatus, error)
}

type CredentialHandler struct {
	credentials CredentialService
}

func NewCredentialHandler(credentials CredentialService) *CredentialHandler {
	return &CredentialHandler{credentials: credentials}
}

type issueCredentialRequest struct {
	SubjectDID string         `json:"subjectDid"`
	ClaimType  string         `json:"claimType"`
	Claims     map[string]any `json:"claims"`
	ValidUntil time.Time      `json:"validUntil,omitzero"`
}

// handleIssue issues a credential with the authenticated actor as issuer.
// The role gate upstream already decided the actor may issue at all.
func (h *CredentialHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	issuer := requestcontext.ActorDID(r.Context())
	cred, err := h.credentials.Issue(r.Context(), issuer, req.SubjectDID, req.ClaimType, req.Claims, req.ValidUntil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cred)
}

func (h *CredentialHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cred)
}

func (h *CredentialHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	valid := h.credentials.Verify(r.Context(), &credential.Credential{ID: chi.URLParam(r, "id")})
	writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *CredentialHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	status, err := h.credentials.Revoke(r.Context(), chi.URLParam(r, "id"), requestcontext.ActorDID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	httpStatus := http.StatusOK
	switch status {
	case credential.StatusNotFound:
		httpStatus = http.StatusNotFound
	case credential.StatusNotAuthorized:
		httpStatus = http.StatusForbidden
	}
	writeJSON(w, httpStatus, map[string]string{"status": string(status)})
}
