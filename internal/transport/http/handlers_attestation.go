package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agritrust/internal/attestation"
	"agritrust/internal/credential"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/requestcontext"
)

// AttestationService is the slice of the Attestation Service the transport
// needs.
type AttestationService interface {
	CreateLabAttestation(ctx context.Context, labDID string, result attestation.TestResult, validityDays int) (*attestation.Attestation, error)
	AttestationsForLot(ctx context.Context, lotID string) ([]*attestation.Attestation, error)
	VerifyAttestation(ctx context.Context, id string) (attestation.VerificationResult, error)
	CreateQualityCertificatePresentation(ctx context.Context, lotID, requesterDID, challenge string) (*attestation.Presentation, error)
	RevokeAttestation(ctx context.Context, id, labDID string) (credential.RevocationStatus, error)
}

type AttestationHandler struct {
	attestations AttestationService
}

func NewAttestationHandler(attestations AttestationService) *AttestationHandler {
	return &AttestationHandler{attestations: attestations}
}

type createAttestationRequest struct {
	TestResult   attestation.TestResult `json:"testResult"`
	ValidityDays int                    `json:"validityDays"`
}

// handleCreate issues a lab attestation with the authenticated actor as the
// lab. The auditor role gate upstream is the authorization check the core
// deliberately does not repeat.
func (h *AttestationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAttestationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	att, err := h.attestations.CreateLabAttestation(r.Context(), requestcontext.ActorDID(r.Context()), req.TestResult, req.ValidityDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, att)
}

func (h *AttestationHandler) handleListForLot(w http.ResponseWriter, r *http.Request) {
	atts, err := h.attestations.AttestationsForLot(r.Context(), chi.URLParam(r, "lotId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, atts)
}

func (h *AttestationHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	result, err := h.attestations.VerifyAttestation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type createPresentationRequest struct {
	Challenge string `json:"challenge"`
}

func (h *AttestationHandler) handleCreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req createPresentationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
			return
		}
	}
	pres, err := h.attestations.CreateQualityCertificatePresentation(
		r.Context(), chi.URLParam(r, "lotId"), requestcontext.ActorDID(r.Context()), req.Challenge)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pres)
}

func (h *AttestationHandler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	status, err := h.attestations.RevokeAttestation(r.Context(), chi.URLParam(r, "id"), requestcontext.ActorDID(r.Context()))
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
