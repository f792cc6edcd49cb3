package attestation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"agritrust/internal/credential"
	"agritrust/internal/platform/content"
	"agritrust/internal/platform/ledgerlog"
	"agritrust/internal/platform/metrics"
	"agritrust/internal/platform/signer"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/platform/sentinel"
	"agritrust/pkg/requestcontext"
)

// Store persists attestations.
type Store interface {
	Save(ctx context.Context, att *Attestation) error
	FindByID(ctx context.Context, id string) (*Attestation, error)
	ListByLot(ctx context.Context, lotID string) ([]*Attestation, error)
	Remove(ctx context.Context, id string, pre func(ctx context.Context, att *Attestation) error) (*Attestation, error)
}

// Service issues lab-test attestations as specialized credentials, verifies
// them, and assembles verifiable presentations. Whether the caller may issue
// at all (auditor-type actors only) is the API boundary's concern, not
// checked here.
type Service struct {
	store     Store
	signer    signer.Signer
	verifier  signer.Verifier
	addresser content.Addresser
	log       ledgerlog.Appender
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, sgn signer.Signer, vrf signer.Verifier, addresser content.Addresser, log ledgerlog.Appender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("attestation store is required")
	}
	if sgn == nil || vrf == nil {
		return nil, fmt.Errorf("signer and verifier are required")
	}
	if addresser == nil {
		return nil, fmt.Errorf("content addresser is required")
	}
	if log == nil {
		return nil, fmt.Errorf("ledger log appender is required")
	}
	svc := &Service{store: store, signer: sgn, verifier: vrf, addresser: addresser, log: log}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateLabAttestation wraps a lab test result in a credential whose subject
// is the lot, computes the content-addressed and ledger references, and
// derives the expiration from the validity window.
func (s *Service) CreateLabAttestation(ctx context.Context, labDID string, result TestResult, validityDays int) (*Attestation, error) {
	if labDID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "lab DID is required")
	}
	if result.LotID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "test result lot id is required")
	}
	if !result.OverallStatus.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown overall status %q", result.OverallStatus)
	}
	if validityDays <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "validity days must be positive")
	}

	now := requestcontext.Now(ctx)
	result.LabDID = labDID

	claims, err := resultClaims(result)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build result claims")
	}

	cred := credential.Credential{
		ID:             "urn:credential:" + uuid.NewString(),
		Type:           []string{credential.TypeVerifiable, "LabTestAttestation"},
		Issuer:         labDID,
		IssuanceDate:   now,
		ExpirationDate: now.AddDate(0, 0, validityDays),
		Subject: credential.Subject{
			ID:     result.LotID,
			Claims: claims,
		},
	}
	if err := credential.Sign(&cred, s.signer, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign attestation credential")
	}

	hash, err := s.addresser.Address(result)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to address test result")
	}

	att := &Attestation{
		ID:          "att-" + uuid.NewString(),
		TestResult:  result,
		Credential:  cred,
		ContentHash: hash,
		CreatedAt:   now,
		ExpiresAt:   now.AddDate(0, 0, validityDays),
	}

	ref, err := s.log.Append(ctx, att.TestResult.LotID, att)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append attestation to ledger log")
	}
	att.LedgerReference = ref

	if err := s.store.Save(ctx, att); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store attestation")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "lab attestation issued",
			"attestation_id", att.ID,
			"lot_id", att.TestResult.LotID,
			"lab_did", labDID,
			"overall_status", result.OverallStatus,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.AttestationsIssued.Inc()
	}
	return att, nil
}

// AttestationsForLot returns all attestations on record for the lot, in no
// particular order. Callers that need order sort by CreatedAt.
func (s *Service) AttestationsForLot(ctx context.Context, lotID string) ([]*Attestation, error) {
	if lotID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lot id is required")
	}
	atts, err := s.store.ListByLot(ctx, lotID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attestations")
	}
	return atts, nil
}

// VerifyAttestation fails closed on an unknown id and otherwise accumulates
// every reason the attestation is invalid, so callers can report the
// specific cause rather than a bare false.
func (s *Service) VerifyAttestation(ctx context.Context, id string) (VerificationResult, error) {
	att, err := s.store.FindByID(ctx, id)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return VerificationResult{IsValid: false, Errors: []string{"not found"}}, nil
		}
		return VerificationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attestation")
	}

	result := VerificationResult{Attestation: att, Errors: []string{}}
	if att.Expired(requestcontext.Now(ctx)) {
		result.Errors = append(result.Errors, "expired")
	}
	if !credential.VerifyProof(&att.Credential, s.verifier) {
		result.Errors = append(result.Errors, "invalid signature")
	}
	result.IsValid = len(result.Errors) == 0
	return result, nil
}

// CreateQualityCertificatePresentation bundles all attestation credentials
// for the lot into a fresh presentation. Expired attestations are included:
// validity is the verifier's job, disclosure is the holder's. A fresh
// challenge is minted when the caller supplies none; identical inputs never
// produce identical presentations.
func (s *Service) CreateQualityCertificatePresentation(ctx context.Context, lotID, requesterDID, challenge string) (*Presentation, error) {
	if lotID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "lot id is required")
	}
	if requesterDID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "requester DID is required")
	}

	atts, err := s.store.ListByLot(ctx, lotID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attestations")
	}

	if challenge == "" {
		challenge = uuid.NewString()
	}
	now := requestcontext.Now(ctx)

	pres := &Presentation{
		ID:          "urn:presentation:" + uuid.NewString(),
		Holder:      requesterDID,
		Credentials: make([]credential.Credential, 0, len(atts)),
	}
	for _, att := range atts {
		pres.Credentials = append(pres.Credentials, att.Credential)
	}

	payload, err := json.Marshal(struct {
		ID          string                  `json:"id"`
		Holder      string                  `json:"holder"`
		Challenge   string                  `json:"challenge"`
		Credentials []credential.Credential `json:"verifiableCredential"`
	}{pres.ID, pres.Holder, challenge, pres.Credentials})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build presentation payload")
	}
	value, err := s.signer.Sign(payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign presentation")
	}
	pres.Proof = PresentationProof{
		Type:      credential.ProofType,
		Created:   now,
		Challenge: challenge,
		Value:     value,
	}

	if s.metrics != nil {
		s.metrics.PresentationsCreated.Inc()
	}
	return pres, nil
}

// RevokeAttestation applies the issuer-authority rule: only the lab that
// issued the attestation may revoke it.
func (s *Service) RevokeAttestation(ctx context.Context, id, labDID string) (credential.RevocationStatus, error) {
	if id == "" || labDID == "" {
		return credential.StatusNotFound, dErrors.New(dErrors.CodeBadRequest, "attestation id and lab DID are required")
	}

	_, err := s.store.Remove(ctx, id, func(_ context.Context, att *Attestation) error {
		if att.TestResult.LabDID != labDID {
			return errNotIssuer
		}
		return nil
	})
	switch {
	case err == nil:
	case dErrors.Is(err, sentinel.ErrNotFound):
		return credential.StatusNotFound, nil
	case dErrors.Is(err, errNotIssuer):
		if s.logger != nil {
			s.logger.WarnContext(ctx, "attestation revocation denied - requester is not the issuing lab",
				"attestation_id", id,
				"requesting_did", labDID,
			)
		}
		return credential.StatusNotAuthorized, nil
	default:
		return credential.StatusNotFound, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke attestation")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "attestation revoked",
			"attestation_id", id,
			"lab_did", labDID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return credential.StatusRevoked, nil
}

var errNotIssuer = fmt.Errorf("requesting DID is not the issuing lab")

// resultClaims flattens the test result into the credential claim payload.
func resultClaims(result TestResult) (map[string]any, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}
