package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"agritrust/internal/platform/metrics"
	"agritrust/internal/platform/signer"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/platform/sentinel"
	"agritrust/pkg/requestcontext"
)

// Store persists credentials. Remove's pre callback must run atomically with
// the delete so no verifier observes a half-revoked credential.
type Store interface {
	Save(ctx context.Context, cred *Credential) error
	FindByID(ctx context.Context, id string) (*Credential, error)
	Remove(ctx context.Context, id string, pre func(ctx context.Context, cred *Credential) error) (*Credential, error)
}

// IdentityRegistry is the one cross-component write surface: credentials are
// attached to and detached from a subject's identity record through it, never
// by reaching into identity internals.
type IdentityRegistry interface {
	AttachCredential(ctx context.Context, did, credentialID string) error
	DetachCredential(ctx context.Context, did, credentialID string) error
}

// Service is the Credential Registry.
type Service struct {
	store      Store
	identities IdentityRegistry
	signer     signer.Signer
	verifier   signer.Verifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, identities IdentityRegistry, sgn signer.Signer, vrf signer.Verifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity registry is required")
	}
	if sgn == nil || vrf == nil {
		return nil, fmt.Errorf("signer and verifier are required")
	}
	svc := &Service{store: store, identities: identities, signer: sgn, verifier: vrf}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue builds a proof-bound credential and attaches it to the subject's
// identity when that identity exists. An unknown subject identity is not an
// error: the credential is stored and returned, the attach step is skipped.
func (s *Service) Issue(ctx context.Context, issuerDID, subjectDID, claimType string, claims map[string]any, validUntil time.Time) (*Credential, error) {
	if subjectDID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "subject DID is required")
	}
	if claimType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "claim type is required")
	}
	if issuerDID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "issuer DID is required")
	}

	now := requestcontext.Now(ctx)
	if !validUntil.IsZero() && validUntil.Before(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "expiration date must not precede issuance date")
	}

	cred := &Credential{
		ID:             "urn:credential:" + uuid.NewString(),
		Type:           []string{TypeVerifiable, claimType},
		Issuer:         issuerDID,
		IssuanceDate:   now,
		ExpirationDate: validUntil,
		Subject: Subject{
			ID:     subjectDID,
			Claims: claims,
		},
	}
	if err := Sign(cred, s.signer, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential")
	}

	if err := s.store.Save(ctx, cred); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}

	if err := s.identities.AttachCredential(ctx, subjectDID, cred.ID); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach credential to subject")
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "subject identity unknown, credential stored without attach",
				"credential_id", cred.ID,
				"subject_did", subjectDID,
			)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential issued",
			"credential_id", cred.ID,
			"issuer_did", issuerDID,
			"claim_type", claimType,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.CredentialsIssued.Inc()
	}
	return cred, nil
}

// Verify is a pure predicate over the stored credential: present, not
// expired, and carrying a proof the verifier accepts. It never mutates state
// and never returns an error.
func (s *Service) Verify(ctx context.Context, cred *Credential) bool {
	if cred == nil || cred.ID == "" {
		return false
	}
	stored, err := s.store.FindByID(ctx, cred.ID)
	if err != nil {
		return false
	}
	if stored.Expired(requestcontext.Now(ctx)) {
		return false
	}
	return VerifyProof(stored, s.verifier)
}

func (s *Service) Get(ctx context.Context, id string) (*Credential, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential id is required")
	}
	cred, err := s.store.FindByID(ctx, id)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	return cred, nil
}

// errNotAuthorized flags a revocation attempt by a DID other than the issuer.
// It stays internal; callers see RevocationStatus.
var errNotAuthorized = fmt.Errorf("requesting DID is not the issuer")

// Revoke deletes a credential and detaches it from the subject's identity as
// one atomic unit. Only the original issuer may revoke; everyone else gets
// StatusNotAuthorized with no mutation.
func (s *Service) Revoke(ctx context.Context, id, requestingDID string) (RevocationStatus, error) {
	if id == "" || requestingDID == "" {
		return StatusNotFound, dErrors.New(dErrors.CodeBadRequest, "credential id and requesting DID are required")
	}

	_, err := s.store.Remove(ctx, id, func(ctx context.Context, cred *Credential) error {
		if cred.Issuer != requestingDID {
			return errNotAuthorized
		}
		if err := s.identities.DetachCredential(ctx, cred.Subject.ID, cred.ID); err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return nil
			}
			return err
		}
		return nil
	})
	switch {
	case err == nil:
	case dErrors.Is(err, sentinel.ErrNotFound):
		return StatusNotFound, nil
	case dErrors.Is(err, errNotAuthorized):
		if s.logger != nil {
			s.logger.WarnContext(ctx, "revocation denied - requester is not the issuer",
				"credential_id", id,
				"requesting_did", requestingDID,
			)
		}
		return StatusNotAuthorized, nil
	default:
		return StatusNotFound, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "credential revoked",
			"credential_id", id,
			"issuer_did", requestingDID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.CredentialsRevoked.Inc()
	}
	return StatusRevoked, nil
}
