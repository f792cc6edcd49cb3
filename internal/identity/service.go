package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"agritrust/internal/platform/metrics"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/platform/sentinel"
	"agritrust/pkg/requestcontext"
)

// Store persists identity records. Memory and postgres implementations are
// provided; the Execute callback is the atomic mutate primitive.
type Store interface {
	Save(ctx context.Context, ident *Identity) error
	FindByDID(ctx context.Context, did string) (*Identity, error)
	List(ctx context.Context) ([]*Identity, error)
	Execute(ctx context.Context, did string, mutate func(*Identity) error) (*Identity, error)
}

// Service is the Identity Registry: it mints DIDs and owns the identity
// store. Credential attach/detach is exposed for the Credential Registry,
// which is the only caller allowed to mutate the credential list.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateIdentity mints a fresh DID with placeholder key material and stores
// an identity with an empty credential list. DIDs are permanent once minted.
func (s *Service) CreateIdentity(ctx context.Context, name string, sType StakeholderType, location string) (*Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identity name is required")
	}
	if !sType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown stakeholder type %q", sType)
	}

	ident := &Identity{
		DID:         "did:agri:" + uuid.NewString(),
		Name:        name,
		Type:        sType,
		Location:    location,
		PublicKey:   "z6Mk" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Credentials: []string{},
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, ident); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store identity")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "identity created",
			"did", ident.DID,
			"type", ident.Type,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.IdentitiesCreated.Inc()
	}
	return ident, nil
}

func (s *Service) GetIdentity(ctx context.Context, did string) (*Identity, error) {
	if did == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "did is required")
	}
	ident, err := s.store.FindByDID(ctx, did)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	return ident, nil
}

func (s *Service) ListIdentities(ctx context.Context) ([]*Identity, error) {
	identities, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}
	return identities, nil
}

// AttachCredential appends a credential id to the subject's credential list.
// Called by the Credential Registry on issuance; attaching twice is a no-op.
func (s *Service) AttachCredential(ctx context.Context, did, credentialID string) error {
	if credentialID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "credential id is required")
	}
	_, err := s.store.Execute(ctx, did, func(ident *Identity) error {
		if ident.HasCredential(credentialID) {
			return nil
		}
		ident.Credentials = append(ident.Credentials, credentialID)
		return nil
	})
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach credential")
	}
	return nil
}

// DetachCredential removes a credential id from the subject's credential
// list. Called by the Credential Registry on revocation.
func (s *Service) DetachCredential(ctx context.Context, did, credentialID string) error {
	if credentialID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "credential id is required")
	}
	_, err := s.store.Execute(ctx, did, func(ident *Identity) error {
		kept := ident.Credentials[:0]
		for _, id := range ident.Credentials {
			if id != credentialID {
				kept = append(kept, id)
			}
		}
		ident.Credentials = kept
		return nil
	})
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to detach credential")
	}
	return nil
}
