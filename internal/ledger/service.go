package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"agritrust/internal/platform/content"
	"agritrust/internal/platform/ledgerlog"
	"agritrust/internal/platform/metrics"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/platform/sentinel"
	"agritrust/pkg/requestcontext"
)

// Store persists supply-chain events.
type Store interface {
	Append(ctx context.Context, event *Event) error
	FindByID(ctx context.Context, id string) (*Event, error)
	ListByLot(ctx context.Context, lotID string) ([]*Event, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}

// Invalidator is notified after an append so read-side caches (the
// traceability projection) can drop stale entries. A nil invalidator is
// valid.
type Invalidator interface {
	Invalidate(ctx context.Context, lotID string)
}

// Service is the Event Ledger: an append-only log of supply-chain events
// keyed by lot.
type Service struct {
	store       Store
	addresser   content.Addresser
	log         ledgerlog.Appender
	invalidator Invalidator
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

func New(store Store, addresser content.Addresser, log ledgerlog.Appender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("event store is required")
	}
	if addresser == nil {
		return nil, fmt.Errorf("content addresser is required")
	}
	if log == nil {
		return nil, fmt.Errorf("ledger log appender is required")
	}
	svc := &Service{store: store, addresser: addresser, log: log}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateEvent validates the event against the per-type metadata schema and
// appends it. Validation failures abort before any state mutation. Events
// are trusted at write time: Verified starts true, with
// UpdateEventVerification as the manual override path.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput) (*Event, error) {
	if input.LotID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "lot id is required")
	}
	if input.Actor == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actor DID is required")
	}
	if !input.Type.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", input.Type)
	}
	if err := ValidateMetadata(input.Type, input.Metadata); err != nil {
		return nil, err
	}

	event := &Event{
		ID:        "evt-" + uuid.NewString(),
		Type:      input.Type,
		LotID:     input.LotID,
		Actor:     input.Actor,
		Timestamp: requestcontext.Now(ctx),
		Location:  input.Location,
		Metadata:  input.Metadata,
		Documents: input.Documents,
		Images:    input.Images,
		Verified:  true,
	}

	if len(input.Documents) > 0 || len(input.Images) > 0 {
		hash, err := s.addresser.Address(struct {
			Documents []string `json:"documents"`
			Images    []string `json:"images"`
		}{input.Documents, input.Images})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to address event attachments")
		}
		event.ContentHash = hash
	}

	ref, err := s.log.Append(ctx, event.LotID, event)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append event to ledger log")
	}
	event.LedgerReference = ref

	if err := s.store.Append(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store event")
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, event.LotID)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "supply chain event appended",
			"event_id", event.ID,
			"lot_id", event.LotID,
			"type", event.Type,
			"actor_did", event.Actor,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.EventsAppended.WithLabelValues(string(event.Type)).Inc()
	}
	return event, nil
}

// EventsForLot returns a lot's events ascending by timestamp, ties broken by
// insertion order.
func (s *Service) EventsForLot(ctx context.Context, lotID string) ([]*Event, error) {
	if lotID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lot id is required")
	}
	events, err := s.store.ListByLot(ctx, lotID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

// Timeline is EventsForLot under the name callers of the traceability
// surface use.
func (s *Service) Timeline(ctx context.Context, lotID string) ([]*Event, error) {
	return s.EventsForLot(ctx, lotID)
}

func (s *Service) EventDetails(ctx context.Context, id string) (*Event, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "event id is required")
	}
	event, err := s.store.FindByID(ctx, id)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return event, nil
}

// VerifyEvent reports the event's verified flag; false when the event does
// not exist.
func (s *Service) VerifyEvent(ctx context.Context, id string) bool {
	event, err := s.store.FindByID(ctx, id)
	if err != nil {
		return false
	}
	return event.Verified
}

// UpdateEventVerification flips the verified flag, the sole permitted
// mutation of an existing event.
func (s *Service) UpdateEventVerification(ctx context.Context, id string, verified bool) error {
	if id == "" {
		return dErrors.New(dErrors.CodeBadRequest, "event id is required")
	}
	if err := s.store.SetVerified(ctx, id, verified); err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "event not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event verification")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "event verification updated",
			"event_id", id,
			"verified", verified,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}
