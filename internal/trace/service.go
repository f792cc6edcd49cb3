package trace

import (
	"context"
	"fmt"
	"log/slog"

	"agritrust/internal/ledger"
	dErrors "agritrust/pkg/domain-errors"
	"agritrust/pkg/requestcontext"
)

// EventSource is the slice of the Event Ledger the aggregator reads.
type EventSource interface {
	Timeline(ctx context.Context, lotID string) ([]*ledger.Event, error)
}

// Cache fronts the projection with a per-lot read cache. A nil Cache
// disables caching.
type Cache interface {
	Get(ctx context.Context, lotID string) (*Traceability, bool)
	Put(ctx context.Context, lotID string, t *Traceability)
	Invalidate(ctx context.Context, lotID string)
}

// Service is the Traceability Aggregator: a read-only projection over the
// Event Ledger. It owns no store of its own and re-derives everything on
// each read.
type Service struct {
	events EventSource
	cache  Cache
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func New(events EventSource, opts ...Option) (*Service, error) {
	if events == nil {
		return nil, fmt.Errorf("event source is required")
	}
	svc := &Service{events: events}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Traceability joins the lot's ordered events into a timeline and derives
// the summary, participant set, location trail, and document/image unions.
func (s *Service) Traceability(ctx context.Context, lotID string) (*Traceability, error) {
	if lotID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "lot id is required")
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, lotID); ok {
			return cached, nil
		}
	}

	events, err := s.events.Timeline(ctx, lotID)
	if err != nil {
		return nil, err
	}

	t := &Traceability{
		LotID:        lotID,
		Timeline:     events,
		Participants: []string{},
		Locations:    []LocationPoint{},
		Documents:    []string{},
		Images:       []string{},
	}

	seen := make(map[string]struct{})
	for _, event := range events {
		if event.Verified {
			t.Summary.VerifiedCount++
		}
		if _, ok := seen[event.Actor]; !ok {
			seen[event.Actor] = struct{}{}
			t.Participants = append(t.Participants, event.Actor)
		}
		if event.Location != nil {
			t.Locations = append(t.Locations, LocationPoint{
				EventID:   event.ID,
				Type:      event.Type,
				Location:  *event.Location,
				Timestamp: event.Timestamp,
			})
		}
		t.Documents = append(t.Documents, event.Documents...)
		t.Images = append(t.Images, event.Images...)
	}

	t.Summary.TotalEvents = len(events)
	if len(events) > 0 {
		t.Summary.Status = "active"
		t.Summary.LastUpdate = events[len(events)-1].Timestamp
	} else {
		t.Summary.Status = "inactive"
		t.Summary.LastUpdate = requestcontext.Now(ctx)
	}

	if s.cache != nil {
		s.cache.Put(ctx, lotID, t)
	}
	return t, nil
}
