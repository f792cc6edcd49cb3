package ledger

import (
	"context"
	"sort"
	"sync"

	"agritrust/pkg/platform/sentinel"
)

// InMemoryStore keeps events in process. Appends record insertion order so
// per-lot reads can break timestamp ties reproducibly.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string]*Event
	// order tracks insertion sequence per event id for stable tie-breaking.
	order map[string]int
	next  int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events: make(map[string]*Event),
		order:  make(map[string]int),
	}
}

func (s *InMemoryStore) Append(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := cloneEvent(event)
	s.events[e.ID] = e
	s.order[e.ID] = s.next
	s.next++
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if event, ok := s.events[id]; ok {
		return cloneEvent(event), nil
	}
	return nil, sentinel.ErrNotFound
}

// ListByLot returns the lot's events ascending by timestamp. Ordering is
// recomputed on every read; concurrent writers may interleave, and two
// events with identical timestamps keep insertion order.
func (s *InMemoryStore) ListByLot(_ context.Context, lotID string) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Event
	for _, event := range s.events {
		if event.LotID == lotID {
			out = append(out, cloneEvent(event))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return s.order[out[i].ID] < s.order[out[j].ID]
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// SetVerified flips the verified flag, the sole permitted mutation of a
// stored event.
func (s *InMemoryStore) SetVerified(_ context.Context, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	event.Verified = verified
	return nil
}

func cloneEvent(event *Event) *Event {
	e := *event
	e.Documents = append([]string(nil), event.Documents...)
	e.Images = append([]string(nil), event.Images...)
	if event.Metadata != nil {
		e.Metadata = make(map[string]any, len(event.Metadata))
		for k, v := range event.Metadata {
			e.Metadata[k] = v
		}
	}
	if event.Location != nil {
		loc := *event.Location
		e.Location = &loc
	}
	return &e
}
