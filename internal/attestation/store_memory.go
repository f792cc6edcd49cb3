package attestation

import (
	"context"
	"sync"

	"agritrust/pkg/platform/sentinel"
)

// InMemoryStore keeps attestations in process.
type InMemoryStore struct {
	mu           sync.RWMutex
	attestations map[string]*Attestation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{attestations: make(map[string]*Attestation)}
}

func (s *InMemoryStore) Save(_ context.Context, att *Attestation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := *att
	s.attestations[a.ID] = &a
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if att, ok := s.attestations[id]; ok {
		a := *att
		return &a, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByLot(_ context.Context, lotID string) ([]*Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Attestation
	for _, att := range s.attestations {
		if att.TestResult.LotID == lotID {
			a := *att
			out = append(out, &a)
		}
	}
	return out, nil
}

// Remove deletes an attestation after the pre callback passes, under the
// write lock so verification never races a revocation.
func (s *InMemoryStore) Remove(ctx context.Context, id string, pre func(ctx context.Context, att *Attestation) error) (*Attestation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attestations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := pre(ctx, att); err != nil {
		return nil, err
	}
	delete(s.attestations, id)
	a := *att
	return &a, nil
}
