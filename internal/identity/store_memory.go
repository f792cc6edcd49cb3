package identity

import (
	"context"
	"sync"

	"agritrust/pkg/platform/sentinel"
)

// InMemoryStore keeps identity records in process. It favors clarity over
// performance and backs tests and dev mode.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[string]*Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{identities: make(map[string]*Identity)}
}

func (s *InMemoryStore) Save(_ context.Context, ident *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.identities[ident.DID]; exists {
		return sentinel.ErrConflict
	}
	s.identities[ident.DID] = clone(ident)
	return nil
}

func (s *InMemoryStore) FindByDID(_ context.Context, did string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ident, ok := s.identities[did]; ok {
		return clone(ident), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		out = append(out, clone(ident))
	}
	return out, nil
}

// Execute runs mutate against the identified record while holding the write
// lock, so concurrent attach/detach calls never interleave mid-mutation.
func (s *InMemoryStore) Execute(_ context.Context, did string, mutate func(*Identity) error) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.identities[did]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := mutate(ident); err != nil {
		return nil, err
	}
	return clone(ident), nil
}

// clone copies the record so callers never hold a reference into the map.
func clone(ident *Identity) *Identity {
	out := *ident
	out.Credentials = append([]string(nil), ident.Credentials...)
	return &out
}
