package credential

import (
	"context"
	"sync"

	"agritrust/pkg/platform/sentinel"
)

// InMemoryStore keeps credentials in process.
type InMemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]*Credential
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{credentials: make(map[string]*Credential)}
}

func (s *InMemoryStore) Save(_ context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cred
	s.credentials[c.ID] = &c
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.credentials[id]; ok {
		c := *cred
		return &c, nil
	}
	return nil, sentinel.ErrNotFound
}

// Remove deletes a credential after the pre callback passes. The callback
// runs under the write lock, so a verifier can never observe the credential
// between the pre step (issuer check, subject detach) and the delete.
func (s *InMemoryStore) Remove(ctx context.Context, id string, pre func(ctx context.Context, cred *Credential) error) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := pre(ctx, cred); err != nil {
		return nil, err
	}
	delete(s.credentials, id)
	c := *cred
	return &c, nil
}
