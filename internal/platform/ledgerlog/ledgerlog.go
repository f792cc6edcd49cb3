// Package ledgerlog is the append-only log collaborator. Events and
// attestations are published to it at creation time; the returned entry
// reference is stored verbatim on the record and never interpreted.
package ledgerlog

import (
	"context"
	"fmt"
	"sync"
)

// Appender publishes a keyed payload to the append-only log and returns an
// opaque entry reference.
type Appender interface {
	Append(ctx context.Context, key string, payload any) (string, error)
}

// Memory keeps appended payloads in process. It backs tests and dev mode
// where no broker is configured.
type Memory struct {
	mu      sync.Mutex
	entries []memoryEntry
}

type memoryEntry struct {
	Key     string
	Payload any
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, key string, payload any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, memoryEntry{Key: key, Payload: payload})
	return fmt.Sprintf("memlog/0/%d", len(m.entries)-1), nil
}

// Len reports the number of appended entries. Test hook.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
