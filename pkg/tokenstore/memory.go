package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore holds client state for the lifetime of the process, the way a
// browser tab's storage does when nothing is written to disk.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Token
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Token), now: time.Now}
}

func (m *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = Token{Key: key, Value: value, ExpiresAt: exp}
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the entry. An expired entry is dropped on read.
func (m *MemoryStore) Get(_ context.Context, key string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	switch {
	case !ok:
		return nil, ErrTokenNotFound
	case entry.expiredAt(m.now()):
		delete(m.entries, key)
		return nil, ErrTokenExpired
	}
	return &entry, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now, removed := m.now(), 0
	for key, entry := range m.entries {
		if entry.expiredAt(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len counts stored entries, expired ones included until they are read or
// cleaned up.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
