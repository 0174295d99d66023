package store

import (
	"context"
	"sync"
	"time"

	"github.com/agora-market/admission/ports"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no ttl
}

// MemoryStore is an in-memory implementation of the Record Store, used in
// tests and single-process deployments. Expired entries are dropped lazily
// on access.
type MemoryStore struct {
	data map[string]memoryEntry
	mu   sync.Mutex
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
	}
}

// Get retrieves a record by key.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok {
		return "", ports.ErrRecordNotFound
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.data, key)
		return "", ports.ErrRecordNotFound
	}
	return entry.value, nil
}

// Put stores a record with an expiration.
func (s *MemoryStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.data[key] = entry
	return nil
}

// Delete removes a record and reports whether a live one was removed. An
// entry whose ttl has lapsed counts as absent, matching Redis DEL, so a
// dead record can never satisfy the consume-once signal.
func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	delete(s.data, key)
	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Len reports the number of live records. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
