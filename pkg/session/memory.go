package session

import (
	"context"
	"slices"
	"sync"
	"time"
)

type entry struct {
	data []byte
	exp  time.Time
}

// MemoryStore keeps sessions in process memory. Everything is lost on restart.
type MemoryStore struct {
	mu  sync.RWMutex
	m   map[string]entry
	ttl time.Duration
	now func() time.Time
}

// NewMemoryStore creates a MemoryStore whose sessions expire after ttl of inactivity.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{m: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.m[id]
	if !ok || s.now().After(e.exp) {
		return nil, ErrNotFound
	}
	return slices.Clone(e.data), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = entry{data: slices.Clone(data), exp: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func (s *MemoryStore) GC(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.m {
		if now.After(e.exp) {
			delete(s.m, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) EnsureTable(context.Context) error { return nil }

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
