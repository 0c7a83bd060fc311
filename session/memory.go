package session

import (
	"context"
	"sync"
	"time"

	"github.com/creastat/aura"
)

// InMemoryStore implements Store using an in-memory map with optimistic locking.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionData
}

// NewInMemoryStore creates a new in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*SessionData),
	}
}

// Create implements Store.
func (s *InMemoryStore) Create(ctx context.Context, data *SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(data, time.Now())
	s.sessions[data.ID] = data.clone()
	return nil
}

// Get implements Store.
// Returns a copy so callers cannot bypass the version check.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*SessionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sessions[id]
	if !exists {
		return nil, nil
	}
	return data.clone(), nil
}

// Update implements Store.
func (s *InMemoryStore) Update(ctx context.Context, data *SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.sessions[data.ID]
	if !exists {
		return aura.ErrNotFound
	}
	if stored.Version != data.Version {
		return aura.ErrVersionConflict
	}

	data.Version++
	data.UpdatedAt = time.Now()

	s.sessions[data.ID] = data.clone()
	return nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Close implements Store.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*SessionData)
	return nil
}
