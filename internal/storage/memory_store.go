package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It does not survive the process and is
// meant for tests and throwaway sessions.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]string
	writeErr error
	writes   int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// FailWrites makes every subsequent Set fail with err. A nil err restores
// normal behaviour.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Writes returns the number of successful Set calls.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *MemoryStore) Get(_ context.Context, key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return &WriteError{Key: key, Err: s.writeErr}
	}
	s.values[key] = value
	s.writes++
	return nil
}

func (s *MemoryStore) Close() error { return nil }
