// Package memory is a process-lifetime key-value store. It backs the
// session-scoped marker: its contents vanish when the process exits, the same
// way tab storage vanishes when a browser is closed.
package memory

import (
	"context"
	"sync"

	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

var _ ports.KeyValueStore = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Len is the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
