// Package memory is an in-process Store used by tests and single-node setups.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/bazaar/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps actor state in a map. Saved bytes are copied so callers
// cannot mutate persisted state after the fact.
type Store struct {
	mu     sync.RWMutex
	states map[string]map[string][]byte // actor type -> actor id -> state
	closed bool
}

func New() *Store {
	return &Store{states: make(map[string]map[string][]byte)}
}

func (s *Store) Load(ctx context.Context, key store.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}
	data, ok := s.states[key.ActorType][key.ActorID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Save(ctx context.Context, key store.Key, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	byID, ok := s.states[key.ActorType]
	if !ok {
		byID = make(map[string][]byte)
		s.states[key.ActorType] = byID
	}
	byID[key.ActorID] = append([]byte(nil), data...)
	return nil
}

func (s *Store) Keys(ctx context.Context, actorType string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}
	keys := make([]string, 0, len(s.states[actorType]))
	for k := range s.states[actorType] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// Close marks the store closed. The data is kept so Reopen can restore it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reopen makes a closed store usable again with its data intact. Tests use
// it to simulate a process restart over the same durable state.
func (s *Store) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
}
