// Package redis stores actor state in Redis. Each actor is one string key
// and every actor type keeps a set of its actor IDs so Keys does not need
// to scan the keyspace.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/bazaar/store"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "bazaar"

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on a go-redis client.
type Store struct {
	client goredis.UniversalClient
	prefix string
	closed atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New wraps an existing client. Close closes the client.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client returns the underlying redis client.
func (s *Store) Client() goredis.UniversalClient { return s.client }

func (s *Store) stateKey(key store.Key) string {
	return s.prefix + ":state:" + key.String()
}

func (s *Store) indexKey(actorType string) string {
	return s.prefix + ":index:" + actorType
}

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(context.Context) error { return nil }

// Ping checks server connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return store.ErrClosed
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

func (s *Store) Load(ctx context.Context, key store.Key) ([]byte, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}

	data, err := s.client.Get(ctx, s.stateKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bazaar/redis: load %s: %w", key, err)
	}
	return data, nil
}

// Save writes the state and its index entry in one MULTI/EXEC block.
func (s *Store) Save(ctx context.Context, key store.Key, data []byte) error {
	if s.closed.Load() {
		return store.ErrClosed
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.stateKey(key), data, 0)
		pipe.SAdd(ctx, s.indexKey(key.ActorType), key.ActorID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("bazaar/redis: save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, actorType string) ([]string, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}

	ids, err := s.client.SMembers(ctx, s.indexKey(actorType)).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("bazaar/redis: keys %s: %w", actorType, err)
	}
	sort.Strings(ids)
	return ids, nil
}
