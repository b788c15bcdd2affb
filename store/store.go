// Package store defines the durable keyed state store behind the actor host.
//
// Every actor's state is one opaque record addressed by (actor type, actor
// ID). The contract is deliberately small: last write wins per key, and
// Save returns only after the backend acknowledged the write.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Load when a key has never been written.
	ErrNotFound = errors.New("bazaar: actor state not found")
	// ErrClosed is returned by every call on a closed store.
	ErrClosed = errors.New("bazaar: store is closed")
)

// Key addresses one actor's state record.
type Key struct {
	ActorType string
	ActorID   string
}

// String renders the key as "type||id", the form used by key-value backends.
func (k Key) String() string {
	return k.ActorType + "||" + k.ActorID
}

// Store is the durable state backend used by the actor host.
type Store interface {
	// Load returns the raw state for key, or ErrNotFound.
	Load(ctx context.Context, key Key) ([]byte, error)

	// Save overwrites the state for key.
	Save(ctx context.Context, key Key, data []byte) error

	// Keys lists every actor ID with persisted state for an actor type.
	// Facades use it to rebuild their ID registries on start.
	Keys(ctx context.Context, actorType string) ([]string, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
