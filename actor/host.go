// Package actor hosts virtual actors over a durable state store.
//
// An actor is addressed by (kind, ID) and owns exactly one state record.
// The host activates actors on first use and drops them once idle, so every
// address always exists virtually. Calls to one address run one turn at a
// time in arrival order; calls to different addresses run concurrently.
//
// A turn is never re-entered: an Update function that calls back into its
// own address with the turn context gets ErrReentrantCall instead of
// deadlocking.
package actor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/xraph/bazaar/store"
)

// Host activates actors and serializes their turns.
type Host struct {
	store  store.Store
	logger *slog.Logger

	mu     sync.Mutex
	active map[store.Key]*activation
}

// activation is the in-memory presence of one actor address.
type activation struct {
	turn chan struct{} // holding the single slot means owning the turn
	refs int           // callers holding or waiting for the turn
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// NewHost creates a host persisting actor state to s.
func NewHost(s store.Store, opts ...Option) *Host {
	h := &Host{
		store:  s,
		logger: slog.Default(),
		active: make(map[store.Key]*activation),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Store returns the durable store behind the host.
func (h *Host) Store() store.Store { return h.store }

// Activations returns how many addresses currently have a caller in or
// waiting for a turn.
func (h *Host) Activations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.active)
}

// Known lists the IDs of every actor of the given kind with persisted state.
func (h *Host) Known(ctx context.Context, kind string) ([]string, error) {
	return h.store.Keys(ctx, kind)
}

type turnKey struct{}

// heldTurns is the set of addresses whose turn is owned by the call chain
// carried in a context.
type heldTurns map[store.Key]struct{}

func inTurn(ctx context.Context, key store.Key) bool {
	held, _ := ctx.Value(turnKey{}).(heldTurns)
	_, ok := held[key]
	return ok
}

func withTurn(ctx context.Context, key store.Key) context.Context {
	prev, _ := ctx.Value(turnKey{}).(heldTurns)
	next := make(heldTurns, len(prev)+1)
	for k := range prev {
		next[k] = struct{}{}
	}
	next[key] = struct{}{}
	return context.WithValue(ctx, turnKey{}, next)
}

// enter blocks until the caller owns the turn for key or ctx is done.
// The returned context marks the turn as held; release must be called
// exactly once.
func (h *Host) enter(ctx context.Context, key store.Key) (context.Context, func(), error) {
	if inTurn(ctx, key) {
		return nil, nil, ErrReentrantCall
	}

	h.mu.Lock()
	a, ok := h.active[key]
	if !ok {
		a = &activation{turn: make(chan struct{}, 1)}
		h.active[key] = a
	}
	a.refs++
	h.mu.Unlock()

	select {
	case a.turn <- struct{}{}:
	case <-ctx.Done():
		h.leave(key, a)
		return nil, nil, ctx.Err()
	}

	release := func() {
		<-a.turn
		h.leave(key, a)
	}
	return withTurn(ctx, key), release, nil
}

func (h *Host) leave(key store.Key, a *activation) {
	h.mu.Lock()
	defer h.mu.Unlock()

	a.refs--
	if a.refs == 0 {
		delete(h.active, key)
	}
}
