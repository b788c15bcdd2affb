package actor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xraph/bazaar/store"
)

// Kind describes one actor type.
type Kind[T any] struct {
	// Name is the actor type. It namespaces state in the store.
	Name string

	// Validate rejects state before it is persisted. Optional.
	Validate func(*T) error

	// Merge combines the persisted state with an incoming SetData value.
	// prev is nil when the actor has never been written. Optional; without
	// it next replaces prev.
	Merge func(prev, next *T) *T
}

// Proxy is a typed handle bound to one actor address.
type Proxy[T any] struct {
	host *Host
	kind Kind[T]
	key  store.Key
}

// Create returns a proxy for the actor of the given kind and ID. The actor
// is activated on the first call, not here.
func Create[T any](h *Host, kind Kind[T], actorID string) *Proxy[T] {
	return &Proxy[T]{
		host: h,
		kind: kind,
		key:  store.Key{ActorType: kind.Name, ActorID: actorID},
	}
}

// ID returns the actor ID.
func (p *Proxy[T]) ID() string { return p.key.ActorID }

// Kind returns the actor type name.
func (p *Proxy[T]) Kind() string { return p.key.ActorType }

// GetData returns the actor's state, or nil when it has never been written.
func (p *Proxy[T]) GetData(ctx context.Context) (*T, error) {
	_, release, err := p.host.enter(ctx, p.key)
	if err != nil {
		return nil, err
	}
	defer release()

	return p.load(ctx)
}

// SetData reads the current state, merges v into it and persists the result.
func (p *Proxy[T]) SetData(ctx context.Context, v *T) error {
	if v == nil {
		return ErrNilState
	}

	_, release, err := p.host.enter(ctx, p.key)
	if err != nil {
		return err
	}
	defer release()

	next := v
	if p.kind.Merge != nil {
		prev, err := p.load(ctx)
		if err != nil {
			return err
		}
		next = p.kind.Merge(prev, v)
	}

	return p.save(ctx, next)
}

// FastSetData persists v without reading the current state.
func (p *Proxy[T]) FastSetData(ctx context.Context, v *T) error {
	if v == nil {
		return ErrNilState
	}

	_, release, err := p.host.enter(ctx, p.key)
	if err != nil {
		return err
	}
	defer release()

	return p.save(ctx, v)
}

// Update runs fn against the current state (nil if never written) within a
// single turn and persists what it returns. If fn returns an error nothing
// is written and the error is returned unchanged.
//
// fn receives the turn context. Calls made with it into the same address
// fail with ErrReentrantCall.
func (p *Proxy[T]) Update(ctx context.Context, fn func(ctx context.Context, cur *T) (*T, error)) (*T, error) {
	turnCtx, release, err := p.host.enter(ctx, p.key)
	if err != nil {
		return nil, err
	}
	defer release()

	cur, err := p.load(turnCtx)
	if err != nil {
		return nil, err
	}

	next, err := fn(turnCtx, cur)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, ErrNilState
	}

	if err := p.save(turnCtx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (p *Proxy[T]) load(ctx context.Context) (*T, error) {
	raw, err := p.host.store.Load(ctx, p.key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("actor %s: load: %w", p.key, err)
	}

	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("actor %s: decode state: %w", p.key, err)
	}
	return v, nil
}

func (p *Proxy[T]) save(ctx context.Context, v *T) error {
	if p.kind.Validate != nil {
		if err := p.kind.Validate(v); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("actor %s: encode state: %w", p.key, err)
	}

	// A caller that gave up while queued for the turn must not write.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.host.store.Save(ctx, p.key, raw); err != nil {
		p.host.logger.Error("actor state write failed",
			"actor_type", p.key.ActorType,
			"actor_id", p.key.ActorID,
			"error", err,
		)
		return fmt.Errorf("actor %s: save: %w", p.key, err)
	}
	return nil
}
