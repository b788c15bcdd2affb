// Package registry tracks which actor IDs a facade knows about.
//
// A Registry is an index hint, not a source of truth: the actor state in the
// store always wins. Facades rebuild it from the store on start and prune
// entries they find soft-deleted.
package registry

import (
	"context"
	"sort"
	"sync"
)

// Registry is a thread-safe set of actor IDs.
type Registry struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// TryAdd adds id and reports whether it was absent.
func (r *Registry) TryAdd(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; ok {
		return false
	}
	r.ids[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; !ok {
		return false
	}
	delete(r.ids, id)
	return true
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return ok
}

// Len returns the number of registered IDs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// Snapshot returns the registered IDs in ascending order. The slice is a
// copy; later changes to the registry do not affect it.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Lister lists persisted actor IDs of one type.
type Lister interface {
	Known(ctx context.Context, kind string) ([]string, error)
}

// Hydrate adds every persisted ID of kind to r and returns how many were new.
func (r *Registry) Hydrate(ctx context.Context, l Lister, kind string) (int, error) {
	ids, err := l.Known(ctx, kind)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, id := range ids {
		if r.TryAdd(id) {
			added++
		}
	}
	return added, nil
}
