package registry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/xraph/bazaar/registry"
)

func TestTryAddRemove(t *testing.T) {
	r := registry.New()

	if !r.TryAdd("a") {
		t.Error("first TryAdd should report true")
	}
	if r.TryAdd("a") {
		t.Error("second TryAdd should report false")
	}
	if !r.Contains("a") {
		t.Error("expected a to be registered")
	}
	if !r.Remove("a") {
		t.Error("Remove should report true")
	}
	if r.Remove("a") {
		t.Error("second Remove should report false")
	}
	if r.Len() != 0 {
		t.Errorf("Len: got %d", r.Len())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	r := registry.New()
	r.TryAdd("b")
	r.TryAdd("a")

	snap := r.Snapshot()
	r.TryAdd("c")
	r.Remove("a")

	if len(snap) != 2 || snap[0] != "a" || snap[1] != "b" {
		t.Errorf("Snapshot: got %v", snap)
	}
}

func TestConcurrentTryAdd(t *testing.T) {
	r := registry.New()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.TryAdd(fmt.Sprintf("id-%d", i%10))
			_ = r.Snapshot()
		}(i)
	}
	wg.Wait()

	if r.Len() != 10 {
		t.Errorf("Len: got %d, want 10", r.Len())
	}
}

type listerFunc func(ctx context.Context, kind string) ([]string, error)

func (f listerFunc) Known(ctx context.Context, kind string) ([]string, error) { return f(ctx, kind) }

func TestHydrate(t *testing.T) {
	r := registry.New()
	r.TryAdd("x")

	added, err := r.Hydrate(context.Background(), listerFunc(func(_ context.Context, kind string) ([]string, error) {
		if kind != "SubscriptionActor" {
			t.Errorf("kind: got %q", kind)
		}
		return []string{"x", "y", "z"}, nil
	}), "SubscriptionActor")
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if added != 2 {
		t.Errorf("added: got %d, want 2", added)
	}
	if r.Len() != 3 {
		t.Errorf("Len: got %d, want 3", r.Len())
	}

	boom := errors.New("boom")
	if _, err := r.Hydrate(context.Background(), listerFunc(func(context.Context, string) ([]string, error) {
		return nil, boom
	}), "SubscriptionActor"); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
