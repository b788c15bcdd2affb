package bazaar

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/bazaar/actor"
)

// fanOutLimit caps concurrent actor reads per aggregate query.
const fanOutLimit = 64

// loadAll reads the state of every actor in ids concurrently. The result is
// index-aligned with ids; actors that were never written yield nil. The
// first failed read cancels the rest.
func loadAll[T any](ctx context.Context, h *actor.Host, kind actor.Kind[T], ids []string) ([]*T, error) {
	out := make([]*T, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for i, actorID := range ids {
		g.Go(func() error {
			v, err := actor.Create(h, kind, actorID).GetData(gctx)
			if err != nil {
				return fmt.Errorf("%s %s: %w", kind.Name, actorID, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
