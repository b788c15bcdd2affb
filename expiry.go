package bazaar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/quota"
)

// SweepExpired flags every payment, add-on payment and quota grant whose
// end date has passed. Each record is flipped inside its own actor turn.
// Failures on individual actors do not stop the sweep; they are returned
// together as a MultiError. It returns how many records were flagged.
func (e *Engine) SweepExpired(ctx context.Context) (int, error) {
	started := time.Now()
	now := e.now()

	var (
		total int64
		mu    sync.Mutex
		errs  MultiError
	)
	collect := func(n int, err error) {
		atomic.AddInt64(&total, int64(n))
		if err != nil {
			mu.Lock()
			errs.Add(err)
			mu.Unlock()
		}
	}

	collect(sweepKind(ctx, e, paymentKind, e.paymentIDs.Snapshot(), func(tx *payment.Transaction) []string {
		if tx.Expire(now) {
			return []string{tx.ID.String()}
		}
		return nil
	}))
	collect(sweepKind(ctx, e, addonPaymentKind, e.addonPaymentIDs.Snapshot(), func(ap *payment.AddonPayment) []string {
		if ap.Expire(now) {
			return []string{ap.ID.String()}
		}
		return nil
	}))
	collect(sweepKind(ctx, e, userQuotaKind, e.userIDs.Snapshot(), func(l *quota.Ledger) []string {
		return txStrings(l.Expire(now))
	}))

	expired := int(atomic.LoadInt64(&total))
	e.plugins.EmitSweepCompleted(ctx, expired, time.Since(started))
	if expired > 0 {
		e.logger.Info("expiry sweep completed",
			"expired", expired,
			"elapsed", time.Since(started),
		)
	}
	return expired, errs.ErrorOrNil()
}

// sweepKind runs expire against every actor in ids. expire mutates the
// state and returns the IDs of the records it flagged; nothing is written
// when it returns none.
func sweepKind[T any](ctx context.Context, e *Engine, kind actor.Kind[T], ids []string, expire func(*T) []string) (int, error) {
	var (
		count int64
		mu    sync.Mutex
		errs  MultiError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOutLimit)
	for _, actorID := range ids {
		g.Go(func() error {
			var flagged []string
			_, err := actor.Create(e.host, kind, actorID).Update(gctx, func(_ context.Context, cur *T) (*T, error) {
				if cur == nil {
					return nil, errSkipWrite
				}
				if flagged = expire(cur); len(flagged) == 0 {
					return nil, errSkipWrite
				}
				return cur, nil
			})
			switch {
			case errors.Is(err, errSkipWrite):
				return nil
			case err != nil:
				mu.Lock()
				errs.Add(err)
				mu.Unlock()
				// Keep sweeping the other actors.
				return nil
			}

			atomic.AddInt64(&count, int64(len(flagged)))
			for _, entityID := range flagged {
				e.plugins.EmitEntityExpired(ctx, kind.Name, entityID)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(count), errs.ErrorOrNil()
}

func txStrings(ids []id.TransactionID) []string {
	out := make([]string, len(ids))
	for i, txID := range ids {
		out[i] = txID.String()
	}
	return out
}

// runScheduledSweep is the cron entry point.
func (e *Engine) runScheduledSweep() {
	if _, err := e.SweepExpired(context.Background()); err != nil {
		e.logger.Error("expiry sweep failed", "error", err)
	}
}
