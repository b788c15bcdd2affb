package bazaar

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/quota"
)

// QuotaService manages per-user quota ledgers. Each ledger is owned by a
// UserQuotaActor keyed by the user ID, so every change to one user's
// balances runs in a single actor turn.
type QuotaService struct {
	e *Engine
}

func (q *QuotaService) actor(userID uuid.UUID) *actor.Proxy[quota.Ledger] {
	return actor.Create(q.e.host, userQuotaKind, userID.String())
}

func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return ValidationError{Field: "user_id", Message: "is required"}
	}
	return nil
}

func requireGrant(g quota.Grant) error {
	if g.TransactionID.IsNil() {
		return ValidationError{Field: "transaction_id", Message: "is required"}
	}
	if err := g.Validate(); err != nil {
		return ValidationError{Field: "grant", Message: err.Error()}
	}
	return nil
}

// UpsertQuota adds grant to the user's ledger, or replaces the grant with
// the same transaction ID.
func (q *QuotaService) UpsertQuota(ctx context.Context, userID uuid.UUID, grant quota.Grant) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := requireGrant(grant); err != nil {
		return err
	}

	_, err := q.actor(userID).Update(ctx, func(_ context.Context, l *quota.Ledger) (*quota.Ledger, error) {
		if l == nil {
			l = quota.NewLedger(userID)
		}
		l.Upsert(grant, q.e.now())
		return l, nil
	})
	if err != nil {
		q.e.logger.Error("quota upsert failed",
			"user_id", userID.String(),
			"transaction_id", grant.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("%w: quota upsert failed: %w", ErrActorWrite, err)
	}

	q.e.userIDs.TryAdd(userID.String())
	q.e.plugins.EmitQuotaGranted(ctx, userID, grant)
	return nil
}

// GetLedger returns the user's full ledger, or nil when the user has never
// been granted anything.
func (q *QuotaService) GetLedger(ctx context.Context, userID uuid.UUID) (*quota.Ledger, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return q.actor(userID).GetData(ctx)
}

// GetActiveQuotas returns the grants that are neither expired nor deleted.
func (q *QuotaService) GetActiveQuotas(ctx context.Context, userID uuid.UUID) ([]quota.Grant, error) {
	l, err := q.GetLedger(ctx, userID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return []quota.Grant{}, nil
	}
	return l.Active(q.e.now()), nil
}

// UpdateQuota replaces an existing grant. It returns false when the user or
// the grant does not exist.
func (q *QuotaService) UpdateQuota(ctx context.Context, userID uuid.UUID, grant quota.Grant) (bool, error) {
	if err := requireUser(userID); err != nil {
		return false, err
	}
	if err := requireGrant(grant); err != nil {
		return false, err
	}

	return q.mutate(ctx, userID, "update", func(l *quota.Ledger) bool {
		return l.Replace(grant, q.e.now())
	})
}

// DeleteQuota flags the grant for txID as deleted. The grant is kept for
// audit. It returns false when the user or the grant does not exist.
func (q *QuotaService) DeleteQuota(ctx context.Context, userID uuid.UUID, txID id.TransactionID) (bool, error) {
	if err := requireUser(userID); err != nil {
		return false, err
	}
	if txID.IsNil() {
		return false, ValidationError{Field: "transaction_id", Message: "is required"}
	}

	return q.mutate(ctx, userID, "delete", func(l *quota.Ledger) bool {
		return l.MarkDeleted(txID, q.e.now())
	})
}

// mutate applies fn to an existing ledger in one turn. fn reports whether
// it changed anything; nothing is written when it did not.
func (q *QuotaService) mutate(ctx context.Context, userID uuid.UUID, op string, fn func(*quota.Ledger) bool) (bool, error) {
	_, err := q.actor(userID).Update(ctx, func(_ context.Context, l *quota.Ledger) (*quota.Ledger, error) {
		if l == nil || !fn(l) {
			return nil, errSkipWrite
		}
		return l, nil
	})
	if errors.Is(err, errSkipWrite) {
		return false, nil
	}
	if err != nil {
		q.e.logger.Error("quota "+op+" failed",
			"user_id", userID.String(),
			"error", err,
		)
		return false, fmt.Errorf("%w: quota %s failed: %w", ErrActorWrite, op, err)
	}
	return true, nil
}

// Consume spends n units of budget from the user's active grants, earliest
// expiring first. When the active balance is short nothing is spent and
// ErrQuotaExceeded is returned.
func (q *QuotaService) Consume(ctx context.Context, userID uuid.UUID, budget quota.Budget, n int) ([]quota.Draw, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var (
		draws     []quota.Draw
		available int
	)
	_, err := q.actor(userID).Update(ctx, func(_ context.Context, l *quota.Ledger) (*quota.Ledger, error) {
		if l == nil {
			l = quota.NewLedger(userID)
		}
		now := q.e.now()
		available = l.Summary(now).Get(budget)

		var err error
		draws, err = l.Consume(budget, n, now)
		if err != nil {
			return nil, err
		}
		return l, nil
	})

	switch {
	case errors.Is(err, quota.ErrQuotaExceeded):
		q.e.logger.Warn("quota exceeded",
			"user_id", userID.String(),
			"budget", string(budget),
			"requested", n,
			"available", available,
		)
		q.e.plugins.EmitQuotaExceeded(ctx, userID, budget, n, available)
		return nil, err
	case errors.Is(err, quota.ErrInvalidAmount), errors.Is(err, quota.ErrUnknownBudget):
		return nil, err
	case err != nil:
		q.e.logger.Error("quota consume failed",
			"user_id", userID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("%w: quota consume failed: %w", ErrActorWrite, err)
	}

	q.e.plugins.EmitQuotaConsumed(ctx, userID, budget, draws)
	return draws, nil
}

// Refill returns n units of budget to the grant for txID, never beyond the
// granted amount.
func (q *QuotaService) Refill(ctx context.Context, userID uuid.UUID, txID id.TransactionID, budget quota.Budget, n int) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	_, err := q.actor(userID).Update(ctx, func(_ context.Context, l *quota.Ledger) (*quota.Ledger, error) {
		if l == nil {
			return nil, fmt.Errorf("%w: %s", quota.ErrGrantNotFound, txID)
		}
		if err := l.Refill(txID, budget, n, q.e.now()); err != nil {
			return nil, err
		}
		return l, nil
	})
	if err != nil && !IsQuotaError(err) && !errors.Is(err, quota.ErrGrantNotFound) {
		return fmt.Errorf("%w: quota refill failed: %w", ErrActorWrite, err)
	}
	return err
}

// Remaining totals the user's active balances.
func (q *QuotaService) Remaining(ctx context.Context, userID uuid.UUID) (quota.Summary, error) {
	l, err := q.GetLedger(ctx, userID)
	if err != nil {
		return quota.Summary{}, err
	}
	if l == nil {
		return quota.Summary{UserID: userID}, nil
	}
	return l.Summary(q.e.now()), nil
}
