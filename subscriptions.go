package bazaar

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/subscription"
)

// SubscriptionService creates, lists and soft-deletes subscription
// products, and records payments for them.
type SubscriptionService struct {
	e *Engine
}

func (s *SubscriptionService) actor(subID string) *actor.Proxy[subscription.Subscription] {
	return actor.Create(s.e.host, subscriptionKind, subID)
}

// ──────────────────────────────────────────────────
// Subscription products
// ──────────────────────────────────────────────────

// CreateSubscription persists a new subscription under a fresh ID. The ID
// is registered only after the actor write succeeded.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, req *subscription.CreateRequest) (id.SubscriptionID, error) {
	if req == nil {
		return id.Nil, ValidationError{Field: "request", Message: "is required"}
	}
	if err := s.e.check(req); err != nil {
		return id.Nil, err
	}

	subID := id.NewSubscriptionID()
	sub, err := req.Build(subID, s.e.now())
	if err != nil {
		return id.Nil, err
	}

	if err := s.actor(subID.String()).FastSetData(ctx, sub); err != nil {
		s.e.logger.Error("subscription creation failed",
			"subscription_id", subID.String(),
			"error", err,
		)
		return id.Nil, fmt.Errorf("%w: subscription creation failed: %w", ErrActorWrite, err)
	}

	s.e.subscriptionIDs.TryAdd(subID.String())
	s.e.plugins.EmitSubscriptionCreated(ctx, sub)

	s.e.logger.Info("subscription created",
		"subscription_id", subID.String(),
		"vertical_type_id", sub.VerticalTypeID,
		"category_id", sub.CategoryID,
	)
	return subID, nil
}

// GetAllSubscriptions reads every known subscription concurrently. Missing
// states are skipped; soft-deleted ones are skipped and dropped from the
// registry.
func (s *SubscriptionService) GetAllSubscriptions(ctx context.Context) ([]*subscription.Response, error) {
	ids := s.e.subscriptionIDs.Snapshot()
	states, err := loadAll(ctx, s.e.host, subscriptionKind, ids)
	if err != nil {
		s.e.logger.Error("list subscriptions failed", "error", err)
		return nil, err
	}

	out := make([]*subscription.Response, 0, len(states))
	for i, sub := range states {
		switch {
		case sub == nil:
			continue
		case sub.IsDeleted():
			s.pruneDeleted(ctx, ids[i])
			continue
		}
		out = append(out, sub.ToResponse())
	}
	return out, nil
}

// pruneDeleted drops subID from the registry if it is still soft-deleted.
// The check and the removal share one actor turn, so a concurrent update
// that revives the subscription keeps it registered.
func (s *SubscriptionService) pruneDeleted(ctx context.Context, subID string) {
	_, err := s.actor(subID).Update(ctx, func(_ context.Context, cur *subscription.Subscription) (*subscription.Subscription, error) {
		if cur != nil && cur.IsDeleted() {
			s.e.subscriptionIDs.Remove(subID)
		}
		return nil, errSkipWrite
	})
	if err != nil && !errors.Is(err, errSkipWrite) {
		s.e.logger.Warn("subscription prune failed", "subscription_id", subID, "error", err)
	}
}

// GetSubscriptionByVerticalAndCategory scans the known subscriptions in
// order and returns the first live one for the vertical and category, or
// nil when there is none.
func (s *SubscriptionService) GetSubscriptionByVerticalAndCategory(ctx context.Context, verticalTypeID, categoryID int) (*subscription.Response, error) {
	ids := s.e.subscriptionIDs.Snapshot()
	if len(ids) == 0 {
		s.e.logger.Warn("no subscriptions registered",
			"vertical_type_id", verticalTypeID,
			"category_id", categoryID,
		)
		return nil, nil
	}

	for _, subID := range ids {
		sub, err := s.actor(subID).GetData(ctx)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", subID, err)
		}
		if sub != nil && sub.Matches(verticalTypeID, categoryID) {
			return sub.ToResponse(), nil
		}
	}

	s.e.logger.Warn("no subscription matches",
		"vertical_type_id", verticalTypeID,
		"category_id", categoryID,
	)
	return nil, nil
}

// GetSubscription returns the raw actor state, soft-deleted or not, or nil
// when the ID was never written.
func (s *SubscriptionService) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return s.actor(subID.String()).GetData(ctx)
}

// UpdateSubscription replaces every field of an existing subscription. It
// returns false when the subscription does not exist. A request without a
// start date keeps the persisted one.
func (s *SubscriptionService) UpdateSubscription(ctx context.Context, subID id.SubscriptionID, req *subscription.UpdateRequest) (bool, error) {
	if subID.IsNil() {
		return false, ValidationError{Field: "id", Message: "is required"}
	}
	if req == nil {
		return false, ValidationError{Field: "request", Message: "is required"}
	}
	if err := s.e.check(req); err != nil {
		return false, err
	}

	next, err := req.Build(subID, s.e.now())
	if err != nil {
		return false, err
	}

	var missing bool
	sub, err := s.actor(subID.String()).Update(ctx, func(_ context.Context, cur *subscription.Subscription) (*subscription.Subscription, error) {
		if cur == nil {
			missing = true
			return nil, errSkipWrite
		}
		return subscription.Merge(cur, next), nil
	})
	if missing {
		return false, nil
	}
	if err != nil {
		s.e.logger.Error("subscription update failed",
			"subscription_id", subID.String(),
			"error", err,
		)
		return false, fmt.Errorf("%w: subscription update failed: %w", ErrActorWrite, err)
	}

	s.e.subscriptionIDs.TryAdd(subID.String())
	s.e.plugins.EmitSubscriptionUpdated(ctx, sub)
	return true, nil
}

// DeleteSubscription soft-deletes a subscription: the status becomes
// StatusDeleted and the name gets the "Deleted-" prefix. The state is kept.
// It returns false when the subscription does not exist.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, subID id.SubscriptionID) (bool, error) {
	if subID.IsNil() {
		return false, ValidationError{Field: "id", Message: "is required"}
	}

	var missing bool
	sub, err := s.actor(subID.String()).Update(ctx, func(_ context.Context, cur *subscription.Subscription) (*subscription.Subscription, error) {
		if cur == nil {
			missing = true
			return nil, errSkipWrite
		}
		cur.MarkDeleted(s.e.now())
		return cur, nil
	})
	if missing {
		return false, nil
	}
	if err != nil {
		s.e.logger.Error("subscription delete failed",
			"subscription_id", subID.String(),
			"error", err,
		)
		return false, fmt.Errorf("%w: subscription delete failed: %w", ErrActorWrite, err)
	}

	s.e.plugins.EmitSubscriptionDeleted(ctx, sub)
	s.e.logger.Info("subscription deleted", "subscription_id", subID.String())
	return true, nil
}
