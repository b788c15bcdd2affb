package bazaar

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/quota"
)

func (s *SubscriptionService) paymentActor(payID string) *actor.Proxy[payment.Transaction] {
	return actor.Create(s.e.host, paymentKind, payID)
}

// CreatePayment records a payment for a live subscription and credits the
// subscription's budgets to the buyer's quota ledger under the payment ID.
//
// The payment is persisted before the quota grant. If the grant fails the
// error is returned together with the ID of the persisted payment.
func (s *SubscriptionService) CreatePayment(ctx context.Context, req *payment.CreateRequest) (id.PaymentID, error) {
	if req == nil {
		return id.Nil, ValidationError{Field: "request", Message: "is required"}
	}
	if req.SubscriptionID.IsNil() {
		return id.Nil, ValidationError{Field: "subscription_id", Message: "is required"}
	}
	if err := requireUser(req.UserID); err != nil {
		return id.Nil, err
	}
	if err := s.e.check(req); err != nil {
		return id.Nil, err
	}

	sub, err := s.actor(req.SubscriptionID.String()).GetData(ctx)
	if err != nil {
		return id.Nil, err
	}
	if sub == nil || sub.IsDeleted() {
		return id.Nil, fmt.Errorf("%w: %s", ErrSubscriptionNotFound, req.SubscriptionID)
	}

	now := s.e.now()
	start := now
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	end, err := duration.EndDate(start, sub.Duration)
	if err != nil {
		return id.Nil, err
	}

	payID := id.NewPaymentID()
	tx := &payment.Transaction{
		ID:              payID,
		SubscriptionID:  sub.ID,
		UserID:          req.UserID,
		VerticalID:      req.VerticalID,
		CategoryID:      req.CategoryID,
		Card:            req.Card,
		Amount:          sub.Price,
		TransactionDate: now,
		StartDate:       start,
		EndDate:         end,
		LastUpdated:     now,
	}

	if err := s.paymentActor(payID.String()).FastSetData(ctx, tx); err != nil {
		s.e.logger.Error("payment creation failed",
			"payment_id", payID.String(),
			"subscription_id", sub.ID.String(),
			"error", err,
		)
		return id.Nil, fmt.Errorf("%w: payment creation failed: %w", ErrActorWrite, err)
	}

	s.e.paymentIDs.TryAdd(payID.String())
	s.e.plugins.EmitPaymentCreated(ctx, tx)

	grant := quota.NewGrant(payID, quota.SourceSubscription,
		sub.AdsBudget, sub.PromoteBudget, sub.RefreshBudget, start, end)
	grant.VerticalID = req.VerticalID
	grant.CategoryID = req.CategoryID
	if err := s.e.quotas.UpsertQuota(ctx, req.UserID, grant); err != nil {
		return payID, err
	}

	s.e.logger.Info("payment created",
		"payment_id", payID.String(),
		"subscription_id", sub.ID.String(),
		"user_id", req.UserID.String(),
		"amount", tx.Amount.String(),
	)
	return payID, nil
}

// GetPayment returns a payment transaction, or nil when it does not exist.
func (s *SubscriptionService) GetPayment(ctx context.Context, payID id.PaymentID) (*payment.Transaction, error) {
	return s.paymentActor(payID.String()).GetData(ctx)
}

// GetPaymentsByUser returns every known payment made by userID, oldest
// first.
func (s *SubscriptionService) GetPaymentsByUser(ctx context.Context, userID uuid.UUID) ([]*payment.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	txs, err := loadAll(ctx, s.e.host, paymentKind, s.e.paymentIDs.Snapshot())
	if err != nil {
		return nil, err
	}

	out := make([]*payment.Transaction, 0)
	for _, tx := range txs {
		if tx != nil && tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out, nil
}
