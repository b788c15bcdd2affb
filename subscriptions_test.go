package bazaar_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/subscription"
)

func TestSubscriptionLifecycle(t *testing.T) {
	rec := newRecorder()
	e, _ := newEngine(t, bazaar.WithPlugin(rec))
	ctx := context.Background()
	svc := e.Subscriptions()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	req := subscriptionRequest("Premium", duration.OneYear, 1, 7)
	req.StartDate = &start

	subID, err := svc.CreateSubscription(ctx, req)
	require.NoError(t, err)

	sub, err := svc.GetSubscription(ctx, subID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, sub.EndDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	all, err := svc.GetAllSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, subID.String(), all[0].ID.String())

	deleted, err := svc.DeleteSubscription(ctx, subID)
	require.NoError(t, err)
	assert.True(t, deleted)

	all, err = svc.GetAllSubscriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	found, err := svc.GetSubscriptionByVerticalAndCategory(ctx, 1, 7)
	require.NoError(t, err)
	assert.Nil(t, found)

	raw, err := svc.GetSubscription(ctx, subID)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, subscription.StatusDeleted, raw.StatusID)
	assert.Equal(t, "Deleted-Premium", raw.SubscriptionName)

	assert.Equal(t, 1, rec.count("subscription.created"))
	assert.Equal(t, 1, rec.count("subscription.deleted"))
}

func TestGetSubscriptionByVerticalAndCategory(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	svc := e.Subscriptions()

	got, err := svc.GetSubscriptionByVerticalAndCategory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, got, "empty registry yields nil")

	_, err = svc.CreateSubscription(ctx, subscriptionRequest("Cars", duration.ThreeMonths, 1, 1))
	require.NoError(t, err)
	propertiesID, err := svc.CreateSubscription(ctx, subscriptionRequest("Properties", duration.SixMonths, 2, 5))
	require.NoError(t, err)

	got, err = svc.GetSubscriptionByVerticalAndCategory(ctx, 2, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, propertiesID.String(), got.ID.String())
	assert.Equal(t, "SixMonths", got.DurationName)

	got, err = svc.GetSubscriptionByVerticalAndCategory(ctx, 9, 9)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateSubscriptionValidation(t *testing.T) {
	cs := &countingStore{Store: memory.New()}
	e := startEngine(t, cs)
	defer e.Stop()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *subscription.CreateRequest
	}{
		{"nil request", nil},
		{"missing name", &subscription.CreateRequest{ProductCode: "P", Duration: duration.OneYear}},
		{"missing duration", &subscription.CreateRequest{ProductCode: "P", SubscriptionName: "x"}},
		{"negative budget", &subscription.CreateRequest{ProductCode: "P", SubscriptionName: "x", Duration: duration.OneYear, AdsBudget: -1}},
		{"bad currency", &subscription.CreateRequest{ProductCode: "P", SubscriptionName: "x", Duration: duration.OneYear, Currency: "riyal"}},
		{"unknown duration", &subscription.CreateRequest{ProductCode: "P", SubscriptionName: "x", Duration: 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Subscriptions().CreateSubscription(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, bazaar.IsValidation(err), "expected validation error, got %v", err)
		})
	}

	assert.Zero(t, cs.saves.Load(), "no actor write may happen for invalid input")
	ids, err := cs.Keys(ctx, bazaar.SubscriptionActorType)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCreateSubscriptionWriteFailure(t *testing.T) {
	cs := &countingStore{Store: memory.New()}
	e := startEngine(t, cs)
	defer e.Stop()
	ctx := context.Background()

	cs.failing.Store(true)
	_, err := e.Subscriptions().CreateSubscription(ctx, subscriptionRequest("x", duration.OneYear, 1, 1))
	require.ErrorIs(t, err, bazaar.ErrActorWrite)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), "subscription creation failed")

	cs.failing.Store(false)
	all, err := e.Subscriptions().GetAllSubscriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "failed creation must not be registered")
}

func TestUpdateSubscription(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	svc := e.Subscriptions()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	req := subscriptionRequest("Basic", duration.ThreeMonths, 1, 1)
	req.StartDate = &start
	subID, err := svc.CreateSubscription(ctx, req)
	require.NoError(t, err)

	ok, err := svc.UpdateSubscription(ctx, subID, &subscription.UpdateRequest{
		ProductCode:      "P-Basic",
		SubscriptionName: "Basic Plus",
		Duration:         duration.SixMonths,
		Price:            20000,
		VerticalTypeID:   1,
		CategoryID:       1,
		AdsBudget:        40,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	sub, err := svc.GetSubscription(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, "Basic Plus", sub.SubscriptionName)
	assert.Equal(t, 40, sub.AdsBudget)
	assert.Zero(t, sub.PromoteBudget, "update is a full replace")
	assert.True(t, sub.StartDate.Equal(start), "persisted start date is kept")
	assert.True(t, sub.EndDate.Equal(start.AddDate(0, 6, 0)))

	ok, err = svc.UpdateSubscription(ctx, id.NewSubscriptionID(), &subscription.UpdateRequest{
		ProductCode: "P", SubscriptionName: "ghost", Duration: duration.OneYear,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateSubscriptionSingleTurn(t *testing.T) {
	cs := &countingStore{Store: memory.New()}
	e := startEngine(t, cs)
	defer e.Stop()
	ctx := context.Background()
	svc := e.Subscriptions()

	subID, err := svc.CreateSubscription(ctx, subscriptionRequest("Basic", duration.OneYear, 1, 1))
	require.NoError(t, err)

	loads, saves := cs.loads.Load(), cs.saves.Load()
	ok, err := svc.UpdateSubscription(ctx, subID, &subscription.UpdateRequest{
		ProductCode: "P-Basic", SubscriptionName: "Basic Plus", Duration: duration.OneYear,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), cs.loads.Load()-loads, "existence check and merge share one read")
	assert.Equal(t, int64(1), cs.saves.Load()-saves)

	ghost := id.NewSubscriptionID()
	saves = cs.saves.Load()
	ok, err = svc.UpdateSubscription(ctx, ghost, &subscription.UpdateRequest{
		ProductCode: "P", SubscriptionName: "ghost", Duration: duration.OneYear,
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, saves, cs.saves.Load(), "missing subscription must not be written")

	raw, err := svc.GetSubscription(ctx, ghost)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestUpdateSubscriptionWriteFailure(t *testing.T) {
	cs := &countingStore{Store: memory.New()}
	e := startEngine(t, cs)
	defer e.Stop()
	ctx := context.Background()
	svc := e.Subscriptions()

	subID, err := svc.CreateSubscription(ctx, subscriptionRequest("Basic", duration.OneYear, 1, 1))
	require.NoError(t, err)

	cs.failing.Store(true)
	ok, err := svc.UpdateSubscription(ctx, subID, &subscription.UpdateRequest{
		ProductCode: "P-Basic", SubscriptionName: "Basic Plus", Duration: duration.OneYear,
	})
	assert.False(t, ok)
	require.ErrorIs(t, err, bazaar.ErrActorWrite)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestUpdateSubscriptionRejectsDeletedStatus(t *testing.T) {
	cs := &countingStore{Store: memory.New()}
	e := startEngine(t, cs)
	defer e.Stop()
	ctx := context.Background()
	svc := e.Subscriptions()

	subID, err := svc.CreateSubscription(ctx, subscriptionRequest("Basic", duration.OneYear, 1, 1))
	require.NoError(t, err)

	saves := cs.saves.Load()
	ok, err := svc.UpdateSubscription(ctx, subID, &subscription.UpdateRequest{
		ProductCode:      "P-Basic",
		SubscriptionName: "Basic",
		Duration:         duration.OneYear,
		StatusID:         subscription.StatusDeleted,
	})
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, bazaar.IsValidation(err), "expected validation error, got %v", err)
	assert.Equal(t, saves, cs.saves.Load())

	sub, err := svc.GetSubscription(ctx, subID)
	require.NoError(t, err)
	assert.False(t, sub.IsDeleted())

	all, err := svc.GetAllSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListingKeepsSubscriptionRevivedMidScan(t *testing.T) {
	is := &interceptStore{Store: memory.New()}
	e := startEngine(t, is)
	defer e.Stop()
	ctx := context.Background()
	svc := e.Subscriptions()

	subID, err := svc.CreateSubscription(ctx, subscriptionRequest("Basic", duration.OneYear, 1, 1))
	require.NoError(t, err)
	key := store.Key{ActorType: bazaar.SubscriptionActorType, ActorID: subID.String()}
	live, err := is.Store.Load(ctx, key)
	require.NoError(t, err)

	ok, err := svc.DeleteSubscription(ctx, subID)
	require.NoError(t, err)
	require.True(t, ok)

	// The listing reads the deleted state, then a write restores the live
	// one before the registry is pruned.
	is.arm(key, func() {
		assert.NoError(t, is.Store.Save(ctx, key, live))
	})
	all, err := svc.GetAllSubscriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "the scan saw the deleted state")

	all, err = svc.GetAllSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "revived subscription must stay registered")
	assert.Equal(t, subID.String(), all[0].ID.String())

	// Once it really is deleted the next listing prunes it.
	ok, err = svc.DeleteSubscription(ctx, subID)
	require.NoError(t, err)
	require.True(t, ok)
	all, err = svc.GetAllSubscriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	found, err := svc.GetSubscriptionByVerticalAndCategory(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDeleteUnknownSubscription(t *testing.T) {
	e, _ := newEngine(t)

	ok, err := e.Subscriptions().DeleteSubscription(context.Background(), id.NewSubscriptionID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentSubscriptionCreation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Subscriptions().CreateSubscription(ctx, subscriptionRequest(fmt.Sprintf("s-%d", i), duration.OneYear, i, i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := e.Subscriptions().GetAllSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, n)
}

func TestPaymentsHaveTheirOwnRegistry(t *testing.T) {
	rec := newRecorder()
	e, _ := newEngine(t, bazaar.WithPlugin(rec))
	ctx := context.Background()
	svc := e.Subscriptions()

	subID, err := svc.CreateSubscription(ctx, subscriptionRequest("Gold", duration.ThreeMonths, 1, 2))
	require.NoError(t, err)

	buyer := uuid.New()
	payID := pay(t, e, subID, buyer)
	assert.True(t, strings.HasPrefix(payID.String(), "pay_"))

	all, err := svc.GetAllSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "payment IDs must not leak into subscription listings")

	tx, err := svc.GetPayment(ctx, payID)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, buyer, tx.UserID)
	assert.True(t, tx.Amount.Equal(bazaar.QAR(14950)))
	wantEnd, err := duration.EndDate(tx.StartDate, duration.ThreeMonths)
	require.NoError(t, err)
	assert.True(t, tx.EndDate.Equal(wantEnd))
	assert.True(t, tx.TransactionDate.Equal(tx.LastUpdated))

	mine, err := svc.GetPaymentsByUser(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	others, err := svc.GetPaymentsByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, others)

	grants, err := e.Quotas().GetActiveQuotas(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, payID.String(), grants[0].TransactionID.String())
	assert.Equal(t, 30, grants[0].AdsRemaining)
	assert.Equal(t, 5, grants[0].PromoteRemaining)
	assert.Equal(t, 10, grants[0].RefreshRemaining)

	assert.Equal(t, 1, rec.count("payment.created"))
	assert.Equal(t, 1, rec.count("quota.granted"))
}

func TestPaymentForDeletedSubscription(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	subID, err := e.Subscriptions().CreateSubscription(ctx, subscriptionRequest("Old", duration.OneYear, 1, 1))
	require.NoError(t, err)
	_, err = e.Subscriptions().DeleteSubscription(ctx, subID)
	require.NoError(t, err)

	_, err = e.Subscriptions().CreatePayment(ctx, &payment.CreateRequest{
		SubscriptionID: subID, UserID: uuid.New(), Card: card(),
	})
	assert.ErrorIs(t, err, bazaar.ErrSubscriptionNotFound)
	assert.True(t, bazaar.IsNotFound(err))
}

func TestPaymentValidation(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	subID, err := e.Subscriptions().CreateSubscription(ctx, subscriptionRequest("x", duration.OneYear, 1, 1))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *payment.CreateRequest
	}{
		{"missing subscription", &payment.CreateRequest{UserID: uuid.New(), Card: card()}},
		{"missing user", &payment.CreateRequest{SubscriptionID: subID, Card: card()}},
		{"bad card", &payment.CreateRequest{SubscriptionID: subID, UserID: uuid.New(), Card: payment.Card{CardHolder: "x", CardLast4: "42ab", CardExpiry: "12/29"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Subscriptions().CreatePayment(ctx, tt.req)
			assert.True(t, bazaar.IsValidation(err), "got %v", err)
		})
	}
}
