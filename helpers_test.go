package bazaar_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/duration"
	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/subscription"
)

// clock is a settable UTC clock.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t.UTC()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingStore records reads and writes and can be made to fail writes.
type countingStore struct {
	store.Store
	loads   atomic.Int64
	saves   atomic.Int64
	failing atomic.Bool
}

func (s *countingStore) Load(ctx context.Context, key store.Key) ([]byte, error) {
	s.loads.Add(1)
	return s.Store.Load(ctx, key)
}

var errDiskFull = errors.New("disk full")

func (s *countingStore) Save(ctx context.Context, key store.Key, data []byte) error {
	s.saves.Add(1)
	if s.failing.Load() {
		return errDiskFull
	}
	return s.Store.Save(ctx, key, data)
}

// interceptStore runs a one-shot callback after the next Load of a key.
type interceptStore struct {
	store.Store
	mu    sync.Mutex
	key   store.Key
	after func()
}

func (s *interceptStore) arm(key store.Key, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key, s.after = key, fn
}

func (s *interceptStore) Load(ctx context.Context, key store.Key) ([]byte, error) {
	data, err := s.Store.Load(ctx, key)

	s.mu.Lock()
	fn := s.after
	if fn != nil && key == s.key {
		s.after = nil
	} else {
		fn = nil
	}
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return data, err
}

func startEngine(t *testing.T, s store.Store, opts ...bazaar.Option) *bazaar.Engine {
	t.Helper()
	opts = append([]bazaar.Option{bazaar.WithExpirySchedule("")}, opts...)
	e := bazaar.New(s, opts...)
	require.NoError(t, e.Start(context.Background()))
	return e
}

func newEngine(t *testing.T, opts ...bazaar.Option) (*bazaar.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	e := startEngine(t, s, opts...)
	t.Cleanup(func() { _ = e.Stop() })
	return e, s
}

func subscriptionRequest(name string, d duration.Type, vertical, category int) *subscription.CreateRequest {
	return &subscription.CreateRequest{
		ProductCode:      "P-" + name,
		SubscriptionName: name,
		Duration:         d,
		Price:            14950,
		Currency:         "qar",
		VerticalTypeID:   vertical,
		CategoryID:       category,
		AdsBudget:        30,
		PromoteBudget:    5,
		RefreshBudget:    10,
	}
}

func card() payment.Card {
	return payment.Card{CardHolder: "A. Buyer", CardLast4: "4242", CardExpiry: "12/29"}
}

func pay(t *testing.T, e *bazaar.Engine, subID id.SubscriptionID, user uuid.UUID) id.PaymentID {
	t.Helper()
	payID, err := e.Subscriptions().CreatePayment(context.Background(), &payment.CreateRequest{
		SubscriptionID: subID,
		UserID:         user,
		VerticalID:     1,
		CategoryID:     2,
		Card:           card(),
	})
	require.NoError(t, err)
	return payID
}

// recorder is a plugin that counts the hooks it receives.
type recorder struct {
	mu     sync.Mutex
	events map[string]int
}

func newRecorder() *recorder { return &recorder{events: make(map[string]int)} }

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) hit(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[name]++
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[name]
}

func (r *recorder) OnSubscriptionCreated(context.Context, *subscription.Subscription) error {
	r.hit("subscription.created")
	return nil
}

func (r *recorder) OnSubscriptionDeleted(context.Context, *subscription.Subscription) error {
	r.hit("subscription.deleted")
	return nil
}

func (r *recorder) OnPaymentCreated(context.Context, *payment.Transaction) error {
	r.hit("payment.created")
	return nil
}

func (r *recorder) OnQuotaGranted(context.Context, uuid.UUID, quota.Grant) error {
	r.hit("quota.granted")
	return nil
}

func (r *recorder) OnQuotaExceeded(context.Context, uuid.UUID, quota.Budget, int, int) error {
	r.hit("quota.exceeded")
	return nil
}

func (r *recorder) OnEntityExpired(context.Context, string, string) error {
	r.hit("entity.expired")
	return nil
}
