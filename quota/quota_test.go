package quota

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/id"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func ledgerWith(grants ...Grant) *Ledger {
	l := NewLedger(uuid.New())
	for _, g := range grants {
		l.Upsert(g, t0)
	}
	return l
}

func TestUpsertReplacesByTransactionID(t *testing.T) {
	tx := id.NewPaymentID()
	l := ledgerWith(NewGrant(tx, SourceSubscription, 5, 0, 0, t0, t0.AddDate(0, 3, 0)))

	if replaced := l.Upsert(NewGrant(tx, SourceSubscription, 9, 0, 0, t0, t0.AddDate(0, 3, 0)), t0); !replaced {
		t.Error("expected replace")
	}
	if len(l.Quotas) != 1 || l.Quotas[0].AdsGranted != 9 {
		t.Errorf("unexpected quotas: %+v", l.Quotas)
	}
}

func TestReplaceAndDeleteMissing(t *testing.T) {
	l := ledgerWith()
	if l.Replace(NewGrant(id.NewPaymentID(), SourceAddon, 1, 0, 0, t0, time.Time{}), t0) {
		t.Error("Replace of missing grant should report false")
	}
	if l.MarkDeleted(id.NewPaymentID(), t0) {
		t.Error("MarkDeleted of missing grant should report false")
	}
}

func TestActiveExcludesExpiredAndDeleted(t *testing.T) {
	live := NewGrant(id.NewPaymentID(), SourceSubscription, 1, 1, 1, t0, t0.AddDate(1, 0, 0))
	past := NewGrant(id.NewPaymentID(), SourceSubscription, 1, 1, 1, t0.AddDate(-2, 0, 0), t0.AddDate(-1, 0, 0))
	flagged := NewGrant(id.NewAddonPaymentID(), SourceAddon, 1, 0, 0, t0, t0.AddDate(1, 0, 0))
	flagged.IsExpired = true
	deleted := NewGrant(id.NewAddonPaymentID(), SourceAddon, 1, 0, 0, t0, t0.AddDate(1, 0, 0))
	deleted.IsDeleted = true

	l := ledgerWith(live, past, flagged, deleted)
	active := l.Active(t0.Add(time.Hour))
	if len(active) != 1 || active[0].TransactionID.String() != live.TransactionID.String() {
		t.Errorf("Active: got %+v", active)
	}
	if len(l.Quotas) != 4 {
		t.Error("inactive grants must be retained")
	}
}

func TestConsumeEarliestExpiringFirst(t *testing.T) {
	late := NewGrant(id.NewPaymentID(), SourceSubscription, 10, 0, 0, t0, t0.AddDate(1, 0, 0))
	early := NewGrant(id.NewAddonPaymentID(), SourceAddon, 3, 0, 0, t0, t0.AddDate(0, 3, 0))
	l := ledgerWith(late, early)

	draws, err := l.Consume(BudgetAds, 5, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(draws) != 2 || draws[0].TransactionID.String() != early.TransactionID.String() || draws[0].Units != 3 || draws[1].Units != 2 {
		t.Errorf("draws: %+v", draws)
	}

	s := l.Summary(t0.Add(time.Hour))
	if s.Ads != 8 || s.ActiveGrants != 2 {
		t.Errorf("summary: %+v", s)
	}
}

func TestConsumeRejectsWithoutClamping(t *testing.T) {
	l := ledgerWith(NewGrant(id.NewPaymentID(), SourceSubscription, 0, 2, 0, t0, t0.AddDate(1, 0, 0)))

	_, err := l.Consume(BudgetPromote, 3, t0)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if l.Quotas[0].PromoteRemaining != 2 {
		t.Errorf("rejected consume must not spend: remaining %d", l.Quotas[0].PromoteRemaining)
	}
}

func TestConsumeIgnoresExpiredGrants(t *testing.T) {
	g := NewGrant(id.NewPaymentID(), SourceSubscription, 5, 0, 0, t0, t0.Add(2*time.Minute))
	l := ledgerWith(g)

	if _, err := l.Consume(BudgetAds, 1, t0.Add(3*time.Minute)); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded after end date, got %v", err)
	}
}

func TestConsumeArguments(t *testing.T) {
	l := ledgerWith()
	if _, err := l.Consume("bogus", 1, t0); !errors.Is(err, ErrUnknownBudget) {
		t.Errorf("expected ErrUnknownBudget, got %v", err)
	}
	if _, err := l.Consume(BudgetAds, 0, t0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRefill(t *testing.T) {
	tx := id.NewPaymentID()
	l := ledgerWith(NewGrant(tx, SourceSubscription, 0, 0, 4, t0, t0.AddDate(1, 0, 0)))

	if _, err := l.Consume(BudgetRefresh, 3, t0); err != nil {
		t.Fatal(err)
	}
	if err := l.Refill(tx, BudgetRefresh, 2, t0); err != nil {
		t.Fatalf("Refill: %v", err)
	}
	if err := l.Refill(tx, BudgetRefresh, 2, t0); !errors.Is(err, ErrRefillExceeds) {
		t.Errorf("expected ErrRefillExceeds, got %v", err)
	}
	if err := l.Refill(id.NewPaymentID(), BudgetRefresh, 1, t0); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("expected ErrGrantNotFound, got %v", err)
	}
	if l.Quotas[0].RefreshRemaining != 3 {
		t.Errorf("RefreshRemaining: got %d", l.Quotas[0].RefreshRemaining)
	}
}

func TestRandomConsumptionNeverNegative(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	l := ledgerWith(
		NewGrant(id.NewPaymentID(), SourceSubscription, 20, 10, 5, t0, t0.AddDate(0, 6, 0)),
		NewGrant(id.NewAddonPaymentID(), SourceAddon, 7, 0, 3, t0, t0.AddDate(0, 3, 0)),
	)

	for range 500 {
		b := Budgets[r.IntN(len(Budgets))]
		before := l.Summary(t0).Get(b)
		n := 1 + r.IntN(6)
		_, err := l.Consume(b, n, t0)

		after := l.Summary(t0).Get(b)
		switch {
		case err == nil && after != before-n:
			t.Fatalf("%s: consumed %d, balance %d -> %d", b, n, before, after)
		case err != nil && after != before:
			t.Fatalf("%s: rejected consume changed balance %d -> %d", b, before, after)
		}
		if err := l.Validate(); err != nil {
			t.Fatalf("ledger invalid: %v", err)
		}
	}
}

func TestExpire(t *testing.T) {
	short := NewGrant(id.NewAddonPaymentID(), SourceAddon, 1, 0, 0, t0, t0.Add(2*time.Minute))
	long := NewGrant(id.NewPaymentID(), SourceSubscription, 1, 0, 0, t0, t0.AddDate(1, 0, 0))
	l := ledgerWith(short, long)

	flipped := l.Expire(t0.Add(5 * time.Minute))
	if len(flipped) != 1 || flipped[0].String() != short.TransactionID.String() {
		t.Errorf("flipped: %v", flipped)
	}
	if again := l.Expire(t0.Add(5 * time.Minute)); len(again) != 0 {
		t.Errorf("second Expire flipped %v", again)
	}
}

func TestNewBudgetGrant(t *testing.T) {
	g := NewBudgetGrant(id.NewAddonPaymentID(), SourceAddon, BudgetPromote, 10, t0, t0.AddDate(0, 3, 0))
	if g.PromoteGranted != 10 || g.PromoteRemaining != 10 || g.AdsGranted != 0 || g.RefreshGranted != 0 {
		t.Errorf("unexpected grant: %+v", g)
	}
}
