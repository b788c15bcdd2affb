package bazaar_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/store/memory"
	"github.com/xraph/bazaar/subscription"
	"github.com/xraph/bazaar/types"
)

// TestDocumentationExamples verifies that the package documentation examples work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Memory store for the example; use postgres in production.
		e := bazaar.New(memory.New(),
			bazaar.WithLogger(slog.Default()),
			bazaar.WithExpirySchedule(""),
		)

		ctx := context.Background()
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		subID, err := e.Subscriptions().CreateSubscription(ctx, &subscription.CreateRequest{
			ProductCode:      "PRM-12",
			SubscriptionName: "Premium",
			Duration:         bazaar.OneYear,
			Price:            14950,
			Currency:         "qar",
			AdsBudget:        50,
		})
		if err != nil {
			t.Fatal(err)
		}

		buyer := uuid.New()
		if _, err := e.Subscriptions().CreatePayment(ctx, &payment.CreateRequest{
			SubscriptionID: subID,
			UserID:         buyer,
			Card:           payment.Card{CardHolder: "A. Buyer", CardLast4: "4242", CardExpiry: "12/29"},
		}); err != nil {
			t.Fatal(err)
		}

		if _, err := e.Quotas().Consume(ctx, buyer, bazaar.BudgetAds, 1); err != nil {
			t.Fatal(err)
		}

		summary, err := e.Quotas().Remaining(ctx, buyer)
		if err != nil {
			t.Fatal(err)
		}
		if summary.Ads != 49 {
			t.Errorf("Ads remaining: got %d, want 49", summary.Ads)
		}
	})

	t.Run("AddonCatalogExample", func(t *testing.T) {
		e := bazaar.New(memory.New(), bazaar.WithExpirySchedule(""))
		ctx := context.Background()
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop()

		q, err := e.Addons().CreateQuantity(ctx, &addon.CreateQuantityRequest{
			QuantityName: "10 refreshes", Value: 10, Budget: bazaar.BudgetRefresh,
		})
		if err != nil {
			t.Fatal(err)
		}
		c, err := e.Addons().CreateCurrency(ctx, &addon.CreateCurrencyRequest{CurrencyName: "QAR"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.Addons().CreateUnitCurrency(ctx, &addon.CreateUnitCurrencyRequest{
			QuantityID: q.ID, CurrencyID: c.ID, Duration: bazaar.ThreeMonths, Price: 2500,
		}); err != nil {
			t.Fatal(err)
		}

		offers, err := e.Addons().GetByQuantityID(ctx, q.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(offers) != 1 || offers[0].CurrencyName != "QAR" {
			t.Errorf("offers: %+v", offers)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		m := types.QAR(14950)
		if m.String() != "149.50 QAR" {
			t.Errorf("String: got %q", m.String())
		}
		if !m.Add(bazaar.QAR(50)).Equal(types.QAR(15000)) {
			t.Error("Add mismatch")
		}
	})
}
