// Package bazaar is the entity state core of a marketplace back office.
//
// Subscriptions, add-on purchases, payment transactions and user quota
// ledgers are each owned by a virtual actor addressed by the entity ID. The
// actor is the only writer of its entity: calls to one ID run one turn at a
// time, calls to different IDs run concurrently. Facades on top create
// entities, keep an index of known IDs and answer aggregate queries by
// fanning out reads across that index.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/bazaar"
//	    "github.com/xraph/bazaar/store/postgres"
//	)
//
//	s := postgres.New(db)
//	e := bazaar.New(s, bazaar.WithLogger(logger))
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	subID, err := e.Subscriptions().CreateSubscription(ctx, &subscription.CreateRequest{
//	    ProductCode:      "PRM-12",
//	    SubscriptionName: "Premium",
//	    Duration:         bazaar.OneYear,
//	    Price:            14950,
//	    Currency:         "qar",
//	    AdsBudget:        50,
//	})
//
// # Facades
//
// SubscriptionService creates, lists and soft-deletes subscription products
// and records payments for them. AddonService manages the add-on catalog, a
// single document owned by one actor, and add-on purchases. QuotaService
// manages per-user quota ledgers; payments credit them and Consume spends
// them without ever driving a balance below zero.
//
// # Registries
//
// Each facade keeps an in-memory set of the IDs it knows. The set is an
// index hint, not a source of truth: Start rebuilds it from the store and
// reads that find no state treat the entity as absent.
//
// # Durations
//
// End dates are derived once from the persisted start date through
// duration.EndDate. Unknown duration types fail before anything is written.
//
// # Expiry
//
// A cron schedule (DefaultExpirySchedule) flags payments and quota grants
// whose end date has passed. Expired and deleted grants stay in the ledger
// but no longer count towards the user's balance.
package bazaar
