// Package plugin provides lifecycle hooks for the Bazaar engine.
// Plugins implement any subset of the hook interfaces below; the registry
// discovers them once at registration time.
package plugin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/subscription"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *bazaar.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error
}

type OnSubscriptionUpdated interface {
	Plugin
	OnSubscriptionUpdated(ctx context.Context, sub *subscription.Subscription) error
}

// OnSubscriptionDeleted is called after a soft delete.
type OnSubscriptionDeleted interface {
	Plugin
	OnSubscriptionDeleted(ctx context.Context, sub *subscription.Subscription) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

type OnPaymentCreated interface {
	Plugin
	OnPaymentCreated(ctx context.Context, tx *payment.Transaction) error
}

type OnAddonPaymentCreated interface {
	Plugin
	OnAddonPaymentCreated(ctx context.Context, p *payment.AddonPayment) error
}

// ──────────────────────────────────────────────────
// Add-on catalog hooks
// ──────────────────────────────────────────────────

// OnCatalogChanged is called after a quantity, currency or unit-currency
// is added to the add-on catalog.
type OnCatalogChanged interface {
	Plugin
	OnCatalogChanged(ctx context.Context, data *addon.Data) error
}

// ──────────────────────────────────────────────────
// Quota hooks
// ──────────────────────────────────────────────────

type OnQuotaGranted interface {
	Plugin
	OnQuotaGranted(ctx context.Context, userID uuid.UUID, grant quota.Grant) error
}

type OnQuotaConsumed interface {
	Plugin
	OnQuotaConsumed(ctx context.Context, userID uuid.UUID, budget quota.Budget, draws []quota.Draw) error
}

// OnQuotaExceeded is called when a consumption is rejected.
type OnQuotaExceeded interface {
	Plugin
	OnQuotaExceeded(ctx context.Context, userID uuid.UUID, budget quota.Budget, requested, available int) error
}

// ──────────────────────────────────────────────────
// Expiry hooks
// ──────────────────────────────────────────────────

// OnEntityExpired is called for every record the expiry sweep flags.
// kind is the actor type; entityID is the payment or grant transaction ID.
type OnEntityExpired interface {
	Plugin
	OnEntityExpired(ctx context.Context, kind, entityID string) error
}

// OnSweepCompleted is called after each expiry sweep.
type OnSweepCompleted interface {
	Plugin
	OnSweepCompleted(ctx context.Context, expired int, elapsed time.Duration) error
}
