// Package audithook bridges Bazaar lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit library directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/subscription"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated = (*Extension)(nil)
	_ plugin.OnSubscriptionUpdated = (*Extension)(nil)
	_ plugin.OnSubscriptionDeleted = (*Extension)(nil)
	_ plugin.OnPaymentCreated      = (*Extension)(nil)
	_ plugin.OnAddonPaymentCreated = (*Extension)(nil)
	_ plugin.OnCatalogChanged      = (*Extension)(nil)
	_ plugin.OnQuotaGranted        = (*Extension)(nil)
	_ plugin.OnQuotaConsumed       = (*Extension)(nil)
	_ plugin.OnQuotaExceeded       = (*Extension)(nil)
	_ plugin.OnEntityExpired       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Bazaar lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"product_code", sub.ProductCode,
		"vertical_type_id", sub.VerticalTypeID,
		"category_id", sub.CategoryID,
		"duration", sub.Duration.String(),
	)
}

// OnSubscriptionUpdated implements plugin.OnSubscriptionUpdated.
func (e *Extension) OnSubscriptionUpdated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionUpdated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"status", sub.StatusID.String(),
	)
}

// OnSubscriptionDeleted implements plugin.OnSubscriptionDeleted.
func (e *Extension) OnSubscriptionDeleted(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionDeleted, SeverityWarning, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"subscription_name", sub.SubscriptionName,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated implements plugin.OnPaymentCreated. Card details other
// than the last four digits never reach the audit trail.
func (e *Extension) OnPaymentCreated(ctx context.Context, tx *payment.Transaction) error {
	return e.record(ctx, ActionPaymentCreated, SeverityInfo, OutcomeSuccess,
		ResourcePayment, tx.ID.String(), CategoryPayment, nil,
		"subscription_id", tx.SubscriptionID.String(),
		"user_id", tx.UserID.String(),
		"amount", tx.Amount.String(),
		"card_last4", tx.CardLast4,
	)
}

// OnAddonPaymentCreated implements plugin.OnAddonPaymentCreated.
func (e *Extension) OnAddonPaymentCreated(ctx context.Context, ap *payment.AddonPayment) error {
	return e.record(ctx, ActionAddonPaymentCreated, SeverityInfo, OutcomeSuccess,
		ResourceAddonPayment, ap.ID.String(), CategoryPayment, nil,
		"addon_id", ap.AddonID.String(),
		"user_id", ap.UserID.String(),
		"amount", ap.Amount.String(),
		"card_last4", ap.CardLast4,
	)
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnCatalogChanged implements plugin.OnCatalogChanged.
func (e *Extension) OnCatalogChanged(ctx context.Context, data *addon.Data) error {
	return e.record(ctx, ActionCatalogChanged, SeverityInfo, OutcomeSuccess,
		ResourceCatalog, addon.DefaultID, CategoryCatalog, nil,
		"quantities", len(data.Quantities),
		"currencies", len(data.Currencies),
		"unit_currencies", len(data.UnitCurrencies),
	)
}

// ──────────────────────────────────────────────────
// Quota hooks
// ──────────────────────────────────────────────────

// OnQuotaGranted implements plugin.OnQuotaGranted.
func (e *Extension) OnQuotaGranted(ctx context.Context, userID uuid.UUID, g quota.Grant) error {
	return e.record(ctx, ActionQuotaGranted, SeverityInfo, OutcomeSuccess,
		ResourceQuota, g.TransactionID.String(), CategoryUsage, nil,
		"user_id", userID.String(),
		"source", string(g.Source),
		"ads", g.AdsGranted,
		"promote", g.PromoteGranted,
		"refresh", g.RefreshGranted,
	)
}

// OnQuotaConsumed implements plugin.OnQuotaConsumed.
func (e *Extension) OnQuotaConsumed(ctx context.Context, userID uuid.UUID, budget quota.Budget, draws []quota.Draw) error {
	units := 0
	for _, d := range draws {
		units += d.Units
	}
	return e.record(ctx, ActionQuotaConsumed, SeverityInfo, OutcomeSuccess,
		ResourceQuota, userID.String(), CategoryUsage, nil,
		"budget", string(budget),
		"units", units,
		"grants", len(draws),
	)
}

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (e *Extension) OnQuotaExceeded(ctx context.Context, userID uuid.UUID, budget quota.Budget, requested, available int) error {
	return e.record(ctx, ActionQuotaExceeded, SeverityWarning, OutcomeFailure,
		ResourceQuota, userID.String(), CategoryAccess, quota.ErrQuotaExceeded,
		"budget", string(budget),
		"requested", requested,
		"available", available,
	)
}

// ──────────────────────────────────────────────────
// Expiry hooks
// ──────────────────────────────────────────────────

// OnEntityExpired implements plugin.OnEntityExpired.
func (e *Extension) OnEntityExpired(ctx context.Context, kind, entityID string) error {
	return e.record(ctx, ActionEntityExpired, SeverityInfo, OutcomeSuccess,
		kind, entityID, CategoryLifecycle, nil,
		"actor_type", kind,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
