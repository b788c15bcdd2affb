// Package observability provides a metrics extension for Bazaar that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/subscription"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionUpdated = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionDeleted = (*MetricsExtension)(nil)
	_ plugin.OnPaymentCreated      = (*MetricsExtension)(nil)
	_ plugin.OnAddonPaymentCreated = (*MetricsExtension)(nil)
	_ plugin.OnCatalogChanged      = (*MetricsExtension)(nil)
	_ plugin.OnQuotaGranted        = (*MetricsExtension)(nil)
	_ plugin.OnQuotaConsumed       = (*MetricsExtension)(nil)
	_ plugin.OnQuotaExceeded       = (*MetricsExtension)(nil)
	_ plugin.OnEntityExpired       = (*MetricsExtension)(nil)
	_ plugin.OnSweepCompleted      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Bazaar plugin to track catalog, payment and quota activity.
type MetricsExtension struct {
	factory MetricFactory

	// Subscription metrics
	SubscriptionCreated Counter
	SubscriptionUpdated Counter
	SubscriptionDeleted Counter

	// Payment metrics
	PaymentCreated      Counter
	AddonPaymentCreated Counter
	PaymentAmount       Histogram

	// Catalog metrics
	CatalogChanged Counter

	// Quota metrics
	QuotaGranted  Counter
	QuotaConsumed Counter
	QuotaExceeded Counter

	// Expiry metrics
	EntitiesExpired Counter
	SweepLatency    Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		SubscriptionCreated: factory.Counter("bazaar.subscription.created"),
		SubscriptionUpdated: factory.Counter("bazaar.subscription.updated"),
		SubscriptionDeleted: factory.Counter("bazaar.subscription.deleted"),

		PaymentCreated:      factory.Counter("bazaar.payment.created"),
		AddonPaymentCreated: factory.Counter("bazaar.addon_payment.created"),
		PaymentAmount:       factory.Histogram("bazaar.payment.amount_minor"),

		CatalogChanged: factory.Counter("bazaar.catalog.changed"),

		QuotaGranted:  factory.Counter("bazaar.quota.granted"),
		QuotaConsumed: factory.Counter("bazaar.quota.consumed_units"),
		QuotaExceeded: factory.Counter("bazaar.quota.exceeded"),

		EntitiesExpired: factory.Counter("bazaar.expiry.entities"),
		SweepLatency:    factory.Histogram("bazaar.expiry.sweep.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnSubscriptionUpdated implements plugin.OnSubscriptionUpdated.
func (m *MetricsExtension) OnSubscriptionUpdated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionUpdated.Inc()
	return nil
}

// OnSubscriptionDeleted implements plugin.OnSubscriptionDeleted.
func (m *MetricsExtension) OnSubscriptionDeleted(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentCreated implements plugin.OnPaymentCreated.
func (m *MetricsExtension) OnPaymentCreated(_ context.Context, tx *payment.Transaction) error {
	m.PaymentCreated.Inc()
	m.PaymentAmount.Observe(float64(tx.Amount.Amount))
	return nil
}

// OnAddonPaymentCreated implements plugin.OnAddonPaymentCreated.
func (m *MetricsExtension) OnAddonPaymentCreated(_ context.Context, ap *payment.AddonPayment) error {
	m.AddonPaymentCreated.Inc()
	m.PaymentAmount.Observe(float64(ap.Amount.Amount))
	return nil
}

// OnCatalogChanged implements plugin.OnCatalogChanged.
func (m *MetricsExtension) OnCatalogChanged(_ context.Context, _ *addon.Data) error {
	m.CatalogChanged.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Quota hooks
// ──────────────────────────────────────────────────

// OnQuotaGranted implements plugin.OnQuotaGranted.
func (m *MetricsExtension) OnQuotaGranted(_ context.Context, _ uuid.UUID, _ quota.Grant) error {
	m.QuotaGranted.Inc()
	return nil
}

// OnQuotaConsumed implements plugin.OnQuotaConsumed.
func (m *MetricsExtension) OnQuotaConsumed(_ context.Context, _ uuid.UUID, _ quota.Budget, draws []quota.Draw) error {
	for _, d := range draws {
		m.QuotaConsumed.Add(float64(d.Units))
	}
	return nil
}

// OnQuotaExceeded implements plugin.OnQuotaExceeded.
func (m *MetricsExtension) OnQuotaExceeded(_ context.Context, _ uuid.UUID, _ quota.Budget, _, _ int) error {
	m.QuotaExceeded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Expiry hooks
// ──────────────────────────────────────────────────

// OnEntityExpired implements plugin.OnEntityExpired.
func (m *MetricsExtension) OnEntityExpired(_ context.Context, _, _ string) error {
	m.EntitiesExpired.Inc()
	return nil
}

// OnSweepCompleted implements plugin.OnSweepCompleted.
func (m *MetricsExtension) OnSweepCompleted(_ context.Context, _ int, elapsed time.Duration) error {
	m.SweepLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
