package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/bazaar/addon"
	"github.com/xraph/bazaar/payment"
	"github.com/xraph/bazaar/quota"
	"github.com/xraph/bazaar/subscription"
)

// hookTimeout bounds a single plugin call.
const hookTimeout = 5 * time.Second

// Registry manages registered plugins. Hook implementations are cached per
// interface at registration so dispatch never type-asserts.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	onInit                []OnInit
	onShutdown            []OnShutdown
	onSubscriptionCreated []OnSubscriptionCreated
	onSubscriptionUpdated []OnSubscriptionUpdated
	onSubscriptionDeleted []OnSubscriptionDeleted
	onPaymentCreated      []OnPaymentCreated
	onAddonPaymentCreated []OnAddonPaymentCreated
	onCatalogChanged      []OnCatalogChanged
	onQuotaGranted        []OnQuotaGranted
	onQuotaConsumed       []OnQuotaConsumed
	onQuotaExceeded       []OnQuotaExceeded
	onEntityExpired       []OnEntityExpired
	onSweepCompleted      []OnSweepCompleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its hook interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}
	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
		hooks = append(hooks, "OnSubscriptionCreated")
	}
	if v, ok := p.(OnSubscriptionUpdated); ok {
		r.onSubscriptionUpdated = append(r.onSubscriptionUpdated, v)
		hooks = append(hooks, "OnSubscriptionUpdated")
	}
	if v, ok := p.(OnSubscriptionDeleted); ok {
		r.onSubscriptionDeleted = append(r.onSubscriptionDeleted, v)
		hooks = append(hooks, "OnSubscriptionDeleted")
	}
	if v, ok := p.(OnPaymentCreated); ok {
		r.onPaymentCreated = append(r.onPaymentCreated, v)
		hooks = append(hooks, "OnPaymentCreated")
	}
	if v, ok := p.(OnAddonPaymentCreated); ok {
		r.onAddonPaymentCreated = append(r.onAddonPaymentCreated, v)
		hooks = append(hooks, "OnAddonPaymentCreated")
	}
	if v, ok := p.(OnCatalogChanged); ok {
		r.onCatalogChanged = append(r.onCatalogChanged, v)
		hooks = append(hooks, "OnCatalogChanged")
	}
	if v, ok := p.(OnQuotaGranted); ok {
		r.onQuotaGranted = append(r.onQuotaGranted, v)
		hooks = append(hooks, "OnQuotaGranted")
	}
	if v, ok := p.(OnQuotaConsumed); ok {
		r.onQuotaConsumed = append(r.onQuotaConsumed, v)
		hooks = append(hooks, "OnQuotaConsumed")
	}
	if v, ok := p.(OnQuotaExceeded); ok {
		r.onQuotaExceeded = append(r.onQuotaExceeded, v)
		hooks = append(hooks, "OnQuotaExceeded")
	}
	if v, ok := p.(OnEntityExpired); ok {
		r.onEntityExpired = append(r.onEntityExpired, v)
		hooks = append(hooks, "OnEntityExpired")
	}
	if v, ok := p.(OnSweepCompleted); ok {
		r.onSweepCompleted = append(r.onSweepCompleted, v)
		hooks = append(hooks, "OnSweepCompleted")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit calls fn for every cached plugin. Failures are logged and never
// reach the caller.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, list func() []T, fn func(T) error) {
	r.mu.RLock()
	plugins := list()
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return fn(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, "OnInit", func() []OnInit { return r.onInit }, func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", func() []OnShutdown { return r.onShutdown }, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) {
	emit(ctx, r, "OnSubscriptionCreated", func() []OnSubscriptionCreated { return r.onSubscriptionCreated }, func(p OnSubscriptionCreated) error {
		return p.OnSubscriptionCreated(ctx, sub)
	})
}

func (r *Registry) EmitSubscriptionUpdated(ctx context.Context, sub *subscription.Subscription) {
	emit(ctx, r, "OnSubscriptionUpdated", func() []OnSubscriptionUpdated { return r.onSubscriptionUpdated }, func(p OnSubscriptionUpdated) error {
		return p.OnSubscriptionUpdated(ctx, sub)
	})
}

func (r *Registry) EmitSubscriptionDeleted(ctx context.Context, sub *subscription.Subscription) {
	emit(ctx, r, "OnSubscriptionDeleted", func() []OnSubscriptionDeleted { return r.onSubscriptionDeleted }, func(p OnSubscriptionDeleted) error {
		return p.OnSubscriptionDeleted(ctx, sub)
	})
}

func (r *Registry) EmitPaymentCreated(ctx context.Context, tx *payment.Transaction) {
	emit(ctx, r, "OnPaymentCreated", func() []OnPaymentCreated { return r.onPaymentCreated }, func(p OnPaymentCreated) error {
		return p.OnPaymentCreated(ctx, tx)
	})
}

func (r *Registry) EmitAddonPaymentCreated(ctx context.Context, ap *payment.AddonPayment) {
	emit(ctx, r, "OnAddonPaymentCreated", func() []OnAddonPaymentCreated { return r.onAddonPaymentCreated }, func(p OnAddonPaymentCreated) error {
		return p.OnAddonPaymentCreated(ctx, ap)
	})
}

func (r *Registry) EmitCatalogChanged(ctx context.Context, data *addon.Data) {
	emit(ctx, r, "OnCatalogChanged", func() []OnCatalogChanged { return r.onCatalogChanged }, func(p OnCatalogChanged) error {
		return p.OnCatalogChanged(ctx, data)
	})
}

func (r *Registry) EmitQuotaGranted(ctx context.Context, userID uuid.UUID, grant quota.Grant) {
	emit(ctx, r, "OnQuotaGranted", func() []OnQuotaGranted { return r.onQuotaGranted }, func(p OnQuotaGranted) error {
		return p.OnQuotaGranted(ctx, userID, grant)
	})
}

func (r *Registry) EmitQuotaConsumed(ctx context.Context, userID uuid.UUID, budget quota.Budget, draws []quota.Draw) {
	emit(ctx, r, "OnQuotaConsumed", func() []OnQuotaConsumed { return r.onQuotaConsumed }, func(p OnQuotaConsumed) error {
		return p.OnQuotaConsumed(ctx, userID, budget, draws)
	})
}

func (r *Registry) EmitQuotaExceeded(ctx context.Context, userID uuid.UUID, budget quota.Budget, requested, available int) {
	emit(ctx, r, "OnQuotaExceeded", func() []OnQuotaExceeded { return r.onQuotaExceeded }, func(p OnQuotaExceeded) error {
		return p.OnQuotaExceeded(ctx, userID, budget, requested, available)
	})
}

func (r *Registry) EmitEntityExpired(ctx context.Context, kind, entityID string) {
	emit(ctx, r, "OnEntityExpired", func() []OnEntityExpired { return r.onEntityExpired }, func(p OnEntityExpired) error {
		return p.OnEntityExpired(ctx, kind, entityID)
	})
}

func (r *Registry) EmitSweepCompleted(ctx context.Context, expired int, elapsed time.Duration) {
	emit(ctx, r, "OnSweepCompleted", func() []OnSweepCompleted { return r.onSweepCompleted }, func(p OnSweepCompleted) error {
		return p.OnSweepCompleted(ctx, expired, elapsed)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins never block the facade that emitted the event.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(hookTimeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
