package bazaar

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/xraph/bazaar/actor"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/registry"
	"github.com/xraph/bazaar/store"
)

// DefaultExpirySchedule runs the expiry sweep once a minute, which keeps
// TwoMinutes test offers accurate to within half their lifetime.
const DefaultExpirySchedule = "@every 1m"

// Engine wires the actor host, the facades and their ID registries.
type Engine struct {
	store    store.Store
	host     *actor.Host
	plugins  *plugin.Registry
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time

	// Registries of known actor IDs, one per actor type. They are index
	// hints rebuilt from the store on Start.
	subscriptionIDs *registry.Registry
	paymentIDs      *registry.Registry
	addonPaymentIDs *registry.Registry
	userIDs         *registry.Registry

	subscriptions *SubscriptionService
	addons        *AddonService
	quotas        *QuotaService

	// Configuration
	migrate        bool
	expirySchedule string

	mu      sync.Mutex
	cron    *cron.Cron
	started bool
}

// New creates a new Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           s,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		validate:        validator.New(),
		now:             func() time.Time { return time.Now().UTC() },
		subscriptionIDs: registry.New(),
		paymentIDs:      registry.New(),
		addonPaymentIDs: registry.New(),
		userIDs:         registry.New(),
		migrate:         true,
		expirySchedule:  DefaultExpirySchedule,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.host = actor.NewHost(s, actor.WithLogger(e.logger))
	e.subscriptions = &SubscriptionService{e: e}
	e.addons = &AddonService{e: e}
	e.quotas = &QuotaService{e: e}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock replaces the wall clock. Times it returns should be UTC.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithExpirySchedule sets the cron spec of the expiry sweep. An empty spec
// disables the scheduled sweep; SweepExpired can still be called directly.
func WithExpirySchedule(spec string) Option {
	return func(e *Engine) {
		e.expirySchedule = spec
	}
}

// WithMigrate controls whether Start runs store migrations.
func WithMigrate(enabled bool) Option {
	return func(e *Engine) {
		e.migrate = enabled
	}
}

// Subscriptions returns the subscription and payment facade.
func (e *Engine) Subscriptions() *SubscriptionService { return e.subscriptions }

// Addons returns the add-on catalog facade.
func (e *Engine) Addons() *AddonService { return e.addons }

// Quotas returns the user quota facade.
func (e *Engine) Quotas() *QuotaService { return e.quotas }

// Host returns the actor host.
func (e *Engine) Host() *actor.Host { return e.host }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Store returns the underlying state store.
func (e *Engine) Store() store.Store { return e.store }

// Start migrates the store, rebuilds the ID registries from persisted actor
// state and starts the expiry schedule.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	if e.migrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("bazaar: migrate: %w", err)
		}
	}

	if err := e.hydrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	if e.expirySchedule != "" {
		cronLogger := cron.PrintfLogger(slog.NewLogLogger(e.logger.Handler(), slog.LevelInfo))
		c := cron.New(cron.WithChain(cron.Recover(cronLogger)))
		if _, err := c.AddFunc(e.expirySchedule, e.runScheduledSweep); err != nil {
			return fmt.Errorf("bazaar: expiry schedule %q: %w", e.expirySchedule, err)
		}
		c.Start()
		e.cron = c
	}

	e.started = true
	e.logger.Info("bazaar started",
		"subscriptions", e.subscriptionIDs.Len(),
		"payments", e.paymentIDs.Len(),
		"addon_payments", e.addonPaymentIDs.Len(),
		"users", e.userIDs.Len(),
		"expiry_schedule", e.expirySchedule,
	)

	return nil
}

// hydrate rebuilds every registry from the keys present in the store.
func (e *Engine) hydrate(ctx context.Context) error {
	targets := []struct {
		reg  *registry.Registry
		kind string
	}{
		{e.subscriptionIDs, SubscriptionActorType},
		{e.paymentIDs, PaymentTransactionActorType},
		{e.addonPaymentIDs, AddonPaymentActorType},
		{e.userIDs, UserQuotaActorType},
	}

	for _, t := range targets {
		n, err := t.reg.Hydrate(ctx, e.host, t.kind)
		if err != nil {
			return fmt.Errorf("bazaar: rebuild %s registry: %w", t.kind, err)
		}
		e.logger.Debug("registry rebuilt", "actor_type", t.kind, "ids", n)
	}
	return nil
}

// Stop halts the expiry schedule, waits for a running sweep and closes the
// store.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cron != nil {
		<-e.cron.Stop().Done()
		e.cron = nil
	}

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)
	e.started = false

	return e.store.Close()
}

// Health pings the store.
func (e *Engine) Health(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// check runs struct-tag validation on a request DTO.
func (e *Engine) check(req any) error {
	if err := e.validate.Struct(req); err != nil {
		return fromValidator(err)
	}
	return nil
}
