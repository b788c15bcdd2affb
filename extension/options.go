package extension

import (
	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/plugin"
	"github.com/xraph/bazaar/store"
)

// Option configures the Bazaar Forge extension.
type Option func(*Extension)

// WithStore sets the actor state store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a bazaar.Option through to the underlying engine.
func WithEngineOption(opt bazaar.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a bazaar plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, bazaar.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents store migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithDisableExpirySweep turns the scheduled expiry sweep off.
func WithDisableExpirySweep() Option {
	return func(e *Extension) { e.config.DisableExpirySweep = true }
}

// WithExpirySchedule sets the cron spec of the expiry sweep.
func WithExpirySchedule(spec string) Option {
	return func(e *Extension) { e.config.ExpirySchedule = spec }
}

// WithRedis backs actor state with Redis when no store is set.
func WithRedis(addr string) Option {
	return func(e *Extension) { e.config.RedisAddr = addr }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
