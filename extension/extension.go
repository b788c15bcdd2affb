// Package extension provides the Forge extension adapter for Bazaar.
//
// It implements the forge.Extension interface to integrate Bazaar
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.bazaar" or "bazaar" keys.
package extension

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/bazaar"
	"github.com/xraph/bazaar/store"
	"github.com/xraph/bazaar/store/memory"
	redisstore "github.com/xraph/bazaar/store/redis"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "bazaar"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Actor-backed subscriptions, add-ons, payments and user quotas"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Bazaar as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *bazaar.Engine
	store      store.Store
	engineOpts []bazaar.Option
}

// New creates a new Bazaar Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Bazaar engine.
// This is nil until Register is called.
func (e *Extension) Engine() *bazaar.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = e.defaultStore()
	}

	e.engine = bazaar.New(e.store, e.buildEngineOpts()...)

	return vessel.Provide(fapp.Container(), func() (*bazaar.Engine, error) {
		return e.engine, nil
	})
}

// defaultStore picks Redis when an address is configured and the
// in-memory store otherwise.
func (e *Extension) defaultStore() store.Store {
	if e.config.RedisAddr == "" {
		e.Logger().Warn("bazaar: no store configured, actor state is kept in memory")
		return memory.New()
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     e.config.RedisAddr,
		Password: e.config.RedisPassword,
		DB:       e.config.RedisDB,
	})
	return redisstore.New(client, redisstore.WithPrefix(e.config.RedisPrefix))
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("bazaar: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("bazaar: engine not initialized")
	}
	return e.engine.Health(ctx)
}

// buildEngineOpts constructs bazaar.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []bazaar.Option {
	opts := make([]bazaar.Option, 0, len(e.engineOpts)+2)

	opts = append(opts, bazaar.WithMigrate(!e.config.DisableMigrate))

	schedule := e.config.ExpirySchedule
	if e.config.DisableExpirySweep {
		schedule = ""
	}
	opts = append(opts, bazaar.WithExpirySchedule(schedule))

	// Pass-through options last so they win.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("bazaar: configuration is required but not found in config files; " +
				"ensure 'extensions.bazaar' or 'bazaar' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("bazaar: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("disable_expiry_sweep", e.config.DisableExpirySweep),
		forge.F("expiry_schedule", e.config.ExpirySchedule),
		forge.F("redis_addr", e.config.RedisAddr),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.bazaar", "bazaar"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("bazaar: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("bazaar: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.ExpirySchedule == "" {
		cfg.ExpirySchedule = defaults.ExpirySchedule
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = defaults.RedisPrefix
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic bool flags and non-empty
// values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableExpirySweep {
		yamlConfig.DisableExpirySweep = true
	}

	if yamlConfig.ExpirySchedule == "" {
		yamlConfig.ExpirySchedule = programmaticConfig.ExpirySchedule
	}
	if yamlConfig.RedisAddr == "" {
		yamlConfig.RedisAddr = programmaticConfig.RedisAddr
		yamlConfig.RedisPassword = programmaticConfig.RedisPassword
		yamlConfig.RedisDB = programmaticConfig.RedisDB
	}
	if yamlConfig.RedisPrefix == "" {
		yamlConfig.RedisPrefix = programmaticConfig.RedisPrefix
	}

	return mergeWithDefaults(yamlConfig)
}
