package extension

import "github.com/xraph/bazaar"

// Config holds the Bazaar extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.bazaar" or "bazaar" keys).
type Config struct {
	// DisableMigrate prevents store migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableExpirySweep turns the scheduled expiry sweep off. SweepExpired
	// can still be called directly.
	DisableExpirySweep bool `json:"disable_expiry_sweep" mapstructure:"disable_expiry_sweep" yaml:"disable_expiry_sweep"`

	// ExpirySchedule is a cron spec for the expiry sweep (default: "@every 1m").
	ExpirySchedule string `json:"expiry_schedule" mapstructure:"expiry_schedule" yaml:"expiry_schedule"`

	// RedisAddr, when set and no store was given programmatically, backs
	// actor state with Redis at this address.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// RedisPassword authenticates against RedisAddr.
	RedisPassword string `json:"-" mapstructure:"redis_password" yaml:"redis_password"`

	// RedisDB selects the logical Redis database.
	RedisDB int `json:"redis_db" mapstructure:"redis_db" yaml:"redis_db"`

	// RedisPrefix namespaces Bazaar keys in Redis (default: "bazaar").
	RedisPrefix string `json:"redis_prefix" mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExpirySchedule: bazaar.DefaultExpirySchedule,
		RedisPrefix:    "bazaar",
	}
}
