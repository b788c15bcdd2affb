package extension

import "testing"

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{})
	if cfg.ExpirySchedule != "@every 1m" {
		t.Errorf("ExpirySchedule: got %q", cfg.ExpirySchedule)
	}
	if cfg.RedisPrefix != "bazaar" {
		t.Errorf("RedisPrefix: got %q", cfg.RedisPrefix)
	}
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{ExpirySchedule: "@every 5m"}
	prog := Config{
		ExpirySchedule:     "@hourly",
		DisableExpirySweep: true,
		RedisAddr:          "localhost:6379",
		RedisDB:            2,
	}

	got := mergeConfigurations(yaml, prog)
	if got.ExpirySchedule != "@every 5m" {
		t.Errorf("yaml schedule should win, got %q", got.ExpirySchedule)
	}
	if !got.DisableExpirySweep {
		t.Error("programmatic DisableExpirySweep should carry over")
	}
	if got.RedisAddr != "localhost:6379" || got.RedisDB != 2 {
		t.Errorf("redis settings should fill gaps, got %q/%d", got.RedisAddr, got.RedisDB)
	}
}

func TestBuildEngineOptsDisablesSweep(t *testing.T) {
	e := New(WithDisableExpirySweep(), WithDisableMigrate())
	e.config = mergeWithDefaults(e.config)

	// migrate + schedule, no pass-through options
	if n := len(e.buildEngineOpts()); n != 2 {
		t.Errorf("expected 2 options, got %d", n)
	}
}
