// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Monetary values are carried as decimal strings and parsed downstream,
//   so a malformed rate fails at startup rather than mid-request.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory session event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of earnings workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the ledger.
	ShardCount int `koanf:"shard_count"`

	// MaxEarnersLimit caps GET /earners?limit.
	MaxEarnersLimit int `koanf:"max_earners_limit"`

	// Currency labels all monetary amounts, e.g. "usd".
	Currency string `koanf:"currency"`

	// BaseRates maps platform names to per-point rates, as decimal strings.
	BaseRates map[string]string `koanf:"base_rates"`

	// BonusMultipliers maps bonus tags to multipliers, as decimal strings.
	BonusMultipliers map[string]string `koanf:"bonus_multipliers"`

	// MinimumPayout is the smallest amount a payout may be requested for.
	MinimumPayout string `koanf:"minimum_payout"`

	// PlatformFeePercent is the fee retained from every payout, 0-100.
	PlatformFeePercent string `koanf:"platform_fee_percent"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		EventQueueSize:  100_000,
		WorkerCount:     runtime.NumCPU() * 10,
		DedupeSize:      50_000,
		ShardCount:      8,
		MaxEarnersLimit: 100,
		Currency:        "usd",
		BaseRates: map[string]string{
			"mobile": "0.001",
			"web":    "0.0008",
		},
		BonusMultipliers: map[string]string{
			"daily_bonus": "1.5",
			"streak_week": "2.0",
		},
		MinimumPayout:      "5.00",
		PlatformFeePercent: "10",
	}
	return c
}
