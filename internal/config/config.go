// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(ctx) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// UpstreamBaseURL is the assessment platform API root, including the
	// version prefix, e.g. "http://localhost:8000/api/v1".
	UpstreamBaseURL string `koanf:"upstream_base_url"`

	// UpstreamTimeoutMS bounds each upstream read.
	UpstreamTimeoutMS int `koanf:"upstream_timeout_ms"`

	// JWTSecret enables local HS256 verification of bearer tokens when set.
	// Empty means tokens are parsed for claims without verification; the
	// upstream API remains the authority either way.
	JWTSecret string `koanf:"jwt_secret"`

	// FetchWorkers caps concurrent trend fetches. This is the documented
	// fan-out bound: per-request score reads never exceed it.
	FetchWorkers int `koanf:"fetch_workers"`

	// FetchQueueSize bounds the fetch pool's pending task queue.
	FetchQueueSize int `koanf:"fetch_queue_size"`

	// CacheTTLMS sets how long cached upstream reads stay live.
	CacheTTLMS int `koanf:"cache_ttl_ms"`

	// CacheMaxEntries caps the query cache before LRU eviction.
	CacheMaxEntries int `koanf:"cache_max_entries"`

	// DefaultBudgetMS is the partial-result budget applied when a request
	// does not carry budget_ms. Zero waits for full settlement.
	DefaultBudgetMS int `koanf:"default_budget_ms"`
}

// New creates a Config using defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is currently
// unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":8090",
		UpstreamBaseURL:   "http://localhost:8000/api/v1",
		UpstreamTimeoutMS: 10_000,
		JWTSecret:         "",
		FetchWorkers:      8,
		FetchQueueSize:    256,
		CacheTTLMS:        30_000,
		CacheMaxEntries:   4096,
		DefaultBudgetMS:   0,
	}
	return c
}
