package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if VANTAGE_CONFIG is set
//  3. env (prefix VANTAGE_)
func Load(ctx context.Context) (*Config, error) {
	// A local .env is a developer convenience; its absence is not an error.
	_ = godotenv.Load()

	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("VANTAGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: VANTAGE_ADDR, VANTAGE_FETCH_WORKERS, ...
	// Map env keys like VANTAGE_FETCH_WORKERS -> fetch_workers (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("VANTAGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "vantage_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot run with.
func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(cfg.UpstreamBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: upstream_base_url must be an http(s) URL", ErrInvalidConfig)
	}
	if cfg.UpstreamTimeoutMS <= 0 {
		return fmt.Errorf("%w: upstream_timeout_ms must be positive", ErrInvalidConfig)
	}
	if cfg.FetchWorkers <= 0 {
		return fmt.Errorf("%w: fetch_workers must be positive", ErrInvalidConfig)
	}
	if cfg.FetchQueueSize <= 0 {
		return fmt.Errorf("%w: fetch_queue_size must be positive", ErrInvalidConfig)
	}
	if cfg.CacheTTLMS < 0 {
		return fmt.Errorf("%w: cache_ttl_ms must not be negative", ErrInvalidConfig)
	}
	if cfg.CacheMaxEntries <= 0 {
		return fmt.Errorf("%w: cache_max_entries must be positive", ErrInvalidConfig)
	}
	if cfg.DefaultBudgetMS < 0 {
		return fmt.Errorf("%w: default_budget_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
