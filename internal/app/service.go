// Package service provides the core aggregation service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tneacademy/vantage/internal/adapters/cache"
	"github.com/tneacademy/vantage/internal/adapters/fetch"
	"github.com/tneacademy/vantage/internal/adapters/upstream"
	"github.com/tneacademy/vantage/pkg/logger"
	"github.com/tneacademy/vantage/pkg/metrics"
)

// Service assembles dashboard view-models from upstream reads. It owns the
// query cache and the bounded fetch pool shared by all requests.
type Service struct {
	mu sync.RWMutex

	// Core components
	upstream upstream.Client
	cache    cache.Cache
	pool     *fetch.Pool

	// Configuration
	upstreamBaseURL string
	upstreamTimeout time.Duration
	fetchWorkers    int
	fetchQueueSize  int
	cacheTTL        time.Duration
	cacheMaxEntries int
	defaultBudget   time.Duration

	// State
	started   bool
	startedAt time.Time
	assembled atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithUpstreamBaseURL sets the assessment platform API root.
func WithUpstreamBaseURL(baseURL string) Option {
	return func(s *Service) {
		if baseURL != "" {
			s.upstreamBaseURL = baseURL
		}
	}
}

// WithUpstreamTimeout bounds each upstream read.
func WithUpstreamTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.upstreamTimeout = timeout
		}
	}
}

// WithUpstreamClient injects a pre-built upstream client, replacing the
// one Start would construct from the base URL.
func WithUpstreamClient(client upstream.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.upstream = client
		}
	}
}

// WithFetchWorkers caps concurrent trend fetches.
func WithFetchWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.fetchWorkers = count
		}
	}
}

// WithFetchQueueSize bounds the fetch pool's pending task queue.
func WithFetchQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.fetchQueueSize = size
		}
	}
}

// WithCacheTTL sets how long cached upstream reads stay live.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithCacheMaxEntries caps the query cache before LRU eviction.
func WithCacheMaxEntries(maxEntries int) Option {
	return func(s *Service) {
		if maxEntries > 0 {
			s.cacheMaxEntries = maxEntries
		}
	}
}

// WithDefaultBudget sets the partial-result budget applied when a request
// does not carry one. Zero waits for full settlement.
func WithDefaultBudget(budget time.Duration) Option {
	return func(s *Service) {
		if budget >= 0 {
			s.defaultBudget = budget
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		upstreamBaseURL: "http://localhost:8000/api/v1",
		upstreamTimeout: 10 * time.Second,
		fetchWorkers:    8,
		fetchQueueSize:  256,
		cacheTTL:        30 * time.Second,
		cacheMaxEntries: 4096,
		defaultBudget:   0,
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting dashboard service...")

	// Initialize components
	if s.upstream == nil {
		s.upstream = upstream.NewHTTPClient(s.upstreamBaseURL,
			upstream.WithTimeout(s.upstreamTimeout),
		)
	}
	s.cache = cache.NewInMemoryCache(
		cache.WithMaxEntries(s.cacheMaxEntries),
	)
	s.pool = fetch.NewPool(
		fetch.WithWorkers(s.fetchWorkers),
		fetch.WithQueueSize(s.fetchQueueSize),
		fetch.WithLogger(s.logger),
	)
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "dashboard service started",
		logger.String("upstream", s.upstreamBaseURL),
		logger.Int("fetchWorkers", s.fetchWorkers),
		logger.Int("fetchQueueSize", s.fetchQueueSize),
		logger.Int("cacheTTLMs", int(s.cacheTTL.Milliseconds())),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping dashboard service...")

	// Stop fetch pool; queued trend reads drain before workers exit
	if s.pool != nil {
		s.pool.Stop()
	}

	s.started = false
	s.logger.Info(context.Background(), "dashboard service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"fetchWorkers":    s.fetchWorkers,
		"fetchQueueSize":  s.fetchQueueSize,
		"cacheTTLMs":      s.cacheTTL.Milliseconds(),
		"defaultBudgetMs": s.defaultBudget.Milliseconds(),
	}

	if s.started {
		cacheEntries := s.cache.Size()
		queueDepth := s.pool.QueueDepth()

		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["dashboardsAssembled"] = s.assembled.Load()
		stats["cacheEntries"] = cacheEntries
		stats["poolQueueDepth"] = queueDepth
		stats["poolActiveWorkers"] = s.pool.ActiveWorkers()

		// Update metrics
		metrics.UpdateCacheEntries(int(cacheEntries))
		metrics.UpdatePoolQueueDepth(queueDepth)
		metrics.UpdatePoolWorkers(s.fetchWorkers)
	}

	return stats
}
