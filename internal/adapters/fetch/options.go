// Package fetch provides the bounded task pool that caps upstream fan-out.
package fetch

import (
	"github.com/tneacademy/vantage/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers sets the worker cap. This is the documented fan-out bound:
// concurrent tasks never exceed it.
func WithWorkers(count int) Option {
	return func(p *Pool) {
		if count > 0 {
			p.workers = count
		}
	}
}

// WithQueueSize bounds the pending task queue. Submissions beyond it are
// rejected.
func WithQueueSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(logger logger.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}
