// Package fetch provides the bounded task pool that caps upstream fan-out.
//
// The aggregator issues one score read per historical scored assessment,
// so the request count grows with an institution's history. Running those
// reads through a shared fixed-size pool keeps that fan-out from turning
// into unbounded concurrency; a full queue rejects the submission instead
// of buffering it.
package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tneacademy/vantage/pkg/logger"
	"github.com/tneacademy/vantage/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultWorkers        = 8
	defaultQueueSize      = 256
	metricsUpdateInterval = 5 * time.Second
)

// TaskFunc is one unit of fan-out work. Implementations receive the
// context the task was submitted under and must honor its cancellation.
type TaskFunc func(ctx context.Context) error

// task pairs a unit of work with its submission context.
type task struct {
	ctx context.Context
	run TaskFunc
}

// Pool runs submitted tasks on a fixed set of workers over a bounded
// queue. Task outcomes stay with the submitting closure; the pool only
// observes them for logging and metrics.
type Pool struct {
	workers   int
	queueSize int

	tasks  chan task
	active atomic.Int64

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	stopCh chan struct{}

	logger logger.Logger
}

// NewPool creates a pool with configuration options.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		workers:   defaultWorkers,
		queueSize: defaultQueueSize,
		stopCh:    make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	p.tasks = make(chan task, p.queueSize)

	metrics.UpdatePoolWorkers(p.workers)
	metrics.UpdatePoolQueueCapacity(p.queueSize)
	metrics.UpdatePoolQueueDepth(0)
	metrics.UpdatePoolActiveWorkers(0)

	return p
}

// Start launches the worker goroutines and the gauge refresher.
func (p *Pool) Start(ctx context.Context) {
	if p.logger == nil {
		p.logger = logger.Get().Named("fetch-pool")
	}

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}

	go p.refreshGauges(ctx)

	p.logger.Info(ctx, "fetch pool started",
		logger.Int("workers", p.workers),
		logger.Int("queueSize", p.queueSize),
	)
}

// Submit queues fn for execution under ctx. It returns false when the
// pool is stopped or the queue is full; handling that rejection is the
// caller's responsibility.
func (p *Pool) Submit(ctx context.Context, fn TaskFunc) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		metrics.RecordPoolTask("rejected")
		metrics.RecordErrorByComponent("fetch_pool", "closed")
		return false
	}

	select {
	case p.tasks <- task{ctx: ctx, run: fn}:
		metrics.UpdatePoolQueueDepth(len(p.tasks))
		return true
	default:
		metrics.RecordPoolTask("rejected")
		metrics.RecordErrorByComponent("fetch_pool", "backpressure")
		return false
	}
}

// Stop closes the queue and waits for the workers to drain it. Tasks
// already queued still execute; their contexts decide how far they get.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()

	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}

// Workers returns the configured worker cap.
func (p *Pool) Workers() int {
	return p.workers
}

// QueueDepth returns the number of tasks waiting in the queue.
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// ActiveWorkers returns the number of workers currently running a task.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

// runWorker consumes tasks until the queue closes. Draining continues
// through shutdown so no submitter is left waiting on an abandoned slot;
// a task whose own context is already canceled settles immediately.
func (p *Pool) runWorker() {
	defer p.wg.Done()

	for t := range p.tasks {
		metrics.UpdatePoolQueueDepth(len(p.tasks))
		p.runTask(t)
	}
}

// runTask executes one task and records its outcome.
func (p *Pool) runTask(t task) {
	metrics.UpdatePoolActiveWorkers(int(p.active.Add(1)))
	defer func() {
		metrics.UpdatePoolActiveWorkers(int(p.active.Add(-1)))
	}()

	start := time.Now()
	err := t.run(t.ctx)
	metrics.RecordPoolTaskLatency(float64(time.Since(start).Milliseconds()))

	switch {
	case t.ctx.Err() != nil:
		metrics.RecordPoolTask("canceled")
	case err != nil:
		metrics.RecordPoolTask("failed")
		p.logger.Debug(t.ctx, "fetch task failed", logger.Error(err))
	default:
		metrics.RecordPoolTask("completed")
	}
}

// refreshGauges keeps the depth and active-worker gauges current even
// when the pool is idle.
func (p *Pool) refreshGauges(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			metrics.UpdatePoolQueueDepth(len(p.tasks))
			metrics.UpdatePoolActiveWorkers(int(p.active.Load()))
		}
	}
}
