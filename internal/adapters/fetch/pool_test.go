package fetch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	fetch "github.com/tneacademy/vantage/internal/adapters/fetch"
	logging "github.com/tneacademy/vantage/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

func TestPool_SubmitAndRun(t *testing.T) {
	convey.Convey("Given a started pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := fetch.NewPool(fetch.WithWorkers(2), fetch.WithQueueSize(8))
		p.Start(ctx)
		defer p.Stop()

		convey.Convey("When submitting tasks", func() {
			var ran atomic.Int64
			var wg sync.WaitGroup

			for i := 0; i < 5; i++ {
				wg.Add(1)
				ok := p.Submit(ctx, func(context.Context) error {
					defer wg.Done()
					ran.Add(1)
					return nil
				})
				convey.So(ok, convey.ShouldBeTrue)
			}
			wg.Wait()

			convey.Convey("Then every task should execute", func() {
				convey.So(ran.Load(), convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When a task returns an error", func() {
			var wg sync.WaitGroup
			wg.Add(1)
			ok := p.Submit(ctx, func(context.Context) error {
				defer wg.Done()
				return errors.New("upstream read failed")
			})
			wg.Wait()

			convey.Convey("Then the pool should absorb it", func() {
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}

func TestPool_ConcurrencyCap(t *testing.T) {
	convey.Convey("Given a pool with two workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := fetch.NewPool(fetch.WithWorkers(2), fetch.WithQueueSize(32))
		p.Start(ctx)
		defer p.Stop()

		convey.Convey("When many slow tasks run through it", func() {
			var (
				current atomic.Int64
				peak    atomic.Int64
				wg      sync.WaitGroup
			)

			for i := 0; i < 16; i++ {
				wg.Add(1)
				ok := p.Submit(ctx, func(context.Context) error {
					defer wg.Done()
					n := current.Add(1)
					for {
						old := peak.Load()
						if n <= old || peak.CompareAndSwap(old, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					current.Add(-1)
					return nil
				})
				convey.So(ok, convey.ShouldBeTrue)
			}
			wg.Wait()

			convey.Convey("Then concurrency should never exceed the worker cap", func() {
				convey.So(peak.Load(), convey.ShouldBeLessThanOrEqualTo, 2)
			})
		})
	})
}

func TestPool_Backpressure(t *testing.T) {
	convey.Convey("Given a pool with a tiny queue and a blocked worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		release := make(chan struct{})
		p := fetch.NewPool(fetch.WithWorkers(1), fetch.WithQueueSize(1))
		p.Start(ctx)
		defer p.Stop()

		var wg sync.WaitGroup
		wg.Add(1)
		// Occupy the single worker.
		convey.So(p.Submit(ctx, func(context.Context) error {
			defer wg.Done()
			<-release
			return nil
		}), convey.ShouldBeTrue)

		// Give the worker a moment to pick the task up.
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When the queue slot is taken", func() {
			wg.Add(1)
			queued := p.Submit(ctx, func(context.Context) error {
				defer wg.Done()
				return nil
			})
			convey.So(queued, convey.ShouldBeTrue)

			convey.Convey("Then a further submission should be rejected", func() {
				rejected := p.Submit(ctx, func(context.Context) error { return nil })
				convey.So(rejected, convey.ShouldBeFalse)

				close(release)
				wg.Wait()
			})
		})
	})
}

func TestPool_StopDrainsQueue(t *testing.T) {
	convey.Convey("Given a pool with queued tasks", t, func() {
		ctx := context.Background()

		p := fetch.NewPool(fetch.WithWorkers(1), fetch.WithQueueSize(16))
		p.Start(ctx)

		var ran atomic.Int64
		for i := 0; i < 8; i++ {
			convey.So(p.Submit(ctx, func(context.Context) error {
				ran.Add(1)
				return nil
			}), convey.ShouldBeTrue)
		}

		convey.Convey("When stopping the pool", func() {
			p.Stop()

			convey.Convey("Then queued tasks should still have executed", func() {
				convey.So(ran.Load(), convey.ShouldEqual, 8)
			})

			convey.Convey("And new submissions should be rejected", func() {
				convey.So(p.Submit(ctx, func(context.Context) error { return nil }), convey.ShouldBeFalse)
			})

			convey.Convey("And stopping again should be a no-op", func() {
				convey.So(p.Stop, convey.ShouldNotPanic)
			})
		})
	})
}

func TestPool_Introspection(t *testing.T) {
	convey.Convey("Given a configured pool", t, func() {
		p := fetch.NewPool(fetch.WithWorkers(4), fetch.WithQueueSize(64))

		convey.Convey("Then it should report its configuration", func() {
			convey.So(p.Workers(), convey.ShouldEqual, 4)
			convey.So(p.QueueDepth(), convey.ShouldEqual, 0)
			convey.So(p.ActiveWorkers(), convey.ShouldEqual, 0)
		})

		convey.Convey("And non-positive options should keep defaults", func() {
			d := fetch.NewPool(fetch.WithWorkers(0), fetch.WithQueueSize(-1))
			convey.So(d.Workers(), convey.ShouldEqual, 8)
		})
	})
}
