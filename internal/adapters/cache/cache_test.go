package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cache "github.com/tneacademy/vantage/internal/adapters/cache"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryCache_ReadThrough(t *testing.T) {
	Convey("Given a new in-memory cache", t, func() {
		c := cache.NewInMemoryCache()
		ctx := context.Background()

		Convey("When loading a key for the first time", func() {
			var loads atomic.Int64
			load := func(context.Context) (interface{}, error) {
				loads.Add(1)
				return "scores-payload", nil
			}

			val, err := c.Do(ctx, "scores:a-1", time.Minute, load)

			Convey("Then the loader should run once and the value be returned", func() {
				So(err, ShouldBeNil)
				So(val, ShouldEqual, "scores-payload")
				So(loads.Load(), ShouldEqual, 1)
				So(c.Size(), ShouldEqual, 1)
			})

			Convey("And a second read should hit the cache", func() {
				again, err := c.Do(ctx, "scores:a-1", time.Minute, load)
				So(err, ShouldBeNil)
				So(again, ShouldEqual, "scores-payload")
				So(loads.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the ttl is non-positive", func() {
			var loads atomic.Int64
			load := func(context.Context) (interface{}, error) {
				loads.Add(1)
				return loads.Load(), nil
			}

			_, _ = c.Do(ctx, "user:fp", 0, load)
			_, _ = c.Do(ctx, "user:fp", 0, load)

			Convey("Then every read should bypass the cache", func() {
				So(loads.Load(), ShouldEqual, 2)
				So(c.Size(), ShouldEqual, 0)
			})
		})

		Convey("When a load fails", func() {
			wantErr := errors.New("upstream down")
			_, err := c.Do(ctx, "assessments:fp", time.Minute, func(context.Context) (interface{}, error) {
				return nil, wantErr
			})

			Convey("Then the error should be returned and nothing cached", func() {
				So(err, ShouldEqual, wantErr)
				So(c.Size(), ShouldEqual, 0)
			})

			Convey("And the next read should attempt a fresh load", func() {
				val, err := c.Do(ctx, "assessments:fp", time.Minute, func(context.Context) (interface{}, error) {
					return "recovered", nil
				})
				So(err, ShouldBeNil)
				So(val, ShouldEqual, "recovered")
			})
		})
	})
}

func TestInMemoryCache_Expiry(t *testing.T) {
	Convey("Given a cache holding an entry with a short ttl", t, func() {
		c := cache.NewInMemoryCache()
		ctx := context.Background()

		var loads atomic.Int64
		load := func(context.Context) (interface{}, error) {
			return loads.Add(1), nil
		}

		first, err := c.Do(ctx, "benchmarks:a-1", 10*time.Millisecond, load)
		So(err, ShouldBeNil)
		So(first, ShouldEqual, int64(1))

		Convey("When the ttl elapses", func() {
			time.Sleep(20 * time.Millisecond)

			second, err := c.Do(ctx, "benchmarks:a-1", 10*time.Millisecond, load)

			Convey("Then the entry should be reloaded", func() {
				So(err, ShouldBeNil)
				So(second, ShouldEqual, int64(2))
			})
		})
	})
}

func TestInMemoryCache_Coalescing(t *testing.T) {
	Convey("Given many concurrent reads for the same key", t, func() {
		c := cache.NewInMemoryCache()
		ctx := context.Background()

		var loads atomic.Int64
		started := make(chan struct{})
		release := make(chan struct{})
		load := func(context.Context) (interface{}, error) {
			loads.Add(1)
			close(started)
			<-release
			return "shared", nil
		}

		Convey("When they race on a cold key", func() {
			const readers = 8
			results := make([]interface{}, readers)
			errs := make([]error, readers)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[0], errs[0] = c.Do(ctx, "user:fp", time.Minute, load)
			}()

			// Wait until the first reader owns the load, then pile on.
			<-started
			for i := 1; i < readers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = c.Do(ctx, "user:fp", time.Minute, func(context.Context) (interface{}, error) {
						loads.Add(1)
						return "should not run", nil
					})
				}(i)
			}
			time.Sleep(10 * time.Millisecond)
			close(release)
			wg.Wait()

			Convey("Then exactly one load should have run", func() {
				So(loads.Load(), ShouldEqual, 1)
				for i := 0; i < readers; i++ {
					So(errs[i], ShouldBeNil)
					So(results[i], ShouldEqual, "shared")
				}
			})
		})
	})
}

func TestInMemoryCache_AwaitCancellation(t *testing.T) {
	Convey("Given a reader joined to a slow in-flight load", t, func() {
		c := cache.NewInMemoryCache()

		started := make(chan struct{})
		release := make(chan struct{})
		go func() {
			_, _ = c.Do(context.Background(), "scores:slow", time.Minute, func(context.Context) (interface{}, error) {
				close(started)
				<-release
				return "late", nil
			})
		}()
		<-started

		Convey("When the joined reader's context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := c.Do(ctx, "scores:slow", time.Minute, func(context.Context) (interface{}, error) {
				return "unused", nil
			})
			close(release)

			Convey("Then it should give up with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryCache_Eviction(t *testing.T) {
	Convey("Given a cache capped at three entries", t, func() {
		c := cache.NewInMemoryCache(cache.WithMaxEntries(3))
		ctx := context.Background()

		loadValue := func(v string) cache.LoadFunc {
			return func(context.Context) (interface{}, error) { return v, nil }
		}

		for i := 1; i <= 3; i++ {
			key := fmt.Sprintf("scores:a-%d", i)
			_, err := c.Do(ctx, key, time.Minute, loadValue(key))
			So(err, ShouldBeNil)
		}

		Convey("When a fourth key arrives", func() {
			// Touch a-1 so a-2 becomes the least recently used.
			_, _ = c.Do(ctx, "scores:a-1", time.Minute, loadValue("hit"))

			_, err := c.Do(ctx, "scores:a-4", time.Minute, loadValue("scores:a-4"))
			So(err, ShouldBeNil)

			Convey("Then the least recently used entry should be evicted", func() {
				So(c.Size(), ShouldEqual, 3)

				var reloaded atomic.Int64
				_, _ = c.Do(ctx, "scores:a-2", time.Minute, func(context.Context) (interface{}, error) {
					reloaded.Add(1)
					return "fresh", nil
				})
				So(reloaded.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestInMemoryCache_Invalidate(t *testing.T) {
	Convey("Given a cached entry", t, func() {
		c := cache.NewInMemoryCache()
		ctx := context.Background()

		var loads atomic.Int64
		load := func(context.Context) (interface{}, error) {
			return loads.Add(1), nil
		}

		_, err := c.Do(ctx, "user:fp", time.Minute, load)
		So(err, ShouldBeNil)

		Convey("When the key is invalidated", func() {
			c.Invalidate(ctx, "user:fp")

			Convey("Then the next read should reload", func() {
				val, err := c.Do(ctx, "user:fp", time.Minute, load)
				So(err, ShouldBeNil)
				So(val, ShouldEqual, int64(2))
			})
		})

		Convey("When invalidating an unknown key", func() {
			So(func() { c.Invalidate(ctx, "user:other") }, ShouldNotPanic)
		})
	})
}
