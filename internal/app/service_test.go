package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/tneacademy/vantage/internal/app"
	"github.com/tneacademy/vantage/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithUpstreamBaseURL("http://localhost:9000/api/v1"),
			service.WithUpstreamTimeout(2*time.Second),
			service.WithFetchWorkers(4),
			service.WithFetchQueueSize(128),
			service.WithCacheTTL(5*time.Second),
			service.WithCacheMaxEntries(100),
			service.WithDefaultBudget(250*time.Millisecond),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_DashboardBeforeStart(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("When a dashboard is requested", func() {
			d, err := svc.Dashboard(context.Background(), "token", 0)

			Convey("Then it should refuse with ErrNotStarted", func() {
				So(d, ShouldBeNil)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats["fetchWorkers"], ShouldEqual, 8)
				So(stats["fetchQueueSize"], ShouldEqual, 256)
			})
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When getting stats", func() {
			stats := svc.GetStats()

			Convey("Then the operational snapshot should be present", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats, ShouldContainKey, "uptimeSeconds")
				So(stats, ShouldContainKey, "cacheEntries")
				So(stats, ShouldContainKey, "poolQueueDepth")
				So(stats["dashboardsAssembled"], ShouldEqual, int64(0))
			})
		})
	})
}
