package dashtest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// fetchSamples retrieves dashboards concurrently and records the outcome
// of every fetch. Slots are index-addressed so worker order never matters.
func fetchSamples(ctx context.Context, config *Config, token string, stats *Stats) ([]Sample, error) {
	total := config.Workers * config.Iterations
	log.Printf("fetching %d dashboards with %d workers (budget_ms=%d)...", total, config.Workers, config.BudgetMS)

	client := newHTTPClient(config.Timeout)

	samples := make([]Sample, total)
	var (
		retrieved int64
		partial   int64
		failed    int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					sample := fetchDashboard(ctx, client, config.BaseURL, token, config.BudgetMS)
					samples[index] = sample

					switch {
					case sample.Err != "":
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("fetch %d failed: HTTP %d: %s", index, sample.Status, sample.Err)
						}
					case sample.Partial:
						atomic.AddInt64(&partial, 1)
						atomic.AddInt64(&retrieved, 1)
					default:
						atomic.AddInt64(&retrieved, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						done := atomic.LoadInt64(&retrieved) + atomic.LoadInt64(&failed)
						log.Printf("progress: %d/%d fetched (ok: %d, partial: %d, failed: %d)",
							done, total, atomic.LoadInt64(&retrieved), atomic.LoadInt64(&partial), atomic.LoadInt64(&failed))
					}
				}
			}
		}(i)
	}

	// Send sample indices to workers
	go func() {
		defer close(indexChan)
		for i := 0; i < total; i++ {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	stats.DashboardsRequested = total
	stats.DashboardsRetrieved = int(atomic.LoadInt64(&retrieved))
	stats.DashboardsPartial = int(atomic.LoadInt64(&partial))
	stats.DashboardsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`dashboard fetching completed:
   Retrieved: %d
   Partial: %d
   Failed: %d
`, stats.DashboardsRetrieved, stats.DashboardsPartial, stats.DashboardsFailed)

	if stats.DashboardsRetrieved == 0 {
		return samples, fmt.Errorf("no dashboard fetch succeeded")
	}
	return samples, nil
}

// fetchReference retrieves one fully settled dashboard (budget_ms=0) to
// verify the sampled fetches against.
func fetchReference(ctx context.Context, config *Config, token string) (Sample, error) {
	client := newHTTPClient(config.Timeout)

	sample := fetchDashboard(ctx, client, config.BaseURL, token, 0)
	if sample.Err != "" {
		return sample, fmt.Errorf("reference fetch failed: HTTP %d: %s", sample.Status, sample.Err)
	}
	if sample.Partial {
		return sample, fmt.Errorf("reference fetch reported loading sources despite budget_ms=0")
	}
	return sample, nil
}
