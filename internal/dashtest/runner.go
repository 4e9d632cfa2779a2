// Package dashtest exercises a running aggregator end to end: it obtains
// a session, fetches dashboards concurrently, and verifies the responses
// hold the invariants the dashboard promises its clients.
package dashtest

import (
	"context"
	"fmt"
	"time"

	"github.com/tneacademy/vantage/pkg/logger"
)

// Run executes the complete dashboard exercise.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting vantage dashboard exercise",
		logger.String("baseURL", config.BaseURL),
		logger.String("upstream", config.UpstreamURL),
		logger.Int("iterations", config.Iterations),
		logger.Int("workers", config.Workers),
		logger.Int("budgetMs", config.BudgetMS),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	logger.Get().Info(ctx, "checking service health")
	if err := checkHealth(ctx, client, config.BaseURL); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")

	// Step 2: Obtain a session
	token, err := obtainSession(ctx, client, config)
	if err != nil {
		return fmt.Errorf("session setup failed: %w", err)
	}

	// Step 3: Fetch one fully settled dashboard as the reference
	reference, err := fetchReference(ctx, config, token)
	if err != nil {
		return fmt.Errorf("reference fetch failed: %w", err)
	}

	// Step 4: Fetch dashboards concurrently
	samples, err := fetchSamples(ctx, config, token, stats)
	if err != nil {
		return fmt.Errorf("dashboard fetching failed: %w", err)
	}

	// Step 5: Verify results
	if err := verifyResults(ctx, config, reference, samples, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save the run report
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	if err := saveReport(ctx, config, reference, samples, stats); err != nil {
		logger.Get().Warn(ctx, "failed to save report", logger.Error(err))
	}

	displayFinalStats(stats)

	logger.Get().Info(ctx, "exercise completed successfully")
	return nil
}

// logReportSaved records where the report landed.
func logReportSaved(ctx context.Context, filename string) {
	logger.Get().Info(ctx, "report saved", logger.String("filename", filename))
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var successRate, fetchesPerSecond float64

	if stats.DashboardsRequested > 0 {
		successRate = float64(stats.DashboardsRetrieved) / float64(stats.DashboardsRequested) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		fetchesPerSecond = float64(stats.DashboardsRetrieved) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("dashboardsRequested", stats.DashboardsRequested),
		logger.Int("dashboardsRetrieved", stats.DashboardsRetrieved),
		logger.Int("dashboardsPartial", stats.DashboardsPartial),
		logger.Int("dashboardsFailed", stats.DashboardsFailed),
		logger.Int("verifyWarnings", stats.VerifyWarnings),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("fetchesPerSecond", fetchesPerSecond))
}
