package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tneacademy/vantage/internal/dashtest"
)

// Default configuration constants.
const (
	defaultIterations  = 20
	defaultWorkers     = 4
	defaultBudgetMS    = -1
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	// A local .env is a developer convenience; its absence is not an error.
	_ = godotenv.Load()

	var (
		baseURL     = flag.String("url", envOr("VANTAGE_TEST_URL", "http://localhost:8090"), "Base URL of the aggregator")
		upstreamURL = flag.String("upstream", envOr("VANTAGE_TEST_UPSTREAM", "http://localhost:8000/api/v1"), "Base URL of the assessment platform API, used for login")
		email       = flag.String("email", envOr("VANTAGE_TEST_EMAIL", "e2e-admin@demo-university.ac.uk"), "Login email")
		password    = flag.String("password", envOr("VANTAGE_TEST_PASSWORD", "TestPass123!"), "Login password")
		token       = flag.String("token", envOr("VANTAGE_TEST_TOKEN", ""), "Pre-issued access token; skips login")
		iterations  = flag.Int("iterations", defaultIterations, "Dashboard fetches per worker")
		workers     = flag.Int("workers", defaultWorkers, "Number of concurrent workers")
		budgetMS    = flag.Int("budget", defaultBudgetMS, "budget_ms sent with sampled fetches; -1 omits the parameter")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for the run report (default: dashtest_report_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for test output (default: dashtest_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		dashtest.ShowHelp()
		return
	}

	// Setup logging
	if err := dashtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create run configuration
	config := &dashtest.Config{
		BaseURL:     *baseURL,
		UpstreamURL: *upstreamURL,
		Email:       *email,
		Password:    *password,
		Token:       *token,
		Iterations:  *iterations,
		Workers:     *workers,
		BudgetMS:    *budgetMS,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the exercise
	if err := dashtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Exercise failed: " + err.Error() + "\n")
		return
	}
}

// envOr lets a .env file or exported variable override a flag default.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
