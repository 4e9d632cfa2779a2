package dashtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tneacademy/vantage/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "dashtest_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the dashboard exercise tool.
func ShowHelp() {
	os.Stdout.WriteString(`Vantage Dashboard Exercise Tool
===============================

A concurrent tool for exercising the Vantage dashboard aggregator against
a live assessment platform.

Usage:
  go run cmd/test-dashboard/main.go [options]

Options:
  -url string
        Base URL of the aggregator (default "http://localhost:8090")
  -upstream string
        Base URL of the assessment platform API, used to log in when no
        token is supplied (default "http://localhost:8000/api/v1")
  -email string
        Login email (default "e2e-admin@demo-university.ac.uk")
  -password string
        Login password (default "TestPass123!")
  -token string
        Pre-issued access token; skips login
  -iterations int
        Dashboard fetches per worker (default 20)
  -workers int
        Number of concurrent workers (default 4)
  -budget int
        budget_ms sent with sampled fetches; -1 omits the parameter (default -1)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for the run report (default: dashtest_report_TIMESTAMP.json)
  -log string
        Log file for test output (default: dashtest_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Exercise a local aggregator with the seeded demo account
  go run cmd/test-dashboard/main.go

  # Hammer the partial-result path with a tight budget
  go run cmd/test-dashboard/main.go -workers 16 -iterations 50 -budget 100

  # Reuse an existing session token
  go run cmd/test-dashboard/main.go -token "$ACCESS_TOKEN" -verbose
`)
}
