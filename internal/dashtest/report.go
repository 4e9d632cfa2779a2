package dashtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tneacademy/vantage/internal/domain/model"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Report is the JSON document written at the end of a run.
type Report struct {
	BaseURL      string           `json:"base_url"`
	BudgetMS     int              `json:"budget_ms"`
	Workers      int              `json:"workers"`
	Requested    int              `json:"requested"`
	Retrieved    int              `json:"retrieved"`
	Partial      int              `json:"partial"`
	Failed       int              `json:"failed"`
	Warnings     int              `json:"verify_warnings"`
	DurationMS   int64            `json:"duration_ms"`
	LatencyP50MS int64            `json:"latency_p50_ms"`
	LatencyP95MS int64            `json:"latency_p95_ms"`
	Reference    *model.Dashboard `json:"reference"`
	Samples      []Sample         `json:"samples,omitempty"`
}

// saveReport writes the run report to a JSON file. Samples are included
// only in verbose runs; they dominate the file size.
func saveReport(ctx context.Context, config *Config, reference Sample, samples []Sample, stats *Stats) error {
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "dashtest_report_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	p50, p95 := latencyPercentiles(samples)
	report := Report{
		BaseURL:      config.BaseURL,
		BudgetMS:     config.BudgetMS,
		Workers:      config.Workers,
		Requested:    stats.DashboardsRequested,
		Retrieved:    stats.DashboardsRetrieved,
		Partial:      stats.DashboardsPartial,
		Failed:       stats.DashboardsFailed,
		Warnings:     stats.VerifyWarnings,
		DurationMS:   stats.Duration.Milliseconds(),
		LatencyP50MS: p50,
		LatencyP95MS: p95,
		Reference:    reference.Dashboard,
	}
	if config.Verbose {
		report.Samples = samples
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(filename, data, logFilePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logReportSaved(ctx, filename)
	return nil
}

// latencyPercentiles computes p50 and p95 over the successful samples.
func latencyPercentiles(samples []Sample) (p50, p95 int64) {
	latencies := make([]int64, 0, len(samples))
	for _, s := range samples {
		if s.Err == "" {
			latencies = append(latencies, s.ElapsedMS)
		}
	}
	if len(latencies) == 0 {
		return 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	p50 = latencies[len(latencies)/2]
	idx95 := len(latencies) * 95 / PercentageMultiplier
	if idx95 >= len(latencies) {
		idx95 = len(latencies) - 1
	}
	p95 = latencies[idx95]
	return p50, p95
}
