package dashtest

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/tneacademy/vantage/internal/domain/model"
)

// verifyResults checks every sampled dashboard for internal consistency
// and compares the settled ones against the reference. Violations are
// logged as warnings so a flaky environment still yields a report.
func verifyResults(ctx context.Context, config *Config, reference Sample, samples []Sample, stats *Stats) error {
	log.Println("verifying results...")

	ref := reference.Dashboard
	if ref == nil {
		return fmt.Errorf("no reference dashboard to verify against")
	}

	if err := verifyDashboard(ref); err != nil {
		return fmt.Errorf("reference dashboard inconsistent: %w", err)
	}

	warnings := 0
	for i, sample := range samples {
		if sample.Dashboard == nil {
			continue
		}

		if err := verifyDashboard(sample.Dashboard); err != nil {
			warnings++
			log.Printf("sample %d inconsistent: %v", i, err)
			continue
		}

		// Settled samples must agree with the reference; partial ones may
		// trail behind it.
		if !sample.Partial {
			if err := verifyAgainstReference(ref, sample.Dashboard); err != nil {
				warnings++
				log.Printf("sample %d diverges from reference: %v", i, err)
			}
		}
	}

	stats.VerifyWarnings = warnings
	displaySummary(ref, config.Verbose)

	if warnings > 0 {
		log.Printf("result verification completed with %d warnings", warnings)
	} else {
		log.Println("result verification completed")
	}
	return nil
}

// verifyDashboard checks the invariants every response must hold,
// settled or not.
func verifyDashboard(d *model.Dashboard) error {
	if err := verifyStatusCounts(d); err != nil {
		return err
	}
	if err := verifyTrendOrdering(d); err != nil {
		return err
	}
	if err := verifyLatestScored(d); err != nil {
		return err
	}
	return verifyCoherence(d)
}

// verifyStatusCounts recounts the buckets from the assessment list.
func verifyStatusCounts(d *model.Dashboard) error {
	if d.Sources.Assessments != model.SourceOK {
		return nil
	}

	var want model.StatusCounts
	for _, a := range d.Assessments {
		switch a.Status {
		case model.StatusDraft:
			want.Draft++
		case model.StatusSubmitted, model.StatusUnderReview:
			want.UnderReview++
		case model.StatusScored:
			want.Scored++
		case model.StatusReportGenerated:
			want.Completed++
		}
	}

	if d.StatusCounts != want {
		return fmt.Errorf("status counts %+v do not match a recount %+v", d.StatusCounts, want)
	}
	if d.StatusCounts.Total() > len(d.Assessments) {
		return fmt.Errorf("status counts total %d exceeds %d assessments", d.StatusCounts.Total(), len(d.Assessments))
	}
	return nil
}

// verifyTrendOrdering checks the trend series is ascending with unique years.
func verifyTrendOrdering(d *model.Dashboard) error {
	years := d.AllYearScores
	if !sort.SliceIsSorted(years, func(i, j int) bool {
		return years[i].AcademicYear < years[j].AcademicYear
	}) {
		return fmt.Errorf("trend series not sorted by academic year")
	}
	for i := 1; i < len(years); i++ {
		if years[i].AcademicYear == years[i-1].AcademicYear {
			return fmt.Errorf("trend series repeats academic year %s", years[i].AcademicYear)
		}
	}
	return nil
}

// verifyLatestScored checks the score detail belongs to the newest scored
// assessment.
func verifyLatestScored(d *model.Dashboard) error {
	if d.Sources.Scores != model.SourceOK || d.LatestScores == nil {
		return nil
	}

	var latest *model.Assessment
	for i := range d.Assessments {
		a := &d.Assessments[i]
		if !a.Status.HasScore() {
			continue
		}
		if latest == nil || a.UpdatedAt.After(latest.UpdatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return fmt.Errorf("score detail present but no assessment is scored")
	}
	if d.LatestScores.AssessmentID != latest.ID {
		return fmt.Errorf("score detail is for %s, newest scored assessment is %s",
			d.LatestScores.AssessmentID, latest.ID)
	}
	return nil
}

// verifyCoherence checks that source states, loading flags and field
// presence tell one story.
func verifyCoherence(d *model.Dashboard) error {
	if d.Sources.User == model.SourceOK && d.User == nil {
		return fmt.Errorf("user source ok but user absent")
	}
	if d.Sources.User != model.SourceOK && d.User != nil {
		return fmt.Errorf("user present but its source settled %q", d.Sources.User)
	}
	if d.Sources.Scores == model.SourceOK && d.LatestScores == nil {
		return fmt.Errorf("scores source ok but score detail absent")
	}
	if d.Sources.Scores != model.SourceOK && d.LatestScores != nil {
		return fmt.Errorf("score detail present but its source settled %q", d.Sources.Scores)
	}
	if d.Sources.Benchmarks == model.SourceOK && d.Benchmarks == nil {
		return fmt.Errorf("benchmarks source ok but comparison absent")
	}
	if d.Sources.Benchmarks != model.SourceOK && d.Benchmarks != nil {
		return fmt.Errorf("benchmark comparison present but its source settled %q", d.Sources.Benchmarks)
	}

	flags := map[string]struct {
		loading bool
		state   model.SourceState
	}{
		"user":        {d.Loading.User, d.Sources.User},
		"assessments": {d.Loading.Assessments, d.Sources.Assessments},
		"scores":      {d.Loading.Scores, d.Sources.Scores},
		"year_scores": {d.Loading.YearScores, d.Sources.YearScores},
		"benchmarks":  {d.Loading.Benchmarks, d.Sources.Benchmarks},
	}
	for name, f := range flags {
		if f.loading && f.state != model.SourcePending {
			return fmt.Errorf("%s is loading but its source settled %q", name, f.state)
		}
		if !f.loading && f.state == model.SourcePending {
			return fmt.Errorf("%s is pending but not flagged loading", name)
		}
	}
	return nil
}

// verifyAgainstReference compares a settled sample with the reference.
// Cache TTL expiry between fetches can change the data, so only shape
// level agreement is demanded.
func verifyAgainstReference(ref, got *model.Dashboard) error {
	if len(got.Assessments) != len(ref.Assessments) {
		return fmt.Errorf("%d assessments, reference has %d", len(got.Assessments), len(ref.Assessments))
	}
	if (got.LatestScores == nil) != (ref.LatestScores == nil) {
		return fmt.Errorf("score detail presence differs from reference")
	}
	if got.LatestScores != nil && ref.LatestScores != nil &&
		got.LatestScores.AssessmentID != ref.LatestScores.AssessmentID {
		return fmt.Errorf("score detail is for %s, reference has %s",
			got.LatestScores.AssessmentID, ref.LatestScores.AssessmentID)
	}
	if len(got.AllYearScores) != len(ref.AllYearScores) {
		return fmt.Errorf("%d trend points, reference has %d", len(got.AllYearScores), len(ref.AllYearScores))
	}
	return nil
}

// displaySummary shows the assembled reference dashboard.
func displaySummary(d *model.Dashboard, verbose bool) {
	if d.User != nil {
		log.Printf("user: %s (%s)", d.User.FullName, d.User.Email)
	}
	log.Printf("assessments: %d (draft: %d, under review: %d, scored: %d, completed: %d)",
		len(d.Assessments), d.StatusCounts.Draft, d.StatusCounts.UnderReview,
		d.StatusCounts.Scored, d.StatusCounts.Completed)

	if d.LatestScores != nil {
		log.Printf("latest score: %s at %.1f%%", d.LatestScores.AssessmentID, d.LatestScores.OverallPercentage)
	}

	if len(d.AllYearScores) > 0 {
		log.Printf("trend over %d years:", len(d.AllYearScores))
		for _, y := range d.AllYearScores {
			log.Printf("   %s: %.1f%%", y.AcademicYear, y.OverallPercentage)
		}
	}

	if verbose && d.Benchmarks != nil {
		log.Printf("benchmarks for %s (%s): %d metrics",
			d.Benchmarks.AcademicYear, d.Benchmarks.Country, len(d.Benchmarks.Metrics))
		for _, m := range d.Benchmarks.Metrics {
			if m.InstitutionValue != nil {
				log.Printf("   %s: %.1f (p50 %.1f over %d peers)",
					m.MetricName, *m.InstitutionValue, m.Percentile50, m.SampleSize)
			}
		}
	}
}
