// Package derive computes display projections from assessment data.
//
// Everything here is a pure function over upstream reads: no I/O, no
// mutation of inputs. The aggregator composes these into the dashboard
// view-model.
package derive

import (
	"sort"
	"strconv"
	"strings"

	model "github.com/tneacademy/vantage/internal/domain/model"
)

// CountStatuses buckets assessments for the status summary. Submitted and
// under_review share the under-review bucket; in_progress and unknown
// statuses are counted nowhere.
func CountStatuses(assessments []model.Assessment) model.StatusCounts {
	var counts model.StatusCounts
	for _, a := range assessments {
		switch a.Status {
		case model.StatusDraft:
			counts.Draft++
		case model.StatusSubmitted, model.StatusUnderReview:
			counts.UnderReview++
		case model.StatusScored:
			counts.Scored++
		case model.StatusReportGenerated:
			counts.Completed++
		}
	}
	return counts
}

// ScoredAssessments filters to assessments that carry a score report
// upstream (scored or report_generated), preserving source order.
func ScoredAssessments(assessments []model.Assessment) []model.Assessment {
	var scored []model.Assessment
	for _, a := range assessments {
		if a.Status.HasScore() {
			scored = append(scored, a)
		}
	}
	return scored
}

// LatestScored selects the most recently updated assessment among those
// with a score report. Ties on the update timestamp keep the earlier
// source position. The second return is false when no assessment
// qualifies.
func LatestScored(assessments []model.Assessment) (model.Assessment, bool) {
	var (
		latest model.Assessment
		found  bool
	)
	for _, a := range assessments {
		if !a.Status.HasScore() {
			continue
		}
		if !found || a.UpdatedAt.After(latest.UpdatedAt) {
			latest = a
			found = true
		}
	}
	return latest, found
}

// CompareAcademicYears orders academic-year labels. Labels with leading
// integers ("2024-25", "9") compare numerically on that integer so "9"
// sorts before "10"; otherwise, and on numeric ties, the full labels
// compare lexicographically.
func CompareAcademicYears(a, b string) int {
	ai, aok := leadingInt(a)
	bi, bok := leadingInt(b)
	if aok && bok && ai != bi {
		if ai < bi {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// YearScores builds the historical trend series. Reports pair 1:1 by index
// with their source assessments; a nil report drops only its own entry.
// The result is sorted ascending by academic year.
func YearScores(assessments []model.Assessment, reports []*model.ScoreReport) []model.YearScore {
	n := len(assessments)
	if len(reports) < n {
		n = len(reports)
	}

	var series []model.YearScore
	for i := 0; i < n; i++ {
		if reports[i] == nil {
			continue
		}
		series = append(series, model.YearScore{
			AcademicYear:      assessments[i].AcademicYear,
			OverallPercentage: reports[i].OverallPercentage,
		})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return CompareAcademicYears(series[i].AcademicYear, series[j].AcademicYear) < 0
	})
	return series
}

// leadingInt parses the run of digits at the start of s.
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}
