package model

// StatusCounts buckets the assessment collection for display.
// Submitted and under_review share a bucket; in_progress and unknown
// statuses are counted nowhere.
type StatusCounts struct {
	Draft       int `json:"draft"`
	UnderReview int `json:"under_review"`
	Scored      int `json:"scored"`
	Completed   int `json:"completed"`
}

// Total returns the number of assessments captured by the four buckets.
func (c StatusCounts) Total() int {
	return c.Draft + c.UnderReview + c.Scored + c.Completed
}

// YearScore is one point of the historical trend series.
type YearScore struct {
	AcademicYear      string  `json:"academic_year"`
	OverallPercentage float64 `json:"overall_percentage"`
}

// SourceState is the settled condition of one dashboard source.
type SourceState string

// Source settlement states.
const (
	// SourceOK means the read resolved with data.
	SourceOK SourceState = "ok"
	// SourceEmpty means the read resolved without data.
	SourceEmpty SourceState = "empty"
	// SourceFailed means the read did not resolve; the field is absent.
	SourceFailed SourceState = "failed"
	// SourceSkipped means the read was never issued because its
	// prerequisite produced nothing.
	SourceSkipped SourceState = "skipped"
	// SourcePending means the partial-result budget elapsed before the
	// read settled.
	SourcePending SourceState = "pending"
)

// Settled reports whether the source reached a final state.
func (s SourceState) Settled() bool {
	return s != "" && s != SourcePending
}

// SourceStates records the settled condition of every dashboard source.
type SourceStates struct {
	User        SourceState `json:"user"`
	Assessments SourceState `json:"assessments"`
	Scores      SourceState `json:"scores"`
	YearScores  SourceState `json:"year_scores"`
	Benchmarks  SourceState `json:"benchmarks"`
}

// LoadingFlags carries one in-flight flag per source. On a fully settled
// response every flag is false; with a partial-result budget a true flag
// marks a source that was still unresolved when the budget elapsed.
type LoadingFlags struct {
	User        bool `json:"user"`
	Assessments bool `json:"assessments"`
	Scores      bool `json:"scores"`
	YearScores  bool `json:"year_scores"`
	Benchmarks  bool `json:"benchmarks"`
}

// Any reports whether any source is still loading.
func (f LoadingFlags) Any() bool {
	return f.User || f.Assessments || f.Scores || f.YearScores || f.Benchmarks
}

// Dashboard is the aggregated view-model served to dashboard clients.
// Absent optional fields mean the source settled without data or was
// skipped; Sources tells the two apart.
type Dashboard struct {
	User          *User                `json:"user,omitempty"`
	Assessments   []Assessment         `json:"assessments"`
	LatestScores  *ScoreReport         `json:"latest_scores,omitempty"`
	AllYearScores []YearScore          `json:"all_year_scores"`
	Benchmarks    *BenchmarkComparison `json:"benchmarks,omitempty"`
	StatusCounts  StatusCounts         `json:"status_counts"`
	Loading       LoadingFlags         `json:"loading"`
	Sources       SourceStates         `json:"sources"`
}
