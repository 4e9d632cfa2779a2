package model

import "time"

// ScoreReport is the full score detail for one assessment, passed through
// from the upstream /assessments/{id}/scores read.
type ScoreReport struct {
	AssessmentID      string       `json:"assessment_id"`
	OverallScore      float64      `json:"overall_score"`
	OverallMaxScore   float64      `json:"overall_max_score"`
	OverallPercentage float64      `json:"overall_percentage"`
	ThemeScores       []ThemeScore `json:"theme_scores"`
	ScoredAt          *time.Time   `json:"scored_at,omitempty"`
}

// ThemeScore is one theme's contribution to an assessment score.
type ThemeScore struct {
	ThemeID    string      `json:"theme_id"`
	ThemeName  string      `json:"theme_name"`
	ThemeCode  string      `json:"theme_code"`
	Score      float64     `json:"score"`
	MaxScore   float64     `json:"max_score"`
	Percentage float64     `json:"percentage"`
	AIAnalysis string      `json:"ai_analysis,omitempty"`
	ItemScores []ItemScore `json:"item_scores,omitempty"`
}

// ItemScore is one scored evidence item inside a theme.
type ItemScore struct {
	ItemCode   string   `json:"item_code"`
	ItemLabel  string   `json:"item_label"`
	FieldType  string   `json:"field_type"`
	AIScore    *float64 `json:"ai_score,omitempty"`
	AIFeedback string   `json:"ai_feedback,omitempty"`
}

// BenchmarkComparison positions an institution against its peer group for
// the academic year of a specific assessment.
type BenchmarkComparison struct {
	AcademicYear string            `json:"academic_year"`
	Country      string            `json:"country"`
	Metrics      []BenchmarkMetric `json:"metrics"`
}

// BenchmarkMetric is one metric's peer percentile distribution.
type BenchmarkMetric struct {
	MetricName       string   `json:"metric_name"`
	Percentile10     float64  `json:"percentile_10"`
	Percentile25     float64  `json:"percentile_25"`
	Percentile50     float64  `json:"percentile_50"`
	Percentile75     float64  `json:"percentile_75"`
	Percentile90     float64  `json:"percentile_90"`
	SampleSize       int      `json:"sample_size"`
	InstitutionValue *float64 `json:"institution_value,omitempty"`
}
