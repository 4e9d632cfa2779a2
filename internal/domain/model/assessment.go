// Package model contains domain models passed between layers.
package model

import "time"

// Status is the lifecycle state of an assessment as reported upstream.
type Status string

// Assessment lifecycle states.
const (
	StatusDraft           Status = "draft"
	StatusInProgress      Status = "in_progress"
	StatusSubmitted       Status = "submitted"
	StatusUnderReview     Status = "under_review"
	StatusScored          Status = "scored"
	StatusReportGenerated Status = "report_generated"
)

// Known reports whether the status is one the dashboard understands.
// Unknown statuses are carried through but never counted.
func (s Status) Known() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusSubmitted, StatusUnderReview, StatusScored, StatusReportGenerated:
		return true
	default:
		return false
	}
}

// HasScore reports whether an assessment in this status carries a usable
// score report upstream.
func (s Status) HasScore() bool {
	return s == StatusScored || s == StatusReportGenerated
}

// Assessment represents one institutional self-assessment cycle.
// Fields mirror the upstream /assessments list item schema.
type Assessment struct {
	ID           string    `json:"id"`
	AcademicYear string    `json:"academic_year"` // label such as "2024-25"
	Status       Status    `json:"status"`
	OverallScore *float64  `json:"overall_score,omitempty"` // present once scored
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
