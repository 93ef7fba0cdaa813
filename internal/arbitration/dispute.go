package arbitration

import (
	"time"

	"github.com/google/uuid"
)

type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "open"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeEscalated   DisputeStatus = "escalated"
)

func (s DisputeStatus) Terminal() bool {
	return s == DisputeResolved || s == DisputeEscalated
}

type Category string

const (
	WrongResult    Category = "wrong_result"
	NoShow         Category = "no_show"
	Cheating       Category = "cheating"
	TechnicalIssue Category = "technical_issue"
	RuleViolation  Category = "rule_violation"
	Other          Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case WrongResult, NoShow, Cheating, TechnicalIssue, RuleViolation, Other:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Dispute struct {
	ID           uuid.UUID  `db:"id"`
	TournamentID uuid.UUID  `db:"tournament_id"`
	MatchID      *uuid.UUID `db:"match_id"`
	ReporterID   uuid.UUID  `db:"reporter_id"`

	Category    Category      `db:"category"`
	Priority    Priority      `db:"priority"`
	Status      DisputeStatus `db:"status"`
	Description string        `db:"description"`
	Evidence    string        `db:"evidence"` // JSON array of evidence URLs

	// Advisory triage output; the binding decision comes from consensus.
	SuggestedResolution string `db:"suggested_resolution"`
	RequiredEvidence    string `db:"required_evidence"` // JSON array
	EstimatedHours      int    `db:"estimated_hours"`

	Resolution     *Decision  `db:"resolution"`
	ResolutionNote *string    `db:"resolution_note"`
	CreatedAt      time.Time  `db:"created_at"`
	ResolvedAt     *time.Time `db:"resolved_at"`
}
