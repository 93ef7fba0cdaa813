package arbitration

import (
	"time"

	"github.com/google/uuid"
)

type Decision string

const (
	ApproveOriginal Decision = "approve_original"
	ApproveDispute  Decision = "approve_dispute"
	Rematch         Decision = "rematch"
	DisqualifyBoth  Decision = "disqualify_both"
	Escalate        Decision = "escalate"
)

func (d Decision) Valid() bool {
	switch d {
	case ApproveOriginal, ApproveDispute, Rematch, DisqualifyBoth, Escalate:
		return true
	}
	return false
}

// ArbitrationVote is one row per (dispute, arbiter) pair. Rows are created at
// panel assignment with HasVoted=false and an empty decision; casting a vote
// fills the decision fields and sets SubmittedAt. Votes stay mutable until the
// dispute reaches a terminal status.
type ArbitrationVote struct {
	ID        uuid.UUID `db:"id"`
	DisputeID uuid.UUID `db:"dispute_id"`
	ArbiterID uuid.UUID `db:"arbiter_id"`

	HasVoted    bool       `db:"has_voted"`
	Decision    *Decision  `db:"decision"`
	Confidence  float64    `db:"confidence"`
	Reasoning   *string    `db:"reasoning"`
	SubmittedAt *time.Time `db:"submitted_at"`

	CreatedAt time.Time `db:"created_at"`
}

// Tally is one decision's share of a dispute's cast votes.
type Tally struct {
	Decision      Decision
	Count         int
	Percentage    float64
	AvgConfidence float64
}
