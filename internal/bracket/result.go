package bracket

import (
	"time"

	"github.com/google/uuid"
)

type ResultStatus string

const (
	ResultPending   ResultStatus = "pending"
	ResultValidated ResultStatus = "validated"
	ResultDisputed  ResultStatus = "disputed"
)

// MatchResult is an append-only record of a submitted score. At most one
// validated result is active per match; a reversal marks the old row disputed
// and inserts a new validated one rather than mutating history.
type MatchResult struct {
	ID         uuid.UUID    `db:"id"`
	MatchID    uuid.UUID    `db:"match_id"`
	ReportedBy uuid.UUID    `db:"reported_by"`
	Score1     int          `db:"score_1"`
	Score2     int          `db:"score_2"`
	Status     ResultStatus `db:"status"`
	CreatedAt  time.Time    `db:"created_at"`
}

// WinnerSlot returns the 1-based slot of the higher score, or 0 on a draw.
func (r *MatchResult) WinnerSlot() int {
	switch {
	case r.Score1 > r.Score2:
		return 1
	case r.Score2 > r.Score1:
		return 2
	}
	return 0
}
