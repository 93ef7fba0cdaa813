package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchReady     MatchStatus = "ready"
	MatchLive      MatchStatus = "live"
	MatchCompleted MatchStatus = "completed"
	MatchDisputed  MatchStatus = "disputed"
	MatchCancelled MatchStatus = "cancelled"
)

// Terminal reports whether the match can no longer be cancelled.
func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchCancelled
}

type GroupName string

const (
	MainGroup    GroupName = "Main"
	WinnersGroup GroupName = "Winners"
	LosersGroup  GroupName = "Losers"
)

// BracketGroup is one named sub-structure of a tournament's bracket. Single
// elimination, round robin and Swiss get a single Main group; double
// elimination gets Winners and Losers.
type BracketGroup struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	Name         GroupName `db:"name"`
	CreatedAt    time.Time `db:"created_at"`
}

type Match struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	GroupID      uuid.UUID `db:"bracket_group_id"`

	// Position in the bracket for reconstructing the topology
	RoundNumber int `db:"round_number"`
	Position    int `db:"position"`

	Status MatchStatus `db:"status"`
	IsBye  bool        `db:"is_bye"`

	WinnerParticipantID *uuid.UUID `db:"winner_participant_id"`

	WinnerNextMatchID *uuid.UUID `db:"winner_next_match_id"`
	WinnerNextSlot    *int       `db:"winner_next_slot"`

	LoserNextMatchID *uuid.UUID `db:"loser_next_match_id"`
	LoserNextSlot    *int       `db:"loser_next_slot"`

	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`

	CreatedAt time.Time `db:"created_at"`
}

// MatchParticipant fills one slot of a match. Slots are 1-based; two for a
// standard 1v1 but the model supports wider team matches.
type MatchParticipant struct {
	ID            uuid.UUID `db:"id"`
	MatchID       uuid.UUID `db:"match_id"`
	ParticipantID uuid.UUID `db:"participant_id"`
	Slot          int       `db:"slot"`
}
