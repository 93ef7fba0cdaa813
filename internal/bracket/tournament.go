package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft              TournamentStatus = "draft"
	TournamentRegistrationOpen   TournamentStatus = "registration_open"
	TournamentRegistrationClosed TournamentStatus = "registration_closed"
	TournamentCheckIn            TournamentStatus = "check_in"
	TournamentLive               TournamentStatus = "live"
	TournamentCompleted          TournamentStatus = "completed"
	TournamentCancelled          TournamentStatus = "cancelled"
)

// PreLive reports whether the tournament can still be cancelled.
func (s TournamentStatus) PreLive() bool {
	switch s {
	case TournamentDraft, TournamentRegistrationOpen, TournamentRegistrationClosed, TournamentCheckIn:
		return true
	}
	return false
}

type TournamentFormat string

const (
	SingleElimination TournamentFormat = "single_elimination"
	DoubleElimination TournamentFormat = "double_elimination"
	RoundRobin        TournamentFormat = "round_robin"
	Swiss             TournamentFormat = "swiss"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case SingleElimination, DoubleElimination, RoundRobin, Swiss:
		return true
	}
	return false
}

type Tournament struct {
	ID              uuid.UUID        `db:"id"`
	OwnerID         uuid.UUID        `db:"owner_id"`
	Name            string           `db:"name"`
	Format          TournamentFormat `db:"format"`
	Status          TournamentStatus `db:"status"`
	MinParticipants int              `db:"min_participants"`
	MaxParticipants int              `db:"max_participants"`
	CreatedAt       time.Time        `db:"created_at"`
}
