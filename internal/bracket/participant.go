package bracket

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a user's entry in a tournament. Rating is snapshotted at
// registration time; once a bracket has been generated it never changes.
type Participant struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	UserID       uuid.UUID `db:"user_id"`
	DisplayName  string    `db:"display_name"`
	Rating       int       `db:"rating"`
	Seed         *int      `db:"seed"`
	CreatedAt    time.Time `db:"created_at"`
}
