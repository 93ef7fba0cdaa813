package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
)

// RatingProvider is the consumed rating oracle; participants snapshot their
// rating from it at registration time.
type RatingProvider interface {
	Rating(ctx context.Context, userID string) (int, error)
}

type TournamentService struct {
	db      *sqlx.DB
	store   *store.TournamentStore
	ratings RatingProvider
	locks   *keyLock
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, ratings RatingProvider) *TournamentService {
	return &TournamentService{db: db, store: store, ratings: ratings, locks: newKeyLock()}
}

type TournamentData struct {
	Tournament   *bracket.Tournament
	Participants []bracket.Participant
	Groups       []bracket.BracketGroup
	Matches      []bracket.Match
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id string) (*TournamentData, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("tournament %s", id)
		}
		return nil, err
	}

	participants, err := s.store.GetParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.GetGroups(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TournamentData{
		Tournament:   tournament,
		Participants: participants,
		Groups:       groups,
		Matches:      matches,
	}, nil
}

func (s *TournamentService) GetTournamentsForOwner(ctx context.Context, ownerID uuid.UUID) ([]bracket.Tournament, error) {
	return s.store.GetTournamentsByOwnerID(ctx, ownerID.String())
}

func (s *TournamentService) CreateTournament(ctx context.Context, ownerID uuid.UUID, name string, format bracket.TournamentFormat, minParticipants, maxParticipants int) (uuid.UUID, error) {
	if !format.Valid() {
		return uuid.Nil, apperr.InvalidArgument("unknown tournament format %q", format)
	}
	if name == "" {
		return uuid.Nil, apperr.InvalidArgument("tournament name is required")
	}
	if minParticipants < 2 {
		return uuid.Nil, apperr.InvalidArgument("min participants must be at least 2, got %d", minParticipants)
	}
	if maxParticipants < minParticipants {
		return uuid.Nil, apperr.InvalidArgument("max participants %d below min %d", maxParticipants, minParticipants)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament := bracket.Tournament{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Name:            name,
		Format:          format,
		Status:          bracket.TournamentDraft,
		MinParticipants: minParticipants,
		MaxParticipants: maxParticipants,
	}

	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, err
	}

	return tournament.ID, tx.Commit()
}

// lifecycle orders the linear tournament statuses; cancelled sits outside it.
var lifecycle = map[bracket.TournamentStatus]bracket.TournamentStatus{
	bracket.TournamentDraft:              bracket.TournamentRegistrationOpen,
	bracket.TournamentRegistrationOpen:   bracket.TournamentRegistrationClosed,
	bracket.TournamentRegistrationClosed: bracket.TournamentCheckIn,
	bracket.TournamentCheckIn:            bracket.TournamentLive,
	bracket.TournamentLive:               bracket.TournamentCompleted,
}

// Transition moves the tournament to the requested status, allowing only the
// next linear step or cancellation from a pre-live state.
func (s *TournamentService) Transition(ctx context.Context, tournamentID uuid.UUID, target bracket.TournamentStatus) error {
	s.locks.Lock(tournamentID.String())
	defer s.locks.Unlock(tournamentID.String())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("tournament %s", tournamentID)
		}
		return err
	}

	if target == bracket.TournamentCancelled {
		if !tournament.Status.PreLive() {
			return apperr.InvalidState("cannot cancel tournament in status %s", tournament.Status)
		}
	} else if lifecycle[tournament.Status] != target {
		return apperr.InvalidState("cannot move tournament from %s to %s", tournament.Status, target)
	}

	if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournamentID.String(), target); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}

	return tx.Commit()
}

// Register adds a user to an open tournament. The capacity check and insert
// run under the tournament's lock and one transaction so concurrent
// registrations cannot overbook. The rating snapshot is taken here and never
// refreshed.
func (s *TournamentService) Register(ctx context.Context, tournamentID, userID uuid.UUID, displayName string) (*bracket.Participant, error) {
	if displayName == "" {
		return nil, apperr.InvalidArgument("display name is required")
	}

	s.locks.Lock(tournamentID.String())
	defer s.locks.Unlock(tournamentID.String())

	// The provider runs its own queries, so the snapshot is taken before the
	// transaction claims a pool connection.
	rating, err := s.ratings.Rating(ctx, userID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user %s", userID)
		}
		return nil, fmt.Errorf("failed to fetch rating: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("tournament %s", tournamentID)
		}
		return nil, err
	}

	if tournament.Status != bracket.TournamentRegistrationOpen {
		return nil, apperr.InvalidState("registration is not open (tournament is %s)", tournament.Status)
	}

	count, err := s.store.CountParticipantsTx(ctx, tx, tournamentID.String())
	if err != nil {
		return nil, err
	}
	if count >= tournament.MaxParticipants {
		return nil, apperr.Conflict("tournament is full (%d/%d)", count, tournament.MaxParticipants)
	}

	participant := bracket.Participant{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		UserID:       userID,
		DisplayName:  displayName,
		Rating:       rating,
	}

	if err := s.store.CreateParticipant(ctx, tx, &participant); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict("user %s is already registered", userID)
		}
		return nil, err
	}

	return &participant, tx.Commit()
}
