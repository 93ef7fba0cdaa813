package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
)

type BracketService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	locks *keyLock
}

func NewBracketService(db *sqlx.DB, store *store.TournamentStore) *BracketService {
	return &BracketService{db: db, store: store, locks: newKeyLock()}
}

// Generate builds the bracket structure for a tournament whose registration
// has closed, seeds its participants and moves it into check-in. It runs at
// most once per tournament: the status flip inside the same transaction means
// a concurrent duplicate call finds the tournament already past
// registration_closed and fails with a conflict.
func (s *BracketService) Generate(ctx context.Context, tournamentID uuid.UUID, method SeedingMethod, rng *rand.Rand) error {
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

	switch tournament.Status {
	case bracket.TournamentRegistrationClosed:
		// The only status generation may run from.
	case bracket.TournamentCheckIn, bracket.TournamentLive, bracket.TournamentCompleted:
		return apperr.Conflict("bracket already generated for tournament %s", tournamentID)
	default:
		return apperr.InvalidState("bracket generation requires registration_closed, tournament is %s", tournament.Status)
	}

	participants, err := s.store.GetParticipantsTx(ctx, tx, tournamentID.String())
	if err != nil {
		return err
	}
	if len(participants) < 2 {
		return apperr.InvalidArgument("bracket generation requires at least 2 participants, got %d", len(participants))
	}
	if len(participants) < tournament.MinParticipants {
		return apperr.InvalidState("tournament needs %d participants, has %d", tournament.MinParticipants, len(participants))
	}

	seeded, err := Seed(participants, method, rng)
	if err != nil {
		return err
	}

	for i := range seeded {
		seed := i + 1
		seeded[i].Seed = &seed
		if err := s.store.UpdateParticipantSeedTx(ctx, tx, &seeded[i]); err != nil {
			return fmt.Errorf("failed to persist seed: %w", err)
		}
	}

	builder := newPlanBuilder(tournamentID)
	var groups []bracket.BracketGroup

	newGroup := func(name bracket.GroupName) uuid.UUID {
		g := bracket.BracketGroup{ID: uuid.New(), TournamentID: tournamentID, Name: name}
		groups = append(groups, g)
		return g.ID
	}

	switch tournament.Format {
	case bracket.SingleElimination:
		buildSingleElimination(builder, newGroup(bracket.MainGroup), seeded)
	case bracket.DoubleElimination:
		winnersID := newGroup(bracket.WinnersGroup)
		losersID := newGroup(bracket.LosersGroup)
		buildDoubleElimination(builder, winnersID, losersID, seeded)
	case bracket.RoundRobin:
		buildRoundRobin(builder, newGroup(bracket.MainGroup), seeded)
	case bracket.Swiss:
		if rng == nil {
			return apperr.InvalidArgument("swiss round 1 requires a random source")
		}
		// Swiss round-1 pairing is random regardless of the seeding method.
		shuffled := make([]bracket.Participant, len(seeded))
		copy(shuffled, seeded)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		buildSwissRound1(builder, newGroup(bracket.MainGroup), shuffled)
	default:
		return apperr.NotImplemented("tournament format %q", tournament.Format)
	}

	if err := s.store.CreateGroups(ctx, tx, groups); err != nil {
		return fmt.Errorf("failed to create bracket groups: %w", err)
	}

	matches := make([]bracket.Match, 0, len(builder.matches))
	for _, m := range builder.matches {
		matches = append(matches, *m)
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return fmt.Errorf("failed to create matches: %w", err)
	}

	if err := s.store.CreateMatchParticipants(ctx, tx, builder.slotRows()); err != nil {
		return fmt.Errorf("failed to create match participants: %w", err)
	}

	if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournamentID.String(), bracket.TournamentCheckIn); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}

	return tx.Commit()
}

// GenerateNextRound would pair a subsequent Swiss round by standings. The
// pairing policy is not part of this engine.
func (s *BracketService) GenerateNextRound(ctx context.Context, tournamentID uuid.UUID) error {
	tournament, err := s.store.GetTournament(ctx, tournamentID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("tournament %s", tournamentID)
		}
		return err
	}
	if tournament.Format != bracket.Swiss {
		return apperr.InvalidState("round generation only applies to swiss tournaments")
	}
	return apperr.NotImplemented("swiss pairing beyond round 1")
}
