package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/db"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/notify"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
	users "github.com/kitmedia/esports-platform-fc2025-sub000/internal/user"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// A second pool connection would see a fresh empty database.
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")

	return database
}

type fixture struct {
	db          *sqlx.DB
	userStore   *store.UserStore
	tournStore  *store.TournamentStore
	dispStore   *store.DisputeStore
	tournaments *TournamentService
	brackets    *BracketService
	matches     *MatchService
	disputes    *DisputeService
	assignments *AssignmentService
	consensus   *ConsensusService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	userStore := store.NewUserStore(database)
	tournStore := store.NewTournamentStore(database)
	dispStore := store.NewDisputeStore(database)
	notifier := notify.NewSlogNotifier()

	matches := NewMatchService(database, tournStore, notifier)

	return &fixture{
		db:          database,
		userStore:   userStore,
		tournStore:  tournStore,
		dispStore:   dispStore,
		tournaments: NewTournamentService(database, tournStore, userStore),
		brackets:    NewBracketService(database, tournStore),
		matches:     matches,
		disputes:    NewDisputeService(database, dispStore, tournStore, matches),
		assignments: NewAssignmentService(database, dispStore, userStore, notifier),
		consensus:   NewConsensusService(database, dispStore, matches, notifier, DefaultConsensusThreshold),
	}
}

func (f *fixture) newUser(t *testing.T, role users.Role, rating int) *users.User {
	t.Helper()
	user := &users.User{
		ID:       uuid.New(),
		Username: fmt.Sprintf("user-%s", uuid.NewString()[:8]),
		Role:     role,
		Status:   users.StatusActive,
		Rating:   rating,
	}
	require.NoError(t, f.userStore.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) newNamedUser(t *testing.T, username string, role users.Role) *users.User {
	t.Helper()
	user := &users.User{
		ID:       uuid.New(),
		Username: username,
		Role:     role,
		Status:   users.StatusActive,
		Rating:   1200,
	}
	require.NoError(t, f.userStore.CreateUser(context.Background(), user))
	return user
}

func (f *fixture) newTournament(t *testing.T, format bracket.TournamentFormat, minParticipants, maxParticipants int) uuid.UUID {
	t.Helper()
	owner := f.newUser(t, users.RoleAdmin, 1500)
	id, err := f.tournaments.CreateTournament(context.Background(), owner.ID, "Test Cup", format, minParticipants, maxParticipants)
	require.NoError(t, err)
	return id
}

// registerRatings opens registration and registers one fresh user per rating,
// in order, so registration order matches the slice order.
func (f *fixture) registerRatings(t *testing.T, tournamentID uuid.UUID, ratings []int) []bracket.Participant {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.tournaments.Transition(ctx, tournamentID, bracket.TournamentRegistrationOpen))

	registered := make([]bracket.Participant, 0, len(ratings))
	for i, rating := range ratings {
		user := f.newUser(t, users.RolePlayer, rating)
		participant, err := f.tournaments.Register(ctx, tournamentID, user.ID, fmt.Sprintf("Player %d", i+1))
		require.NoError(t, err)
		registered = append(registered, *participant)
	}
	return registered
}

func (f *fixture) closeAndGenerate(t *testing.T, tournamentID uuid.UUID, method SeedingMethod, seed int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.tournaments.Transition(ctx, tournamentID, bracket.TournamentRegistrationClosed))
	require.NoError(t, f.brackets.Generate(ctx, tournamentID, method, rand.New(rand.NewSource(seed))))
}

func (f *fixture) participantNames(t *testing.T, tournamentID uuid.UUID) map[uuid.UUID]string {
	t.Helper()
	participants, err := f.tournStore.GetParticipants(context.Background(), tournamentID.String())
	require.NoError(t, err)
	names := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.DisplayName
	}
	return names
}

func TestGenerateSingleEliminationMatchCount(t *testing.T) {
	testCases := []struct {
		name            string
		ratings         []int
		expectedMatches int
		expectedByes    int
	}{
		{
			name:            "2 participants",
			ratings:         []int{1500, 1400},
			expectedMatches: 1,
			expectedByes:    0,
		},
		{
			name:            "4 participants",
			ratings:         []int{1600, 1500, 1400, 1300},
			expectedMatches: 3,
			expectedByes:    0,
		},
		{
			name:            "8 participants",
			ratings:         []int{2000, 1900, 1800, 1700, 1600, 1500, 1400, 1300},
			expectedMatches: 7,
			expectedByes:    0,
		},
		{
			name:            "5 participants pads with byes",
			ratings:         []int{1700, 1600, 1500, 1400, 1300},
			expectedMatches: 7,
			expectedByes:    3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tournamentID := f.newTournament(t, bracket.SingleElimination, 2, 16)
			f.registerRatings(t, tournamentID, tc.ratings)
			f.closeAndGenerate(t, tournamentID, SeedingElo, 1)

			matches, err := f.tournStore.GetMatches(context.Background(), tournamentID.String())
			require.NoError(t, err)
			assert.Len(t, matches, tc.expectedMatches)

			byes := 0
			for _, m := range matches {
				if m.IsBye {
					byes++
					assert.Equal(t, bracket.MatchCompleted, m.Status, "bye matches complete at generation")
				}
			}
			assert.Equal(t, tc.expectedByes, byes)

			// A field of N always decides N-1 real matches.
			assert.Equal(t, len(tc.ratings)-1, tc.expectedMatches-byes)
		})
	}
}

func TestGenerateEloSeedingPairsAdjacent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ratings := []int{1600, 2000, 1300, 1800, 1500, 1900, 1400, 1700}
	tournamentID := f.newTournament(t, bracket.SingleElimination, 2, 16)
	f.registerRatings(t, tournamentID, ratings)
	f.closeAndGenerate(t, tournamentID, SeedingElo, 1)

	participants, err := f.tournStore.GetParticipants(ctx, tournamentID.String())
	require.NoError(t, err)
	ratingByID := make(map[uuid.UUID]int)
	for _, p := range participants {
		ratingByID[p.ID] = p.Rating
	}

	matches, err := f.tournStore.GetMatches(ctx, tournamentID.String())
	require.NoError(t, err)

	var round1Pairs [][2]int
	for _, m := range matches {
		if m.RoundNumber != 1 {
			continue
		}
		slots, err := f.tournStore.GetMatchParticipants(ctx, m.ID.String())
		require.NoError(t, err)
		require.Len(t, slots, 2)
		round1Pairs = append(round1Pairs, [2]int{ratingByID[slots[0].ParticipantID], ratingByID[slots[1].ParticipantID]})
	}

	expected := [][2]int{{2000, 1900}, {1800, 1700}, {1600, 1500}, {1400, 1300}}
	assert.Equal(t, expected, round1Pairs)
}

func TestGenerateRequiresRegistrationClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	tournamentID := f.newTournament(t, bracket.SingleElimination, 2, 16)
	f.registerRatings(t, tournamentID, []int{1500, 1400})

	err := f.brackets.Generate(ctx, tournamentID, SeedingElo, rng)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	require.NoError(t, f.tournaments.Transition(ctx, tournamentID, bracket.TournamentRegistrationClosed))
	require.NoError(t, f.brackets.Generate(ctx, tournamentID, SeedingElo, rng))

	// A second generation attempt finds the tournament past registration_closed.
	err = f.brackets.Generate(ctx, tournamentID, SeedingElo, rng)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestGenerateRejectsUndersizedField(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID := f.newTournament(t, bracket.SingleElimination, 4, 16)
	f.registerRatings(t, tournamentID, []int{1500, 1400})
	require.NoError(t, f.tournaments.Transition(ctx, tournamentID, bracket.TournamentRegistrationClosed))

	err := f.brackets.Generate(ctx, tournamentID, SeedingElo, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestGenerateRoundRobin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID := f.newTournament(t, bracket.RoundRobin, 2, 16)
	f.registerRatings(t, tournamentID, []int{1800, 1700, 1600, 1500})
	f.closeAndGenerate(t, tournamentID, SeedingElo, 1)

	matches, err := f.tournStore.GetMatches(ctx, tournamentID.String())
	require.NoError(t, err)
	require.Len(t, matches, 6, "C(4,2) pairs")

	for i, m := range matches {
		assert.Equal(t, 1, m.RoundNumber)
		assert.Equal(t, i+1, m.Position, "positions increment monotonically")
		assert.Equal(t, bracket.MatchPending, m.Status)
		assert.Nil(t, m.WinnerNextMatchID)
	}

	// Every unordered pair appears exactly once.
	seen := make(map[[2]uuid.UUID]bool)
	for _, m := range matches {
		slots, err := f.tournStore.GetMatchParticipants(ctx, m.ID.String())
		require.NoError(t, err)
		require.Len(t, slots, 2)
		key := [2]uuid.UUID{slots[0].ParticipantID, slots[1].ParticipantID}
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestGenerateSwissRound1(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID := f.newTournament(t, bracket.Swiss, 2, 16)
	f.registerRatings(t, tournamentID, []int{1800, 1700, 1600, 1500, 1400})
	f.closeAndGenerate(t, tournamentID, SeedingElo, 42)

	matches, err := f.tournStore.GetMatches(ctx, tournamentID.String())
	require.NoError(t, err)
	require.Len(t, matches, 3, "two pairings plus a bye for the odd player out")

	byes := 0
	for _, m := range matches {
		require.Equal(t, 1, m.RoundNumber)
		if m.IsBye {
			byes++
			assert.Equal(t, bracket.MatchCompleted, m.Status)
			require.NotNil(t, m.WinnerParticipantID)
		}
	}
	assert.Equal(t, 1, byes)

	err = f.brackets.GenerateNextRound(ctx, tournamentID)
	assert.ErrorIs(t, err, apperr.ErrNotImplemented)
}

func TestGenerateSwissIsReproducible(t *testing.T) {
	pairingsFor := func(t *testing.T, seed int64) [][2]string {
		f := newFixture(t)
		ctx := context.Background()
		tournamentID := f.newTournament(t, bracket.Swiss, 2, 16)
		f.registerRatings(t, tournamentID, []int{1800, 1700, 1600, 1500})
		f.closeAndGenerate(t, tournamentID, SeedingElo, seed)

		names := f.participantNames(t, tournamentID)
		matches, err := f.tournStore.GetMatches(ctx, tournamentID.String())
		require.NoError(t, err)

		var pairs [][2]string
		for _, m := range matches {
			slots, err := f.tournStore.GetMatchParticipants(ctx, m.ID.String())
			require.NoError(t, err)
			require.Len(t, slots, 2)
			pairs = append(pairs, [2]string{names[slots[0].ParticipantID], names[slots[1].ParticipantID]})
		}
		return pairs
	}

	assert.Equal(t, pairingsFor(t, 7), pairingsFor(t, 7), "same random source, same pairing")
}

func TestGenerateDoubleElimination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID := f.newTournament(t, bracket.DoubleElimination, 2, 16)
	f.registerRatings(t, tournamentID, []int{1700, 1600, 1500, 1400})
	f.closeAndGenerate(t, tournamentID, SeedingElo, 1)

	groups, err := f.tournStore.GetGroups(ctx, tournamentID.String())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	groupByName := make(map[bracket.GroupName]uuid.UUID)
	for _, g := range groups {
		groupByName[g.Name] = g.ID
	}
	require.Contains(t, groupByName, bracket.WinnersGroup)
	require.Contains(t, groupByName, bracket.LosersGroup)

	matches, err := f.tournStore.GetMatches(ctx, tournamentID.String())
	require.NoError(t, err)
	require.Len(t, matches, 6, "2n-2 matches for a power-of-two field")

	var winners, losers int
	for _, m := range matches {
		switch m.GroupID {
		case groupByName[bracket.WinnersGroup]:
			winners++
		case groupByName[bracket.LosersGroup]:
			losers++
		}
	}
	assert.Equal(t, 4, winners, "two round-1 matches, the final and the grand final")
	assert.Equal(t, 2, losers)

	// Every winners-bracket round-1 match drops its loser into the losers bracket.
	for _, m := range matches {
		if m.GroupID == groupByName[bracket.WinnersGroup] && m.RoundNumber == 1 {
			require.NotNil(t, m.LoserNextMatchID)
			require.NotNil(t, m.LoserNextSlot)
		}
	}
}
