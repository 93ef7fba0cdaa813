package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
	users "github.com/kitmedia/esports-platform-fc2025-sub000/internal/user"
)

// playedTournament builds a two-player single elimination tournament, plays
// its only match with slot 1 winning and returns the tournament and match ids.
func (f *fixture) playedTournament(t *testing.T) (uuid.UUID, uuid.UUID) {
	t.Helper()
	tournamentID := f.newLiveBracket(t, []int{1500, 1400})
	match := f.matchAt(t, tournamentID, 1, 1)
	f.playMatch(t, match.ID, 1)
	return tournamentID, match.ID
}

func TestSubmitDisputeTriage(t *testing.T) {
	testCases := []struct {
		name             string
		category         arbitration.Category
		description      string
		expectedPriority arbitration.Priority
		expectedHours    int
	}{
		{
			name:             "wrong result is high",
			category:         arbitration.WrongResult,
			description:      "the reported score is backwards",
			expectedPriority: arbitration.PriorityHigh,
			expectedHours:    6,
		},
		{
			name:             "no show is medium",
			category:         arbitration.NoShow,
			description:      "opponent never joined the lobby",
			expectedPriority: arbitration.PriorityMedium,
			expectedHours:    24,
		},
		{
			name:             "cheating is urgent",
			category:         arbitration.Cheating,
			description:      "aim looked scripted the whole game",
			expectedPriority: arbitration.PriorityUrgent,
			expectedHours:    2,
		},
		{
			name:             "technical issue is medium",
			category:         arbitration.TechnicalIssue,
			description:      "server dropped both of us mid game",
			expectedPriority: arbitration.PriorityMedium,
			expectedHours:    24,
		},
		{
			name:             "rule violation is high",
			category:         arbitration.RuleViolation,
			description:      "they used a banned formation",
			expectedPriority: arbitration.PriorityHigh,
			expectedHours:    6,
		},
		{
			name:             "keyword escalates to urgent",
			category:         arbitration.Other,
			description:      "pretty sure this was an exploit of the pause menu",
			expectedPriority: arbitration.PriorityUrgent,
			expectedHours:    2,
		},
		{
			name:             "keyword match is case insensitive",
			category:         arbitration.TechnicalIssue,
			description:      "He was CHEATING, look at the clip",
			expectedPriority: arbitration.PriorityUrgent,
			expectedHours:    2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tournamentID, matchID := f.playedTournament(t)
			reporter := f.newUser(t, users.RolePlayer, 1400)

			dispute, err := f.disputes.SubmitDispute(context.Background(), tournamentID, &matchID, reporter.ID, tc.category, tc.description, []string{"https://evidence.test/clip"})
			require.NoError(t, err)

			assert.Equal(t, tc.expectedPriority, dispute.Priority)
			assert.Equal(t, tc.expectedHours, dispute.EstimatedHours)
			assert.Equal(t, arbitration.DisputeOpen, dispute.Status)
			assert.Equal(t, arbitration.SuggestedResolution(tc.category), dispute.SuggestedResolution)

			var checklist []string
			require.NoError(t, json.Unmarshal([]byte(dispute.RequiredEvidence), &checklist))
			assert.Equal(t, arbitration.RequiredEvidence(tc.category), checklist)
		})
	}
}

func TestSubmitDisputeFlagsMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, matchID := f.playedTournament(t)
	reporter := f.newUser(t, users.RolePlayer, 1400)

	_, err := f.disputes.SubmitDispute(ctx, tournamentID, &matchID, reporter.ID, arbitration.WrongResult, "score entered backwards", nil)
	require.NoError(t, err)

	match, err := f.tournStore.GetMatch(ctx, matchID.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchDisputed, match.Status)

	// The validated result stays in force while the dispute is open.
	results, err := f.tournStore.GetResults(ctx, matchID.String())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, bracket.ResultValidated, results[0].Status)
}

func TestSubmitDisputeLeavesUnplayedMatchAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID := f.newLiveBracket(t, []int{1600, 1500, 1400, 1300})
	match := f.matchAt(t, tournamentID, 1, 1)
	reporter := f.newUser(t, users.RolePlayer, 1400)

	// The final has no participants yet; disputing it is allowed but the
	// match state is untouched.
	final := f.matchAt(t, tournamentID, 2, 1)
	dispute, err := f.disputes.SubmitDispute(ctx, tournamentID, &final.ID, reporter.ID, arbitration.RuleViolation, "seeding complaint", nil)
	require.NoError(t, err)
	assert.Equal(t, arbitration.DisputeOpen, dispute.Status)

	reloaded, err := f.tournStore.GetMatch(ctx, final.ID.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchPending, reloaded.Status)

	// Same for a ready match.
	require.NoError(t, f.matches.MarkReady(ctx, match.ID))
	_, err = f.disputes.SubmitDispute(ctx, tournamentID, &match.ID, reporter.ID, arbitration.NoShow, "opponent is stalling", nil)
	require.NoError(t, err)

	reloaded, err = f.tournStore.GetMatch(ctx, match.ID.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchReady, reloaded.Status)
}

func TestSubmitDisputeOnDisputedMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, matchID := f.playedTournament(t)
	reporter := f.newUser(t, users.RolePlayer, 1400)

	_, err := f.disputes.SubmitDispute(ctx, tournamentID, &matchID, reporter.ID, arbitration.WrongResult, "score entered backwards", nil)
	require.NoError(t, err)

	// A second report on the same match files fine and the match simply
	// stays disputed.
	_, err = f.disputes.SubmitDispute(ctx, tournamentID, &matchID, reporter.ID, arbitration.Cheating, "also looked scripted", nil)
	require.NoError(t, err)

	match, err := f.tournStore.GetMatch(ctx, matchID.String())
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchDisputed, match.Status)
}

func TestGetDisputesForTournament(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, matchID := f.playedTournament(t)
	reporter := f.newUser(t, users.RolePlayer, 1400)

	first, err := f.disputes.SubmitDispute(ctx, tournamentID, &matchID, reporter.ID, arbitration.WrongResult, "score entered backwards", nil)
	require.NoError(t, err)
	second, err := f.disputes.SubmitDispute(ctx, tournamentID, nil, reporter.ID, arbitration.Other, "bracket published late", nil)
	require.NoError(t, err)

	listed, err := f.disputes.GetDisputesForTournament(ctx, tournamentID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.ElementsMatch(t,
		[]uuid.UUID{first.ID, second.ID},
		[]uuid.UUID{listed[0].ID, listed[1].ID})

	_, err = f.disputes.GetDisputesForTournament(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubmitDisputeWithoutMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, _ := f.playedTournament(t)
	reporter := f.newUser(t, users.RolePlayer, 1400)

	dispute, err := f.disputes.SubmitDispute(ctx, tournamentID, nil, reporter.ID, arbitration.RuleViolation, "bracket seeded against the posted rules", nil)
	require.NoError(t, err)
	assert.Nil(t, dispute.MatchID)
}

func TestSubmitDisputeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tournamentID, matchID := f.playedTournament(t)
	reporter := f.newUser(t, users.RolePlayer, 1400)

	_, err := f.disputes.SubmitDispute(ctx, tournamentID, &matchID, reporter.ID, arbitration.Category("vibes"), "bad vibes", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = f.disputes.SubmitDispute(ctx, uuid.New(), &matchID, reporter.ID, arbitration.Other, "ghost tournament", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ghostMatch := uuid.New()
	_, err = f.disputes.SubmitDispute(ctx, tournamentID, &ghostMatch, reporter.ID, arbitration.Other, "ghost match", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
