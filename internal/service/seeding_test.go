package service

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
)

func seedingField(ratings ...int) []bracket.Participant {
	participants := make([]bracket.Participant, len(ratings))
	for i, r := range ratings {
		participants[i] = bracket.Participant{
			ID:          uuid.New(),
			DisplayName: string(rune('A' + i)),
			Rating:      r,
		}
	}
	return participants
}

func ratings(participants []bracket.Participant) []int {
	out := make([]int, len(participants))
	for i, p := range participants {
		out[i] = p.Rating
	}
	return out
}

func names(participants []bracket.Participant) []string {
	out := make([]string, len(participants))
	for i, p := range participants {
		out[i] = p.DisplayName
	}
	return out
}

func TestSeedEloOrdersByRatingDescending(t *testing.T) {
	field := seedingField(1500, 2000, 1300, 1800)

	seeded, err := Seed(field, SeedingElo, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{2000, 1800, 1500, 1300}, ratings(seeded))
	// Input order is untouched.
	assert.Equal(t, []int{1500, 2000, 1300, 1800}, ratings(field))
}

func TestSeedEloTiesKeepRegistrationOrder(t *testing.T) {
	field := seedingField(1500, 1500, 1700, 1500)

	seeded, err := Seed(field, SeedingElo, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "A", "B", "D"}, names(seeded))
}

func TestSeedRandomIsReproducible(t *testing.T) {
	field := seedingField(1500, 1400, 1300, 1200, 1100, 1000)

	first, err := Seed(field, SeedingRandom, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	second, err := Seed(field, SeedingRandom, rand.New(rand.NewSource(99)))
	require.NoError(t, err)

	assert.Equal(t, names(first), names(second))
	assert.ElementsMatch(t, names(field), names(first))
}

func TestSeedRandomRequiresSource(t *testing.T) {
	_, err := Seed(seedingField(1500, 1400), SeedingRandom, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestSeedManualKeepsGivenOrder(t *testing.T) {
	field := seedingField(1200, 1900, 1500)

	seeded, err := Seed(field, SeedingManual, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, names(seeded))
}

func TestSeedRejectsTooFewParticipants(t *testing.T) {
	for _, field := range [][]bracket.Participant{nil, seedingField(1500)} {
		_, err := Seed(field, SeedingElo, nil)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	}
}

func TestSeedRejectsUnknownMethod(t *testing.T) {
	_, err := Seed(seedingField(1500, 1400), SeedingMethod("bogus"), nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
