package service

import (
	"math/rand"
	"sort"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
)

type SeedingMethod string

const (
	SeedingElo    SeedingMethod = "elo"
	SeedingRandom SeedingMethod = "random"
	SeedingManual SeedingMethod = "manual"
)

// Seed orders participants for bracket construction. Pure: the input slice is
// never mutated and no state is touched. The rng is only consulted for the
// random method, so callers can inject a fixed source to make runs repeatable.
//
// elo sorts by rating snapshot descending; the sort is stable so rating ties
// keep registration order. manual trusts the caller's ordering and only
// validates the input. Fewer than 2 participants is rejected for every method.
func Seed(participants []bracket.Participant, method SeedingMethod, rng *rand.Rand) ([]bracket.Participant, error) {
	if len(participants) < 2 {
		return nil, apperr.InvalidArgument("seeding requires at least 2 participants, got %d", len(participants))
	}

	seeded := make([]bracket.Participant, len(participants))
	copy(seeded, participants)

	switch method {
	case SeedingElo:
		sort.SliceStable(seeded, func(i, j int) bool {
			return seeded[i].Rating > seeded[j].Rating
		})
	case SeedingRandom:
		if rng == nil {
			return nil, apperr.InvalidArgument("random seeding requires a random source")
		}
		rng.Shuffle(len(seeded), func(i, j int) {
			seeded[i], seeded[j] = seeded[j], seeded[i]
		})
	case SeedingManual:
		// Caller pre-ordered the sequence; nothing to reorder.
	default:
		return nil, apperr.InvalidArgument("unknown seeding method %q", method)
	}

	return seeded, nil
}
