package service

import (
	"math"

	"github.com/google/uuid"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/utils"
)

// planBuilder accumulates the match topology for one tournament before it is
// written out. Matches are appended so that any match referenced by a
// winner/loser link precedes its referencer, which keeps the batch insert
// valid under foreign keys.
type planBuilder struct {
	tournamentID uuid.UUID
	matches      []*bracket.Match
	parts        map[uuid.UUID]map[int]uuid.UUID // match id -> slot -> participant id
}

func newPlanBuilder(tournamentID uuid.UUID) *planBuilder {
	return &planBuilder{
		tournamentID: tournamentID,
		parts:        make(map[uuid.UUID]map[int]uuid.UUID),
	}
}

func (b *planBuilder) addMatch(groupID uuid.UUID, round, position int) *bracket.Match {
	m := &bracket.Match{
		ID:           uuid.New(),
		TournamentID: b.tournamentID,
		GroupID:      groupID,
		RoundNumber:  round,
		Position:     position,
		Status:       bracket.MatchPending,
	}
	b.matches = append(b.matches, m)
	return m
}

func (b *planBuilder) setParticipant(m *bracket.Match, slot int, participantID uuid.UUID) {
	if b.parts[m.ID] == nil {
		b.parts[m.ID] = make(map[int]uuid.UUID)
	}
	b.parts[m.ID][slot] = participantID
}

// slotRows flattens the planned slot assignments into insertable rows.
func (b *planBuilder) slotRows() []bracket.MatchParticipant {
	var rows []bracket.MatchParticipant
	for _, m := range b.matches {
		for slot := 1; slot <= 2; slot++ {
			pid, ok := b.parts[m.ID][slot]
			if !ok {
				continue
			}
			rows = append(rows, bracket.MatchParticipant{
				ID:            uuid.New(),
				MatchID:       m.ID,
				ParticipantID: pid,
				Slot:          slot,
			})
		}
	}
	return rows
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// buildEliminationRounds creates a full knockout structure of bracketSize
// slots inside one group, built from the final backwards so winner links
// always point at an already-created match. The returned slice is indexed
// rounds[r-1][position-1].
func (b *planBuilder) buildEliminationRounds(groupID uuid.UUID, bracketSize int) [][]*bracket.Match {
	totalRounds := int(math.Log2(float64(bracketSize)))
	rounds := make([][]*bracket.Match, totalRounds)

	for r := totalRounds; r >= 1; r-- {
		matchesInCurrentRound := 1 << (totalRounds - r)
		row := make([]*bracket.Match, matchesInCurrentRound)

		for i := 0; i < matchesInCurrentRound; i++ {
			position := i + 1
			m := b.addMatch(groupID, r, position)

			if r < totalRounds {
				parent := rounds[r][(position-1)/2]
				m.WinnerNextMatchID = &parent.ID
				if position%2 != 0 {
					m.WinnerNextSlot = utils.Ptr(1)
				} else {
					m.WinnerNextSlot = utils.Ptr(2)
				}
			}

			row[i] = m
		}
		rounds[r-1] = row
	}

	return rounds
}

// assignAdjacentPairs fills round-1 slots by adjacent seed order: seeded[0] vs
// seeded[1], seeded[2] vs seeded[3], and so on. Slots past the field size stay
// empty and become byes.
func (b *planBuilder) assignAdjacentPairs(round1 []*bracket.Match, seeded []bracket.Participant) {
	for i, m := range round1 {
		if 2*i < len(seeded) {
			b.setParticipant(m, 1, seeded[2*i].ID)
		}
		if 2*i+1 < len(seeded) {
			b.setParticipant(m, 2, seeded[2*i+1].ID)
		}
	}
}

type feedKind int

const (
	winnerFeed feedKind = iota
	loserFeed
)

type feed struct {
	source *bracket.Match
	kind   feedKind
}

// resolveByes finds every match that can never receive two participants,
// marks it a bye and completes the ones whose lone participant is already
// known, advancing that participant downstream until a fixpoint. A bye whose
// participant only arrives during play is completed by the advancement logic
// instead.
func (b *planBuilder) resolveByes() {
	byID := make(map[uuid.UUID]*bracket.Match, len(b.matches))
	for _, m := range b.matches {
		byID[m.ID] = m
	}

	incoming := make(map[uuid.UUID][]feed)
	for _, m := range b.matches {
		if m.WinnerNextMatchID != nil {
			incoming[*m.WinnerNextMatchID] = append(incoming[*m.WinnerNextMatchID], feed{source: m, kind: winnerFeed})
		}
		if m.LoserNextMatchID != nil {
			incoming[*m.LoserNextMatchID] = append(incoming[*m.LoserNextMatchID], feed{source: m, kind: loserFeed})
		}
	}

	// Expected participant count per match: slots filled at generation plus
	// feeds whose source will actually deliver. A source delivers a winner if
	// it expects at least one participant, a loser only with a full pairing.
	// Iterates downward to a fixpoint.
	expected := make(map[uuid.UUID]int, len(b.matches))
	for _, m := range b.matches {
		expected[m.ID] = len(b.parts[m.ID]) + len(incoming[m.ID])
	}
	for changed := true; changed; {
		changed = false
		for _, m := range b.matches {
			count := len(b.parts[m.ID])
			for _, f := range incoming[m.ID] {
				need := 1
				if f.kind == loserFeed {
					need = 2
				}
				if expected[f.source.ID] >= need {
					count++
				}
			}
			if count != expected[m.ID] {
				expected[m.ID] = count
				changed = true
			}
		}
	}

	for _, m := range b.matches {
		if expected[m.ID] <= 1 {
			m.IsBye = true
		}
	}

	// Complete generation-time byes and cascade their winners forward.
	for changed := true; changed; {
		changed = false
		for _, m := range b.matches {
			if !m.IsBye || m.Status == bracket.MatchCompleted {
				continue
			}
			if len(b.parts[m.ID]) < expected[m.ID] {
				continue // participant arrives during play
			}

			m.Status = bracket.MatchCompleted
			if expected[m.ID] == 1 {
				var winner uuid.UUID
				for _, pid := range b.parts[m.ID] {
					winner = pid
				}
				m.WinnerParticipantID = &winner

				if m.WinnerNextMatchID != nil && m.WinnerNextSlot != nil {
					next := byID[*m.WinnerNextMatchID]
					if _, taken := b.parts[next.ID][*m.WinnerNextSlot]; !taken {
						b.setParticipant(next, *m.WinnerNextSlot, winner)
					}
				}
			}
			changed = true
		}
	}
}

// buildSingleElimination plans a padded knockout bracket with adjacent seed
// pairing and explicit byes.
func buildSingleElimination(b *planBuilder, groupID uuid.UUID, seeded []bracket.Participant) {
	rounds := b.buildEliminationRounds(groupID, calcBracketSize(len(seeded)))
	b.assignAdjacentPairs(rounds[0], seeded)
	b.resolveByes()
}

// buildDoubleElimination plans a winners bracket, a losers bracket fed by
// winners-bracket losers, and a grand final in the winners group.
func buildDoubleElimination(b *planBuilder, winnersGroupID, losersGroupID uuid.UUID, seeded []bracket.Participant) {
	bracketSize := calcBracketSize(len(seeded))
	totalRounds := int(math.Log2(float64(bracketSize)))

	// Grand final first so every other match can link to it.
	grandFinal := b.addMatch(winnersGroupID, totalRounds+1, 1)

	var losers [][]*bracket.Match
	if totalRounds >= 2 {
		losers = b.buildLosersRounds(losersGroupID, bracketSize, grandFinal)
	}

	winners := b.buildEliminationRounds(winnersGroupID, bracketSize)

	// Winners-bracket final winner meets the losers-bracket survivor.
	wbFinal := winners[totalRounds-1][0]
	wbFinal.WinnerNextMatchID = &grandFinal.ID
	wbFinal.WinnerNextSlot = utils.Ptr(1)

	if totalRounds < 2 {
		// Two-player field: the lone match's loser goes straight to the final.
		wbFinal.LoserNextMatchID = &grandFinal.ID
		wbFinal.LoserNextSlot = utils.Ptr(2)
	} else {
		// Round-1 losers pair up in losers round 1.
		for i, m := range winners[0] {
			position := i + 1
			target := losers[0][(position-1)/2]
			m.LoserNextMatchID = &target.ID
			if position%2 != 0 {
				m.LoserNextSlot = utils.Ptr(1)
			} else {
				m.LoserNextSlot = utils.Ptr(2)
			}
		}
		// Later winners-bracket losers drop into the matching mixed round.
		for r := 2; r <= totalRounds; r++ {
			for i, m := range winners[r-1] {
				target := losers[2*(r-1)-1][i]
				m.LoserNextMatchID = &target.ID
				m.LoserNextSlot = utils.Ptr(2)
			}
		}
	}

	b.assignAdjacentPairs(winners[0], seeded)
	b.resolveByes()
}

// buildLosersRounds creates the losers-bracket rounds for a field of
// bracketSize. Odd rounds pair losers-bracket winners; even rounds mix the
// previous round's winners with the losers dropping from the winners bracket.
// The last round's winner advances to the grand final.
func (b *planBuilder) buildLosersRounds(groupID uuid.UUID, bracketSize int, grandFinal *bracket.Match) [][]*bracket.Match {
	totalRounds := int(math.Log2(float64(bracketSize)))
	lbRounds := 2 * (totalRounds - 1)

	sizeOf := func(round int) int {
		return bracketSize / (1 << ((round+1)/2 + 1))
	}

	rounds := make([][]*bracket.Match, lbRounds)
	for r := lbRounds; r >= 1; r-- {
		count := sizeOf(r)
		row := make([]*bracket.Match, count)
		for i := 0; i < count; i++ {
			position := i + 1
			m := b.addMatch(groupID, r, position)

			if r == lbRounds {
				m.WinnerNextMatchID = &grandFinal.ID
				m.WinnerNextSlot = utils.Ptr(2)
			} else if sizeOf(r) == sizeOf(r+1) {
				next := rounds[r][i]
				m.WinnerNextMatchID = &next.ID
				m.WinnerNextSlot = utils.Ptr(1)
			} else {
				next := rounds[r][(position-1)/2]
				m.WinnerNextMatchID = &next.ID
				if position%2 != 0 {
					m.WinnerNextSlot = utils.Ptr(1)
				} else {
					m.WinnerNextSlot = utils.Ptr(2)
				}
			}

			row[i] = m
		}
		rounds[r-1] = row
	}

	return rounds
}

// buildRoundRobin plans one match per unordered pair in a fixed nested-loop
// order so the position sequence is reproducible for a given seed order.
func buildRoundRobin(b *planBuilder, groupID uuid.UUID, seeded []bracket.Participant) {
	position := 1
	for i := 0; i < len(seeded); i++ {
		for j := i + 1; j < len(seeded); j++ {
			m := b.addMatch(groupID, 1, position)
			b.setParticipant(m, 1, seeded[i].ID)
			b.setParticipant(m, 2, seeded[j].ID)
			position++
		}
	}
}

// buildSwissRound1 plans the first Swiss round from an already-shuffled
// order. Later rounds depend on standings and are paired elsewhere.
func buildSwissRound1(b *planBuilder, groupID uuid.UUID, shuffled []bracket.Participant) {
	position := 1
	for i := 0; i+1 < len(shuffled); i += 2 {
		m := b.addMatch(groupID, 1, position)
		b.setParticipant(m, 1, shuffled[i].ID)
		b.setParticipant(m, 2, shuffled[i+1].ID)
		position++
	}

	if len(shuffled)%2 != 0 {
		last := shuffled[len(shuffled)-1]
		m := b.addMatch(groupID, 1, position)
		b.setParticipant(m, 1, last.ID)
		m.IsBye = true
		m.Status = bracket.MatchCompleted
		m.WinnerParticipantID = &last.ID
	}
}
