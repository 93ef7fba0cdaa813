package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/notify"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/utils"
)

// DefaultConsensusThreshold is the minimum vote share for a binding decision.
const DefaultConsensusThreshold = 0.60

// noConsensusNote is recorded when the panel fails to reach the threshold.
const noConsensusNote = "No consensus reached among arbiters"

type ConsensusService struct {
	db        *sqlx.DB
	disputes  *store.DisputeStore
	matches   *MatchService
	notifier  notify.Notifier
	threshold float64
	locks     *keyLock
}

func NewConsensusService(db *sqlx.DB, disputes *store.DisputeStore, matches *MatchService, notifier notify.Notifier, threshold float64) *ConsensusService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultConsensusThreshold
	}
	return &ConsensusService{
		db:        db,
		disputes:  disputes,
		matches:   matches,
		notifier:  notifier,
		threshold: threshold,
		locks:     newKeyLock(),
	}
}

// ConsensusOutcome reports what CheckConsensus observed. Complete means every
// panel member has cast a vote; Reached means the winning share met the
// threshold and the dispute resolved.
type ConsensusOutcome struct {
	Complete bool
	Reached  bool
	Decision arbitration.Decision
	Level    float64
	Tallies  []arbitration.Tally
}

// SubmitVote records or revises an arbiter's vote, then checks consensus
// under the dispute's lock. Votes are mutable until the dispute reaches a
// terminal status.
func (s *ConsensusService) SubmitVote(ctx context.Context, disputeID, arbiterID uuid.UUID, decision arbitration.Decision, confidence float64, reasoning string) (*ConsensusOutcome, error) {
	if !decision.Valid() {
		return nil, apperr.InvalidArgument("unknown decision %q", decision)
	}
	if confidence < 0 || confidence > 1 {
		return nil, apperr.InvalidArgument("confidence must be in [0,1], got %v", confidence)
	}

	s.locks.Lock(disputeID.String())
	defer s.locks.Unlock(disputeID.String())

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dispute, err := s.getDisputeTx(ctx, tx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status != arbitration.DisputeUnderReview {
		return nil, apperr.InvalidState("dispute %s is %s, voting requires under_review", disputeID, dispute.Status)
	}

	vote, err := s.disputes.GetVoteTx(ctx, tx, disputeID.String(), arbiterID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("arbiter %s is not on the panel for dispute %s", arbiterID, disputeID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	vote.HasVoted = true
	vote.Decision = &decision
	vote.Confidence = confidence
	vote.Reasoning = utils.StringOrNil(reasoning)
	vote.SubmittedAt = &now
	if err := s.disputes.UpdateVoteTx(ctx, tx, vote); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.checkConsensusLocked(ctx, disputeID)
}

// CheckConsensus evaluates a dispute's votes and, when the panel is complete,
// resolves or escalates the dispute exactly once. Calling it on an already
// terminal dispute reports the stored outcome without re-applying anything.
func (s *ConsensusService) CheckConsensus(ctx context.Context, disputeID uuid.UUID) (*ConsensusOutcome, error) {
	s.locks.Lock(disputeID.String())
	defer s.locks.Unlock(disputeID.String())
	return s.checkConsensusLocked(ctx, disputeID)
}

func (s *ConsensusService) checkConsensusLocked(ctx context.Context, disputeID uuid.UUID) (*ConsensusOutcome, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dispute, err := s.getDisputeTx(ctx, tx, disputeID)
	if err != nil {
		return nil, err
	}

	if dispute.Status.Terminal() {
		outcome := &ConsensusOutcome{Complete: true, Reached: dispute.Status == arbitration.DisputeResolved}
		if dispute.Resolution != nil {
			outcome.Decision = *dispute.Resolution
		}
		return outcome, nil
	}
	if dispute.Status != arbitration.DisputeUnderReview {
		return nil, apperr.InvalidState("dispute %s has no panel yet", disputeID)
	}

	votes, err := s.disputes.GetVotesTx(ctx, tx, disputeID.String())
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, apperr.InvalidState("dispute %s has no panel yet", disputeID)
	}
	for _, v := range votes {
		if !v.HasVoted {
			return &ConsensusOutcome{Complete: false}, nil
		}
	}

	tallies, winner := tallyVotes(votes)
	outcome := &ConsensusOutcome{
		Complete: true,
		Decision: winner.Decision,
		Level:    winner.Percentage,
		Tallies:  tallies,
	}

	now := time.Now().UTC()
	dispute.ResolvedAt = &now

	if winner.Percentage < s.threshold {
		dispute.Status = arbitration.DisputeEscalated
		dispute.ResolutionNote = utils.Ptr(noConsensusNote)
	} else if winner.Decision == arbitration.Escalate {
		// A genuine escalate majority leaves the engine the same way a
		// failed consensus does.
		dispute.Status = arbitration.DisputeEscalated
		dispute.Resolution = &winner.Decision
		dispute.ResolutionNote = utils.Ptr(synthesizeReasoning(winner, votes))
	} else {
		if err := s.applyResolutionTx(ctx, tx, dispute, winner.Decision); err != nil {
			return nil, err
		}
		outcome.Reached = true
		dispute.Status = arbitration.DisputeResolved
		dispute.Resolution = &winner.Decision
		dispute.ResolutionNote = utils.Ptr(synthesizeReasoning(winner, votes))
	}

	if err := s.disputes.UpdateDispute(ctx, tx, dispute); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if outcome.Reached {
		s.notifier.DisputeResolved(ctx, disputeID, winner.Decision)
	}
	return outcome, nil
}

// tallyVotes groups cast votes by decision and picks the winner by count,
// then average confidence, then fixed decision order, so the result is the
// same for any submission order.
func tallyVotes(votes []arbitration.ArbitrationVote) ([]arbitration.Tally, arbitration.Tally) {
	order := []arbitration.Decision{
		arbitration.ApproveOriginal,
		arbitration.ApproveDispute,
		arbitration.Rematch,
		arbitration.DisqualifyBoth,
		arbitration.Escalate,
	}

	counts := make(map[arbitration.Decision]int)
	confidence := make(map[arbitration.Decision]float64)
	for _, v := range votes {
		if v.Decision == nil {
			continue
		}
		counts[*v.Decision]++
		confidence[*v.Decision] += v.Confidence
	}

	total := len(votes)
	var tallies []arbitration.Tally
	var winner arbitration.Tally
	for _, d := range order {
		count := counts[d]
		if count == 0 {
			continue
		}
		t := arbitration.Tally{
			Decision:      d,
			Count:         count,
			Percentage:    float64(count) / float64(total),
			AvgConfidence: confidence[d] / float64(count),
		}
		tallies = append(tallies, t)
		if t.Count > winner.Count || (t.Count == winner.Count && t.AvgConfidence > winner.AvgConfidence) {
			winner = t
		}
	}

	return tallies, winner
}

// synthesizeReasoning prefixes the consensus share and joins up to 3 non-empty
// reasoning strings from voters on the winning side.
func synthesizeReasoning(winner arbitration.Tally, votes []arbitration.ArbitrationVote) string {
	var reasons []string
	for _, v := range votes {
		if v.Decision == nil || *v.Decision != winner.Decision || v.Reasoning == nil {
			continue
		}
		reasons = append(reasons, *v.Reasoning)
		if len(reasons) == 3 {
			break
		}
	}
	return fmt.Sprintf("Consensus: %.0f%% - %s", winner.Percentage*100, strings.Join(reasons, "; "))
}

func (s *ConsensusService) getDisputeTx(ctx context.Context, tx *sqlx.Tx, disputeID uuid.UUID) (*arbitration.Dispute, error) {
	dispute, err := s.disputes.GetDisputeTx(ctx, tx, disputeID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("dispute %s", disputeID)
		}
		return nil, err
	}
	return dispute, nil
}
