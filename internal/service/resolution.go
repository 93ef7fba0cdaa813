package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
)

// applyResolutionTx executes the side effects of a binding arbitration
// decision inside the resolution transaction, so a dispute is never marked
// resolved without its promised mutation having happened. A missing match is
// an error, never a silent no-op.
func (s *ConsensusService) applyResolutionTx(ctx context.Context, tx *sqlx.Tx, dispute *arbitration.Dispute, decision arbitration.Decision) error {
	switch decision {
	case arbitration.ApproveOriginal:
		// The original result stands.
		return nil

	case arbitration.ApproveDispute:
		// Only wrong-result disputes promise a score correction.
		if dispute.Category != arbitration.WrongResult || dispute.MatchID == nil {
			return nil
		}
		return s.matches.reverseResultTx(ctx, tx, *dispute.MatchID)

	case arbitration.Rematch:
		if dispute.MatchID == nil {
			return apperr.InvalidState("dispute %s has no match to replay", dispute.ID)
		}
		return s.matches.rematchTx(ctx, tx, *dispute.MatchID)

	case arbitration.DisqualifyBoth:
		if dispute.MatchID == nil {
			return apperr.InvalidState("dispute %s has no match to cancel", dispute.ID)
		}
		return s.matches.cancelTx(ctx, tx, *dispute.MatchID)
	}

	return apperr.InvalidArgument("decision %q has no resolution side effect", decision)
}
