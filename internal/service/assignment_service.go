package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/notify"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
	users "github.com/kitmedia/esports-platform-fc2025-sub000/internal/user"
)

// RoleProvider is the consumed identity/role oracle; it returns the eligible
// panel pool already ranked by privilege with a stable tie-break.
type RoleProvider interface {
	ListEligibleArbiters(ctx context.Context) ([]users.User, error)
}

type AssignmentService struct {
	db       *sqlx.DB
	disputes *store.DisputeStore
	roles    RoleProvider
	notifier notify.Notifier
}

func NewAssignmentService(db *sqlx.DB, disputes *store.DisputeStore, roles RoleProvider, notifier notify.Notifier) *AssignmentService {
	return &AssignmentService{db: db, disputes: disputes, roles: roles, notifier: notifier}
}

// AssignPanel selects a panel sized by the dispute's priority and creates one
// un-cast vote row per arbiter. The dispute moves to under_review.
func (s *AssignmentService) AssignPanel(ctx context.Context, disputeID uuid.UUID) ([]users.User, error) {
	// The provider runs its own queries, so the pool is fetched before the
	// transaction claims a pool connection.
	pool, err := s.roles.ListEligibleArbiters(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	dispute, err := s.disputes.GetDisputeTx(ctx, tx, disputeID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("dispute %s", disputeID)
		}
		return nil, err
	}
	if dispute.Status != arbitration.DisputeOpen {
		if dispute.Status == arbitration.DisputeUnderReview {
			return nil, apperr.Conflict("dispute %s already has a panel", disputeID)
		}
		return nil, apperr.InvalidState("dispute %s is %s, panels are assigned to open disputes", disputeID, dispute.Status)
	}

	if len(pool) == 0 {
		return nil, apperr.InvalidState("no eligible arbiters available")
	}

	size := arbitration.PanelSize(dispute.Priority)
	if size > len(pool) {
		size = len(pool)
	}
	panel := pool[:size]

	votes := make([]arbitration.ArbitrationVote, 0, len(panel))
	for _, arbiter := range panel {
		votes = append(votes, arbitration.ArbitrationVote{
			ID:        uuid.New(),
			DisputeID: disputeID,
			ArbiterID: arbiter.ID,
		})
	}
	if err := s.disputes.CreateVotes(ctx, tx, votes); err != nil {
		return nil, err
	}

	dispute.Status = arbitration.DisputeUnderReview
	if err := s.disputes.UpdateDispute(ctx, tx, dispute); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, arbiter := range panel {
		s.notifier.DisputeAssigned(ctx, disputeID, arbiter.ID)
	}
	return panel, nil
}
