package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
)

type DisputeStore struct {
	db *sqlx.DB
}

func NewDisputeStore(db *sqlx.DB) *DisputeStore {
	return &DisputeStore{db: db}
}

func (s *DisputeStore) CreateDispute(ctx context.Context, tx *sqlx.Tx, dispute *arbitration.Dispute) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO disputes (id, tournament_id, match_id, reporter_id, category, priority, status, description, evidence, suggested_resolution, required_evidence, estimated_hours)
        VALUES (:id, :tournament_id, :match_id, :reporter_id, :category, :priority, :status, :description, :evidence, :suggested_resolution, :required_evidence, :estimated_hours)`, dispute)
	return err
}

func (s *DisputeStore) GetDispute(ctx context.Context, id string) (*arbitration.Dispute, error) {
	var dispute arbitration.Dispute
	err := s.db.GetContext(ctx, &dispute, "SELECT * FROM disputes WHERE id = ?", id)
	return &dispute, err
}

func (s *DisputeStore) GetDisputeTx(ctx context.Context, tx *sqlx.Tx, id string) (*arbitration.Dispute, error) {
	var dispute arbitration.Dispute
	err := tx.GetContext(ctx, &dispute, "SELECT * FROM disputes WHERE id = ?", id)
	return &dispute, err
}

func (s *DisputeStore) GetDisputesByTournament(ctx context.Context, tournamentID string) ([]arbitration.Dispute, error) {
	var disputes []arbitration.Dispute
	err := s.db.SelectContext(ctx, &disputes, "SELECT * FROM disputes WHERE tournament_id = ? ORDER BY created_at DESC", tournamentID)
	return disputes, err
}

func (s *DisputeStore) UpdateDispute(ctx context.Context, tx *sqlx.Tx, dispute *arbitration.Dispute) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE disputes SET priority = :priority, status = :status, resolution = :resolution, resolution_note = :resolution_note, resolved_at = :resolved_at
        WHERE id = :id`, dispute)
	return err
}

func (s *DisputeStore) CreateVotes(ctx context.Context, tx *sqlx.Tx, votes []arbitration.ArbitrationVote) error {
	if len(votes) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO arbitration_votes (id, dispute_id, arbiter_id, has_voted, decision, confidence, reasoning, submitted_at)
        VALUES (:id, :dispute_id, :arbiter_id, :has_voted, :decision, :confidence, :reasoning, :submitted_at)`, votes)
	return err
}

// GetVotes returns a dispute's panel rows in assignment order.
func (s *DisputeStore) GetVotes(ctx context.Context, disputeID string) ([]arbitration.ArbitrationVote, error) {
	var votes []arbitration.ArbitrationVote
	err := s.db.SelectContext(ctx, &votes, "SELECT * FROM arbitration_votes WHERE dispute_id = ? ORDER BY created_at ASC, rowid ASC", disputeID)
	return votes, err
}

func (s *DisputeStore) GetVotesTx(ctx context.Context, tx *sqlx.Tx, disputeID string) ([]arbitration.ArbitrationVote, error) {
	var votes []arbitration.ArbitrationVote
	err := tx.SelectContext(ctx, &votes, "SELECT * FROM arbitration_votes WHERE dispute_id = ? ORDER BY created_at ASC, rowid ASC", disputeID)
	return votes, err
}

func (s *DisputeStore) GetVoteTx(ctx context.Context, tx *sqlx.Tx, disputeID, arbiterID string) (*arbitration.ArbitrationVote, error) {
	var vote arbitration.ArbitrationVote
	err := tx.GetContext(ctx, &vote, "SELECT * FROM arbitration_votes WHERE dispute_id = ? AND arbiter_id = ?", disputeID, arbiterID)
	return &vote, err
}

func (s *DisputeStore) UpdateVoteTx(ctx context.Context, tx *sqlx.Tx, vote *arbitration.ArbitrationVote) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE arbitration_votes SET has_voted = :has_voted, decision = :decision, confidence = :confidence, reasoning = :reasoning, submitted_at = :submitted_at
        WHERE id = :id`, vote)
	return err
}
