package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/arbitration"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
)

type DisputeService struct {
	db          *sqlx.DB
	disputes    *store.DisputeStore
	tournaments *store.TournamentStore
	matches     *MatchService
}

func NewDisputeService(db *sqlx.DB, disputes *store.DisputeStore, tournaments *store.TournamentStore, matches *MatchService) *DisputeService {
	return &DisputeService{db: db, disputes: disputes, tournaments: tournaments, matches: matches}
}

// SubmitDispute creates a dispute record with advisory triage metadata. The
// triage heuristics are best-effort: a failure there degrades to category
// defaults instead of failing the submission. A dispute against a live or
// completed match flips that match to disputed; its validated result stays in
// force until arbitration resolves.
func (s *DisputeService) SubmitDispute(ctx context.Context, tournamentID uuid.UUID, matchID *uuid.UUID, reporterID uuid.UUID, category arbitration.Category, description string, evidence []string) (*arbitration.Dispute, error) {
	if !category.Valid() {
		return nil, apperr.InvalidArgument("unknown dispute category %q", category)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("tournament %s", tournamentID)
		}
		return nil, err
	}

	if matchID != nil {
		if _, err := s.tournaments.GetMatchTx(ctx, tx, matchID.String()); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.NotFound("match %s", matchID)
			}
			return nil, err
		}
	}

	dispute := arbitration.Dispute{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		MatchID:      matchID,
		ReporterID:   reporterID,
		Category:     category,
		Status:       arbitration.DisputeOpen,
		Description:  description,
		Evidence:     marshalList(evidence),
	}
	triage(&dispute)

	if err := s.disputes.CreateDispute(ctx, tx, &dispute); err != nil {
		return nil, err
	}

	if matchID != nil {
		if err := s.matches.FlagDisputed(ctx, tx, *matchID); err != nil {
			return nil, err
		}
	}

	return &dispute, tx.Commit()
}

func (s *DisputeService) GetDispute(ctx context.Context, id string) (*arbitration.Dispute, error) {
	dispute, err := s.disputes.GetDispute(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("dispute %s", id)
		}
		return nil, err
	}
	return dispute, nil
}

// GetDisputesForTournament lists a tournament's disputes, newest first.
func (s *DisputeService) GetDisputesForTournament(ctx context.Context, tournamentID uuid.UUID) ([]arbitration.Dispute, error) {
	if _, err := s.tournaments.GetTournament(ctx, tournamentID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("tournament %s", tournamentID)
		}
		return nil, err
	}
	return s.disputes.GetDisputesByTournament(ctx, tournamentID.String())
}

// triage fills the advisory fields from the fixed category tables, bumping to
// urgent when the description carries an urgency keyword.
func triage(d *arbitration.Dispute) {
	d.Priority = arbitration.DefaultPriority(d.Category)
	if containsUrgencyKeyword(d.Description) {
		d.Priority = arbitration.PriorityUrgent
	}
	d.SuggestedResolution = arbitration.SuggestedResolution(d.Category)
	d.RequiredEvidence = marshalList(arbitration.RequiredEvidence(d.Category))
	d.EstimatedHours = arbitration.EstimatedHours(d.Priority)
}

func containsUrgencyKeyword(description string) bool {
	lowered := strings.ToLower(description)
	for _, keyword := range arbitration.UrgencyKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		slog.Warn("failed to marshal list, storing empty", "error", err)
		return "[]"
	}
	return string(data)
}
