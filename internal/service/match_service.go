package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/apperr"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/notify"
	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/store"
)

type MatchService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	notifier notify.Notifier
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, notifier notify.Notifier) *MatchService {
	return &MatchService{db: db, store: store, notifier: notifier}
}

type MatchData struct {
	Match   *bracket.Match
	Slots   []bracket.MatchParticipant
	Results []bracket.MatchResult
}

func (s *MatchService) GetMatchData(ctx context.Context, matchID string) (*MatchData, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("match %s", matchID)
		}
		return nil, err
	}

	slots, err := s.store.GetMatchParticipants(ctx, matchID)
	if err != nil {
		return nil, err
	}

	results, err := s.store.GetResults(ctx, matchID)
	if err != nil {
		return nil, err
	}

	return &MatchData{Match: match, Slots: slots, Results: results}, nil
}

// MarkReady moves a pending match to ready once both slots are filled.
func (s *MatchService) MarkReady(ctx context.Context, matchID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if match.Status != bracket.MatchPending {
		return apperr.InvalidState("match %s is %s, not pending", matchID, match.Status)
	}

	slots, err := s.store.GetMatchParticipantsTx(ctx, tx, matchID.String())
	if err != nil {
		return err
	}
	if len(slots) < 2 {
		return apperr.InvalidState("match %s has %d of 2 participants", matchID, len(slots))
	}

	match.Status = bracket.MatchReady
	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.notifier.MatchReady(ctx, matchID)
	return nil
}

// Start moves a ready match to live and records the start time.
func (s *MatchService) Start(ctx context.Context, matchID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if match.Status != bracket.MatchReady {
		return apperr.InvalidState("match %s is %s, not ready", matchID, match.Status)
	}

	now := time.Now().UTC()
	match.Status = bracket.MatchLive
	match.StartedAt = &now
	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return err
	}

	return tx.Commit()
}

// SubmitResult records a score for a match. On a live match with no validated
// result the submission validates immediately, completes the match and
// advances the winner. Once a validated result exists, further submissions
// stay pending until explicitly re-validated through arbitration.
func (s *MatchService) SubmitResult(ctx context.Context, matchID, reporterID uuid.UUID, score1, score2 int) (*bracket.MatchResult, error) {
	if score1 < 0 || score2 < 0 {
		return nil, apperr.InvalidArgument("scores must be non-negative")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	switch match.Status {
	case bracket.MatchLive, bracket.MatchCompleted, bracket.MatchDisputed:
	default:
		return nil, apperr.InvalidState("match %s is %s, results require a live or finished match", matchID, match.Status)
	}

	validated, err := s.store.GetValidatedResultTx(ctx, tx, matchID.String())
	if err != nil {
		return nil, err
	}

	result := bracket.MatchResult{
		ID:         uuid.New(),
		MatchID:    matchID,
		ReportedBy: reporterID,
		Score1:     score1,
		Score2:     score2,
		Status:     bracket.ResultPending,
	}

	var readyIDs []uuid.UUID
	if validated == nil && match.Status == bracket.MatchLive {
		if result.WinnerSlot() == 0 {
			return nil, apperr.InvalidArgument("drawn scores cannot decide a match")
		}
		result.Status = bracket.ResultValidated
		readyIDs, err = s.completeMatchTx(ctx, tx, match, &result)
		if err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateResultTx(ctx, tx, &result); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	for _, id := range readyIDs {
		s.notifier.MatchReady(ctx, id)
	}
	return &result, nil
}

// FlagDisputed branches a live or completed match into the disputed state.
// Any other status is left untouched; a dispute never blocks the match it
// references. The prior validated result stays in force until arbitration
// says otherwise.
func (s *MatchService) FlagDisputed(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if match.Status != bracket.MatchLive && match.Status != bracket.MatchCompleted {
		return nil
	}

	match.Status = bracket.MatchDisputed
	return s.store.UpdateMatch(ctx, tx, match)
}

// Cancel administratively terminates a match with no winner.
func (s *MatchService) Cancel(ctx context.Context, matchID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.cancelTx(ctx, tx, matchID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *MatchService) cancelTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if match.Status.Terminal() {
		return apperr.InvalidState("match %s is already %s", matchID, match.Status)
	}

	match.Status = bracket.MatchCancelled
	match.WinnerParticipantID = nil
	return s.store.UpdateMatch(ctx, tx, match)
}

// Rematch resets a completed or disputed match back to pending: timestamps
// and winner cleared, the validated result marked disputed, participants kept.
func (s *MatchService) Rematch(ctx context.Context, matchID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.rematchTx(ctx, tx, matchID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *MatchService) rematchTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return err
	}
	if match.Status != bracket.MatchCompleted && match.Status != bracket.MatchDisputed {
		return apperr.InvalidState("match %s is %s, only a finished match can be replayed", matchID, match.Status)
	}

	validated, err := s.store.GetValidatedResultTx(ctx, tx, matchID.String())
	if err != nil {
		return err
	}
	if validated != nil {
		if err := s.store.UpdateResultStatusTx(ctx, tx, validated.ID.String(), bracket.ResultDisputed); err != nil {
			return err
		}
	}

	match.Status = bracket.MatchPending
	match.WinnerParticipantID = nil
	match.StartedAt = nil
	match.CompletedAt = nil
	return s.store.UpdateMatch(ctx, tx, match)
}

// reverseResultTx atomically swaps the validated result's scores: the old row
// is marked disputed and a new validated row with swapped scores is inserted,
// so a reader never observes zero or two validated results after commit.
func (s *MatchService) reverseResultTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) error {
	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return err
	}

	validated, err := s.store.GetValidatedResultTx(ctx, tx, matchID.String())
	if err != nil {
		return err
	}
	if validated == nil {
		return apperr.InvalidState("match %s has no validated result to reverse", matchID)
	}

	if err := s.store.UpdateResultStatusTx(ctx, tx, validated.ID.String(), bracket.ResultDisputed); err != nil {
		return err
	}

	reversed := bracket.MatchResult{
		ID:         uuid.New(),
		MatchID:    matchID,
		ReportedBy: validated.ReportedBy,
		Score1:     validated.Score2,
		Score2:     validated.Score1,
		Status:     bracket.ResultValidated,
	}
	if err := s.store.CreateResultTx(ctx, tx, &reversed); err != nil {
		return err
	}

	slots, err := s.store.GetMatchParticipantsTx(ctx, tx, matchID.String())
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.Slot == reversed.WinnerSlot() {
			id := slot.ParticipantID
			match.WinnerParticipantID = &id
		}
	}
	match.Status = bracket.MatchCompleted
	return s.store.UpdateMatch(ctx, tx, match)
}

// completeMatchTx finishes a live match from its freshly validated result and
// pushes the winner (and loser, in double elimination) through the bracket
// links. Returns the ids of matches that became ready for notification after
// commit.
func (s *MatchService) completeMatchTx(ctx context.Context, tx *sqlx.Tx, match *bracket.Match, result *bracket.MatchResult) ([]uuid.UUID, error) {
	slots, err := s.store.GetMatchParticipantsTx(ctx, tx, match.ID.String())
	if err != nil {
		return nil, err
	}

	var winnerID, loserID *uuid.UUID
	for i := range slots {
		if slots[i].Slot == result.WinnerSlot() {
			winnerID = &slots[i].ParticipantID
		} else {
			loserID = &slots[i].ParticipantID
		}
	}
	if winnerID == nil {
		return nil, apperr.InvalidState("match %s has no participant in the winning slot", match.ID)
	}

	now := time.Now().UTC()
	match.Status = bracket.MatchCompleted
	match.CompletedAt = &now
	match.WinnerParticipantID = winnerID
	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, err
	}

	var readyIDs []uuid.UUID

	if match.WinnerNextMatchID != nil && match.WinnerNextSlot != nil {
		ids, err := s.advanceTx(ctx, tx, *match.WinnerNextMatchID, *match.WinnerNextSlot, *winnerID)
		if err != nil {
			return nil, err
		}
		readyIDs = append(readyIDs, ids...)
	} else {
		// No onward match: the bracket may be done.
		if err := s.maybeCompleteTournamentTx(ctx, tx, match.TournamentID); err != nil {
			return nil, err
		}
	}

	if match.LoserNextMatchID != nil && match.LoserNextSlot != nil && loserID != nil {
		ids, err := s.advanceTx(ctx, tx, *match.LoserNextMatchID, *match.LoserNextSlot, *loserID)
		if err != nil {
			return nil, err
		}
		readyIDs = append(readyIDs, ids...)
	}

	return readyIDs, nil
}

// advanceTx places a participant into a downstream slot. A bye target
// completes immediately and keeps advancing; a filled pairing becomes ready.
func (s *MatchService) advanceTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID, slot int, participantID uuid.UUID) ([]uuid.UUID, error) {
	next, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetMatchParticipantsTx(ctx, tx, matchID.String())
	if err != nil {
		return nil, err
	}

	// A replayed match re-advances its winner, so an occupied slot is
	// replaced rather than duplicated.
	var occupied *bracket.MatchParticipant
	for i := range existing {
		if existing[i].Slot == slot {
			occupied = &existing[i]
		}
	}
	if occupied != nil {
		occupied.ParticipantID = participantID
		if err := s.store.UpdateMatchParticipantTx(ctx, tx, occupied); err != nil {
			return nil, err
		}
	} else {
		row := bracket.MatchParticipant{
			ID:            uuid.New(),
			MatchID:       matchID,
			ParticipantID: participantID,
			Slot:          slot,
		}
		if err := s.store.CreateMatchParticipants(ctx, tx, []bracket.MatchParticipant{row}); err != nil {
			return nil, err
		}
	}

	if next.IsBye && next.Status == bracket.MatchPending {
		next.Status = bracket.MatchCompleted
		next.WinnerParticipantID = &participantID
		if err := s.store.UpdateMatch(ctx, tx, next); err != nil {
			return nil, err
		}
		if next.WinnerNextMatchID != nil && next.WinnerNextSlot != nil {
			return s.advanceTx(ctx, tx, *next.WinnerNextMatchID, *next.WinnerNextSlot, participantID)
		}
		if err := s.maybeCompleteTournamentTx(ctx, tx, next.TournamentID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	filled, err := s.store.GetMatchParticipantsTx(ctx, tx, matchID.String())
	if err != nil {
		return nil, err
	}
	if len(filled) >= 2 && next.Status == bracket.MatchPending {
		next.Status = bracket.MatchReady
		if err := s.store.UpdateMatch(ctx, tx, next); err != nil {
			return nil, err
		}
		return []uuid.UUID{next.ID}, nil
	}

	return nil, nil
}

func (s *MatchService) maybeCompleteTournamentTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) error {
	var remaining int
	err := tx.GetContext(ctx, &remaining,
		"SELECT COUNT(*) FROM matches WHERE tournament_id = ? AND status NOT IN (?, ?)",
		tournamentID, bracket.MatchCompleted, bracket.MatchCancelled)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	return s.store.UpdateTournamentStatusTx(ctx, tx, tournamentID.String(), bracket.TournamentCompleted)
}

func (s *MatchService) getMatchTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.store.GetMatchTx(ctx, tx, matchID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("match %s", matchID)
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}
