package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/kitmedia/esports-platform-fc2025-sub000/internal/bracket"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, owner_id, name, format, status, min_participants, max_participants)
        VALUES (:id, :owner_id, :name, :format, :status, :min_participants, :max_participants)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := tx.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) GetTournamentsByOwnerID(ctx context.Context, ownerID string) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE owner_id = ? ORDER BY created_at DESC", ownerID)
	return tournaments, err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

func (s *TournamentStore) CreateParticipant(ctx context.Context, tx *sqlx.Tx, participant *bracket.Participant) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO participants (id, tournament_id, user_id, display_name, rating, seed)
        VALUES (:id, :tournament_id, :user_id, :display_name, :rating, :seed)`, participant)
	return err
}

func (s *TournamentStore) CountParticipantsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM participants WHERE tournament_id = ?", tournamentID)
	return count, err
}

// GetParticipants returns a tournament's participants in registration order.
func (s *TournamentStore) GetParticipants(ctx context.Context, tournamentID string) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := s.db.SelectContext(ctx, &participants, "SELECT * FROM participants WHERE tournament_id = ? ORDER BY created_at ASC, rowid ASC", tournamentID)
	return participants, err
}

func (s *TournamentStore) GetParticipantsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := tx.SelectContext(ctx, &participants, "SELECT * FROM participants WHERE tournament_id = ? ORDER BY created_at ASC, rowid ASC", tournamentID)
	return participants, err
}

func (s *TournamentStore) UpdateParticipantSeedTx(ctx context.Context, tx *sqlx.Tx, participant *bracket.Participant) error {
	_, err := tx.NamedExecContext(ctx, "UPDATE participants SET seed = :seed WHERE id = :id", participant)
	return err
}

func (s *TournamentStore) CreateGroups(ctx context.Context, tx *sqlx.Tx, groups []bracket.BracketGroup) error {
	if len(groups) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO bracket_groups (id, tournament_id, name)
        VALUES (:id, :tournament_id, :name)`, groups)
	return err
}

func (s *TournamentStore) GetGroups(ctx context.Context, tournamentID string) ([]bracket.BracketGroup, error) {
	var groups []bracket.BracketGroup
	err := s.db.SelectContext(ctx, &groups, "SELECT * FROM bracket_groups WHERE tournament_id = ? ORDER BY name ASC", tournamentID)
	return groups, err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, tournament_id, bracket_group_id, round_number, position, status, is_bye, winner_participant_id, winner_next_match_id, winner_next_slot, loser_next_match_id, loser_next_slot, started_at, completed_at)
        VALUES (:id, :tournament_id, :bracket_group_id, :round_number, :position, :status, :is_bye, :winner_participant_id, :winner_next_match_id, :winner_next_slot, :loser_next_match_id, :loser_next_slot, :started_at, :completed_at)`, matches)
	return err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := s.db.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	return &match, err
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	return &match, err
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, position ASC", tournamentID)
	return matches, err
}

func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE matches SET status = :status, winner_participant_id = :winner_participant_id, started_at = :started_at, completed_at = :completed_at
        WHERE id = :id`, match)
	return err
}

func (s *TournamentStore) CreateMatchParticipants(ctx context.Context, tx *sqlx.Tx, slots []bracket.MatchParticipant) error {
	if len(slots) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO match_participants (id, match_id, participant_id, slot)
        VALUES (:id, :match_id, :participant_id, :slot)`, slots)
	return err
}

func (s *TournamentStore) UpdateMatchParticipantTx(ctx context.Context, tx *sqlx.Tx, slot *bracket.MatchParticipant) error {
	_, err := tx.NamedExecContext(ctx, "UPDATE match_participants SET participant_id = :participant_id WHERE id = :id", slot)
	return err
}

func (s *TournamentStore) GetMatchParticipants(ctx context.Context, matchID string) ([]bracket.MatchParticipant, error) {
	var slots []bracket.MatchParticipant
	err := s.db.SelectContext(ctx, &slots, "SELECT * FROM match_participants WHERE match_id = ? ORDER BY slot ASC", matchID)
	return slots, err
}

func (s *TournamentStore) GetMatchParticipantsTx(ctx context.Context, tx *sqlx.Tx, matchID string) ([]bracket.MatchParticipant, error) {
	var slots []bracket.MatchParticipant
	err := tx.SelectContext(ctx, &slots, "SELECT * FROM match_participants WHERE match_id = ? ORDER BY slot ASC", matchID)
	return slots, err
}

func (s *TournamentStore) CreateResultTx(ctx context.Context, tx *sqlx.Tx, result *bracket.MatchResult) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO match_results (id, match_id, reported_by, score_1, score_2, status)
        VALUES (:id, :match_id, :reported_by, :score_1, :score_2, :status)`, result)
	return err
}

// GetValidatedResultTx returns the match's active validated result, or nil
// when none exists.
func (s *TournamentStore) GetValidatedResultTx(ctx context.Context, tx *sqlx.Tx, matchID string) (*bracket.MatchResult, error) {
	var result bracket.MatchResult
	err := tx.GetContext(ctx, &result, "SELECT * FROM match_results WHERE match_id = ? AND status = ?", matchID, bracket.ResultValidated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *TournamentStore) GetResults(ctx context.Context, matchID string) ([]bracket.MatchResult, error) {
	var results []bracket.MatchResult
	err := s.db.SelectContext(ctx, &results, "SELECT * FROM match_results WHERE match_id = ? ORDER BY created_at ASC, rowid ASC", matchID)
	return results, err
}

func (s *TournamentStore) UpdateResultStatusTx(ctx context.Context, tx *sqlx.Tx, resultID string, status bracket.ResultStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE match_results SET status = ? WHERE id = ?", status, resultID)
	return err
}
