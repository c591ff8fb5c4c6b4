package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// TournamentStore methods take the querier explicitly so the same call works
// on the pool or inside a transaction opened by a service.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	tournamentColumns = `id, name, description, start_at, rounds_planned, mode, status, created_by, current_round, created_at, updated_at`

	matchColumns = `m.id, m.round_id, m.board, r.number AS round_number, m.white_player_id, m.black_player_id,
		m.result, m.submitted_by, m.created_at, m.updated_at`

	participantQuery = `
		SELECT u.id, u.username FROM registrations reg
		JOIN users u ON u.id = reg.user_id
		WHERE reg.tournament_id = ? AND reg.is_active = ?
		ORDER BY reg.joined_at ASC, u.id ASC
	`
)

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return swiss.ErrNotFound
	}
	return err
}

func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return swiss.ErrNotFound
	}
	return nil
}

func (s *TournamentStore) CreateTournament(ctx context.Context, q sqlx.ExtContext, tournament *swiss.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO tournaments (`+tournamentColumns+`)
		VALUES (:id, :name, :description, :start_at, :rounds_planned, :mode, :status, :created_by, :current_round, :created_at, :updated_at)`, tournament)
	return err
}

// UpdateTournament writes the setup fields. Status and current round have
// their own methods.
func (s *TournamentStore) UpdateTournament(ctx context.Context, q sqlx.ExtContext, tournament *swiss.Tournament) error {
	res, err := sqlx.NamedExecContext(ctx, q, `UPDATE tournaments SET
		name = :name,
		description = :description,
		start_at = :start_at,
		rounds_planned = :rounds_planned,
		mode = :mode,
		updated_at = :updated_at
		WHERE id = :id`, tournament)
	return expectAffected(res, err)
}

func (s *TournamentStore) UpdateTournamentStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status swiss.TournamentStatus) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE tournaments SET status = ?, updated_at = ? WHERE id = ?"),
		status, time.Now().UTC(), id)
	return expectAffected(res, err)
}

func (s *TournamentStore) UpdateCurrentRound(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, number int) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE tournaments SET current_round = ?, updated_at = ? WHERE id = ?"),
		number, time.Now().UTC(), id)
	return expectAffected(res, err)
}

func (s *TournamentStore) GetTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*swiss.Tournament, error) {
	var tournament swiss.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, q.Rebind("SELECT "+tournamentColumns+" FROM tournaments WHERE id = ?"), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &tournament, nil
}

// GetTournamentForUpdate locks the tournament row for the rest of the
// transaction. SQLite has no row locks, there the write lock is taken when
// the transaction begins (_txlock=immediate).
func (s *TournamentStore) GetTournamentForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*swiss.Tournament, error) {
	query := "SELECT " + tournamentColumns + " FROM tournaments WHERE id = ?"
	if q.DriverName() == "postgres" {
		query += " FOR UPDATE"
	}

	var tournament swiss.Tournament
	if err := sqlx.GetContext(ctx, q, &tournament, q.Rebind(query), id); err != nil {
		return nil, notFound(err)
	}
	return &tournament, nil
}

func (s *TournamentStore) ListTournamentsByStatus(ctx context.Context, q sqlx.ExtContext, statuses ...swiss.TournamentStatus) ([]swiss.Tournament, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT "+tournamentColumns+" FROM tournaments WHERE status IN (?) ORDER BY start_at DESC, created_at DESC", statuses)
	if err != nil {
		return nil, err
	}

	var tournaments []swiss.Tournament
	err = sqlx.SelectContext(ctx, q, &tournaments, q.Rebind(query), args...)
	return tournaments, err
}

func (s *TournamentStore) DeleteTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, q.Rebind("DELETE FROM tournaments WHERE id = ?"), id)
	return expectAffected(res, err)
}

// UpsertRegistration inserts the registration or reactivates the existing
// row for the same player, keeping its original joined_at.
func (s *TournamentStore) UpsertRegistration(ctx context.Context, q sqlx.ExtContext, reg *swiss.Registration) error {
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO registrations (id, tournament_id, user_id, joined_at, is_active)
		VALUES (:id, :tournament_id, :user_id, :joined_at, :is_active)
		ON CONFLICT (tournament_id, user_id) DO UPDATE SET is_active = excluded.is_active`, reg)
	return err
}

func (s *TournamentStore) SetRegistrationActive(ctx context.Context, q sqlx.ExtContext, tournamentID, userID uuid.UUID, active bool) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE registrations SET is_active = ? WHERE tournament_id = ? AND user_id = ?"),
		active, tournamentID, userID)
	return expectAffected(res, err)
}

func (s *TournamentStore) GetRegistration(ctx context.Context, q sqlx.ExtContext, tournamentID, userID uuid.UUID) (*swiss.Registration, error) {
	var reg swiss.Registration
	err := sqlx.GetContext(ctx, q, &reg, q.Rebind(`SELECT id, tournament_id, user_id, joined_at, is_active
		FROM registrations WHERE tournament_id = ? AND user_id = ?`), tournamentID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return &reg, nil
}

// ActiveParticipants is the roster of a tournament in registration order.
func (s *TournamentStore) ActiveParticipants(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]swiss.Participant, error) {
	var participants []swiss.Participant
	err := sqlx.SelectContext(ctx, q, &participants, q.Rebind(participantQuery), tournamentID, true)
	return participants, err
}

func (s *TournamentStore) CreateRound(ctx context.Context, q sqlx.ExtContext, round *swiss.Round) error {
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO rounds (id, tournament_id, number, started_at, ended_at)
		VALUES (:id, :tournament_id, :number, :started_at, :ended_at)`, round)
	return err
}

func (s *TournamentStore) GetRound(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, number int) (*swiss.Round, error) {
	var round swiss.Round
	err := sqlx.GetContext(ctx, q, &round, q.Rebind(`SELECT id, tournament_id, number, started_at, ended_at
		FROM rounds WHERE tournament_id = ? AND number = ?`), tournamentID, number)
	if err != nil {
		return nil, notFound(err)
	}
	return &round, nil
}

func (s *TournamentStore) ListRounds(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]swiss.Round, error) {
	var rounds []swiss.Round
	err := sqlx.SelectContext(ctx, q, &rounds, q.Rebind(`SELECT id, tournament_id, number, started_at, ended_at
		FROM rounds WHERE tournament_id = ? ORDER BY number ASC`), tournamentID)
	return rounds, err
}

func (s *TournamentStore) SetRoundEnded(ctx context.Context, q sqlx.ExtContext, roundID uuid.UUID, endedAt time.Time) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE rounds SET ended_at = ? WHERE id = ?"), endedAt, roundID)
	return expectAffected(res, err)
}

func (s *TournamentStore) CreateMatches(ctx context.Context, q sqlx.ExtContext, matches []swiss.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `INSERT INTO matches (id, round_id, board, white_player_id, black_player_id, result, submitted_by, created_at, updated_at)
		VALUES (:id, :round_id, :board, :white_player_id, :black_player_id, :result, :submitted_by, :created_at, :updated_at)`, matches)
	return err
}

// GetMatch only finds the match when it belongs to the given tournament.
func (s *TournamentStore) GetMatch(ctx context.Context, q sqlx.ExtContext, tournamentID, matchID uuid.UUID) (*swiss.Match, error) {
	var match swiss.Match
	err := sqlx.GetContext(ctx, q, &match, q.Rebind(`SELECT `+matchColumns+`
		FROM matches m JOIN rounds r ON r.id = m.round_id
		WHERE m.id = ? AND r.tournament_id = ?`), matchID, tournamentID)
	if err != nil {
		return nil, notFound(err)
	}
	return &match, nil
}

func (s *TournamentStore) UpdateMatchResult(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID, result swiss.Result, submittedBy *uuid.UUID) error {
	res, err := q.ExecContext(ctx, q.Rebind("UPDATE matches SET result = ?, submitted_by = ?, updated_at = ? WHERE id = ?"),
		result, submittedBy, time.Now().UTC(), matchID)
	return expectAffected(res, err)
}

// ListMatches returns every match of the tournament ordered by round and board.
func (s *TournamentStore) ListMatches(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]swiss.Match, error) {
	var matches []swiss.Match
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(`SELECT `+matchColumns+`
		FROM matches m JOIN rounds r ON r.id = m.round_id
		WHERE r.tournament_id = ?
		ORDER BY r.number ASC, m.board ASC`), tournamentID)
	return matches, err
}

func (s *TournamentStore) CountPendingMatches(ctx context.Context, q sqlx.ExtContext, roundID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, q.Rebind("SELECT COUNT(*) FROM matches WHERE round_id = ? AND result = ?"),
		roundID, swiss.ResultPending)
	return count, err
}

// ListMatchesForUser returns the matches of a player across all tournaments.
func (s *TournamentStore) ListMatchesForUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]swiss.Match, error) {
	var matches []swiss.Match
	err := sqlx.SelectContext(ctx, q, &matches, q.Rebind(`SELECT `+matchColumns+`
		FROM matches m JOIN rounds r ON r.id = m.round_id
		WHERE m.white_player_id = ? OR m.black_player_id = ?
		ORDER BY r.started_at ASC, m.board ASC`), userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of user %s: %w", userID, err)
	}
	return matches, nil
}
