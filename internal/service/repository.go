package service

import (
	"context"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository is the persistence the services need. Every method runs on the
// given querier, either the pool or a transaction.
type Repository interface {
	CreateTournament(ctx context.Context, q sqlx.ExtContext, tournament *swiss.Tournament) error
	UpdateTournament(ctx context.Context, q sqlx.ExtContext, tournament *swiss.Tournament) error
	UpdateTournamentStatus(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, status swiss.TournamentStatus) error
	UpdateCurrentRound(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, number int) error
	GetTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*swiss.Tournament, error)
	GetTournamentForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*swiss.Tournament, error)
	ListTournamentsByStatus(ctx context.Context, q sqlx.ExtContext, statuses ...swiss.TournamentStatus) ([]swiss.Tournament, error)
	DeleteTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) error

	UpsertRegistration(ctx context.Context, q sqlx.ExtContext, reg *swiss.Registration) error
	SetRegistrationActive(ctx context.Context, q sqlx.ExtContext, tournamentID, userID uuid.UUID, active bool) error
	GetRegistration(ctx context.Context, q sqlx.ExtContext, tournamentID, userID uuid.UUID) (*swiss.Registration, error)
	ActiveParticipants(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]swiss.Participant, error)

	CreateRound(ctx context.Context, q sqlx.ExtContext, round *swiss.Round) error
	GetRound(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID, number int) (*swiss.Round, error)
	ListRounds(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]swiss.Round, error)
	SetRoundEnded(ctx context.Context, q sqlx.ExtContext, roundID uuid.UUID, endedAt time.Time) error

	CreateMatches(ctx context.Context, q sqlx.ExtContext, matches []swiss.Match) error
	GetMatch(ctx context.Context, q sqlx.ExtContext, tournamentID, matchID uuid.UUID) (*swiss.Match, error)
	UpdateMatchResult(ctx context.Context, q sqlx.ExtContext, matchID uuid.UUID, result swiss.Result, submittedBy *uuid.UUID) error
	ListMatches(ctx context.Context, q sqlx.ExtContext, tournamentID uuid.UUID) ([]swiss.Match, error)
	CountPendingMatches(ctx context.Context, q sqlx.ExtContext, roundID uuid.UUID) (int, error)
	ListMatchesForUser(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) ([]swiss.Match, error)
}
