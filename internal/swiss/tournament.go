package swiss

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft        TournamentStatus = "draft"
	TournamentRegistration TournamentStatus = "registration"
	TournamentRunning      TournamentStatus = "running"
	TournamentCompleted    TournamentStatus = "completed"
)

// TournamentMode decides who may submit match results.
type TournamentMode string

const (
	ModeAdmin  TournamentMode = "admin"
	ModePlayer TournamentMode = "player"
)

const DefaultRoundsPlanned = 5

type Tournament struct {
	ID            uuid.UUID        `db:"id"`
	Name          string           `db:"name"`
	Description   string           `db:"description"`
	StartAt       time.Time        `db:"start_at"`
	RoundsPlanned int              `db:"rounds_planned"`
	Mode          TournamentMode   `db:"mode"`
	Status        TournamentStatus `db:"status"`
	CreatedBy     *uuid.UUID       `db:"created_by"`
	CurrentRound  int              `db:"current_round"`
	CreatedAt     time.Time        `db:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at"`
}

func (t *Tournament) IsRegistrationOpen() bool {
	return t.Status == TournamentRegistration
}

func (t *Tournament) IsRunning() bool {
	return t.Status == TournamentRunning
}

func (t *Tournament) IsCompleted() bool {
	return t.Status == TournamentCompleted
}

// CanEditSetup reports whether name, rounds and mode may still change.
func (t *Tournament) CanEditSetup() bool {
	return t.Status == TournamentDraft || t.Status == TournamentRegistration
}

type Registration struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	UserID       uuid.UUID `db:"user_id"`
	JoinedAt     time.Time `db:"joined_at"`
	IsActive     bool      `db:"is_active"`
}

type Round struct {
	ID           uuid.UUID  `db:"id"`
	TournamentID uuid.UUID  `db:"tournament_id"`
	Number       int        `db:"number"`
	StartedAt    time.Time  `db:"started_at"`
	EndedAt      *time.Time `db:"ended_at"`
}

// Participant is an actively registered player as seen by pairing and standings.
type Participant struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"username"`
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID       uuid.UUID
	IsStaff  bool
	IsBanned bool
}
