package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentService struct {
	db     *sqlx.DB
	repo   Repository
	rounds *RoundService
	events events.Publisher
}

func NewTournamentService(db *sqlx.DB, repo Repository, rounds *RoundService, publisher events.Publisher) *TournamentService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &TournamentService{db: db, repo: repo, rounds: rounds, events: publisher}
}

type TournamentInput struct {
	Name          string
	Description   string
	StartAt       time.Time
	RoundsPlanned int
	Mode          swiss.TournamentMode
}

func (in *TournamentInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return fmt.Errorf("name is required: %w", swiss.ErrInvalidInput)
	}
	if in.RoundsPlanned == 0 {
		in.RoundsPlanned = swiss.DefaultRoundsPlanned
	}
	if in.RoundsPlanned < 0 {
		return fmt.Errorf("rounds planned must be positive: %w", swiss.ErrInvalidInput)
	}
	switch in.Mode {
	case "":
		in.Mode = swiss.ModeAdmin
	case swiss.ModeAdmin, swiss.ModePlayer:
	default:
		return fmt.Errorf("unknown mode %q: %w", in.Mode, swiss.ErrInvalidInput)
	}
	if in.StartAt.IsZero() {
		in.StartAt = time.Now().UTC()
	}
	return nil
}

// RoundDetail is a round with its matches in board order.
type RoundDetail struct {
	Round   swiss.Round
	Matches []swiss.Match
}

type TournamentDetail struct {
	Tournament   *swiss.Tournament
	Participants []swiss.Participant
	Standings    []swiss.Standing
	Rounds       []RoundDetail
	CanAdvance   bool
}

// Names maps every active participant id to its username.
func (d *TournamentDetail) Names() map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(d.Participants))
	for _, p := range d.Participants {
		names[p.ID] = p.Name
	}
	return names
}

// Matches lists every match of the tournament in round then board order.
func (d *TournamentDetail) Matches() []swiss.Match {
	var matches []swiss.Match
	for _, r := range d.Rounds {
		matches = append(matches, r.Matches...)
	}
	return matches
}

func requireStaff(actor swiss.Actor) error {
	if !actor.IsStaff {
		return fmt.Errorf("user %s is not staff: %w", actor.ID, swiss.ErrForbidden)
	}
	return nil
}

func (s *TournamentService) Create(ctx context.Context, actor swiss.Actor, input TournamentInput) (*swiss.Tournament, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	creator := actor.ID
	tournament := &swiss.Tournament{
		ID:            uuid.New(),
		Name:          input.Name,
		Description:   input.Description,
		StartAt:       input.StartAt.UTC(),
		RoundsPlanned: input.RoundsPlanned,
		Mode:          input.Mode,
		Status:        swiss.TournamentDraft,
		CreatedBy:     &creator,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateTournament(ctx, s.db, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

// Update changes the setup of a tournament that has not started yet.
func (s *TournamentService) Update(ctx context.Context, actor swiss.Actor, id uuid.UUID, input TournamentInput) (*swiss.Tournament, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.repo.GetTournamentForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !tournament.CanEditSetup() {
		return nil, fmt.Errorf("tournament %s is %s: %w", id, tournament.Status, swiss.ErrInvalidState)
	}

	tournament.Name = input.Name
	tournament.Description = input.Description
	tournament.StartAt = input.StartAt.UTC()
	tournament.RoundsPlanned = input.RoundsPlanned
	tournament.Mode = input.Mode
	tournament.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateTournament(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	return tournament, tx.Commit()
}

func (s *TournamentService) Delete(ctx context.Context, actor swiss.Actor, id uuid.UUID) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	return s.repo.DeleteTournament(ctx, s.db, id)
}

func (s *TournamentService) Get(ctx context.Context, id uuid.UUID) (*swiss.Tournament, error) {
	return s.repo.GetTournament(ctx, s.db, id)
}

// ListOpen returns the tournaments that have not completed yet.
func (s *TournamentService) ListOpen(ctx context.Context) ([]swiss.Tournament, error) {
	return s.repo.ListTournamentsByStatus(ctx, s.db, swiss.TournamentDraft, swiss.TournamentRegistration, swiss.TournamentRunning)
}

func (s *TournamentService) ListCompleted(ctx context.Context) ([]swiss.Tournament, error) {
	return s.repo.ListTournamentsByStatus(ctx, s.db, swiss.TournamentCompleted)
}

func (s *TournamentService) Detail(ctx context.Context, id uuid.UUID) (*TournamentDetail, error) {
	tournament, err := s.repo.GetTournament(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	participants, err := s.repo.ActiveParticipants(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	rounds, err := s.repo.ListRounds(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.repo.ListMatches(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	canAdvance, err := s.rounds.canGenerate(ctx, s.db, tournament)
	if err != nil {
		return nil, err
	}

	byRound := make(map[uuid.UUID][]swiss.Match, len(rounds))
	for _, m := range matches {
		byRound[m.RoundID] = append(byRound[m.RoundID], m)
	}

	details := make([]RoundDetail, 0, len(rounds))
	for _, r := range rounds {
		details = append(details, RoundDetail{Round: r, Matches: byRound[r.ID]})
	}

	return &TournamentDetail{
		Tournament:   tournament,
		Participants: participants,
		Standings:    swiss.ComputeStandings(participants, matches),
		Rounds:       details,
		CanAdvance:   canAdvance,
	}, nil
}

// Standings ranks the active participants of the tournament.
func (s *TournamentService) Standings(ctx context.Context, id uuid.UUID) ([]swiss.Standing, error) {
	if _, err := s.repo.GetTournament(ctx, s.db, id); err != nil {
		return nil, err
	}

	participants, err := s.repo.ActiveParticipants(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.repo.ListMatches(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	return swiss.ComputeStandings(participants, matches), nil
}

func (s *TournamentService) OpenRegistration(ctx context.Context, actor swiss.Actor, id uuid.UUID) error {
	return s.transition(ctx, actor, id, swiss.TournamentRegistration, swiss.TournamentDraft, swiss.TournamentRegistration)
}

// CloseRegistration puts the tournament back to draft.
func (s *TournamentService) CloseRegistration(ctx context.Context, actor swiss.Actor, id uuid.UUID) error {
	return s.transition(ctx, actor, id, swiss.TournamentDraft, swiss.TournamentDraft, swiss.TournamentRegistration)
}

func (s *TournamentService) transition(ctx context.Context, actor swiss.Actor, id uuid.UUID, to swiss.TournamentStatus, from ...swiss.TournamentStatus) error {
	if err := requireStaff(actor); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.repo.GetTournamentForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if !slices.Contains(from, tournament.Status) {
		return fmt.Errorf("tournament %s is %s and cannot move to %s: %w", id, tournament.Status, to, swiss.ErrInvalidState)
	}

	if err := s.repo.UpdateTournamentStatus(ctx, tx, id, to); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.publishStatus(ctx, id, to)
	return nil
}

// Start moves the tournament to running and pairs round 1 in the same
// transaction.
func (s *TournamentService) Start(ctx context.Context, actor swiss.Actor, id uuid.UUID) (*swiss.Round, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.repo.GetTournamentForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !tournament.CanEditSetup() {
		return nil, fmt.Errorf("tournament %s is already %s: %w", id, tournament.Status, swiss.ErrInvalidState)
	}

	if err := s.repo.UpdateTournamentStatus(ctx, tx, id, swiss.TournamentRunning); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}
	tournament.Status = swiss.TournamentRunning

	round, err := s.rounds.generateRoundTx(ctx, tx, tournament)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publishStatus(ctx, id, swiss.TournamentRunning)
	s.rounds.publishRound(ctx, round)
	return round, nil
}

// AdvanceRound generates the next round by hand. A swiss.ErrInvalidState is
// meant to be shown to the user.
func (s *TournamentService) AdvanceRound(ctx context.Context, actor swiss.Actor, id uuid.UUID) (*swiss.Round, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.rounds.GenerateRound(ctx, id)
}

// Complete finishes the tournament once the current round has no pending match.
func (s *TournamentService) Complete(ctx context.Context, actor swiss.Actor, id uuid.UUID) error {
	if err := requireStaff(actor); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.repo.GetTournamentForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}

	if tournament.CurrentRound > 0 {
		round, err := s.repo.GetRound(ctx, tx, id, tournament.CurrentRound)
		if err != nil {
			return err
		}
		pending, err := s.repo.CountPendingMatches(ctx, tx, round.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("round %d still has %d pending matches: %w", round.Number, pending, swiss.ErrInvalidState)
		}
	}

	if err := s.repo.UpdateTournamentStatus(ctx, tx, id, swiss.TournamentCompleted); err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.publishStatus(ctx, id, swiss.TournamentCompleted)
	return nil
}

// Register adds the actor to the tournament, or reactivates a previous
// registration.
func (s *TournamentService) Register(ctx context.Context, actor swiss.Actor, id uuid.UUID) error {
	if actor.IsBanned {
		return fmt.Errorf("user %s is banned: %w", actor.ID, swiss.ErrForbidden)
	}
	return s.setRegistration(ctx, actor, id, true)
}

// Unregister withdraws the actor. The registration row is kept inactive.
func (s *TournamentService) Unregister(ctx context.Context, actor swiss.Actor, id uuid.UUID) error {
	return s.setRegistration(ctx, actor, id, false)
}

func (s *TournamentService) setRegistration(ctx context.Context, actor swiss.Actor, id uuid.UUID, active bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tournament, err := s.repo.GetTournamentForUpdate(ctx, tx, id)
	if err != nil {
		return err
	}
	if !tournament.IsRegistrationOpen() {
		return fmt.Errorf("registration of tournament %s is closed: %w", id, swiss.ErrInvalidState)
	}

	if active {
		err = s.repo.UpsertRegistration(ctx, tx, &swiss.Registration{
			ID:           uuid.New(),
			TournamentID: id,
			UserID:       actor.ID,
			JoinedAt:     time.Now().UTC(),
			IsActive:     true,
		})
	} else {
		err = s.repo.SetRegistrationActive(ctx, tx, id, actor.ID, false)
	}
	if err != nil {
		return fmt.Errorf("failed to update registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.events.Publish(ctx, events.Event{
		Type:         events.RegistrationChanged,
		TournamentID: id,
		At:           time.Now().UTC(),
	})
	return nil
}

func (s *TournamentService) publishStatus(ctx context.Context, id uuid.UUID, status swiss.TournamentStatus) {
	s.events.Publish(ctx, events.Event{
		Type:         events.StatusChanged,
		TournamentID: id,
		Status:       status,
		At:           time.Now().UTC(),
	})
}
