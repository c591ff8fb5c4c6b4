package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RoundService struct {
	db     *sqlx.DB
	repo   Repository
	events events.Publisher
}

func NewRoundService(db *sqlx.DB, repo Repository, publisher events.Publisher) *RoundService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &RoundService{db: db, repo: repo, events: publisher}
}

// CanGenerateNextRound reports whether the next round of the tournament may
// be generated right now.
func (s *RoundService) CanGenerateNextRound(ctx context.Context, tournamentID uuid.UUID) (bool, error) {
	tournament, err := s.repo.GetTournament(ctx, s.db, tournamentID)
	if err != nil {
		return false, err
	}
	return s.canGenerate(ctx, s.db, tournament)
}

func (s *RoundService) canGenerate(ctx context.Context, q sqlx.ExtContext, tournament *swiss.Tournament) (bool, error) {
	if !tournament.IsRunning() {
		return false, nil
	}

	pending := false
	if tournament.CurrentRound > 0 {
		round, err := s.repo.GetRound(ctx, q, tournament.ID, tournament.CurrentRound)
		switch {
		case errors.Is(err, swiss.ErrNotFound):
		case err != nil:
			return false, err
		default:
			count, err := s.repo.CountPendingMatches(ctx, q, round.ID)
			if err != nil {
				return false, err
			}
			pending = count > 0
		}
	}

	return swiss.CanGenerateNextRound(tournament, pending), nil
}

// GenerateRound pairs the next round of the tournament in one transaction.
// It returns swiss.ErrInvalidState when the round may not be generated.
func (s *RoundService) GenerateRound(ctx context.Context, tournamentID uuid.UUID) (*swiss.Round, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.repo.GetTournamentForUpdate(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}

	round, err := s.generateRoundTx(ctx, tx, tournament)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publishRound(ctx, round)
	return round, nil
}

// generateRoundTx expects the tournament row to be locked by tx. On success
// tournament.CurrentRound holds the new round number.
func (s *RoundService) generateRoundTx(ctx context.Context, tx *sqlx.Tx, tournament *swiss.Tournament) (*swiss.Round, error) {
	ok, err := s.canGenerate(ctx, tx, tournament)
	if err != nil {
		return nil, err
	}
	number := tournament.CurrentRound + 1
	if !ok {
		return nil, fmt.Errorf("round %d of tournament %s cannot be generated: %w", number, tournament.ID, swiss.ErrInvalidState)
	}

	participants, err := s.repo.ActiveParticipants(ctx, tx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}

	var history []swiss.Match
	var ordered []swiss.Participant
	if number == 1 {
		ordered = swiss.Shuffle(participants, nil)
	} else {
		history, err = s.repo.ListMatches(ctx, tx, tournament.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load previous matches: %w", err)
		}
		ordered = swiss.PairingOrder(swiss.ComputeStandings(participants, history))
	}

	pairings := swiss.Pair(ordered, swiss.ColorBalances(history))

	now := time.Now().UTC()
	round := &swiss.Round{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		Number:       number,
		StartedAt:    now,
	}

	matches := make([]swiss.Match, 0, len(pairings))
	pending := 0
	for i, p := range pairings {
		whiteID := p.White.ID
		m := swiss.Match{
			ID:            uuid.New(),
			RoundID:       round.ID,
			Board:         i + 1,
			RoundNumber:   number,
			WhitePlayerID: &whiteID,
			Result:        swiss.ResultPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if p.IsBye() {
			m.Result = swiss.ResultBye
		} else {
			blackID := p.Black.ID
			m.BlackPlayerID = &blackID
			pending++
		}
		matches = append(matches, m)
	}

	// Nothing to wait for, the round is over as soon as it starts.
	if pending == 0 {
		round.EndedAt = &now
	}

	if err := s.repo.CreateRound(ctx, tx, round); err != nil {
		return nil, fmt.Errorf("failed to create round %d: %w", number, err)
	}
	if err := s.repo.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches of round %d: %w", number, err)
	}
	if err := s.repo.UpdateCurrentRound(ctx, tx, tournament.ID, number); err != nil {
		return nil, fmt.Errorf("failed to advance current round: %w", err)
	}

	tournament.CurrentRound = number
	return round, nil
}

func (s *RoundService) publishRound(ctx context.Context, round *swiss.Round) {
	s.events.Publish(ctx, events.Event{
		Type:         events.RoundGenerated,
		TournamentID: round.TournamentID,
		Round:        round.Number,
		At:           round.StartedAt,
	})
}
