package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db     *sqlx.DB
	repo   Repository
	rounds *RoundService
	events events.Publisher
}

func NewMatchService(db *sqlx.DB, repo Repository, rounds *RoundService, publisher events.Publisher) *MatchService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &MatchService{db: db, repo: repo, rounds: rounds, events: publisher}
}

func (s *MatchService) GetMatch(ctx context.Context, tournamentID, matchID uuid.UUID) (*swiss.Match, error) {
	return s.repo.GetMatch(ctx, s.db, tournamentID, matchID)
}

// SubmitResult records the result of a match on behalf of actor. When it
// decides the last pending match of the current round and rounds remain, the
// next round is generated. A failed auto-advance is logged and does not undo
// the recorded result; staff can still generate the round by hand.
func (s *MatchService) SubmitResult(ctx context.Context, tournamentID, matchID uuid.UUID, result swiss.Result, actor swiss.Actor) (*swiss.Match, error) {
	if _, err := swiss.ParseResult(string(result)); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// the row lock serialises submitters so exactly one of them sees the
	// round's last pending match resolved
	tournament, err := s.repo.GetTournamentForUpdate(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}

	match, err := s.repo.GetMatch(ctx, tx, tournamentID, matchID)
	if err != nil {
		return nil, err
	}

	if !swiss.CanSubmitResult(tournament, match, actor) {
		return nil, fmt.Errorf("user %s may not submit the result of match %s: %w", actor.ID, match.ID, swiss.ErrForbidden)
	}

	if err := s.repo.UpdateMatchResult(ctx, tx, match.ID, result, &actor.ID); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	match.Result = result
	match.SubmittedBy = &actor.ID

	round, err := s.repo.GetRound(ctx, tx, tournamentID, match.RoundNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", match.RoundNumber, err)
	}

	pending, err := s.repo.CountPendingMatches(ctx, tx, round.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	roundCompleted := pending == 0
	if roundCompleted {
		if err := s.repo.SetRoundEnded(ctx, tx, round.ID, now); err != nil {
			return nil, fmt.Errorf("failed to close round %d: %w", round.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.Event{
		Type:         events.ResultSubmitted,
		TournamentID: tournamentID,
		Round:        match.RoundNumber,
		MatchID:      &match.ID,
		Result:       result,
		At:           now,
	})

	if !roundCompleted {
		return match, nil
	}

	s.events.Publish(ctx, events.Event{
		Type:         events.RoundCompleted,
		TournamentID: tournamentID,
		Round:        round.Number,
		At:           now,
	})

	if swiss.ShouldAutoAdvance(tournament, round.Number) {
		if _, err := s.rounds.GenerateRound(ctx, tournamentID); err != nil {
			if errors.Is(err, swiss.ErrInvalidState) {
				slog.Info("auto-advance skipped", "tournament", tournamentID, "round", round.Number, "reason", err)
			} else {
				slog.Error("auto-advance failed", "tournament", tournamentID, "round", round.Number+1, "error", err)
			}
		}
	}

	return match, nil
}
