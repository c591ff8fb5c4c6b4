package service

import (
	"context"
	"errors"
	"testing"

	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSubmitResult_FivePlayerScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, players := env.createTournament(t, swiss.ModeAdmin, 3, 5)

	roster := make([]uuid.UUID, len(players))
	for i, p := range players {
		roster[i] = p.ID
	}

	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	round1 := env.roundMatches(t, tournament.ID, 1)
	assertRoundCoversRoster(t, round1, roster)
	require.Len(t, round1, 3)
	assert.Equal(t, 1, env.tournament(t, tournament.ID).CurrentRound)

	_, err = env.matches.SubmitResult(ctx, tournament.ID, round1[0].ID, swiss.ResultWhite, env.staff)
	require.NoError(t, err)
	assert.Equal(t, 1, env.countRounds(t, tournament.ID), "round 1 is not complete yet")

	_, err = env.matches.SubmitResult(ctx, tournament.ID, round1[1].ID, swiss.ResultBlack, env.staff)
	require.NoError(t, err)

	first, err := env.repo.GetRound(ctx, env.db, tournament.ID, 1)
	require.NoError(t, err)
	assert.NotNil(t, first.EndedAt)

	assert.Equal(t, 2, env.tournament(t, tournament.ID).CurrentRound)
	round2 := env.roundMatches(t, tournament.ID, 2)
	assertRoundCoversRoster(t, round2, roster)

	// round 2 follows the round 1 standings
	participants, err := env.repo.ActiveParticipants(ctx, env.db, tournament.ID)
	require.NoError(t, err)
	decided := env.roundMatches(t, tournament.ID, 1)
	order := swiss.PairingOrder(swiss.ComputeStandings(participants, decided))
	for i, m := range round2 {
		if m.BlackPlayerID == nil {
			assert.Equal(t, order[4].ID, *m.WhitePlayerID)
			continue
		}
		assert.ElementsMatch(t,
			[]uuid.UUID{order[2*i].ID, order[2*i+1].ID},
			[]uuid.UUID{*m.WhitePlayerID, *m.BlackPlayerID})
	}

	// white goes to the smaller white-minus-black differential, then the smaller name
	names := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}
	balances := swiss.ColorBalances(decided)
	for _, m := range round2 {
		if m.IsBye() {
			continue
		}
		white, black := balances[*m.WhitePlayerID].Diff(), balances[*m.BlackPlayerID].Diff()
		if white == black {
			assert.Less(t, names[*m.WhitePlayerID], names[*m.BlackPlayerID], "board %d", m.Board)
			continue
		}
		assert.Less(t, white, black, "board %d", m.Board)
	}

	assert.Subset(t, env.events.Types(), []events.Type{
		events.ResultSubmitted, events.RoundCompleted, events.RoundGenerated,
	})
}

func TestSubmitResult_Authorization(t *testing.T) {
	tests := []struct {
		name    string
		mode    swiss.TournamentMode
		submit  func(env *testEnv, m swiss.Match, players map[uuid.UUID]swiss.Actor) swiss.Actor
		wantErr error
	}{
		{
			name: "admin mode refuses a participant",
			mode: swiss.ModeAdmin,
			submit: func(env *testEnv, m swiss.Match, players map[uuid.UUID]swiss.Actor) swiss.Actor {
				return players[*m.WhitePlayerID]
			},
			wantErr: swiss.ErrForbidden,
		},
		{
			name: "admin mode accepts staff",
			mode: swiss.ModeAdmin,
			submit: func(env *testEnv, m swiss.Match, players map[uuid.UUID]swiss.Actor) swiss.Actor {
				return env.staff
			},
		},
		{
			name: "player mode accepts black",
			mode: swiss.ModePlayer,
			submit: func(env *testEnv, m swiss.Match, players map[uuid.UUID]swiss.Actor) swiss.Actor {
				return players[*m.BlackPlayerID]
			},
		},
		{
			name: "player mode refuses an outsider",
			mode: swiss.ModePlayer,
			submit: func(env *testEnv, m swiss.Match, players map[uuid.UUID]swiss.Actor) swiss.Actor {
				for id, actor := range players {
					if !m.Involves(id) {
						return actor
					}
				}
				panic("no outsider")
			},
			wantErr: swiss.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			tournament, players := env.createTournament(t, tt.mode, 3, 4)
			_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
			require.NoError(t, err)

			actors := make(map[uuid.UUID]swiss.Actor)
			for _, p := range players {
				actors[p.ID] = p.Actor()
			}

			match := env.roundMatches(t, tournament.ID, 1)[0]
			actor := tt.submit(env, match, actors)

			_, err = env.matches.SubmitResult(ctx, tournament.ID, match.ID, swiss.ResultDraw, actor)

			stored, getErr := env.matches.GetMatch(ctx, tournament.ID, match.ID)
			require.NoError(t, getErr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, swiss.ResultPending, stored.Result, "refused submission must not mutate")
				assert.Nil(t, stored.SubmittedBy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, swiss.ResultDraw, stored.Result)
			require.NotNil(t, stored.SubmittedBy)
			assert.Equal(t, actor.ID, *stored.SubmittedBy)
		})
	}
}

func TestSubmitResult_ByeIsNeverSubmittable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModePlayer, 3, 3)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	matches := env.roundMatches(t, tournament.ID, 1)
	require.Len(t, matches, 2)
	bye := matches[1]
	require.True(t, bye.IsBye())

	_, err = env.matches.SubmitResult(ctx, tournament.ID, bye.ID, swiss.ResultWhite, env.staff)
	assert.ErrorIs(t, err, swiss.ErrForbidden)

	_, err = env.matches.SubmitResult(ctx, tournament.ID, bye.ID, swiss.ResultWhite, swiss.Actor{ID: *bye.WhitePlayerID})
	assert.ErrorIs(t, err, swiss.ErrForbidden)
}

func TestSubmitResult_Resubmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModePlayer, 3, 4)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	match := env.roundMatches(t, tournament.ID, 1)[0]
	white := swiss.Actor{ID: *match.WhitePlayerID}
	black := swiss.Actor{ID: *match.BlackPlayerID}

	_, err = env.matches.SubmitResult(ctx, tournament.ID, match.ID, swiss.ResultWhite, white)
	require.NoError(t, err)

	updated, err := env.matches.SubmitResult(ctx, tournament.ID, match.ID, swiss.ResultBlack, black)
	require.NoError(t, err)
	assert.Equal(t, swiss.ResultBlack, updated.Result)

	stored, err := env.matches.GetMatch(ctx, tournament.ID, match.ID)
	require.NoError(t, err)
	assert.Equal(t, swiss.ResultBlack, stored.Result)
	assert.Equal(t, black.ID, *stored.SubmittedBy)
}

func TestSubmitResult_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModeAdmin, 3, 2)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)
	match := env.roundMatches(t, tournament.ID, 1)[0]

	for _, result := range []swiss.Result{swiss.ResultPending, swiss.ResultBye, "checkmate"} {
		_, err := env.matches.SubmitResult(ctx, tournament.ID, match.ID, result, env.staff)
		assert.ErrorIs(t, err, swiss.ErrInvalidResult, result)
	}

	other, _ := env.createTournament(t, swiss.ModeAdmin, 3, 0)
	_, err = env.matches.SubmitResult(ctx, other.ID, match.ID, swiss.ResultWhite, env.staff)
	assert.ErrorIs(t, err, swiss.ErrNotFound)

	_, err = env.matches.SubmitResult(ctx, tournament.ID, uuid.New(), swiss.ResultWhite, env.staff)
	assert.ErrorIs(t, err, swiss.ErrNotFound)
}

func TestSubmitResult_OlderRoundDoesNotAdvance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModeAdmin, 5, 2)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	first := env.roundMatches(t, tournament.ID, 1)[0]
	_, err = env.matches.SubmitResult(ctx, tournament.ID, first.ID, swiss.ResultWhite, env.staff)
	require.NoError(t, err)
	require.Equal(t, 2, env.tournament(t, tournament.ID).CurrentRound)

	// correcting round 1 completes it again, but it is no longer current
	_, err = env.matches.SubmitResult(ctx, tournament.ID, first.ID, swiss.ResultDraw, env.staff)
	require.NoError(t, err)
	assert.Equal(t, 2, env.tournament(t, tournament.ID).CurrentRound)
	assert.Equal(t, 2, env.countRounds(t, tournament.ID))
}

func TestSubmitResult_LocksTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModeAdmin, 3, 4)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	repo := &recordingRepository{TournamentStore: env.repo}
	matches := env.matchServiceOver(repo)

	round1 := env.roundMatches(t, tournament.ID, 1)
	_, err = matches.SubmitResult(ctx, tournament.ID, round1[0].ID, swiss.ResultDraw, env.staff)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.LockedReads(), "the submission reads the tournament under lock")
}

func TestSubmitResult_ConcurrentLastResults(t *testing.T) {
	assertConcurrentLastResultsAdvance(t, newTestEnv(t))
}

func TestSubmitResult_ConcurrentLastResultsPostgres(t *testing.T) {
	assertConcurrentLastResultsAdvance(t, newPostgresTestEnv(t))
}

// assertConcurrentLastResultsAdvance submits the two pending results of round
// 1 at once; exactly one submitter must close the round and generate round 2.
func assertConcurrentLastResultsAdvance(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModeAdmin, 3, 4)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	round1 := env.roundMatches(t, tournament.ID, 1)
	require.Len(t, round1, 2)

	var g errgroup.Group
	for _, m := range round1 {
		g.Go(func() error {
			_, err := env.matches.SubmitResult(ctx, tournament.ID, m.ID, swiss.ResultWhite, env.staff)
			return err
		})
	}
	require.NoError(t, g.Wait())

	first, err := env.repo.GetRound(ctx, env.db, tournament.ID, 1)
	require.NoError(t, err)
	assert.NotNil(t, first.EndedAt)
	assert.Equal(t, 2, env.countRounds(t, tournament.ID))
	assert.Equal(t, 2, env.tournament(t, tournament.ID).CurrentRound)

	completed := 0
	for _, typ := range env.events.Types() {
		if typ == events.RoundCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestSubmitResult_AutoAdvanceFailureKeepsResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModeAdmin, 3, 2)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	repo := &recordingRepository{TournamentStore: env.repo, createRoundErr: errors.New("disk full")}
	matches := env.matchServiceOver(repo)

	match := env.roundMatches(t, tournament.ID, 1)[0]
	got, err := matches.SubmitResult(ctx, tournament.ID, match.ID, swiss.ResultBlack, env.staff)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, swiss.ResultBlack, got.Result)

	stored, err := env.matches.GetMatch(ctx, tournament.ID, match.ID)
	require.NoError(t, err)
	assert.Equal(t, swiss.ResultBlack, stored.Result)
	assert.Equal(t, 1, env.countRounds(t, tournament.ID))
	assert.Equal(t, 1, env.tournament(t, tournament.ID).CurrentRound)

	// staff can still advance by hand once the store recovers
	_, err = env.rounds.GenerateRound(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, env.countRounds(t, tournament.ID))
}
