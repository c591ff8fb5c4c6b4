package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.Create(ctx, env.staff, TournamentInput{Name: "  Spring Rapid  "})
	require.NoError(t, err)

	assert.Equal(t, "Spring Rapid", tournament.Name)
	assert.Equal(t, swiss.DefaultRoundsPlanned, tournament.RoundsPlanned)
	assert.Equal(t, swiss.ModeAdmin, tournament.Mode)
	assert.Equal(t, swiss.TournamentDraft, tournament.Status)
	require.NotNil(t, tournament.CreatedBy)
	assert.Equal(t, env.staff.ID, *tournament.CreatedBy)

	player := env.createUser(t)
	_, err = env.tournaments.Create(ctx, player.Actor(), TournamentInput{Name: "Mine"})
	assert.ErrorIs(t, err, swiss.ErrForbidden)

	_, err = env.tournaments.Create(ctx, env.staff, TournamentInput{Name: " "})
	assert.ErrorIs(t, err, swiss.ErrInvalidInput)

	_, err = env.tournaments.Create(ctx, env.staff, TournamentInput{Name: "Blitz", Mode: "arena"})
	assert.ErrorIs(t, err, swiss.ErrInvalidInput)
}

func TestUpdateTournament_OnlyBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, _ := env.createTournament(t, swiss.ModeAdmin, 3, 2)

	updated, err := env.tournaments.Update(ctx, env.staff, tournament.ID, TournamentInput{
		Name:          "Renamed",
		RoundsPlanned: 4,
		Mode:          swiss.ModePlayer,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.RoundsPlanned)
	assert.Equal(t, swiss.TournamentRegistration, updated.Status)

	_, err = env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	_, err = env.tournaments.Update(ctx, env.staff, tournament.ID, TournamentInput{Name: "Too late"})
	assert.ErrorIs(t, err, swiss.ErrInvalidState)
	assert.Equal(t, "Renamed", env.tournament(t, tournament.ID).Name)
}

func TestRegistrationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tournament, err := env.tournaments.Create(ctx, env.staff, TournamentInput{Name: "Club Night"})
	require.NoError(t, err)
	player := env.createUser(t)

	err = env.tournaments.Register(ctx, player.Actor(), tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrInvalidState, "registration is not open in draft")

	require.NoError(t, env.tournaments.OpenRegistration(ctx, env.staff, tournament.ID))
	require.NoError(t, env.tournaments.Register(ctx, player.Actor(), tournament.ID))
	require.NoError(t, env.tournaments.Register(ctx, player.Actor(), tournament.ID), "registering twice is harmless")

	standings, err := env.tournaments.Standings(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, standings, 1)

	require.NoError(t, env.tournaments.Unregister(ctx, player.Actor(), tournament.ID))
	standings, err = env.tournaments.Standings(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, standings, "inactive registrations are not ranked")

	require.NoError(t, env.tournaments.Register(ctx, player.Actor(), tournament.ID))
	standings, err = env.tournaments.Standings(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, standings, 1)

	banned := env.createUser(t)
	banned.IsBanned = true
	err = env.tournaments.Register(ctx, banned.Actor(), tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrForbidden)

	require.NoError(t, env.tournaments.CloseRegistration(ctx, env.staff, tournament.ID))
	assert.Equal(t, swiss.TournamentDraft, env.tournament(t, tournament.ID).Status)

	err = env.tournaments.Unregister(ctx, player.Actor(), tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrInvalidState)
}

func TestLifecycleTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, players := env.createTournament(t, swiss.ModeAdmin, 2, 2)

	err := env.tournaments.OpenRegistration(ctx, players[0].Actor(), tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrForbidden)

	_, err = env.tournaments.Start(ctx, players[0].Actor(), tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrForbidden)

	round, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, round.Number)
	assert.Equal(t, swiss.TournamentRunning, env.tournament(t, tournament.ID).Status)

	_, err = env.tournaments.Start(ctx, env.staff, tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrInvalidState)

	err = env.tournaments.OpenRegistration(ctx, env.staff, tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrInvalidState)

	_, err = env.tournaments.AdvanceRound(ctx, env.staff, tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrInvalidState, "round 1 is still pending")

	err = env.tournaments.Complete(ctx, env.staff, tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrInvalidState, "round 1 is still pending")

	match := env.roundMatches(t, tournament.ID, 1)[0]
	_, err = env.matches.SubmitResult(ctx, tournament.ID, match.ID, swiss.ResultWhite, env.staff)
	require.NoError(t, err)
	require.Equal(t, 2, env.tournament(t, tournament.ID).CurrentRound, "auto-advanced")

	match = env.roundMatches(t, tournament.ID, 2)[0]
	_, err = env.matches.SubmitResult(ctx, tournament.ID, match.ID, swiss.ResultDraw, env.staff)
	require.NoError(t, err)

	_, err = env.tournaments.AdvanceRound(ctx, env.staff, tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrInvalidState, "all planned rounds played")

	require.NoError(t, env.tournaments.Complete(ctx, env.staff, tournament.ID))
	assert.True(t, env.tournament(t, tournament.ID).IsCompleted())

	assert.Contains(t, env.events.Types(), events.StatusChanged)
}

func TestDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tournament, players := env.createTournament(t, swiss.ModeAdmin, 3, 3)
	_, err := env.tournaments.Start(ctx, env.staff, tournament.ID)
	require.NoError(t, err)

	detail, err := env.tournaments.Detail(ctx, tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, tournament.ID, detail.Tournament.ID)
	assert.Len(t, detail.Participants, 3)
	assert.Len(t, detail.Standings, 3)
	require.Len(t, detail.Rounds, 1)
	assert.Len(t, detail.Rounds[0].Matches, 2)
	assert.False(t, detail.CanAdvance)
	assert.Equal(t, players[0].Username, detail.Names()[players[0].ID])

	open, err := env.tournaments.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	completed, err := env.tournaments.ListCompleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, completed)

	require.NoError(t, env.tournaments.Delete(ctx, env.staff, tournament.ID))
	_, err = env.tournaments.Detail(ctx, tournament.ID)
	assert.ErrorIs(t, err, swiss.ErrNotFound)
}
