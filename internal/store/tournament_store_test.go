package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	users "github.com/AdamBeresnev/chesseirb/internal/user"
	"github.com/AdamBeresnev/chesseirb/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_txlock=immediate")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// every connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func createTestUser(t *testing.T, db *sqlx.DB, name string) *users.User {
	t.Helper()
	user := &users.User{
		ID:         uuid.New(),
		Email:      name + "@example.com",
		Username:   name,
		CreatedAt:  time.Now().UTC(),
		Provider:   utils.Ptr("discord"),
		ProviderID: utils.Ptr(uuid.NewString()),
	}
	require.NoError(t, NewUserStore(db).CreateUser(context.Background(), user))
	return user
}

func createTestTournament(t *testing.T, db *sqlx.DB, status swiss.TournamentStatus) *swiss.Tournament {
	t.Helper()
	now := time.Now().UTC()
	tournament := &swiss.Tournament{
		ID:            uuid.New(),
		Name:          "Test Tournament",
		StartAt:       now.Add(24 * time.Hour),
		RoundsPlanned: swiss.DefaultRoundsPlanned,
		Mode:          swiss.ModeAdmin,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, NewTournamentStore(db).CreateTournament(context.Background(), db, tournament))
	return tournament
}

func TestCreateTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	owner := createTestUser(t, db, "arbiter")

	now := time.Now().UTC()
	tournament := &swiss.Tournament{
		ID:            uuid.New(),
		Name:          "Winter Open",
		Description:   "Five rounds, rapid",
		StartAt:       now.Add(48 * time.Hour),
		RoundsPlanned: 5,
		Mode:          swiss.ModePlayer,
		Status:        swiss.TournamentDraft,
		CreatedBy:     &owner.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	err = store.CreateTournament(ctx, tx, tournament)
	require.NoError(t, err)

	err = tx.Commit()
	require.NoError(t, err)

	fetched, err := store.GetTournament(ctx, db, tournament.ID)
	require.NoError(t, err)

	assert.Equal(t, tournament.ID, fetched.ID)
	assert.Equal(t, tournament.Name, fetched.Name)
	assert.Equal(t, tournament.Description, fetched.Description)
	assert.Equal(t, tournament.Mode, fetched.Mode)
	assert.Equal(t, tournament.Status, fetched.Status)
	assert.Equal(t, 0, fetched.CurrentRound)
	require.NotNil(t, fetched.CreatedBy)
	assert.Equal(t, owner.ID, *fetched.CreatedBy)
	assert.WithinDuration(t, tournament.StartAt, fetched.StartAt, time.Second)
}

func TestGetTournament_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)

	_, err := store.GetTournament(context.Background(), db, uuid.New())
	assert.ErrorIs(t, err, swiss.ErrNotFound)

	_, err = store.GetTournamentForUpdate(context.Background(), db, uuid.New())
	assert.ErrorIs(t, err, swiss.ErrNotFound)

	err = store.UpdateTournamentStatus(context.Background(), db, uuid.New(), swiss.TournamentRunning)
	assert.ErrorIs(t, err, swiss.ErrNotFound)
}

func TestUpdateTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	tournament := createTestTournament(t, db, swiss.TournamentDraft)

	tournament.Name = "Renamed"
	tournament.RoundsPlanned = 7
	tournament.Mode = swiss.ModePlayer
	require.NoError(t, store.UpdateTournament(ctx, db, tournament))
	require.NoError(t, store.UpdateTournamentStatus(ctx, db, tournament.ID, swiss.TournamentRunning))
	require.NoError(t, store.UpdateCurrentRound(ctx, db, tournament.ID, 2))

	fetched, err := store.GetTournament(ctx, db, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fetched.Name)
	assert.Equal(t, 7, fetched.RoundsPlanned)
	assert.Equal(t, swiss.ModePlayer, fetched.Mode)
	assert.Equal(t, swiss.TournamentRunning, fetched.Status)
	assert.Equal(t, 2, fetched.CurrentRound)
}

func TestListTournamentsByStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()

	draft := createTestTournament(t, db, swiss.TournamentDraft)
	running := createTestTournament(t, db, swiss.TournamentRunning)
	completed := createTestTournament(t, db, swiss.TournamentCompleted)

	open, err := store.ListTournamentsByStatus(ctx, db, swiss.TournamentDraft, swiss.TournamentRegistration, swiss.TournamentRunning)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, tour := range open {
		ids = append(ids, tour.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{draft.ID, running.ID}, ids)

	done, err := store.ListTournamentsByStatus(ctx, db, swiss.TournamentCompleted)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, completed.ID, done[0].ID)

	none, err := store.ListTournamentsByStatus(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRegistrations(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	tournament := createTestTournament(t, db, swiss.TournamentRegistration)

	start := time.Now().UTC()
	var players []*users.User
	for i := 0; i < 3; i++ {
		p := createTestUser(t, db, fmt.Sprintf("player%d", i))
		players = append(players, p)
		err := store.UpsertRegistration(ctx, db, &swiss.Registration{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			UserID:       p.ID,
			JoinedAt:     start.Add(time.Duration(i) * time.Minute),
			IsActive:     true,
		})
		require.NoError(t, err)
	}

	participants, err := store.ActiveParticipants(ctx, db, tournament.ID)
	require.NoError(t, err)
	require.Len(t, participants, 3)
	for i, p := range participants {
		assert.Equal(t, players[i].ID, p.ID, "registration order")
		assert.Equal(t, players[i].Username, p.Name)
	}

	require.NoError(t, store.SetRegistrationActive(ctx, db, tournament.ID, players[0].ID, false))

	participants, err = store.ActiveParticipants(ctx, db, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 2)

	// registering again reactivates the same row
	err = store.UpsertRegistration(ctx, db, &swiss.Registration{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		UserID:       players[0].ID,
		JoinedAt:     time.Now().UTC(),
		IsActive:     true,
	})
	require.NoError(t, err)

	reg, err := store.GetRegistration(ctx, db, tournament.ID, players[0].ID)
	require.NoError(t, err)
	assert.True(t, reg.IsActive)
	assert.WithinDuration(t, start, reg.JoinedAt, time.Second)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM registrations WHERE tournament_id = ?", tournament.ID))
	assert.Equal(t, 3, count)

	err = store.SetRegistrationActive(ctx, db, tournament.ID, uuid.New(), false)
	assert.ErrorIs(t, err, swiss.ErrNotFound)
}

func TestRoundsAndMatches(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	tournament := createTestTournament(t, db, swiss.TournamentRunning)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	now := time.Now().UTC()
	round := &swiss.Round{ID: uuid.New(), TournamentID: tournament.ID, Number: 1, StartedAt: now}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.CreateRound(ctx, tx, round))

	matches := []swiss.Match{
		{
			ID: uuid.New(), RoundID: round.ID, Board: 1,
			WhitePlayerID: &alice.ID, BlackPlayerID: &bob.ID,
			Result: swiss.ResultPending, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.New(), RoundID: round.ID, Board: 2,
			WhitePlayerID: &carol.ID,
			Result:        swiss.ResultBye, CreatedAt: now, UpdatedAt: now,
		},
	}
	require.NoError(t, store.CreateMatches(ctx, tx, matches))
	require.NoError(t, tx.Commit())

	fetchedRound, err := store.GetRound(ctx, db, tournament.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, round.ID, fetchedRound.ID)
	assert.Nil(t, fetchedRound.EndedAt)

	_, err = store.GetRound(ctx, db, tournament.ID, 2)
	assert.ErrorIs(t, err, swiss.ErrNotFound)

	fetched, err := store.ListMatches(ctx, db, tournament.ID)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, 1, fetched[0].Board)
	assert.Equal(t, 1, fetched[0].RoundNumber)
	assert.Equal(t, alice.ID, *fetched[0].WhitePlayerID)
	assert.Equal(t, bob.ID, *fetched[0].BlackPlayerID)
	assert.True(t, fetched[1].IsBye())
	assert.Nil(t, fetched[1].BlackPlayerID)

	pending, err := store.CountPendingMatches(ctx, db, round.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	require.NoError(t, store.UpdateMatchResult(ctx, db, matches[0].ID, swiss.ResultDraw, &alice.ID))

	match, err := store.GetMatch(ctx, db, tournament.ID, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, swiss.ResultDraw, match.Result)
	require.NotNil(t, match.SubmittedBy)
	assert.Equal(t, alice.ID, *match.SubmittedBy)

	pending, err = store.CountPendingMatches(ctx, db, round.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pending)

	require.NoError(t, store.SetRoundEnded(ctx, db, round.ID, time.Now().UTC()))
	rounds, err := store.ListRounds(ctx, db, tournament.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.NotNil(t, rounds[0].EndedAt)

	// a match id from another tournament is not found
	other := createTestTournament(t, db, swiss.TournamentRunning)
	_, err = store.GetMatch(ctx, db, other.ID, matches[0].ID)
	assert.ErrorIs(t, err, swiss.ErrNotFound)

	mine, err := store.ListMatchesForUser(ctx, db, carol.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, swiss.ResultBye, mine[0].Result)
}

func TestRoundNumberIsUniquePerTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	tournament := createTestTournament(t, db, swiss.TournamentRunning)

	first := &swiss.Round{ID: uuid.New(), TournamentID: tournament.ID, Number: 1, StartedAt: time.Now().UTC()}
	require.NoError(t, store.CreateRound(ctx, db, first))

	duplicate := &swiss.Round{ID: uuid.New(), TournamentID: tournament.ID, Number: 1, StartedAt: time.Now().UTC()}
	assert.Error(t, store.CreateRound(ctx, db, duplicate))
}

func TestDeleteTournament_Cascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := NewTournamentStore(db)
	ctx := context.Background()
	tournament := createTestTournament(t, db, swiss.TournamentRunning)
	alice := createTestUser(t, db, "alice")

	now := time.Now().UTC()
	round := &swiss.Round{ID: uuid.New(), TournamentID: tournament.ID, Number: 1, StartedAt: now}
	require.NoError(t, store.CreateRound(ctx, db, round))
	require.NoError(t, store.CreateMatches(ctx, db, []swiss.Match{{
		ID: uuid.New(), RoundID: round.ID, Board: 1, WhitePlayerID: &alice.ID,
		Result: swiss.ResultBye, CreatedAt: now, UpdatedAt: now,
	}}))

	require.NoError(t, store.DeleteTournament(ctx, db, tournament.ID))

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM matches"))
	assert.Equal(t, 0, count)
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM rounds"))
	assert.Equal(t, 0, count)
}
