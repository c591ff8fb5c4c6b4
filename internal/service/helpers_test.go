package service

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/config"
	database "github.com/AdamBeresnev/chesseirb/internal/db"
	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/store"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	users "github.com/AdamBeresnev/chesseirb/internal/user"
	"github.com/AdamBeresnev/chesseirb/internal/utils"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite3", "file::memory:?_txlock=immediate")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// every connection would get its own empty in-memory database, and a
	// single connection serialises transactions like the file database does
	conn.SetMaxOpenConns(1)

	_, err = conn.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(conn.DB, &sqlite3.Config{})
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

	return conn
}

type testEnv struct {
	db          *sqlx.DB
	repo        *store.TournamentStore
	userStore   *store.UserStore
	rounds      *RoundService
	matches     *MatchService
	tournaments *TournamentService
	users       *UserService
	events      *events.Recorder
	staff       swiss.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })
	return newTestEnvOn(t, db)
}

// newPostgresTestEnv runs against the database named by
// CHESSEIRB_TEST_POSTGRES_DSN and skips the test when it is unset.
func newPostgresTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("CHESSEIRB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CHESSEIRB_TEST_POSTGRES_DSN not set")
	}

	db, err := database.Open(config.DatabaseConfig{Driver: "postgres", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db, "../../migrations"))
	return newTestEnvOn(t, db)
}

func newTestEnvOn(t *testing.T, db *sqlx.DB) *testEnv {
	t.Helper()

	recorder := &events.Recorder{}
	services := New(db, recorder)

	env := &testEnv{
		db:          db,
		repo:        store.NewTournamentStore(db),
		userStore:   services.UserStore,
		rounds:      services.Rounds,
		matches:     services.Matches,
		tournaments: services.Tournaments,
		users:       services.Users,
		events:      recorder,
	}

	arbiter, err := env.users.EnsureArbiterUser(context.Background())
	require.NoError(t, err)
	env.staff = arbiter.Actor()
	return env
}

func (e *testEnv) createUser(t *testing.T) *users.User {
	t.Helper()
	user := &users.User{
		ID:         uuid.New(),
		Email:      gofakeit.Email(),
		Username:   gofakeit.Username(),
		CreatedAt:  time.Now().UTC(),
		Provider:   utils.Ptr("discord"),
		ProviderID: utils.Ptr(uuid.NewString()),
	}
	require.NoError(t, e.userStore.CreateUser(context.Background(), user))
	return user
}

// createTournament returns a tournament with open registration and the given
// number of registered players.
func (e *testEnv) createTournament(t *testing.T, mode swiss.TournamentMode, roundsPlanned, players int) (*swiss.Tournament, []*users.User) {
	t.Helper()
	ctx := context.Background()

	tournament, err := e.tournaments.Create(ctx, e.staff, TournamentInput{
		Name:          gofakeit.Company() + " Open",
		RoundsPlanned: roundsPlanned,
		Mode:          mode,
		StartAt:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, e.tournaments.OpenRegistration(ctx, e.staff, tournament.ID))

	registered := make([]*users.User, 0, players)
	for i := 0; i < players; i++ {
		u := e.createUser(t)
		require.NoError(t, e.tournaments.Register(ctx, u.Actor(), tournament.ID))
		registered = append(registered, u)
	}
	return tournament, registered
}

func (e *testEnv) tournament(t *testing.T, id uuid.UUID) *swiss.Tournament {
	t.Helper()
	tournament, err := e.repo.GetTournament(context.Background(), e.db, id)
	require.NoError(t, err)
	return tournament
}

func (e *testEnv) roundMatches(t *testing.T, tournamentID uuid.UUID, number int) []swiss.Match {
	t.Helper()
	all, err := e.repo.ListMatches(context.Background(), e.db, tournamentID)
	require.NoError(t, err)

	var matches []swiss.Match
	for _, m := range all {
		if m.RoundNumber == number {
			matches = append(matches, m)
		}
	}
	return matches
}

func (e *testEnv) countRounds(t *testing.T, tournamentID uuid.UUID) int {
	t.Helper()
	rounds, err := e.repo.ListRounds(context.Background(), e.db, tournamentID)
	require.NoError(t, err)
	return len(rounds)
}

// recordingRepository counts locked tournament reads and can make round
// creation fail.
type recordingRepository struct {
	*store.TournamentStore

	mu             sync.Mutex
	lockedReads    int
	createRoundErr error
}

func (r *recordingRepository) GetTournamentForUpdate(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*swiss.Tournament, error) {
	r.mu.Lock()
	r.lockedReads++
	r.mu.Unlock()
	return r.TournamentStore.GetTournamentForUpdate(ctx, q, id)
}

func (r *recordingRepository) CreateRound(ctx context.Context, q sqlx.ExtContext, round *swiss.Round) error {
	if r.createRoundErr != nil {
		return r.createRoundErr
	}
	return r.TournamentStore.CreateRound(ctx, q, round)
}

func (r *recordingRepository) LockedReads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lockedReads
}

// matchServiceOver builds a MatchService whose round generation also goes
// through repo.
func (e *testEnv) matchServiceOver(repo Repository) *MatchService {
	return NewMatchService(e.db, repo, NewRoundService(e.db, repo, e.events), e.events)
}
