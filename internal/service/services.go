package service

import (
	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/store"
	"github.com/jmoiron/sqlx"
)

// Services bundles the engine's services over one database.
type Services struct {
	Tournaments *TournamentService
	Rounds      *RoundService
	Matches     *MatchService
	Users       *UserService
	UserStore   *store.UserStore
}

func New(db *sqlx.DB, publisher events.Publisher) *Services {
	repo := store.NewTournamentStore(db)
	userStore := store.NewUserStore(db)
	rounds := NewRoundService(db, repo, publisher)

	return &Services{
		Tournaments: NewTournamentService(db, repo, rounds, publisher),
		Rounds:      rounds,
		Matches:     NewMatchService(db, repo, rounds, publisher),
		Users:       NewUserService(db, userStore, repo),
		UserStore:   userStore,
	}
}
