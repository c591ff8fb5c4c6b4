package users

import (
	"time"

	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

type User struct {
	ID          uuid.UUID `db:"id"`
	Email       string    `db:"email"`
	Username    string    `db:"username"`
	CreatedAt   time.Time `db:"created_at"`
	Provider    *string   `db:"provider"`
	ProviderID  *string   `db:"provider_id"`
	AvatarURL   *string   `db:"avatar_url"`
	IsStaff     bool      `db:"is_staff"`
	IsBanned    bool      `db:"is_banned"`
	ChessComElo *int      `db:"chesscom_elo"`
}

// Actor is the identity the tournament engine authorises against.
func (u *User) Actor() swiss.Actor {
	return swiss.Actor{ID: u.ID, IsStaff: u.IsStaff, IsBanned: u.IsBanned}
}
