package store

import (
	"context"

	users "github.com/AdamBeresnev/chesseirb/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	userColumns            = "id, email, username, created_at, provider, provider_id, avatar_url, is_staff, is_banned, chesscom_elo"
	getUserQuery           = "SELECT " + userColumns + " FROM users WHERE id = ?"
	getUserByNameQuery     = "SELECT " + userColumns + " FROM users WHERE username = ?"
	listUsersQuery         = "SELECT " + userColumns + " FROM users ORDER BY username ASC"
	getUserByProviderQuery = `
        SELECT ` + userColumns + ` FROM users
        WHERE provider = ?
        AND provider_id = ?
    `
	createUserQuery = `
		INSERT INTO users (id, email, username, created_at, provider, provider_id, avatar_url, is_staff, is_banned, chesscom_elo) VALUES
		(:id, :email, :username, :created_at, :provider, :provider_id, :avatar_url, :is_staff, :is_banned, :chesscom_elo)
	`
	updateUserNameAndAvatarQuery = `
		UPDATE users SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
	setStaffQuery       = "UPDATE users SET is_staff = ? WHERE id = ?"
	setBannedQuery      = "UPDATE users SET is_banned = ? WHERE id = ?"
	setChessComEloQuery = "UPDATE users SET chesscom_elo = ? WHERE id = ?"
	deleteUserQuery     = "DELETE FROM users WHERE id = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserByProviderQuery), provider, providerID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserQuery), id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserByName(ctx context.Context, username string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind(getUserByNameQuery), username)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]users.User, error) {
	var all []users.User
	err := s.db.SelectContext(ctx, &all, listUsersQuery)
	return all, err
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserNameAndAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserNameAndAvatarQuery, user)
	return err
}

func (s *UserStore) SetStaff(ctx context.Context, id uuid.UUID, staff bool) error {
	return s.exec(ctx, setStaffQuery, staff, id)
}

func (s *UserStore) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return s.exec(ctx, setBannedQuery, banned, id)
}

// SetChessComElo stores the rating shown next to the username. A nil elo clears it.
func (s *UserStore) SetChessComElo(ctx context.Context, id uuid.UUID, elo *int) error {
	return s.exec(ctx, setChessComEloQuery, elo, id)
}

// DeleteUser cascades to the user's registrations and matches.
func (s *UserStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, deleteUserQuery, id)
}

func (s *UserStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return expectAffected(res, err)
}
