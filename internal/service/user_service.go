package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/AdamBeresnev/chesseirb/internal/store"
	"github.com/AdamBeresnev/chesseirb/internal/swiss"
	users "github.com/AdamBeresnev/chesseirb/internal/user"
	"github.com/AdamBeresnev/chesseirb/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/markbates/goth"
)

// ArbiterUserID is the staff account used by command line tooling.
const ArbiterUserID = "00000000-0000-0000-0000-000000000001"

type UserService struct {
	db    *sqlx.DB
	store *store.UserStore
	repo  Repository
}

func NewUserService(db *sqlx.DB, store *store.UserStore, repo Repository) *UserService {
	return &UserService{db: db, store: store, repo: repo}
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	username := gothUser.NickName
	if username == "" {
		username = gothUser.Name
	}

	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != username {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = username
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to update user: %w", err)
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Provider:   utils.Ptr(gothUser.Provider),
			ProviderID: utils.Ptr(gothUser.UserID),
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		err := s.store.CreateUser(ctx, newUser)
		return newUser, err
	}

	return nil, err
}

// EnsureArbiterUser returns the staff account of the command line tools,
// creating it on first use.
func (s *UserService) EnsureArbiterUser(ctx context.Context) (*users.User, error) {
	arbiterID := uuid.MustParse(ArbiterUserID)
	user, err := s.store.GetUser(ctx, arbiterID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		arbiter := &users.User{
			ID:       arbiterID,
			Email:    "arbiter@chesseirb.local",
			Username: "arbiter",
			IsStaff:  true,
		}
		err := s.store.CreateUser(ctx, arbiter)
		return arbiter, err
	}
	return nil, err
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, swiss.ErrNotFound
	}
	return user, err
}

func (s *UserService) GetUserByName(ctx context.Context, username string) (*users.User, error) {
	user, err := s.store.GetUserByName(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, swiss.ErrNotFound
	}
	return user, err
}

type UserStats struct {
	User  *users.User
	Stats swiss.PlayerStats
	// Opponents resolves the ids found in Stats.Defeats.
	Opponents map[uuid.UUID]string
}

func (s *UserService) Stats(ctx context.Context, id uuid.UUID) (*UserStats, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.repo.ListMatchesForUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	stats := swiss.ComputePlayerStats(id, matches)
	opponents := make(map[uuid.UUID]string)
	for _, d := range stats.Defeats {
		if _, ok := opponents[d.OpponentID]; ok {
			continue
		}
		opponent, err := s.store.GetUser(ctx, d.OpponentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get opponent %s: %w", d.OpponentID, err)
		}
		opponents[d.OpponentID] = opponent.Username
	}

	return &UserStats{User: user, Stats: stats, Opponents: opponents}, nil
}

// Search ranks users by how closely their username matches query. An empty
// query lists everyone.
func (s *UserService) Search(ctx context.Context, query string) ([]users.User, error) {
	all, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	names := make([]string, len(all))
	for i, u := range all {
		names[i] = u.Username
	}

	ranks := fuzzy.RankFindFold(query, names)
	sort.Sort(ranks)

	found := make([]users.User, 0, len(ranks))
	for _, r := range ranks {
		found = append(found, all[r.OriginalIndex])
	}
	return found, nil
}

type UserAction string

const (
	ActionBan     UserAction = "ban"
	ActionUnban   UserAction = "unban"
	ActionPromote UserAction = "promote"
	ActionDemote  UserAction = "demote"
	ActionDelete  UserAction = "delete"
)

// Administer applies a staff action to another user. Staff cannot act on
// their own account.
func (s *UserService) Administer(ctx context.Context, actor swiss.Actor, targetID uuid.UUID, action UserAction) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if actor.ID == targetID {
		return fmt.Errorf("cannot %s your own account: %w", action, swiss.ErrForbidden)
	}

	var err error
	switch action {
	case ActionBan:
		err = s.store.SetBanned(ctx, targetID, true)
	case ActionUnban:
		err = s.store.SetBanned(ctx, targetID, false)
	case ActionPromote:
		err = s.store.SetStaff(ctx, targetID, true)
	case ActionDemote:
		err = s.store.SetStaff(ctx, targetID, false)
	case ActionDelete:
		err = s.store.DeleteUser(ctx, targetID)
	default:
		return fmt.Errorf("unknown action %q: %w", action, swiss.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("failed to %s user %s: %w", action, targetID, err)
	}
	return nil
}

// SetChessComElo is allowed for the user themselves and for staff.
func (s *UserService) SetChessComElo(ctx context.Context, actor swiss.Actor, targetID uuid.UUID, elo *int) error {
	if actor.ID != targetID && !actor.IsStaff {
		return fmt.Errorf("user %s may not edit %s: %w", actor.ID, targetID, swiss.ErrForbidden)
	}
	if elo != nil && *elo < 0 {
		return fmt.Errorf("elo must not be negative: %w", swiss.ErrInvalidInput)
	}
	return s.store.SetChessComElo(ctx, targetID, elo)
}
