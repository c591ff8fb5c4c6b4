package views

import (
	"context"

	"github.com/AdamBeresnev/chesseirb/internal/middleware"
	users "github.com/AdamBeresnev/chesseirb/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}
