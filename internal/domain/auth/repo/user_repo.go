package repo

import (
	"context"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/model"
)

// UserRepo is the durable system of record for users.
type UserRepo interface {
	// GetUserByUsername returns errors.ErrNotFound when no record matches.
	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	// CreateUser inserts u and returns the stored record. A duplicate username
	// yields errors.ErrConflict.
	CreateUser(ctx context.Context, u model.NewUser) (model.User, error)

	Ping(ctx context.Context) error
}
