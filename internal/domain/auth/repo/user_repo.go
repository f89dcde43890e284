package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/jobfolio/auth-service/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	// UpdatePasswordHash overwrites only the password hash. Last write wins
	// when two resets race for the same user.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error

	// DeleteUser disables the account; rows are never removed.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	ListUsers(ctx context.Context, offset, limit int) ([]model.User, int64, error)
}
