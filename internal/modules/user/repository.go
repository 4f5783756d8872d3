package user

import (
	"context"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/google/uuid"
)

type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role auth.Role) (*User, error)
}
