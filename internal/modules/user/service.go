package user

import (
	"context"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/google/uuid"
)

type Service interface {
	Register(ctx context.Context, reg Registration) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	// SetRole re-verifies the caller against stored data before changing anyone's role.
	SetRole(ctx context.Context, caller *auth.Identity, id uuid.UUID, role auth.Role) (*User, error)
}
