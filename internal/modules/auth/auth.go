package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Role is the server-side authorization role of a user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbidden              = errors.New("forbidden: admin role required")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("invalid token")
	ErrUnknownAccount         = errors.New("unknown account")
)

// Identity is the authenticated caller of a request.
// Role is a hint taken from the token; admin-only operations re-verify it through Service.VerifyAdmin.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// Account is what the auth service needs to know about a stored user.
type Account struct {
	ID           uuid.UUID
	PasswordHash string
	Role         Role
}

// UserStore is implemented by the user module. A missing user is reported as ErrUnknownAccount;
// any other error is a store failure.
type UserStore interface {
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (*Account, error)
}

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*Identity, error)
	VerifyAdmin(ctx context.Context, id *Identity) error
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity stored by the auth middleware, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
