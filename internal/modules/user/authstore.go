package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/google/uuid"
)

// AuthStore adapts a Repository to auth.UserStore.
type AuthStore struct{ Repo Repository }

func (a AuthStore) AccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	u, err := a.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, accountErr(err)
	}
	return &auth.Account{ID: u.ID, PasswordHash: u.PasswordHash, Role: u.Role}, nil
}

func (a AuthStore) AccountByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	u, err := a.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, accountErr(err)
	}
	return &auth.Account{ID: u.ID, PasswordHash: u.PasswordHash, Role: u.Role}, nil
}

// Exists reports whether id belongs to a stored user. The order materializer uses it to tell
// account orders from guest orders.
func (a AuthStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := a.Repo.GetUserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func accountErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %v", auth.ErrUnknownAccount, err)
	}
	return err
}
