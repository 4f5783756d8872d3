package user

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	repo Repository
	auth auth.Service
}

func NewService(repo Repository, authService auth.Service) Service {
	return &service{repo: repo, auth: authService}
}

func (s *service) Register(ctx context.Context, reg Registration) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email %q is not an address", ErrInvalidInput, reg.Email)
	}
	if len(reg.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Role:         auth.RoleCustomer,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) SetRole(ctx context.Context, caller *auth.Identity, id uuid.UUID, role auth.Role) (*User, error) {
	if err := s.auth.VerifyAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if role != auth.RoleCustomer && role != auth.RoleAdmin {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	u, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	log.Printf("[user] %s set role of %s to %s", caller.UserID, id, role)
	return u, nil
}
