package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Claims carries the role alongside the standard subject/expiry claims.
type Claims struct {
	Role Role `json:"role"`
	jwt.StandardClaims
}

type service struct {
	users  UserStore
	jwtKey []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a new auth service signing HS256 tokens with secret.
func NewService(users UserStore, secret string, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{users: users, jwtKey: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	acct, err := s.users.AccountByEmail(ctx, email)
	if errors.Is(err, ErrUnknownAccount) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := &Claims{
		Role: acct.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   acct.ID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (s *service) Authenticate(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: uid, Role: claims.Role}, nil
}

// VerifyAdmin re-reads the role from the user store; the token's role claim is never trusted for writes.
func (s *service) VerifyAdmin(ctx context.Context, id *Identity) error {
	if id == nil {
		return ErrAuthenticationRequired
	}
	acct, err := s.users.AccountByID(ctx, id.UserID)
	if errors.Is(err, ErrUnknownAccount) {
		return ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("verify admin %s: %w", id.UserID, err)
	}
	if acct.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
