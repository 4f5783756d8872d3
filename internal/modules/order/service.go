package order

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/realtime"
	"github.com/google/uuid"
)

// Service defines the order queries and status changes. Authorization happens here, on the server.
type Service interface {
	// CompleteFromSuccess backs the payment-success page: it makes sure the order of sessionID exists,
	// then moves it from pendiente to completada when it belongs to the caller.
	CompleteFromSuccess(ctx context.Context, id *auth.Identity, sessionID string) (*Order, error)

	// AdminUpdateStatus moves an order to any valid status.
	AdminUpdateStatus(ctx context.Context, id *auth.Identity, orderID uuid.UUID, status Status, expectedVersion *int) (*Order, error)

	ListMine(ctx context.Context, id *auth.Identity) ([]*Order, error)
	ListAll(ctx context.Context, id *auth.Identity, f ListFilter) ([]*Order, error)

	// Get returns an order to its owner or an admin.
	Get(ctx context.Context, id *auth.Identity, orderID uuid.UUID) (*Order, error)

	Delete(ctx context.Context, id *auth.Identity, orderID uuid.UUID) error
}

type service struct {
	repo         Repository
	materializer *Materializer
	auth         auth.Service
	publisher    realtime.Publisher
}

// NewService creates a new order service.
func NewService(repo Repository, materializer *Materializer, authService auth.Service, publisher realtime.Publisher) Service {
	return &service{repo: repo, materializer: materializer, auth: authService, publisher: publisher}
}

func (s *service) CompleteFromSuccess(ctx context.Context, id *auth.Identity, sessionID string) (*Order, error) {
	if id == nil {
		return nil, auth.ErrAuthenticationRequired
	}
	o, _, err := s.materializer.Confirm(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(id.UserID) {
		return nil, ErrNotFound
	}
	if o.Status != StatusPending {
		return o, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, o.ID, StatusCompleted, &o.Version)
	if errors.Is(err, ErrVersionConflict) {
		// An admin moved it first; their status stands.
		return s.repo.GetByID(ctx, o.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("complete order %s: %w", o.ID, err)
	}
	publish(ctx, s.publisher, realtime.EventUpdate, updated)
	return updated, nil
}

func (s *service) AdminUpdateStatus(ctx context.Context, id *auth.Identity, orderID uuid.UUID, status Status, expectedVersion *int) (*Order, error) {
	if err := s.auth.VerifyAdmin(ctx, id); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	o, err := s.repo.UpdateStatus(ctx, orderID, status, expectedVersion)
	if err != nil {
		return nil, err
	}
	log.Printf("[order] %s set to %s by %s", o.ID, o.Status, id.UserID)
	publish(ctx, s.publisher, realtime.EventUpdate, o)
	return o, nil
}

func (s *service) ListMine(ctx context.Context, id *auth.Identity) ([]*Order, error) {
	if id == nil {
		return nil, auth.ErrAuthenticationRequired
	}
	return s.repo.ListByUser(ctx, id.UserID)
}

func (s *service) ListAll(ctx context.Context, id *auth.Identity, f ListFilter) ([]*Order, error) {
	if err := s.auth.VerifyAdmin(ctx, id); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, f)
}

func (s *service) Get(ctx context.Context, id *auth.Identity, orderID uuid.UUID) (*Order, error) {
	if id == nil {
		return nil, auth.ErrAuthenticationRequired
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.OwnedBy(id.UserID) {
		return o, nil
	}
	if err := s.auth.VerifyAdmin(ctx, id); err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			// Do not reveal that someone else's order exists.
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *service) Delete(ctx context.Context, id *auth.Identity, orderID uuid.UUID) error {
	if err := s.auth.VerifyAdmin(ctx, id); err != nil {
		return err
	}
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return err
	}
	log.Printf("[order] %s deleted by %s", orderID, id.UserID)
	publish(ctx, s.publisher, realtime.EventDelete, o)
	return nil
}
