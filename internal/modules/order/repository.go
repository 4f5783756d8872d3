package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines data access for orders.
type Repository interface {
	// CreateIfAbsent inserts o unless an order with the same StripeSessionID exists.
	// It returns the stored order and whether this call created it.
	CreateIfAbsent(ctx context.Context, o *Order) (*Order, bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetBySession(ctx context.Context, sessionID string) (*Order, error)

	// ListByUser returns the orders of userID, newest first. Guest orders never match.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, error)

	// UpdateStatus sets the status, bumps version and updated_at. A non-nil expectedVersion
	// must equal the stored version, otherwise ErrVersionConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, expectedVersion *int) (*Order, error)

	Delete(ctx context.Context, id uuid.UUID) error
}
