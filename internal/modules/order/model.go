package order

import (
	"errors"
	"strings"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order not found")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrVersionConflict = errors.New("order was modified concurrently, refetch and retry")
	ErrSessionRequired = errors.New("session_id is required")
	// ErrPaymentNotConfirmed means the processor does not report the session as paid; no order exists.
	ErrPaymentNotConfirmed = payment.ErrNotPaid
	// ErrMaterializationFailed means money was collected but the order could not be recorded.
	ErrMaterializationFailed = errors.New("payment confirmed but order could not be recorded")
)

// Status is the lifecycle state of an order. Only these canonical tokens are stored.
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusProcessing Status = "procesando"
	StatusCompleted  Status = "completada"
	StatusCancelled  Status = "cancelada"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

var legacyStatuses = map[string]Status{
	"pending":    StatusPending,
	"processing": StatusProcessing,
	"completed":  StatusCompleted,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
}

// ParseStatus accepts a canonical token or an English legacy token.
func ParseStatus(s string) (Status, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if st := Status(s); st.Valid() {
		return st, nil
	}
	if st, ok := legacyStatuses[s]; ok {
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var labels = map[string]map[Status]string{
	"en": {StatusPending: "Pending", StatusProcessing: "Processing", StatusCompleted: "Completed", StatusCancelled: "Cancelled"},
	"es": {StatusPending: "Pendiente", StatusProcessing: "Procesando", StatusCompleted: "Completada", StatusCancelled: "Cancelada"},
}

// Label is the display text of s in lang ("en" or "es"), defaulting to English.
func (s Status) Label(lang string) string {
	l, ok := labels[strings.ToLower(lang)]
	if !ok {
		l = labels["en"]
	}
	if v, ok := l[s]; ok {
		return v
	}
	return string(s)
}

// Order is the durable record of one paid checkout session.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          *uuid.UUID      `json:"user_id"` // nil for guest orders
	Items           []cart.LineItem `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	SchoolName      string          `json:"school_name"`
	Grade           string          `json:"grade"`
	StripeSessionID string          `json:"stripe_session_id"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OwnedBy reports whether userID placed o. Guest orders have no owner.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// ListFilter narrows the admin order listing. Zero fields match everything.
type ListFilter struct {
	Status Status
	School string
	Grade  string
}

// UpdateStatusRequest is the payload for changing an order's status.
type UpdateStatusRequest struct {
	Status          string `json:"status"`
	ExpectedVersion *int   `json:"expected_version,omitempty"`
}
