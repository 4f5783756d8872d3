package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotPaid means the processor does not report the session as paid.
	ErrNotPaid          = errors.New("payment not confirmed")
	ErrSnapshotNotFound = errors.New("checkout snapshot not found")
)

// PaymentStatus is the processor-reported payment state of a checkout session.
type PaymentStatus string

const (
	StatusPaid              PaymentStatus = "paid"
	StatusUnpaid            PaymentStatus = "unpaid"
	StatusNoPaymentRequired PaymentStatus = "no_payment_required"
	StatusUnknown           PaymentStatus = "unknown"
)

// NormaliseStatus maps a processor status string onto PaymentStatus.
func NormaliseStatus(providerStatus string) PaymentStatus {
	switch s := PaymentStatus(strings.ToLower(strings.TrimSpace(providerStatus))); s {
	case StatusPaid, StatusUnpaid, StatusNoPaymentRequired:
		return s
	default:
		return StatusUnknown
	}
}

// ── Request/Response DTOs ─────────────────────────────────────────────────────

// LineItem is one charge line of a payment session, priced in minor currency units.
type LineItem struct {
	Name            string `json:"name"`
	UnitAmountMinor int64  `json:"unit_amount"`
	Quantity        int64  `json:"quantity"`
}

// SessionRequest asks the processor for a hosted payment page.
type SessionRequest struct {
	LineItems       []LineItem
	Metadata        map[string]string
	ClientReference string
	SuccessURL      string
	CancelURL       string
	Currency        string
}

// SessionResponse is the hosted page of a created session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Verification is the processor's current view of a session, fetched server-side.
type Verification struct {
	SessionID        string
	Paid             bool
	PaymentStatus    PaymentStatus
	Metadata         map[string]string
	ClientReference  string
	AmountTotalMinor int64
	Currency         string
	LineItems        []LineItem
}

// Snapshot is the server-side copy of a cart taken when its payment session was created.
// Each item carries the billing/delivery info of the checkout in CustomerInfo.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id,omitempty"`
	Items     []cart.LineItem `json:"items"`
	School    string          `json:"school,omitempty"`
	Grade     string          `json:"grade,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
