package checkout

import (
	"errors"
	"strings"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
)

var (
	ErrValidation = errors.New("required fields are incomplete")
	// ErrPaymentSession means the processor rejected the request or returned no URL. The cart is kept.
	ErrPaymentSession = errors.New("could not start payment, please try again")
)

// ValidationError lists the missing field keys of a checkout submission.
type ValidationError struct {
	Fields []string `json:"fields"`
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Context is the billing/delivery information collected at checkout.
type Context struct {
	Billing       cart.Address `json:"billing"`
	Delivery      cart.Address `json:"delivery"`
	SameAsBilling bool         `json:"same_as_billing"`
}

// Validate requires every billing field, and the delivery name, street, city and postal code
// unless delivery mirrors billing.
func (c Context) Validate() error {
	var missing []string
	require := func(key, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	require("billing.full_name", c.Billing.FullName)
	require("billing.email", c.Billing.Email)
	require("billing.phone", c.Billing.Phone)
	require("billing.address", c.Billing.Address)
	require("billing.city", c.Billing.City)
	require("billing.postal_code", c.Billing.PostalCode)
	if !c.SameAsBilling {
		require("delivery.full_name", c.Delivery.FullName)
		require("delivery.address", c.Delivery.Address)
		require("delivery.city", c.Delivery.City)
		require("delivery.postal_code", c.Delivery.PostalCode)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// DeliveryAddress resolves the address the order ships to.
func (c Context) DeliveryAddress() cart.Address {
	if c.SameAsBilling {
		return c.Billing
	}
	return c.Delivery
}

// Session is returned to the client. Redirect is always "top": the hosted payment page
// refuses to render inside a frame, so the client must navigate its top-level window.
type Session struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
	Total     string `json:"total"`
	Redirect  string `json:"redirect"`
}
