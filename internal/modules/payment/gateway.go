package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Gateway is the provider-agnostic interface of the payment processor.
type Gateway interface {
	// CreateSession registers a hosted payment page and returns its URL.
	CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error)
	// VerifySession re-fetches a session from the processor.
	VerifySession(ctx context.Context, sessionID string) (*Verification, error)
}

// ── Stripe Checkout Adapter ───────────────────────────────────────────────────

type stripeGateway struct {
	api      *client.API
	currency string
}

// NewStripeGateway creates a Gateway backed by Stripe Checkout Sessions.
func NewStripeGateway(secretKey, currency string) Gateway {
	if currency == "" {
		currency = "usd"
	}
	return &stripeGateway{api: client.New(secretKey, nil), currency: strings.ToLower(currency)}
}

func (g *stripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}
	currency := req.Currency
	if currency == "" {
		currency = g.currency
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.ClientReference != "" {
		params.ClientReferenceID = stripe.String(req.ClientReference)
	}
	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(li.UnitAmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &SessionResponse{SessionID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) VerifySession(ctx context.Context, sessionID string) (*Verification, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session %s: %w", sessionID, err)
	}
	return verificationFrom(s), nil
}

func verificationFrom(s *stripe.CheckoutSession) *Verification {
	status := NormaliseStatus(string(s.PaymentStatus))
	v := &Verification{
		SessionID:        s.ID,
		Paid:             status == StatusPaid,
		PaymentStatus:    status,
		Metadata:         s.Metadata,
		ClientReference:  s.ClientReferenceID,
		AmountTotalMinor: s.AmountTotal,
		Currency:         string(s.Currency),
	}
	if s.LineItems != nil {
		for _, li := range s.LineItems.Data {
			item := LineItem{Name: li.Description, Quantity: li.Quantity}
			if li.Price != nil {
				item.UnitAmountMinor = li.Price.UnitAmount
			} else if li.Quantity > 0 {
				item.UnitAmountMinor = li.AmountTotal / li.Quantity
			}
			v.LineItems = append(v.LineItems, item)
		}
	}
	return v
}
