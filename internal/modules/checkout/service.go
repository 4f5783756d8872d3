package checkout

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/payment"
	"github.com/shopspring/decimal"
)

// TaxLineName labels the line that carries the sales tax on the hosted payment page.
const TaxLineName = "Sales tax (8.75%)"

// Service starts hosted payment sessions for carts.
type Service interface {
	Initiate(ctx context.Context, id *auth.Identity, cartSession string, in Context) (*Session, error)
}

// Options configures a checkout service.
type Options struct {
	BaseURL       string
	Currency      string
	MetadataLimit int
}

type service struct {
	carts     cart.Service
	gateway   payment.Gateway
	snapshots payment.SnapshotStore
	opts      Options
	now       func() time.Time
}

func NewService(carts cart.Service, gateway payment.Gateway, snapshots payment.SnapshotStore, opts Options) Service {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	switch {
	case opts.MetadataLimit <= 0:
		opts.MetadataLimit = DefaultMetadataLimit
	case opts.MetadataLimit < MinMetadataLimit:
		log.Printf("[checkout] metadata limit %d is below the floor, using %d", opts.MetadataLimit, MinMetadataLimit)
		opts.MetadataLimit = MinMetadataLimit
	}
	return &service{carts: carts, gateway: gateway, snapshots: snapshots, opts: opts, now: time.Now}
}

func (s *service) Initiate(ctx context.Context, id *auth.Identity, cartSession string, in Context) (*Session, error) {
	if id == nil {
		return nil, auth.ErrAuthenticationRequired
	}
	items := s.carts.Items(cartSession)
	if len(items) == 0 {
		return nil, &ValidationError{Fields: []string{"cart"}}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	school, grade := ExtractSchoolGrade(items)
	subtotal := cart.Subtotal(items)
	total := Total(subtotal)
	userID := id.UserID.String()

	meta, tier := BuildMetadata(MetadataInput{UserID: userID, School: school, Grade: grade, Customer: in}, s.opts.MetadataLimit)
	if tier != TierFull {
		log.Printf("[checkout] metadata reduced to %s tier for user %s", tier, userID)
	}

	resp, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		LineItems:       chargeLines(items, total),
		Metadata:        meta,
		ClientReference: userID,
		SuccessURL:      s.opts.BaseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:       s.opts.BaseURL + "/payment-canceled",
		Currency:        s.opts.Currency,
	})
	if err != nil {
		log.Printf("[checkout] create payment session for user %s: %v", userID, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentSession, err)
	}
	if resp == nil || resp.URL == "" {
		log.Printf("[checkout] payment session for user %s returned no redirect url", userID)
		return nil, ErrPaymentSession
	}

	snap := payment.Snapshot{
		SessionID: resp.SessionID,
		UserID:    userID,
		Items:     stampCustomer(items, in),
		School:    school,
		Grade:     grade,
		Subtotal:  subtotal,
		Total:     total,
		CreatedAt: s.now().UTC(),
	}
	if err := s.snapshots.Save(ctx, snap, payment.SnapshotTTL); err != nil {
		// The order can still be rebuilt from the verified session.
		log.Printf("[checkout] save snapshot for session %s: %v", resp.SessionID, err)
	}

	s.carts.Clear(cartSession)
	return &Session{
		URL:       resp.URL,
		SessionID: resp.SessionID,
		Total:     total.StringFixed(2),
		Redirect:  "top",
	}, nil
}

// chargeLines prices items in minor units and appends a tax line so the processor charges
// exactly round(total) even when per-line rounding drifts.
func chargeLines(items []cart.LineItem, total decimal.Decimal) []payment.LineItem {
	lines := make([]payment.LineItem, 0, len(items)+1)
	var sum int64
	for _, li := range items {
		unit := minorUnits(li.UnitPrice)
		lines = append(lines, payment.LineItem{Name: li.Name, UnitAmountMinor: unit, Quantity: int64(li.Quantity)})
		sum += unit * int64(li.Quantity)
	}
	if tax := minorUnits(total) - sum; tax > 0 {
		lines = append(lines, payment.LineItem{Name: TaxLineName, UnitAmountMinor: tax, Quantity: 1})
	}
	return lines
}

// stampCustomer copies items with the checkout billing/delivery embedded in each one.
func stampCustomer(items []cart.LineItem, in Context) []cart.LineItem {
	billing, delivery := in.Billing, in.DeliveryAddress()
	out := make([]cart.LineItem, len(items))
	for i, li := range items {
		ci := cart.CustomerInfo{}
		if li.CustomerInfo != nil {
			ci = *li.CustomerInfo
		}
		if ci.School == "" {
			ci.School = li.School
		}
		if ci.Grade == "" {
			ci.Grade = li.Grade
		}
		b, d := billing, delivery
		ci.Billing, ci.Delivery = &b, &d
		li.CustomerInfo = &ci
		out[i] = li
	}
	return out
}
