package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/checkout"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/payment"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/realtime"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserLookup resolves whether a user id belongs to a registered account.
type UserLookup interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Materializer records an order for a paid checkout session exactly once.
type Materializer struct {
	gateway   payment.Gateway
	snapshots payment.SnapshotStore
	repo      Repository
	users     UserLookup
	publisher realtime.Publisher
	now       func() time.Time
}

func NewMaterializer(gateway payment.Gateway, snapshots payment.SnapshotStore, repo Repository, users UserLookup, publisher realtime.Publisher) *Materializer {
	return &Materializer{
		gateway:   gateway,
		snapshots: snapshots,
		repo:      repo,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

// Confirm verifies sessionID with the processor and records its order. The bool reports whether
// this call created the order; repeated calls return the existing one.
func (m *Materializer) Confirm(ctx context.Context, sessionID string) (*Order, bool, error) {
	if sessionID == "" {
		return nil, false, ErrSessionRequired
	}
	v, err := m.gateway.VerifySession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("verify session %s: %w", sessionID, err)
	}
	if !v.Paid {
		return nil, false, fmt.Errorf("%w: session %s is %s", ErrPaymentNotConfirmed, sessionID, v.PaymentStatus)
	}

	o, err := m.build(ctx, v)
	if err != nil {
		log.Printf("[CRITICAL][reconciliation] session %s paid %d %s but order could not be built: %v",
			sessionID, v.AmountTotalMinor, v.Currency, err)
		return nil, false, fmt.Errorf("%w: session %s: %w", ErrMaterializationFailed, sessionID, err)
	}

	saved, created, err := m.repo.CreateIfAbsent(ctx, o)
	if err != nil {
		log.Printf("[CRITICAL][reconciliation] session %s paid %d %s but order insert failed: %v",
			sessionID, v.AmountTotalMinor, v.Currency, err)
		return nil, false, fmt.Errorf("%w: session %s: %w", ErrMaterializationFailed, sessionID, err)
	}
	if created {
		log.Printf("[order] created %s for session %s", saved.ID, sessionID)
		publish(ctx, m.publisher, realtime.EventInsert, saved)
	}
	return saved, created, nil
}

// ConfirmSession lets the payment webhook drive Confirm.
func (m *Materializer) ConfirmSession(ctx context.Context, sessionID string) error {
	_, _, err := m.Confirm(ctx, sessionID)
	return err
}

func (m *Materializer) build(ctx context.Context, v *payment.Verification) (*Order, error) {
	now := m.now().UTC()
	o := &Order{
		ID:              uuid.New(),
		Status:          StatusPending,
		StripeSessionID: v.SessionID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	snap, err := m.snapshots.Load(ctx, v.SessionID)
	switch {
	case err == nil:
		o.Items = snap.Items
		o.Total = snap.Total.Round(2)
		o.SchoolName, o.Grade = snap.School, snap.Grade
	case errors.Is(err, payment.ErrSnapshotNotFound):
		log.Printf("[order] no snapshot for session %s, rebuilding from processor data", v.SessionID)
		fromVerification(o, v)
	default:
		log.Printf("[order] load snapshot for session %s: %v, rebuilding from processor data", v.SessionID, err)
		fromVerification(o, v)
	}

	var candidates []string
	if snap != nil {
		candidates = append(candidates, snap.UserID)
	}
	candidates = append(candidates, v.Metadata["user_id"], v.ClientReference)
	userID, err := m.resolveUser(ctx, candidates)
	if err != nil {
		return nil, err
	}
	o.UserID = userID
	return o, nil
}

// resolveUser returns the first candidate that parses as a user id. It is nil (a guest order)
// when no candidate parses or the account does not exist.
func (m *Materializer) resolveUser(ctx context.Context, candidates []string) (*uuid.UUID, error) {
	for _, c := range candidates {
		id, err := uuid.Parse(c)
		if err != nil {
			continue
		}
		ok, err := m.users.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve user %s: %w", id, err)
		}
		if !ok {
			return nil, nil
		}
		return &id, nil
	}
	return nil, nil
}

// fromVerification rebuilds items and totals from the processor when the snapshot is gone.
// The tax line is folded into the total rather than kept as an item.
func fromVerification(o *Order, v *payment.Verification) {
	o.Total = decimal.New(v.AmountTotalMinor, -2)
	o.SchoolName, o.Grade = v.Metadata["school"], v.Metadata["grade"]
	ci := customerFromMetadata(v.Metadata)
	o.Items = []cart.LineItem{}
	for i, li := range v.LineItems {
		if li.Name == checkout.TaxLineName {
			continue
		}
		info := ci
		o.Items = append(o.Items, cart.LineItem{
			LineID:       fmt.Sprintf("L%d", i+1),
			Kind:         cart.KindSupply,
			Name:         li.Name,
			UnitPrice:    decimal.New(li.UnitAmountMinor, -2),
			Quantity:     int(li.Quantity),
			CustomerInfo: &info,
		})
	}
}

// customerFromMetadata reads any metadata tier back into billing/delivery info.
func customerFromMetadata(md map[string]string) cart.CustomerInfo {
	ci := cart.CustomerInfo{School: md["school"], Grade: md["grade"]}
	if raw := md["customer"]; raw != "" {
		var full struct {
			Billing       cart.Address  `json:"billing"`
			Delivery      *cart.Address `json:"delivery"`
			SameAsBilling bool          `json:"same_as_billing"`
		}
		if err := json.Unmarshal([]byte(raw), &full); err == nil {
			ci.Billing = &full.Billing
			ci.Delivery = full.Delivery
			if full.SameAsBilling || ci.Delivery == nil {
				ci.Delivery = &full.Billing
			}
			return ci
		}
	}
	billing := cart.Address{
		FullName:   md["b_name"],
		Email:      md["b_email"],
		Phone:      md["b_phone"],
		Address:    md["b_addr"],
		City:       md["b_city"],
		PostalCode: md["b_zip"],
	}
	ci.Billing = &billing
	if md["same"] == "false" {
		ci.Delivery = &cart.Address{FullName: md["d_name"], Address: md["d_addr"], City: md["d_city"], PostalCode: md["d_zip"]}
	} else {
		ci.Delivery = &billing
	}
	return ci
}

// publish reports a change to subscribers. Delivery is best-effort: the order is already stored.
func publish(ctx context.Context, p realtime.Publisher, typ realtime.EventType, o *Order) {
	if p == nil {
		return
	}
	e := realtime.Event{Type: typ, OrderID: o.ID.String(), Status: string(o.Status), At: time.Now().UTC()}
	if o.UserID != nil {
		uid := o.UserID.String()
		e.UserID = &uid
	}
	if err := p.Publish(ctx, e); err != nil {
		log.Printf("[realtime] publish %s %s: %v", typ, o.ID, err)
	}
}
