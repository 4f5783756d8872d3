package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
	"github.com/georgemunganga/schoolpack-backend/internal/modules/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billing() cart.Address {
	return cart.Address{
		FullName:   "Ana Ruiz",
		Email:      "ana@example.com",
		Phone:      "555-0100",
		Address:    "12 Oak St",
		City:       "Austin",
		PostalCode: "73301",
	}
}

func TestTotal(t *testing.T) {
	total := Total(decimal.RequireFromString("100.00"))
	assert.True(t, total.Equal(decimal.RequireFromString("108.75")))
	assert.Equal(t, "108.75", total.StringFixed(2))

	// Rounding happens at display only.
	total = Total(decimal.RequireFromString("10.01"))
	assert.Equal(t, "10.885875", total.String())
	assert.Equal(t, "10.89", total.StringFixed(2))
}

func TestValidateDeliveryFields(t *testing.T) {
	full := cart.Address{FullName: "Luis", Address: "9 Elm St", City: "Dallas", PostalCode: "75001"}
	tests := []struct {
		name   string
		mutate func(*cart.Address)
		field  string
	}{
		{"full name", func(a *cart.Address) { a.FullName = "" }, "delivery.full_name"},
		{"address", func(a *cart.Address) { a.Address = " " }, "delivery.address"},
		{"city", func(a *cart.Address) { a.City = "" }, "delivery.city"},
		{"postal code", func(a *cart.Address) { a.PostalCode = "" }, "delivery.postal_code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := full
			tt.mutate(&d)
			err := Context{Billing: billing(), Delivery: d}.Validate()

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []string{tt.field}, verr.Fields)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.NoError(t, Context{Billing: billing(), Delivery: full}.Validate())
	assert.NoError(t, Context{Billing: billing(), SameAsBilling: true}.Validate())
}

func TestValidateBillingFields(t *testing.T) {
	err := Context{SameAsBilling: true}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 6)
}

func TestExtractSchoolGrade(t *testing.T) {
	tests := []struct {
		name   string
		items  []cart.LineItem
		school string
		grade  string
	}{
		{
			name: "explicit attributes beat the name",
			items: []cart.LineItem{{
				Name:   "Pack - 5th - Roosevelt Middle",
				School: "Lincoln Elementary",
				Grade:  "3rd",
			}},
			school: "Lincoln Elementary",
			grade:  "3rd",
		},
		{
			name: "customer info",
			items: []cart.LineItem{{
				Name:         "Crayons",
				CustomerInfo: &cart.CustomerInfo{School: "Jefferson", Grade: "K"},
			}},
			school: "Jefferson",
			grade:  "K",
		},
		{
			name:   "parsed name",
			items:  []cart.LineItem{{Name: "Pack - Grade 4 - Washington Academy"}},
			school: "Washington Academy",
			grade:  "Grade 4",
		},
		{
			name:   "spanish grade token",
			items:  []cart.LineItem{{Name: "Pack - Grado 2 - Colegio Central"}},
			school: "Colegio Central",
			grade:  "Grado 2",
		},
		{
			name:   "kindergarten range",
			items:  []cart.LineItem{{Name: "Pack - K-5 - Hillside"}},
			school: "Hillside",
			grade:  "K-5",
		},
		{
			name:  "grade without segments",
			items: []cart.LineItem{{Name: "Notebook bundle 2nd grade"}},
			grade: "2nd",
		},
		{
			name: "first item with a match wins",
			items: []cart.LineItem{
				{Name: "Glue stick"},
				{Name: "Pack - 1st - Oak Park"},
				{School: "Other", Grade: "6th", Name: "x"},
			},
			school: "Oak Park",
			grade:  "1st",
		},
		{
			name:  "nothing matches",
			items: []cart.LineItem{{Name: "Scissors"}, {Name: "Backpack blue"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			school, grade := ExtractSchoolGrade(tt.items)
			assert.Equal(t, tt.school, school)
			assert.Equal(t, tt.grade, grade)
		})
	}
}

func metadataInput() MetadataInput {
	return MetadataInput{
		UserID:   "u1",
		School:   "Lincoln",
		Grade:    "3rd",
		Customer: Context{Billing: billing(), SameAsBilling: true},
	}
}

func TestBuildMetadataTiers(t *testing.T) {
	m, tier := BuildMetadata(metadataInput(), 500)
	assert.Equal(t, TierFull, tier)
	assert.Equal(t, 255, m.Size())
	assert.Equal(t,
		`{"billing":{"full_name":"Ana Ruiz","email":"ana@example.com","phone":"555-0100","address":"12 Oak St","city":"Austin","postal_code":"73301"},"same_as_billing":true}`,
		m["customer"])

	m, tier = BuildMetadata(metadataInput(), 200)
	assert.Equal(t, TierCompact, tier)
	assert.Equal(t, Metadata{
		"user_id": "u1", "school": "Lincoln", "grade": "3rd",
		"b_name": "Ana Ruiz", "b_email": "ana@example.com", "b_phone": "555-0100",
		"b_addr": "12 Oak St", "b_city": "Austin", "b_zip": "73301", "same": "true",
	}, m)

	m, tier = BuildMetadata(metadataInput(), 160)
	assert.Equal(t, TierMinimal, tier)
	assert.Equal(t, Metadata{
		"user_id": "u1", "school": "Lincoln", "grade": "3rd",
		"b_name": "Ana Ruiz", "b_email": "ana@example.com", "b_phone": "555-0100",
		"b_city": "Austin", "same": "true",
	}, m)

	m, tier = BuildMetadata(metadataInput(), 120)
	assert.Equal(t, TierTruncated, tier)
	assert.Equal(t, Metadata{
		"user_id": "u1", "school": "Lincoln", "grade": "3rd",
		"b_name": "Ana Ru", "b_phone": "555-0100", "b_city": "Austin", "same": "true",
	}, m)
	assert.Equal(t, 120, m.Size())
}

func TestBuildMetadataLongAddresses(t *testing.T) {
	in := metadataInput()
	in.Customer.SameAsBilling = false
	in.Customer.Billing.Address = strings.Repeat("Long Street Name ", 40)
	in.Customer.Delivery = cart.Address{FullName: "Luis", Address: strings.Repeat("Avenue ", 80), City: "Dallas", PostalCode: "75001"}

	m, tier := BuildMetadata(in, DefaultMetadataLimit)
	assert.Equal(t, TierMinimal, tier)
	assert.Equal(t, "Dallas", m["d_city"])
	assert.NotContains(t, m, "b_addr")
	assert.NotContains(t, m, "d_addr")
	assert.LessOrEqual(t, m.Size(), DefaultMetadataLimit)

	in.Customer.Billing.City = strings.Repeat("Very Long City ", 60)
	first, tier := BuildMetadata(in, DefaultMetadataLimit)
	assert.Equal(t, TierTruncated, tier)
	assert.LessOrEqual(t, first.Size(), DefaultMetadataLimit)
	assert.Equal(t, "u1", first["user_id"])
	assert.Equal(t, "false", first["same"])

	second, _ := BuildMetadata(in, DefaultMetadataLimit)
	assert.Equal(t, first, second)
}

func TestBuildMetadataLimitFloor(t *testing.T) {
	in := metadataInput()
	in.UserID = uuid.NewString()
	in.Customer.SameAsBilling = false

	for _, limit := range []int{1, 20, MinMetadataLimit} {
		m, tier := BuildMetadata(in, limit)
		assert.Equal(t, TierTruncated, tier)
		assert.LessOrEqual(t, m.Size(), MinMetadataLimit)
		assert.Equal(t, in.UserID, m["user_id"])
		assert.Equal(t, "false", m["same"])
	}

	svc := NewService(nil, nil, nil, Options{MetadataLimit: 20}).(*service)
	assert.Equal(t, MinMetadataLimit, svc.opts.MetadataLimit)
}

type fakeGateway struct {
	calls []payment.SessionRequest
	resp  *payment.SessionResponse
	err   error
}

func (g *fakeGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.SessionResponse, error) {
	g.calls = append(g.calls, req)
	return g.resp, g.err
}

func (g *fakeGateway) VerifySession(context.Context, string) (*payment.Verification, error) {
	return nil, errors.New("not used")
}

type fixture struct {
	svc       Service
	carts     cart.Service
	gateway   *fakeGateway
	snapshots *payment.MemorySnapshotStore
	identity  *auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := cart.NewStore(time.Hour)
	f := &fixture{
		carts:     cart.NewService(store, nil),
		gateway:   &fakeGateway{resp: &payment.SessionResponse{SessionID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}},
		snapshots: payment.NewMemorySnapshotStore(),
		identity:  &auth.Identity{UserID: uuid.New(), Role: auth.RoleCustomer},
	}
	f.svc = NewService(f.carts, f.gateway, f.snapshots, Options{BaseURL: "https://shop.example/", Currency: "usd"})

	_, err := store.Get("tab").AddItem(cart.LineItem{
		ID: "pack-1", Kind: cart.KindPack, Name: "Pack - 3rd - Lincoln Elementary",
		UnitPrice: decimal.RequireFromString("45.90"), Quantity: 2,
		School: "Lincoln Elementary", Grade: "3rd",
	})
	require.NoError(t, err)
	_, err = store.Get("tab").AddItem(cart.LineItem{
		ID: "eraser", Kind: cart.KindSupply, Name: "Eraser",
		UnitPrice: decimal.RequireFromString("0.335"), Quantity: 3,
	})
	require.NoError(t, err)
	return f
}

func TestInitiateCreatesSession(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.Initiate(context.Background(), f.identity, "tab", Context{Billing: billing(), SameAsBilling: true})
	require.NoError(t, err)

	assert.Equal(t, "top", session.Redirect)
	assert.Equal(t, "cs_test_1", session.SessionID)
	assert.Equal(t, "100.93", session.Total)

	require.Len(t, f.gateway.calls, 1)
	req := f.gateway.calls[0]
	assert.Equal(t, "https://shop.example/payment-success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://shop.example/payment-canceled", req.CancelURL)
	assert.Equal(t, f.identity.UserID.String(), req.ClientReference)
	assert.Equal(t, []payment.LineItem{
		{Name: "Pack - 3rd - Lincoln Elementary", UnitAmountMinor: 4590, Quantity: 2},
		{Name: "Eraser", UnitAmountMinor: 34, Quantity: 3},
		{Name: TaxLineName, UnitAmountMinor: 811, Quantity: 1},
	}, req.LineItems)
	assert.Equal(t, "Lincoln Elementary", req.Metadata["school"])

	var charged int64
	for _, li := range req.LineItems {
		charged += li.UnitAmountMinor * li.Quantity
	}
	assert.Equal(t, int64(10093), charged)

	assert.Empty(t, f.carts.Items("tab"))

	snap, err := f.snapshots.Load(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "3rd", snap.Grade)
	require.Len(t, snap.Items, 2)
	require.NotNil(t, snap.Items[1].CustomerInfo)
	assert.Equal(t, "Austin", snap.Items[1].CustomerInfo.Delivery.City)
}

func TestInitiateValidationMakesNoGatewayCall(t *testing.T) {
	f := newFixture(t)
	in := Context{
		Billing:  billing(),
		Delivery: cart.Address{FullName: "Luis", Address: "9 Elm St", City: "", PostalCode: "75001"},
	}

	_, err := f.svc.Initiate(context.Background(), f.identity, "tab", in)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.gateway.calls)
	assert.Len(t, f.carts.Items("tab"), 2)
}

func TestInitiateRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Initiate(context.Background(), nil, "tab", Context{Billing: billing(), SameAsBilling: true})
	assert.ErrorIs(t, err, auth.ErrAuthenticationRequired)
	assert.Empty(t, f.gateway.calls)
}

func TestInitiateEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Initiate(context.Background(), f.identity, "other-tab", Context{Billing: billing(), SameAsBilling: true})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, f.gateway.calls)
}

func TestInitiateGatewayFailureKeepsCart(t *testing.T) {
	tests := []struct {
		name string
		resp *payment.SessionResponse
		err  error
	}{
		{"processor error", nil, errors.New("card_declined")},
		{"missing url", &payment.SessionResponse{SessionID: "cs_test_2"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gateway.resp, f.gateway.err = tt.resp, tt.err

			_, err := f.svc.Initiate(context.Background(), f.identity, "tab", Context{Billing: billing(), SameAsBilling: true})
			assert.ErrorIs(t, err, ErrPaymentSession)
			assert.Len(t, f.carts.Items("tab"), 2)
		})
	}
}
