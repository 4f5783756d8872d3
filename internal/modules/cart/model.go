package cart

import (
	"errors"
	"fmt"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/catalog"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("cart item not found")
	ErrInvalidItem  = errors.New("invalid cart item")
)

// Kind tags the variant of a line item.
type Kind string

const (
	KindSupply     Kind = "supply"
	KindPack       Kind = "pack"
	KindElectronic Kind = "electronic"
)

// Address is a billing or delivery address.
type Address struct {
	FullName   string `json:"full_name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// CustomerInfo is the customer context stamped on a line item. Older clients send school/grade here
// instead of on the item itself; checkout stamps billing/delivery when the order snapshot is taken.
type CustomerInfo struct {
	School   string   `json:"school,omitempty"`
	Grade    string   `json:"grade,omitempty"`
	Billing  *Address `json:"billing,omitempty"`
	Delivery *Address `json:"delivery,omitempty"`
}

// LineItem is one entry of a cart. Kind selects which optional payload is meaningful:
// Supplies for packs, Category for electronics, PackID for a single supply taken from a pack.
type LineItem struct {
	LineID       string           `json:"line_id"`
	ID           string           `json:"id"`
	PackID       string           `json:"pack_id,omitempty"`
	Kind         Kind             `json:"kind"`
	Name         string           `json:"name"`
	Brand        string           `json:"brand,omitempty"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	Quantity     int              `json:"quantity"`
	School       string           `json:"school,omitempty"`
	Grade        string           `json:"grade,omitempty"`
	Supplies     []catalog.Supply `json:"supplies,omitempty"`
	Category     string           `json:"category,omitempty"`
	CustomerInfo *CustomerInfo    `json:"customer_info,omitempty"`
}

// LineTotal is UnitPrice × Quantity, unrounded.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Validate checks the variant invariants of the item.
func (li LineItem) Validate() error {
	switch li.Kind {
	case KindSupply, KindPack, KindElectronic:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidItem, li.Kind)
	}
	if li.ID == "" || li.Name == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidItem)
	}
	if li.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must be >= 0", ErrInvalidItem)
	}
	if li.Kind != KindPack && len(li.Supplies) > 0 {
		return fmt.Errorf("%w: only packs carry supplies", ErrInvalidItem)
	}
	if li.Kind != KindElectronic && li.Category != "" {
		return fmt.Errorf("%w: only electronics carry a category", ErrInvalidItem)
	}
	return nil
}

// View is the JSON shape of a cart.
type View struct {
	Items    []LineItem `json:"items"`
	Count    int        `json:"count"`
	Subtotal string     `json:"subtotal"`
}
