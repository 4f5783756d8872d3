package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("catalog record not found")

// School is a school whose grade packs are sold in the storefront.
type School struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	City      string    `json:"city,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supply is one product inside a grade pack.
type Supply struct {
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Pack is the complete supply list for one school and grade, sold as a single unit.
type Pack struct {
	ID         uuid.UUID       `json:"id"`
	SchoolID   uuid.UUID       `json:"school_id"`
	SchoolName string          `json:"school_name"`
	Grade      string          `json:"grade"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Supplies   []Supply        `json:"supplies"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Electronic is a standalone device (calculator, tablet...) sold next to the packs.
type Electronic struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageURL  string          `json:"image_url,omitempty"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
