package checkout

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/cart"
)

// DefaultMetadataLimit is the serialized size ceiling of the payment session metadata.
const DefaultMetadataLimit = 500

// MinMetadataLimit is the size of the untruncatable keys alone:
// {"same":"false","user_id":"<uuid>"}. Smaller limits are raised to it.
const MinMetadataLimit = 65

// Tier names the representation BuildMetadata settled on.
type Tier string

const (
	TierFull      Tier = "full"
	TierCompact   Tier = "compact"
	TierMinimal   Tier = "minimal"
	TierTruncated Tier = "truncated"
)

// Metadata is the flat key/value map attached to a payment session.
type Metadata map[string]string

// Size is the byte length of the JSON encoding of m. encoding/json sorts map keys.
func (m Metadata) Size() int {
	b, _ := json.Marshal(map[string]string(m))
	return len(b)
}

// MetadataInput is everything the metadata is built from.
type MetadataInput struct {
	UserID   string
	School   string
	Grade    string
	Customer Context
}

// BuildMetadata returns the richest representation of in whose Size fits limit:
//
//	full      user_id, school, grade and customer (JSON of billing/delivery)
//	compact   b_name b_email b_phone b_addr b_city b_zip same, d_name d_addr d_city d_zip when same=false
//	minimal   compact without street and postal fields
//	truncated minimal with the longest value cut until it fits (ties: smallest key first)
//
// Empty values are omitted at every tier. user_id and same are never truncated.
func BuildMetadata(in MetadataInput, limit int) (Metadata, Tier) {
	if limit <= 0 {
		limit = DefaultMetadataLimit
	}
	if limit < MinMetadataLimit {
		limit = MinMetadataLimit
	}
	if m := fullMetadata(in); m.Size() <= limit {
		return m, TierFull
	}
	if m := compactMetadata(in); m.Size() <= limit {
		return m, TierCompact
	}
	m := minimalMetadata(in)
	if m.Size() <= limit {
		return m, TierMinimal
	}
	truncate(m, limit)
	return m, TierTruncated
}

func (m Metadata) set(key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		m[key] = v
	}
}

func baseMetadata(in MetadataInput) Metadata {
	m := Metadata{}
	m.set("user_id", in.UserID)
	m.set("school", in.School)
	m.set("grade", in.Grade)
	return m
}

func fullMetadata(in MetadataInput) Metadata {
	m := baseMetadata(in)
	customer := struct {
		Billing       cart.Address  `json:"billing"`
		Delivery      *cart.Address `json:"delivery,omitempty"`
		SameAsBilling bool          `json:"same_as_billing"`
	}{Billing: in.Customer.Billing, SameAsBilling: in.Customer.SameAsBilling}
	if !in.Customer.SameAsBilling {
		d := in.Customer.Delivery
		customer.Delivery = &d
	}
	b, _ := json.Marshal(customer)
	m.set("customer", string(b))
	return m
}

func compactMetadata(in MetadataInput) Metadata {
	m := baseMetadata(in)
	b, d := in.Customer.Billing, in.Customer.Delivery
	m.set("b_name", b.FullName)
	m.set("b_email", b.Email)
	m.set("b_phone", b.Phone)
	m.set("b_addr", b.Address)
	m.set("b_city", b.City)
	m.set("b_zip", b.PostalCode)
	m.set("same", strconv.FormatBool(in.Customer.SameAsBilling))
	if !in.Customer.SameAsBilling {
		m.set("d_name", d.FullName)
		m.set("d_addr", d.Address)
		m.set("d_city", d.City)
		m.set("d_zip", d.PostalCode)
	}
	return m
}

func minimalMetadata(in MetadataInput) Metadata {
	m := baseMetadata(in)
	b := in.Customer.Billing
	m.set("b_name", b.FullName)
	m.set("b_email", b.Email)
	m.set("b_phone", b.Phone)
	m.set("b_city", b.City)
	m.set("same", strconv.FormatBool(in.Customer.SameAsBilling))
	if !in.Customer.SameAsBilling {
		m.set("d_city", in.Customer.Delivery.City)
	}
	return m
}

var untruncatable = map[string]bool{"user_id": true, "same": true}

func truncate(m Metadata, limit int) {
	for {
		over := m.Size() - limit
		if over <= 0 {
			return
		}
		key := longestKey(m)
		if key == "" {
			return
		}
		r := []rune(m[key])
		if over >= len(r) {
			delete(m, key)
			continue
		}
		m[key] = string(r[:len(r)-over])
	}
}

func longestKey(m Metadata) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if !untruncatable[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	best, bestLen := "", 0
	for _, k := range keys {
		if n := len([]rune(m[k])); n > bestLen {
			best, bestLen = k, n
		}
	}
	return best
}
