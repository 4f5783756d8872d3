package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supply(id, price string, qty int) LineItem {
	return LineItem{ID: id, Kind: KindSupply, Name: "Item " + id, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestAddItemDoesNotMerge(t *testing.T) {
	c := New()
	first, err := c.AddItem(supply("pencil", "0.99", 2))
	require.NoError(t, err)
	second, err := c.AddItem(supply("pencil", "0.99", 1))
	require.NoError(t, err)

	assert.NotEqual(t, first.LineID, second.LineID)
	assert.Equal(t, 2, c.Len())
}

func TestUpdateQuantityFloor(t *testing.T) {
	c := New()
	li, err := c.AddItem(supply("glue", "2.50", 3))
	require.NoError(t, err)

	updated, err := c.UpdateQuantity(li.LineID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	updated, err = c.UpdateQuantity(li.LineID, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	_, err = c.UpdateQuantity("missing", 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAddItemClampsQuantity(t *testing.T) {
	c := New()
	li, err := c.AddItem(supply("ruler", "1.00", 0))
	require.NoError(t, err)
	assert.Equal(t, 1, li.Quantity)
}

func TestDecrementRemovesLastUnit(t *testing.T) {
	c := New()
	li, err := c.AddItem(supply("eraser", "0.50", 2))
	require.NoError(t, err)

	require.NoError(t, c.Decrement(li.LineID))
	assert.Equal(t, 1, c.Items()[0].Quantity)

	require.NoError(t, c.Decrement(li.LineID))
	assert.Equal(t, 0, c.Len())
}

func TestUpdateByItemIDFallsBackToFirstLine(t *testing.T) {
	c := New()
	_, _ = c.AddItem(supply("pen", "1.00", 1))
	_, _ = c.AddItem(supply("pen", "1.00", 1))

	_, err := c.UpdateQuantity("pen", 5)
	require.NoError(t, err)
	items := c.Items()
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestSubtotalIsUnrounded(t *testing.T) {
	c := New()
	_, _ = c.AddItem(supply("a", "0.333", 3))
	_, _ = c.AddItem(supply("b", "10.005", 1))

	assert.Equal(t, "11.004", c.Subtotal().String())
	assert.Equal(t, "11.00", c.View().Subtotal)
}

func TestValidateVariants(t *testing.T) {
	tests := []struct {
		name string
		item LineItem
		ok   bool
	}{
		{"supply", supply("x", "1", 1), true},
		{"unknown kind", LineItem{ID: "x", Name: "x", Kind: "gift"}, false},
		{"negative price", LineItem{ID: "x", Name: "x", Kind: KindSupply, UnitPrice: decimal.NewFromInt(-1)}, false},
		{"category on supply", LineItem{ID: "x", Name: "x", Kind: KindSupply, Category: "tablets"}, false},
		{"electronic with category", LineItem{ID: "x", Name: "x", Kind: KindElectronic, Category: "tablets"}, true},
		{"missing name", LineItem{ID: "x", Kind: KindPack}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidItem)
			}
		})
	}
}

func TestStoreClearAndSweep(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, err := s.Get("tab-1").AddItem(supply("a", "1", 1))
	require.NoError(t, err)
	s.Clear("tab-1")
	assert.Equal(t, 0, s.Get("tab-1").Len())

	s.Get("tab-2")
	now = now.Add(2 * time.Minute)
	s.Get("tab-1")
	assert.Equal(t, 1, s.Sweep())
}
