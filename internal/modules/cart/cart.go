package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Cart is an ordered collection of line items. It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	items []LineItem
	seq   int
}

func New() *Cart { return &Cart{} }

// AddItem appends item as a new line, even when a line with the same ID exists.
// Quantity below 1 is stored as 1.
func (c *Cart) AddItem(item LineItem) (LineItem, error) {
	if err := item.Validate(); err != nil {
		return LineItem{}, err
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	item.LineID = fmt.Sprintf("L%d", c.seq)
	c.items = append(c.items, item)
	return item, nil
}

// find returns the index of the line keyed by id: LineID first, then the first line with that item ID.
func (c *Cart) find(id string) int {
	for i := range c.items {
		if c.items[i].LineID == id {
			return i
		}
	}
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// UpdateQuantity sets the quantity of a line, with a floor of 1.
func (c *Cart) UpdateQuantity(id string, quantity int) (LineItem, error) {
	if quantity < 1 {
		quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(id)
	if i < 0 {
		return LineItem{}, ErrItemNotFound
	}
	c.items[i].Quantity = quantity
	return c.items[i], nil
}

// Decrement removes one unit; taking away the last unit removes the line.
func (c *Cart) Decrement(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(id)
	if i < 0 {
		return ErrItemNotFound
	}
	if c.items[i].Quantity <= 1 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return nil
	}
	c.items[i].Quantity--
	return nil
}

func (c *Cart) RemoveItem(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(id)
	if i < 0 {
		return ErrItemNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Subtotal sums UnitPrice × Quantity without intermediate rounding.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Subtotal(c.items)
}

// Subtotal sums the line totals of items without intermediate rounding.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}

func (c *Cart) View() View {
	items := c.Items()
	return View{Items: items, Count: len(items), Subtotal: Subtotal(items).StringFixed(2)}
}
