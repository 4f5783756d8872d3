package realtime

import (
	"context"
	"errors"
	"time"
)

var ErrHubStopped = errors.New("realtime hub stopped")

// EventType mirrors the row operation that changed an order.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event tells subscribers that an order changed. It is a refetch signal, not a replica of the row.
// UserID is nil for guest orders, which only admins see.
type Event struct {
	Type    EventType `json:"type"`
	OrderID string    `json:"order_id"`
	UserID  *string   `json:"user_id,omitempty"`
	Status  string    `json:"status,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher fans an order change out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// visibleTo reports whether a subscriber may receive e.
func (e Event) visibleTo(c *Client) bool {
	return c.Admin || (e.UserID != nil && *e.UserID == c.UserID)
}
