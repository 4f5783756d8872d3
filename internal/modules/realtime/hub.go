package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one websocket subscriber.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
	Admin  bool
}

// Hub owns the subscriber set. Only the Run goroutine touches clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	quit       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}

		case e := <-h.broadcast:
			data, err := json.Marshal(e)
			if err != nil {
				log.Printf("[realtime] marshal event: %v", err)
				continue
			}
			for c := range h.clients {
				if !e.visibleTo(c) {
					continue
				}
				select {
				case c.Send <- data:
				default:
					// Slow consumer: drop it, the client reconnects and refetches.
					delete(h.clients, c)
					close(c.Send)
				}
			}

		case <-h.quit:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.Send)
			}
			return
		}
	}
}

// Stop ends Run and closes every subscriber.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Publish queues e for delivery to local subscribers.
func (h *Hub) Publish(ctx context.Context, e Event) error {
	select {
	case h.broadcast <- e:
		return nil
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}
