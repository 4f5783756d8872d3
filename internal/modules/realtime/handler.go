package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler upgrades authenticated requests to order-change subscriptions.
type Handler struct {
	hub      *Hub
	auth     auth.Service
	upgrader websocket.Upgrader
}

// NewHandler accepts browser websocket origins listed in allowedOrigins. Requests without an
// Origin header come from non-browser clients and are accepted.
func NewHandler(hub *Hub, authService auth.Service, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:  hub,
		auth: authService,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	// Browsers cannot set headers on websocket requests; auth.Required also reads ?token=.
	r.With(auth.Required(h.auth)).Get("/api/v1/orders/changes", h.subscribe)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	err := h.auth.VerifyAdmin(r.Context(), id)
	if err != nil && !errors.Is(err, auth.ErrForbidden) {
		log.Printf("[realtime] admin check for %s: %v", id.UserID, err)
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	admin := err == nil

	// Register before the handshake completes so no event published after it is missed.
	client := &Client{
		Send:   make(chan []byte, 64),
		UserID: id.UserID.String(),
		Admin:  admin,
	}
	if err := h.hub.Register(client); err != nil {
		respond(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[realtime] upgrade: %v", err)
		h.hub.Unregister(client)
		return
	}
	client.Conn = conn
	go writePump(client)
	go readPump(client, h.hub)
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for disconnects; subscribers never send data.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
