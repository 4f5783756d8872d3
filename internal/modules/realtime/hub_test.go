package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/georgemunganga/schoolpack-backend/internal/modules/auth"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var e Event
		require.NoError(t, json.Unmarshal(data, &e))
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected event %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubScopesEventsByUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	alice := &Client{Send: make(chan []byte, 8), UserID: "alice"}
	bob := &Client{Send: make(chan []byte, 8), UserID: "bob"}
	admin := &Client{Send: make(chan []byte, 8), UserID: "root", Admin: true}
	for _, c := range []*Client{alice, bob, admin} {
		require.NoError(t, hub.Register(c))
	}

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, Event{Type: EventUpdate, OrderID: "o1", UserID: strPtr("alice"), Status: "procesando"}))

	assert.Equal(t, "o1", receive(t, alice).OrderID)
	assert.Equal(t, "o1", receive(t, admin).OrderID)
	assertNothing(t, bob)

	// Guest orders reach admins only.
	require.NoError(t, hub.Publish(ctx, Event{Type: EventInsert, OrderID: "o2"}))
	assert.Equal(t, EventInsert, receive(t, admin).Type)
	assertNothing(t, alice)
	assertNothing(t, bob)
}

func TestHubUnregisterAndStop(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := &Client{Send: make(chan []byte, 1), Admin: true}
	require.NoError(t, hub.Register(c))
	hub.Unregister(c)

	_, open := <-c.Send
	assert.False(t, open)

	hub.Stop()
	assert.ErrorIs(t, hub.Publish(context.Background(), Event{}), ErrHubStopped)
	assert.ErrorIs(t, hub.Register(&Client{Send: make(chan []byte)}), ErrHubStopped)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Send: make(chan []byte), Admin: true}
	require.NoError(t, hub.Register(slow))
	require.NoError(t, hub.Publish(context.Background(), Event{Type: EventDelete, OrderID: "o1"}))

	select {
	case _, open := <-slow.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("slow client was not dropped")
	}
}

type fakeAuth struct {
	users  map[string]uuid.UUID
	admins map[uuid.UUID]bool
}

func (f *fakeAuth) Login(context.Context, string, string) (string, error) { return "", nil }

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*auth.Identity, error) {
	id, ok := f.users[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{UserID: id}, nil
}

func (f *fakeAuth) VerifyAdmin(_ context.Context, id *auth.Identity) error {
	if id == nil || !f.admins[id.UserID] {
		return auth.ErrForbidden
	}
	return nil
}

func TestWebsocketSubscription(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	userID := uuid.New()
	authSvc := &fakeAuth{users: map[string]uuid.UUID{"tok": userID}}
	router := chi.NewRouter()
	NewHandler(hub, authSvc, []string{"https://shop.example"}).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/orders/changes"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=tok", nil)
	require.NoError(t, err)
	defer conn.Close()

	owner := userID.String()
	require.NoError(t, hub.Publish(context.Background(), Event{Type: EventInsert, OrderID: "other", UserID: strPtr("someone-else")}))
	require.NoError(t, hub.Publish(context.Background(), Event{Type: EventUpdate, OrderID: "o9", UserID: &owner}))

	var got Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "o9", got.OrderID)
}

func TestWebsocketChecksOrigin(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	authSvc := &fakeAuth{users: map[string]uuid.UUID{"tok": uuid.New()}}
	router := chi.NewRouter()
	NewHandler(hub, authSvc, []string{"https://shop.example"}).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/orders/changes?token=tok"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://shop.example"}})
	require.NoError(t, err)
	conn.Close()
}
