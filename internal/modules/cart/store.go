package cart

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	cart     *Cart
	lastSeen time.Time
}

// Store keeps one ephemeral cart per cart session. Nothing is persisted.
type Store struct {
	mu      sync.Mutex
	carts   map[string]*entry
	idleTTL time.Duration
	now     func() time.Time
}

// NewStore creates a store whose carts expire after idleTTL without access.
func NewStore(idleTTL time.Duration) *Store {
	return &Store{carts: make(map[string]*entry), idleTTL: idleTTL, now: time.Now}
}

// Get returns the cart of session, creating an empty one on first use.
func (s *Store) Get(session string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[session]
	if !ok {
		e = &entry{cart: New()}
		s.carts[session] = e
	}
	e.lastSeen = s.now()
	return e.cart
}

// Clear empties the cart of session. Checkout calls it once a payment session exists so a
// customer returning to an older tab does not see stale items.
func (s *Store) Clear(session string) {
	s.mu.Lock()
	e, ok := s.carts[session]
	s.mu.Unlock()
	if ok {
		e.cart.Clear()
	}
}

// Sweep drops carts idle for longer than the TTL and returns how many were removed.
func (s *Store) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.carts {
		if e.lastSeen.Before(cutoff) {
			delete(s.carts, k)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
