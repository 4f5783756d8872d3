package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotTTL outlives the 24h expiry of a Stripe Checkout Session plus the webhook retry window.
const SnapshotTTL = 48 * time.Hour

// SnapshotStore keeps checkout snapshots keyed by payment session id.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot, ttl time.Duration) error
	// Load returns ErrSnapshotNotFound when the snapshot expired or never existed.
	Load(ctx context.Context, sessionID string) (*Snapshot, error)
}

// ── Redis ─────────────────────────────────────────────────────────────────────

type redisSnapshotStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisSnapshotStore(rdb *redis.Client) SnapshotStore {
	return &redisSnapshotStore{rdb: rdb, prefix: "checkout:snapshot:"}
}

func (s *redisSnapshotStore) Save(ctx context.Context, snap Snapshot, ttl time.Duration) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+snap.SessionID, b, ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.SessionID, err)
	}
	return nil
}

func (s *redisSnapshotStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	b, err := s.rdb.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", sessionID, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", sessionID, err)
	}
	return &snap, nil
}

// ── In-memory ─────────────────────────────────────────────────────────────────

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// MemorySnapshotStore is the single-instance fallback used when no Redis is configured.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]memoryEntry
	now   func() time.Time
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snaps: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemorySnapshotStore) Save(_ context.Context, snap Snapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.SessionID] = memoryEntry{snap: snap, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemorySnapshotStore) Load(_ context.Context, sessionID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.snaps[sessionID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	if s.now().After(e.expiresAt) {
		delete(s.snaps, sessionID)
		return nil, ErrSnapshotNotFound
	}
	snap := e.snap
	return &snap, nil
}
