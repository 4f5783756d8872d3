package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// ChangesChannel is the Redis pub/sub channel shared by every API instance.
const ChangesChannel = "orders:changes"

// RedisRelay publishes events to Redis and feeds events from every instance into the local hub.
type RedisRelay struct {
	rdb   *redis.Client
	local *Hub
}

func NewRedisRelay(rdb *redis.Client, local *Hub) *RedisRelay {
	return &RedisRelay{rdb: rdb, local: local}
}

func (r *RedisRelay) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.rdb.Publish(ctx, ChangesChannel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChangesChannel, err)
	}
	return nil
}

// Run relays Redis messages to the local hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, ChangesChannel)
	defer sub.Close()
	ch := sub.Channel()

	log.Printf("[realtime] relaying %s", ChangesChannel)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Printf("[realtime] bad payload on %s: %v", ChangesChannel, err)
				continue
			}
			if err := r.local.Publish(ctx, e); err != nil {
				return
			}
		}
	}
}
