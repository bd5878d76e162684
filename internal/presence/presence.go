// Package presence mirrors the relay's room membership into Redis for
// external reporting. The mirror is write-only and best-effort: the relay
// never reads it back, and a failed write is logged and forgotten.
package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crewlink/relay/config"
)

const (
	peerSetTTL     = 24 * time.Hour
	connectionsKey = "relay:connections"
)

// Mirror publishes membership changes to Redis. A nil *Mirror is valid and
// does nothing, so callers do not have to branch on whether reporting is
// configured.
type Mirror struct {
	client *redis.Client
}

// Dial connects to Redis and verifies the connection.
func Dial(cfg config.RedisConfig) (*Mirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Mirror{client: client}, nil
}

// Close closes the Redis connection.
func (m *Mirror) Close() error {
	if m == nil {
		return nil
	}
	return m.client.Close()
}

// Connected bumps the connected-client count.
func (m *Mirror) Connected(ctx context.Context) {
	if m == nil {
		return
	}
	if err := m.client.Incr(ctx, connectionsKey).Err(); err != nil {
		log.Printf("presence: failed to increment connection count: %v", err)
	}
}

// Disconnected drops the connected-client count.
func (m *Mirror) Disconnected(ctx context.Context) {
	if m == nil {
		return
	}
	if err := m.client.Decr(ctx, connectionsKey).Err(); err != nil {
		log.Printf("presence: failed to decrement connection count: %v", err)
	}
}

// Joined adds identity to the room's peer set and refreshes its TTL.
func (m *Mirror) Joined(ctx context.Context, code, identity string) {
	if m == nil {
		return
	}
	key := peerSetKey(code)
	if err := m.client.SAdd(ctx, key, identity).Err(); err != nil {
		log.Printf("presence: failed to record join in room %s: %v", code, err)
		return
	}
	m.client.Expire(ctx, key, peerSetTTL)
}

// Left removes identity from the room's peer set.
func (m *Mirror) Left(ctx context.Context, code, identity string) {
	if m == nil {
		return
	}
	if err := m.client.SRem(ctx, peerSetKey(code), identity).Err(); err != nil {
		log.Printf("presence: failed to record leave in room %s: %v", code, err)
	}
}

func peerSetKey(code string) string {
	return "room:" + code + ":peers"
}
