package collab

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence records which planners are currently editing a layout so
// the wider application can show "being edited" badges without joining
// the room.  Best effort only; the room never depends on it.
type Presence interface {
	Set(ctx context.Context, layoutID uint64, userID string)
	Clear(ctx context.Context, layoutID uint64, userID string)
}

// RedisPresence keeps one short-TTL key per (layout, user).  The TTL
// covers crashed processes: a key whose room died simply expires.
type RedisPresence struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPresence builds a RedisPresence; ttl <= 0 defaults to a
// minute, comfortably above the socket ping period.
func NewRedisPresence(rdb *redis.Client, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisPresence{rdb: rdb, ttl: ttl}
}

func presenceKey(layoutID uint64, userID string) string {
	return fmt.Sprintf("presence:%d:%s", layoutID, userID)
}

// Set marks a user present on a layout.
func (p *RedisPresence) Set(ctx context.Context, layoutID uint64, userID string) {
	if err := p.rdb.Set(ctx, presenceKey(layoutID, userID), "1", p.ttl).Err(); err != nil {
		log.Printf("presence: set failed: %v", err)
	}
}

// Clear removes a user's presence mark.
func (p *RedisPresence) Clear(ctx context.Context, layoutID uint64, userID string) {
	if err := p.rdb.Del(ctx, presenceKey(layoutID, userID)).Err(); err != nil {
		log.Printf("presence: clear failed: %v", err)
	}
}
