package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/harshkumar07/Collab-Board/internal/protocol"
)

// RedisLog is the Redis-backed event log: one ordered list per room.
// It owns no in-memory state; room identity lives in the key.
type RedisLog struct {
	client *redis.Client
}

// NewRedisLog wraps a connected Redis client
func NewRedisLog(client *redis.Client) *RedisLog {
	return &RedisLog{client: client}
}

// NewClient connects to Redis and verifies connectivity
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// eventsKey derives the log key from room identity
func eventsKey(roomID string) string {
	return fmt.Sprintf("room:%s:events", roomID)
}

// Append adds an event to the end of the room's ordered log
func (l *RedisLog) Append(ctx context.Context, roomID string, ev protocol.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event for room %s: %w", roomID, err)
	}
	if err := l.client.RPush(ctx, eventsKey(roomID), data).Err(); err != nil {
		return fmt.Errorf("append event for room %s: %w", roomID, err)
	}
	return nil
}

// ReadAll returns the full ordered event sequence, oldest first.
// Entries that no longer unmarshal are skipped with a warning.
func (l *RedisLog) ReadAll(ctx context.Context, roomID string) ([]protocol.Event, error) {
	raw, err := l.client.LRange(ctx, eventsKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read events for room %s: %w", roomID, err)
	}

	events := make([]protocol.Event, 0, len(raw))
	for _, item := range raw {
		var ev protocol.Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "store",
				"room_id":   roomID,
			}).WithError(err).Warn("Skipping undecodable event in log")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// ArmExpiry starts the countdown after which the whole log is discarded
func (l *RedisLog) ArmExpiry(ctx context.Context, roomID string, ttl time.Duration) error {
	if err := l.client.Expire(ctx, eventsKey(roomID), ttl).Err(); err != nil {
		return fmt.Errorf("arm expiry for room %s: %w", roomID, err)
	}
	return nil
}

// DisarmExpiry clears any pending countdown, keeping the log until it is
// explicitly deleted. No-op if none is pending.
func (l *RedisLog) DisarmExpiry(ctx context.Context, roomID string) error {
	if err := l.client.Persist(ctx, eventsKey(roomID)).Err(); err != nil {
		return fmt.Errorf("disarm expiry for room %s: %w", roomID, err)
	}
	return nil
}

// DeleteAll removes the room's log immediately, regardless of any TTL state
func (l *RedisLog) DeleteAll(ctx context.Context, roomID string) error {
	if err := l.client.Del(ctx, eventsKey(roomID)).Err(); err != nil {
		return fmt.Errorf("delete events for room %s: %w", roomID, err)
	}
	return nil
}
