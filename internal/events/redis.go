package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/safar/delivery-admin/internal/board"
)

// redisAPI is the part of *redis.Client the publisher needs.
type redisAPI interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Close() error
}

// RedisPublisher announces moves on a pub/sub channel and keeps the newest
// entries in a capped list for the audit view.
type RedisPublisher struct {
	rdb      redisAPI
	channel  string
	auditKey string
	entries  int64
}

// DialRedis parses redisURL, checks the connection and returns a publisher.
func DialRedis(ctx context.Context, redisURL, channel, auditKey string, entries int64) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisPublisher(rdb, channel, auditKey, entries), nil
}

func newRedisPublisher(rdb redisAPI, channel, auditKey string, entries int64) *RedisPublisher {
	if entries < 1 {
		entries = 1
	}
	return &RedisPublisher{rdb: rdb, channel: channel, auditKey: auditKey, entries: entries}
}

func (p *RedisPublisher) Publish(ctx context.Context, e board.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal move event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish move event: %w", err)
	}
	if err := p.rdb.LPush(ctx, p.auditKey, payload).Err(); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	if err := p.rdb.LTrim(ctx, p.auditKey, 0, p.entries-1).Err(); err != nil {
		return fmt.Errorf("trim audit list: %w", err)
	}
	return nil
}

// Recent returns up to n audit entries, newest first.
func (p *RedisPublisher) Recent(ctx context.Context, n int) ([]board.Event, error) {
	if n <= 0 {
		return []board.Event{}, nil
	}

	vals, err := p.rdb.LRange(ctx, p.auditKey, 0, int64(n)-1).Result()
	if err != nil {
		if err == redis.Nil {
			return []board.Event{}, nil
		}
		return nil, fmt.Errorf("read audit list: %w", err)
	}

	out := make([]board.Event, 0, len(vals))
	for _, v := range vals {
		var e board.Event
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("unmarshal audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
