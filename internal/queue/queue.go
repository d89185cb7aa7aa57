package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"odras.app/odras/internal/events"
)

// Queue is the FIFO handoff between capture (many producers) and the
// background worker (one consumer).
type Queue interface {
	// Push appends the event to the tail of the queue. Safe to call
	// concurrently; never blocks on consumer progress.
	Push(ctx context.Context, evt *events.Event) error
	// BlockingPop removes the head of the queue, blocking up to timeout.
	// Returns (nil, nil) when the queue is empty.
	BlockingPop(ctx context.Context, timeout time.Duration) (*events.Event, error)
	// Depth reports the number of queued events.
	Depth(ctx context.Context) (int64, error)
}

// RedisQueue backs the event queue with a Redis list (RPUSH/BLPOP).
// Pop atomicity comes from Redis itself; the queue holds no locks.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func NewRedisQueue(client *redis.Client, key string, logger *slog.Logger) *RedisQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisQueue{
		client: client,
		key:    key,
		logger: logger,
	}
}

func (q *RedisQueue) Push(ctx context.Context, evt *events.Event) error {
	data, err := evt.Encode()
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("pushing event %s: %w", evt.EventID, err)
	}
	q.logger.DebugContext(ctx, "event queued",
		"event_id", evt.EventID,
		"event_type", evt.EventType,
		"queue", q.key)
	return nil
}

func (q *RedisQueue) BlockingPop(ctx context.Context, timeout time.Duration) (*events.Event, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("popping from %s: %w", q.key, err)
	}
	// BLPop returns [key, value].
	if len(res) < 2 {
		return nil, nil
	}

	evt, err := events.Decode([]byte(res[1]))
	if err != nil {
		// A malformed payload is dropped, not redelivered: returning an
		// error here would make the worker back off and retry forever.
		q.logger.ErrorContext(ctx, "dropping undecodable event",
			"error", err,
			"queue", q.key)
		return nil, nil
	}
	return evt, nil
}

func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("reading queue depth: %w", err)
	}
	return depth, nil
}
