package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEnrichmentQueue hands job IDs to the background enrichment workers
// through a pair of Redis lists. Claim atomically moves an ID from the
// pending list to a processing list; Ack removes it after the worker
// finishes. IDs stranded on the processing list by a crashed worker are moved
// back by RequeueStale, giving at-least-once delivery. Consumers must be
// idempotent.
type RedisEnrichmentQueue struct {
	client     redis.UniversalClient
	pendingKey string
	claimedKey string
}

// QueueConfig holds key names for the enrichment queue.
type QueueConfig struct {
	// KeyPrefix defaults to "enrich:jobs".
	KeyPrefix string
}

// NewRedisEnrichmentQueue creates a queue backed by the given Redis client.
func NewRedisEnrichmentQueue(client redis.UniversalClient, cfg QueueConfig) *RedisEnrichmentQueue {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "enrich:jobs"
	}
	return &RedisEnrichmentQueue{
		client:     client,
		pendingKey: prefix + ":pending",
		claimedKey: prefix + ":claimed",
	}
}

// Publish pushes job IDs onto the pending list.
func (q *RedisEnrichmentQueue) Publish(ctx context.Context, jobIDs ...string) error {
	if len(jobIDs) == 0 {
		return nil
	}
	members := make([]any, 0, len(jobIDs))
	for _, id := range jobIDs {
		if id == "" {
			return errors.New("job id cannot be empty")
		}
		members = append(members, id)
	}
	if err := q.client.LPush(ctx, q.pendingKey, members...).Err(); err != nil {
		return fmt.Errorf("queue publish: %w", err)
	}
	return nil
}

// Claim blocks up to timeout for the next job ID, moving it to the claimed
// list in the same operation. An empty ID with a nil error means the timeout
// elapsed.
func (q *RedisEnrichmentQueue) Claim(ctx context.Context, timeout time.Duration) (string, error) {
	id, err := q.client.BLMove(ctx, q.pendingKey, q.claimedKey, "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("queue claim: %w", err)
	}
	return id, nil
}

// Ack removes a claimed job ID. Acking an unknown ID is a no-op.
func (q *RedisEnrichmentQueue) Ack(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New("job id cannot be empty")
	}
	if err := q.client.LRem(ctx, q.claimedKey, 1, jobID).Err(); err != nil {
		return fmt.Errorf("queue ack: %w", err)
	}
	return nil
}

// RequeueStale moves every claimed-but-unacked ID back onto the pending list.
// Called on worker startup, before any claims are in flight.
func (q *RedisEnrichmentQueue) RequeueStale(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.client.LMove(ctx, q.claimedKey, q.pendingKey, "RIGHT", "LEFT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, fmt.Errorf("queue requeue stale: %w", err)
		}
		moved++
	}
}

// Depth returns the number of pending job IDs, for metrics.
func (q *RedisEnrichmentQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.pendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return depth, nil
}
