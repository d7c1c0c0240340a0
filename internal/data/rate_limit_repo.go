package data

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobscout/jobscout/internal/core"
)

// Defaults for the ingestion budget.
const (
	DefaultRateLimitWindow = time.Hour
	DefaultRateLimitMax    = 10
)

// RateLimitConfig holds sliding-window parameters.
type RateLimitConfig struct {
	Window       time.Duration
	MaxRequests  int
	KeyPrefix    string
	TimeProvider TimeProvider
}

// RedisRateLimiter enforces a per-user sliding window using a Redis sorted
// set of request timestamps. The window slides continuously: a denied request
// is allowed again exactly when the oldest recorded request ages out.
type RedisRateLimiter struct {
	client       redis.UniversalClient
	window       time.Duration
	maxRequests  int
	keyPrefix    string
	timeProvider TimeProvider
}

// NewRedisRateLimiter creates a rate limiter backed by the given Redis client.
func NewRedisRateLimiter(client redis.UniversalClient, cfg RateLimitConfig) *RedisRateLimiter {
	window := cfg.Window
	if window <= 0 {
		window = DefaultRateLimitWindow
	}
	maxRequests := cfg.MaxRequests
	if maxRequests <= 0 {
		maxRequests = DefaultRateLimitMax
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit:scrape"
	}
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &RedisRateLimiter{
		client:       client,
		window:       window,
		maxRequests:  maxRequests,
		keyPrefix:    prefix,
		timeProvider: tp,
	}
}

// allowScript trims aged-out entries, counts the window, and records the
// attempt in one server-side step so concurrent callers cannot both observe
// the same count and overshoot the budget. Denied attempts are not recorded,
// so probing a full window does not extend the lockout.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[2]) then
	local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
	return {0, count, oldest[2]}
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1, count + 1}
`)

// Allow records one request attempt for the user and reports whether it fits
// the budget.
func (r *RedisRateLimiter) Allow(ctx context.Context, userID string) (core.RateLimitDecision, error) {
	if userID == "" {
		return core.RateLimitDecision{}, errors.New("user id cannot be empty")
	}

	key := r.keyPrefix + ":" + userID
	currentTime := r.timeProvider.Now()
	windowStart := currentTime.Add(-r.window)
	member := strconv.FormatInt(currentTime.UnixNano(), 10)

	raw, err := allowScript.Run(ctx, r.client, []string{key},
		formatScore(windowStart),
		r.maxRequests,
		formatScore(currentTime),
		member,
		r.window.Milliseconds(),
	).Slice()
	if err != nil {
		return core.RateLimitDecision{}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(raw) < 2 {
		return core.RateLimitDecision{}, fmt.Errorf("rate limit check: unexpected reply of %d elements", len(raw))
	}

	allowed, _ := raw[0].(int64)
	count, _ := raw[1].(int64)
	if allowed == 1 {
		return core.RateLimitDecision{
			Allowed:   true,
			Remaining: r.maxRequests - int(count),
		}, nil
	}

	return core.RateLimitDecision{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: r.retryAfter(raw, currentTime),
	}, nil
}

// retryAfter computes how long until the oldest in-window request ages out,
// from the oldest entry's score returned by allowScript.
func (r *RedisRateLimiter) retryAfter(raw []interface{}, now time.Time) time.Duration {
	if len(raw) < 3 {
		return time.Second
	}
	scoreStr, ok := raw[2].(string)
	if !ok {
		return time.Second
	}
	score, err := strconv.ParseInt(scoreStr, 10, 64)
	if err != nil {
		return time.Second
	}

	retryAfter := time.UnixMilli(score).Add(r.window).Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return retryAfter
}

// Scores are unix milliseconds; member uniqueness comes from nanosecond
// timestamps.
func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
