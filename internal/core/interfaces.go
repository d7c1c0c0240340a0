// Package core defines the ports between the service layer and its adapters.
package core

import (
	"context"
	"time"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// JobRepository defines the interface for job data operations.
type JobRepository interface {
	// BulkInsert persists normalized jobs, skipping rows whose URL already
	// exists for the user. Returns the number of rows actually inserted.
	BulkInsert(ctx context.Context, jobs []*model.Job) (int, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	// ListRecent returns the newest postings across all users, for search
	// index rebuilds on process start.
	ListRecent(ctx context.Context, limit int) ([]*model.Job, error)

	// MarkSaved pins a job (saved=true, expires_at=NULL). Idempotent.
	MarkSaved(ctx context.Context, id, userID string) (*model.Job, error)
	// MarkUnsaved releases a saved job and starts its expiration clock.
	// Idempotent: an already-unsaved row keeps its existing expires_at.
	MarkUnsaved(ctx context.Context, id, userID string) (*model.Job, error)

	SetDuplicate(ctx context.Context, id string, duplicate bool) error
	SetSpamScore(ctx context.Context, params SetSpamScoreParams) error

	// DeleteExpired removes unsaved jobs whose expires_at has passed,
	// re-checking both predicates row by row inside the delete. Returns the
	// number of rows removed.
	DeleteExpired(ctx context.Context, limit int) (int, error)
	ExpirationSummary(ctx context.Context, userID string) (*model.ExpirationSummary, error)
}

// SetSpamScoreParams groups parameters for JobRepository.SetSpamScore.
type SetSpamScoreParams struct {
	JobID      string
	Score      int
	Indicators []string
}

// PreferenceRepository defines the interface for search preference data
// operations.
type PreferenceRepository interface {
	// Get returns the user's preferences, or defaults when none are stored.
	Get(ctx context.Context, userID string) (*model.SearchPreferences, error)
	Upsert(ctx context.Context, prefs *model.SearchPreferences) (*model.SearchPreferences, error)
	// ListAutoSearchUsers returns the IDs of users with scheduled ingestion
	// enabled.
	ListAutoSearchUsers(ctx context.Context) ([]string, error)
}

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	// Returns true if the key was set, false if it already existed.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// FetchRequest describes one provider query during an ingestion run.
type FetchRequest struct {
	Keywords   string
	Location   string
	MaxResults int
}

// Limit returns the effective result cap for the request.
func (r FetchRequest) Limit() int {
	if r.MaxResults <= 0 {
		return DefaultFetchLimit
	}
	return r.MaxResults
}

// DefaultFetchLimit caps how many postings a single Fetch returns when the
// request does not say otherwise.
const DefaultFetchLimit = 50

// Source is a scraping provider. Fetch returns raw postings for the query, or
// an error classified as source_unavailable (quota/auth, do not retry soon) or
// source_timeout (deadline exceeded) where the failure warrants it.
type Source interface {
	Name() model.JobSource
	Fetch(ctx context.Context, req FetchRequest) ([]model.RawPosting, error)
}

// Embedder computes a dense vector for a piece of text. Implementations may
// call out to a model service; callers always go through the embedding cache.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RateLimitDecision is the outcome of one rate limit check.
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter enforces the per-user ingestion budget over a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, userID string) (RateLimitDecision, error)
}

// EnrichmentQueue hands newly ingested job IDs to the background dedup, spam
// and indexing workers with at-least-once delivery.
type EnrichmentQueue interface {
	Publish(ctx context.Context, jobIDs ...string) error
	// Claim blocks up to the given timeout for the next job ID. A nil error
	// with an empty ID means the timeout elapsed.
	Claim(ctx context.Context, timeout time.Duration) (string, error)
	// Ack acknowledges a claimed ID. Unacked IDs are redelivered.
	Ack(ctx context.Context, jobID string) error
	// RequeueStale moves claimed-but-unacked IDs back onto the queue.
	RequeueStale(ctx context.Context) (int, error)
}
