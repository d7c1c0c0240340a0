package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/dedup"
	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/domain/spam"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/search"
)

const (
	defaultEnrichWorkers  = 2
	defaultClaimTimeout   = 5 * time.Second
	defaultDedupScanLimit = 500
)

// EnrichServiceOptions groups dependencies for EnrichService.
type EnrichServiceOptions struct {
	Jobs       core.JobRepository   // Required: job repository
	Queue      core.EnrichmentQueue // Required: work queue
	Embeddings *EmbeddingService    // Optional: vector indexing skipped when nil
	Keyword    *search.KeywordIndex // Optional: keyword indexing skipped when nil
	Vector     *search.VectorIndex  // Optional: vector indexing skipped when nil
	Logger     *slog.Logger         // Optional: structured logger
	Metrics    statsd.Sink          // Optional: metrics sink (StatsD-compatible)

	Workers        int           // Optional: concurrent consumers, default 2
	ClaimTimeout   time.Duration // Optional: queue poll timeout, default 5s
	DedupScanLimit int           // Optional: how many recent rows dedup compares against
}

// EnrichService consumes the enrichment queue and runs the post-persistence
// stages on each job: duplicate detection, spam scoring and search indexing.
//
// Delivery is at least once, so every stage is idempotent: re-marking a
// duplicate, re-writing the same spam score and re-indexing a document are
// all no-ops. A job that fails mid-stage stays on the claimed list and is
// redelivered by RequeueStale on the next start.
type EnrichService struct {
	jobs       core.JobRepository
	queue      core.EnrichmentQueue
	embeddings *EmbeddingService
	keyword    *search.KeywordIndex
	vector     *search.VectorIndex
	logger     *slog.Logger
	metrics    statsd.Sink

	workers        int
	claimTimeout   time.Duration
	dedupScanLimit int
}

// NewEnrichService constructs a new EnrichService.
func NewEnrichService(opts EnrichServiceOptions) (*EnrichService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("EnrichmentQueue is required")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultEnrichWorkers
	}
	claimTimeout := opts.ClaimTimeout
	if claimTimeout <= 0 {
		claimTimeout = defaultClaimTimeout
	}
	scanLimit := opts.DedupScanLimit
	if scanLimit <= 0 {
		scanLimit = defaultDedupScanLimit
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "enrich_service")
	}

	return &EnrichService{
		jobs:           opts.Jobs,
		queue:          opts.Queue,
		embeddings:     opts.Embeddings,
		keyword:        opts.Keyword,
		vector:         opts.Vector,
		logger:         logger,
		metrics:        opts.Metrics,
		workers:        workers,
		claimTimeout:   claimTimeout,
		dedupScanLimit: scanLimit,
	}, nil
}

// Run requeues stale claims and consumes the queue until the context is
// cancelled. Returns nil on graceful shutdown.
func (s *EnrichService) Run(ctx context.Context) error {
	requeued, err := s.queue.RequeueStale(ctx)
	if err != nil {
		return fmt.Errorf("requeue stale claims: %w", err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting enrichment workers",
			"workers", s.workers, "requeued", requeued)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			return s.consume(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RebuildIndexes reloads the in-memory search indexes from persisted rows.
// The indexes live in process memory and start empty after a restart; call
// this once on startup, then the queue consumers keep them current.
func (s *EnrichService) RebuildIndexes(ctx context.Context, limit int) (int, error) {
	jobs, err := s.jobs.ListRecent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list jobs for reindex: %w", err)
	}

	indexed := 0
	for _, job := range jobs {
		if job.Duplicate {
			continue
		}
		if err := s.index(ctx, job); err != nil {
			return indexed, err
		}
		indexed++
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "search indexes rebuilt",
			"indexed", indexed, "scanned", len(jobs))
	}
	return indexed, nil
}

func (s *EnrichService) consume(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		jobID, err := s.queue.Claim(ctx, s.claimTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "claim from enrichment queue failed", "error", err)
			}
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		if jobID == "" {
			continue
		}

		if err := s.Process(ctx, jobID); err != nil {
			// Leave the claim unacked so the job is redelivered.
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "enrichment failed", "job_id", jobID, "error", err)
			}
			s.countProcessed("error")
			continue
		}

		if err := s.queue.Ack(ctx, jobID); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "ack failed, job may be reprocessed",
				"job_id", jobID, "error", err)
		}
		s.countProcessed("success")
	}
}

// Process runs every enrichment stage on one job. Safe to call repeatedly
// for the same ID.
func (s *EnrichService) Process(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Skipped at insert time or already swept. Nothing to enrich.
			return nil
		}
		return fmt.Errorf("load job: %w", err)
	}

	duplicate, err := s.markDuplicate(ctx, job)
	if err != nil {
		return err
	}

	result := spam.Score(job)
	if err := s.jobs.SetSpamScore(ctx, core.SetSpamScoreParams{
		JobID:      job.ID,
		Score:      result.Score,
		Indicators: result.Indicators,
	}); err != nil {
		return fmt.Errorf("store spam score: %w", err)
	}
	if result.Flagged(spam.DefaultThreshold) && s.logger != nil {
		s.logger.InfoContext(ctx, "job flagged as likely spam",
			"job_id", job.ID, "score", result.Score, "indicators", result.Indicators)
	}

	if duplicate {
		// Duplicates stay out of the search indexes.
		s.removeFromIndexes(job.ID)
		return nil
	}
	return s.index(ctx, job)
}

// markDuplicate compares the job against its user's recent rows and flags it
// when an earlier near-identical posting exists.
func (s *EnrichService) markDuplicate(ctx context.Context, job *model.Job) (bool, error) {
	existing, err := s.jobs.List(ctx, model.JobListOptions{
		UserID: job.UserID,
		Limit:  s.dedupScanLimit,
	})
	if err != nil {
		return false, fmt.Errorf("list jobs for dedup: %w", err)
	}

	candidates := make([]model.Job, 0, len(existing))
	for _, other := range existing {
		if other.ID == job.ID {
			continue
		}
		// Only older rows count; the earliest posting stays canonical.
		if other.ScrapedAt.After(job.ScrapedAt) {
			continue
		}
		candidates = append(candidates, *other)
	}

	match, score := dedup.FindDuplicate(job, candidates)
	if match == nil {
		return job.Duplicate, nil
	}

	if !job.Duplicate {
		if err := s.jobs.SetDuplicate(ctx, job.ID, true); err != nil {
			return false, fmt.Errorf("mark duplicate: %w", err)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "job marked duplicate",
				"job_id", job.ID, "duplicate_of", match.ID, "similarity", score)
		}
		if s.metrics != nil {
			s.metrics.Count("enrich.duplicates", 1, nil)
		}
	}
	return true, nil
}

func (s *EnrichService) index(ctx context.Context, job *model.Job) error {
	text := job.SearchText()
	if text == "" {
		return nil
	}

	if s.keyword != nil {
		s.keyword.Add(job.ID, job.UserID, text, job.ScrapedAt)
	}

	if s.vector != nil && s.embeddings != nil {
		vec, err := s.embeddings.GetOrCompute(ctx, text)
		if err != nil {
			return fmt.Errorf("embed job %s: %w", job.ID, err)
		}
		s.vector.Add(job.ID, vec)
	}
	return nil
}

func (s *EnrichService) removeFromIndexes(jobID string) {
	if s.keyword != nil {
		s.keyword.Remove(jobID)
	}
	if s.vector != nil {
		s.vector.Remove(jobID)
	}
}

func (s *EnrichService) countProcessed(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Count("enrich.processed", 1, map[string]string{"result": result})
}
