package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/filterpref"
	"github.com/jobscout/jobscout/internal/domain/model"
	"github.com/jobscout/jobscout/internal/domain/normalize"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/metrics"
	"github.com/jobscout/jobscout/internal/observability/statsd"
)

// DefaultSourceTimeout bounds one provider's fetch during an ingestion run.
const DefaultSourceTimeout = 180 * time.Second

// DefaultSourceCooldown is how long a provider that reported itself
// unavailable (quota or auth lockout) is excluded from subsequent runs.
const DefaultSourceCooldown = 15 * time.Minute

// IngestServiceOptions groups dependencies for IngestService.
type IngestServiceOptions struct {
	Sources        []core.Source             // Required: at least one provider
	Jobs           core.JobRepository        // Required: job repository
	Prefs          core.PreferenceRepository // Required: preference repository
	Limiter        core.RateLimiter          // Optional: no limiter means no budget
	Queue          core.EnrichmentQueue      // Optional: enrichment skipped when nil
	Logger         *slog.Logger              // Optional: structured logger
	Metrics        statsd.Sink               // Optional: metrics sink (StatsD-compatible)
	SourceTimeout  time.Duration             // Optional: per-source fetch deadline
	SourceCooldown time.Duration             // Optional: skip window after a quota/auth lockout
}

// IngestService runs scrape requests: it fans out to every enabled provider
// in parallel, normalizes and filters what comes back, persists the postings,
// and hands the new rows to the enrichment queue.
//
// A run succeeds as long as at least one provider answers; providers that
// fail are reported in the result rather than failing the run.
type IngestService struct {
	sources        []core.Source
	jobs           core.JobRepository
	prefs          core.PreferenceRepository
	limiter        core.RateLimiter
	queue          core.EnrichmentQueue
	logger         *slog.Logger
	metrics        statsd.Sink
	sourceTimeout  time.Duration
	sourceCooldown time.Duration
	now            func() time.Time

	// coolingOff maps a provider to the instant its lockout ends.
	cooldownMu sync.Mutex
	coolingOff map[model.JobSource]time.Time
}

// NewIngestService constructs a new IngestService.
func NewIngestService(opts IngestServiceOptions) (*IngestService, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("at least one Source is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Prefs == nil {
		return nil, errors.New("PreferenceRepository is required")
	}

	timeout := opts.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	cooldown := opts.SourceCooldown
	if cooldown <= 0 {
		cooldown = DefaultSourceCooldown
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "ingest_service")
	}

	return &IngestService{
		sources:        opts.Sources,
		jobs:           opts.Jobs,
		prefs:          opts.Prefs,
		limiter:        opts.Limiter,
		queue:          opts.Queue,
		logger:         logger,
		metrics:        opts.Metrics,
		sourceTimeout:  timeout,
		sourceCooldown: cooldown,
		now:            time.Now,
		coolingOff:     make(map[model.JobSource]time.Time),
	}, nil
}

// Scrape executes one ingestion run for a user.
func (s *IngestService) Scrape(ctx context.Context, req *model.ScrapeRequest) (*model.ScrapeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	if s.limiter != nil {
		decision, err := s.limiter.Allow(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("check rate limit: %w", err)
		}
		if !decision.Allowed {
			if s.metrics != nil {
				s.metrics.Count("ingest.rate_limited", 1, nil)
			}
			return nil, apperrors.RateLimited("scrape budget exhausted", decision.RetryAfter)
		}
	}

	prefs, err := s.prefs.Get(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	enabled := s.enabledSources(req, prefs)
	if len(enabled) == 0 {
		return nil, apperrors.Validation("no enabled sources for this request")
	}

	searchID := uuid.NewString()
	fetched, failures := s.fetchAll(ctx, req, prefs, enabled)

	if len(fetched) == 0 && len(failures) == len(enabled) {
		causes := make([]error, 0, len(failures))
		for _, f := range failures {
			causes = append(causes, fmt.Errorf("%s: %s", f.Source, f.Reason))
		}
		return nil, apperrors.AllSourcesFailed(causes...)
	}

	jobs := make([]*model.Job, 0, len(fetched))
	for _, raw := range fetched {
		job := normalize.Posting(raw)
		job.UserID = req.UserID
		job.SearchID = searchID
		jobs = append(jobs, &job)
	}
	jobs = filterpref.Apply(jobs, prefs)

	inserted, err := s.jobs.BulkInsert(ctx, jobs)
	if err != nil {
		return nil, fmt.Errorf("persist jobs: %w", err)
	}

	s.publishForEnrichment(ctx, jobs)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "scrape run complete",
			"user_id", req.UserID,
			"search_id", searchID,
			"scheduled", req.Scheduled,
			"fetched", len(fetched),
			"inserted", inserted,
			"failed_sources", len(failures),
		)
	}
	if s.metrics != nil {
		trigger := "manual"
		if req.Scheduled {
			trigger = "scheduled"
		}
		s.metrics.Count("ingest.jobs_inserted", int64(inserted), map[string]string{"trigger": trigger})
	}

	result := &model.ScrapeResult{
		SearchID: searchID,
		Jobs:     make([]model.Job, 0, len(jobs)),
		JobCount: inserted,
		Failures: failures,
	}
	for _, j := range jobs {
		result.Jobs = append(result.Jobs, *j)
	}
	return result, nil
}

// enabledSources intersects the requested providers with the user's enabled
// set. An empty request list means every enabled provider.
func (s *IngestService) enabledSources(req *model.ScrapeRequest, prefs *model.SearchPreferences) []core.Source {
	requested := make(map[model.JobSource]bool, len(req.Sources))
	for _, src := range req.Sources {
		requested[src] = true
	}

	var enabled []core.Source
	for _, src := range s.sources {
		if len(requested) > 0 && !requested[src.Name()] {
			continue
		}
		if !prefs.SourceEnabled(src.Name()) {
			continue
		}
		enabled = append(enabled, src)
	}
	return enabled
}

// fetchAll queries every enabled provider in parallel, each under its own
// deadline. One provider failing never cancels its siblings.
func (s *IngestService) fetchAll(
	ctx context.Context,
	req *model.ScrapeRequest,
	prefs *model.SearchPreferences,
	enabled []core.Source,
) ([]model.RawPosting, []model.SourceFailure) {
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = prefs.MaxResults
	}
	fetchReq := core.FetchRequest{
		Keywords:   req.Keywords,
		Location:   req.Location,
		MaxResults: maxResults,
	}

	type fetchOutcome struct {
		postings []model.RawPosting
		failure  *model.SourceFailure
	}
	outcomes := make([]fetchOutcome, len(enabled))

	var g errgroup.Group
	for i, src := range enabled {
		i, src := i, src
		if until, cooling := s.coolingOffUntil(src.Name()); cooling {
			outcomes[i].failure = &model.SourceFailure{
				Source:      src.Name(),
				Reason:      fmt.Sprintf("cooling off until %s after quota or auth failure", until.UTC().Format(time.RFC3339)),
				Unavailable: true,
			}
			if s.logger != nil {
				s.logger.WarnContext(ctx, "source cooling off, skipped",
					"source", src.Name(), "until", until.UTC())
			}
			continue
		}

		g.Go(func() error {
			start := time.Now()
			fetchCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			postings, err := src.Fetch(fetchCtx, fetchReq)
			elapsed := time.Since(start)
			if err != nil {
				unavailable := apperrors.IsSourceUnavailable(err)
				if unavailable {
					s.startCooldown(src.Name())
				}
				outcomes[i].failure = &model.SourceFailure{
					Source:      src.Name(),
					Reason:      err.Error(),
					Unavailable: unavailable,
				}
				metrics.EmitSourceFetch(s.metrics, metrics.IngestMetric{
					Source:   string(src.Name()),
					Result:   metrics.ResultError,
					Duration: elapsed,
					Err:      err,
				})
				if s.logger != nil {
					s.logger.WarnContext(ctx, "source fetch failed",
						"source", src.Name(), "error", err)
				}
				return nil
			}

			outcomes[i].postings = postings
			metrics.EmitSourceFetch(s.metrics, metrics.IngestMetric{
				Source:   string(src.Name()),
				Result:   metrics.ResultSuccess,
				Jobs:     int64(len(postings)),
				Duration: elapsed,
			})
			return nil
		})
	}
	//nolint:errcheck // goroutines always return nil; failures are collected per source
	_ = g.Wait()

	var postings []model.RawPosting
	var failures []model.SourceFailure
	for _, out := range outcomes {
		postings = append(postings, out.postings...)
		if out.failure != nil {
			failures = append(failures, *out.failure)
		}
	}
	return postings, failures
}

// coolingOffUntil reports whether a provider is inside its lockout window.
// An elapsed lockout is cleared on the way out.
func (s *IngestService) coolingOffUntil(src model.JobSource) (time.Time, bool) {
	s.cooldownMu.Lock()
	defer s.cooldownMu.Unlock()

	until, ok := s.coolingOff[src]
	if !ok {
		return time.Time{}, false
	}
	if !s.now().Before(until) {
		delete(s.coolingOff, src)
		return time.Time{}, false
	}
	return until, true
}

func (s *IngestService) startCooldown(src model.JobSource) {
	s.cooldownMu.Lock()
	s.coolingOff[src] = s.now().Add(s.sourceCooldown)
	s.cooldownMu.Unlock()
}

// publishForEnrichment queues the run's job IDs for background dedup, spam
// scoring and indexing. Queue failures are logged, never fatal: the rows are
// already persisted and the consumers tolerate gaps.
func (s *IngestService) publishForEnrichment(ctx context.Context, jobs []*model.Job) {
	if s.queue == nil || len(jobs) == 0 {
		return
	}

	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if j.ID != "" {
			ids = append(ids, j.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	if err := s.queue.Publish(ctx, ids...); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "enqueue jobs for enrichment failed",
				"count", len(ids), "error", err)
		}
	}
}
