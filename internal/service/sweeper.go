package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/internal/core"
	obserrors "github.com/jobscout/jobscout/internal/observability/errors"
	"github.com/jobscout/jobscout/internal/observability/metrics"
	"github.com/jobscout/jobscout/internal/observability/notify"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/service/failurenotifier"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Repo     core.JobRepository       // Required: job repository
	Config   config.SweeperConfig     // Required: sweeper configuration
	Logger   *slog.Logger             // Optional: structured logger
	Metrics  statsd.Sink              // Optional: metrics sink (StatsD-compatible)
	Notifier *failurenotifier.Service // Optional: operator notifications
}

// SweeperService deletes unsaved jobs whose expiration deadline has passed.
// Deletion happens in batches under an advisory lock, and the repository
// re-checks the saved/expired predicates per row, so a save that lands while
// a sweep is in flight always wins.
type SweeperService struct {
	repo     core.JobRepository
	config   config.SweeperConfig
	logger   *slog.Logger
	metrics  statsd.Sink
	notifier *failurenotifier.Service
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	if opts.Config.BatchSize <= 0 {
		return nil, errors.New("sweep batch size must be positive")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sweeper_service")
		logger.Debug("SweeperService initialized",
			"interval", opts.Config.Interval,
			"batch_size", opts.Config.BatchSize,
		)
	}

	return &SweeperService{
		repo:     opts.Repo,
		config:   opts.Config,
		logger:   logger,
		metrics:  opts.Metrics,
		notifier: opts.Notifier,
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting sweeper service", "interval", s.config.Interval)
	}

	// Jitter prevents a thundering herd when multiple instances start together.
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	var consecutiveFailures int
	if _, err := s.SweepExpired(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
		consecutiveFailures++
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.logSweepError(err, "sweep")
				consecutiveFailures++
				s.notifyRepeatedFailures(ctx, consecutiveFailures, err)
			} else {
				consecutiveFailures = 0
			}
		}
	}
}

// notifyRepeatedFailures pages the operator sinks once sweeps have failed a
// few cycles in a row. A single failed sweep retries on the next tick; three
// in a row means the table keeps growing.
func (s *SweeperService) notifyRepeatedFailures(ctx context.Context, failures int, err error) {
	const failureThreshold = 3
	if s.notifier == nil || !s.notifier.Enabled() || failures != failureThreshold {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	s.notifier.NotifyPipelineFailure(ctx, notify.PipelineFailurePayload{
		Stage:      "sweep",
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		OccurredAt: time.Now().UTC(),
	})
}

// SweepExpired deletes expired unsaved jobs in batches until a batch comes
// back short, returning the total rows removed.
func (s *SweeperService) SweepExpired(ctx context.Context) (int, error) {
	start := time.Now()
	var total int

	for {
		count, err := s.repo.DeleteExpired(ctx, s.config.BatchSize)
		if err != nil {
			s.emitSweepMetrics(total, time.Since(start), err)
			return total, fmt.Errorf("delete expired jobs: %w", err)
		}
		total += count
		if count < s.config.BatchSize {
			break
		}
		// Check context between batches
		if ctx.Err() != nil {
			s.emitSweepMetrics(total, time.Since(start), ctx.Err())
			return total, ctx.Err()
		}
	}

	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "swept expired jobs", "count", total)
	}
	s.emitSweepMetrics(total, time.Since(start), nil)
	return total, nil
}

// waitWithJitter adds a random delay up to 10% of the interval.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (s *SweeperService) emitSweepMetrics(count int, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case count == 0:
		result = metrics.ResultNoop
	}

	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("sweeper.sweep", 1, tags)
	if count > 0 {
		s.metrics.Count("sweeper.jobs_removed", int64(count), nil)
	}
	if elapsed > 0 {
		s.metrics.Timing("sweeper.sweep_duration", elapsed, metrics.CloneTags(tags))
	}
	if err == nil {
		s.metrics.Gauge("sweeper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *SweeperService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}
