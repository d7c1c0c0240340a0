// Package service provides business logic services for the jobscout pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	obserrors "github.com/jobscout/jobscout/internal/observability/errors"
	"github.com/jobscout/jobscout/internal/observability/notify"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/service/failurenotifier"
)

// DefaultSchedule is the cron spec for scheduled ingestion runs.
const DefaultSchedule = "@every 6h"

// SchedulerServiceOptions groups dependencies for SchedulerService.
type SchedulerServiceOptions struct {
	Ingest   *IngestService            // Required: runs the scrapes
	Prefs    core.PreferenceRepository // Required: selects auto-search users
	Schedule string                    // Optional: cron spec, default "@every 6h"
	Logger   *slog.Logger              // Optional: structured logger
	Metrics  statsd.Sink               // Optional: metrics sink (StatsD-compatible)
	Notifier *failurenotifier.Service  // Optional: operator notifications
}

// SchedulerService periodically runs an ingestion cycle for every user with
// auto search enabled. Scheduled runs go through the exact same pipeline as
// manual ones: the same rate-limit budget, the same preference filter.
type SchedulerService struct {
	ingest   *IngestService
	prefs    core.PreferenceRepository
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
	metrics  statsd.Sink
	notifier *failurenotifier.Service
}

// NewSchedulerService constructs a new SchedulerService.
func NewSchedulerService(opts SchedulerServiceOptions) (*SchedulerService, error) {
	if opts.Ingest == nil {
		return nil, errors.New("IngestService is required")
	}
	if opts.Prefs == nil {
		return nil, errors.New("PreferenceRepository is required")
	}

	schedule := opts.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "scheduler_service")
	}

	return &SchedulerService{
		ingest:   opts.Ingest,
		prefs:    opts.Prefs,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
		metrics:  opts.Metrics,
		notifier: opts.Notifier,
	}, nil
}

// Run starts the cron loop and blocks until the context is cancelled.
func (s *SchedulerService) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunCycle(ctx)
	}); err != nil {
		return fmt.Errorf("register cron schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	if s.logger != nil {
		s.logger.InfoContext(ctx, "scheduler started", "schedule", s.schedule)
	}

	<-ctx.Done()
	// Wait for an in-flight cycle to finish before returning.
	<-s.cron.Stop().Done()
	if s.logger != nil {
		s.logger.Info("scheduler stopped")
	}
	return nil
}

// RunCycle runs one scheduled ingestion pass over every auto-search user.
// Per-user failures are logged and skipped; one user's bad day never blocks
// the rest.
func (s *SchedulerService) RunCycle(ctx context.Context) {
	users, err := s.prefs.ListAutoSearchUsers(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "list auto-search users failed", "error", err)
		}
		return
	}
	if len(users) == 0 {
		return
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "scheduled ingestion cycle started", "users", len(users))
	}

	var ran, skipped int
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		if s.runForUser(ctx, userID) {
			ran++
		} else {
			skipped++
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "scheduled ingestion cycle complete",
			"ran", ran, "skipped", skipped)
	}
	if s.metrics != nil {
		s.metrics.Count("scheduler.cycles", 1, nil)
		s.metrics.Count("scheduler.user_runs", int64(ran), nil)
	}
}

func (s *SchedulerService) runForUser(ctx context.Context, userID string) bool {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "load preferences for scheduled run failed",
				"user_id", userID, "error", err)
		}
		return false
	}

	keywords := strings.TrimSpace(prefs.AutoSearchKeywords)
	if keywords == "" {
		// Auto search enabled but no saved query. Nothing to run.
		return false
	}

	req := &model.ScrapeRequest{
		UserID:     userID,
		Keywords:   keywords,
		MaxResults: prefs.MaxResults,
		Scheduled:  true,
	}
	if len(prefs.DesiredLocations) > 0 {
		req.Location = prefs.DesiredLocations[0]
	}

	result, err := s.ingest.Scrape(ctx, req)
	if err != nil {
		switch {
		case apperrors.IsRateLimited(err):
			if s.logger != nil {
				s.logger.InfoContext(ctx, "scheduled run skipped, budget exhausted",
					"user_id", userID, "retry_after", apperrors.GetRetryAfter(err))
			}
		default:
			if s.logger != nil {
				s.logger.WarnContext(ctx, "scheduled run failed",
					"user_id", userID, "error", err)
			}
			s.notifyFailure(ctx, userID, err)
		}
		return false
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "scheduled run complete",
			"user_id", userID,
			"search_id", result.SearchID,
			"inserted", result.JobCount,
			"failed_sources", len(result.Failures),
		)
	}
	return true
}

// notifyFailure pages the operator sinks about a failed scheduled run.
// Rate-limit skips never notify; they are expected behavior.
func (s *SchedulerService) notifyFailure(ctx context.Context, userID string, err error) {
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}
	s.notifier.NotifyPipelineFailure(ctx, notify.PipelineFailurePayload{
		Stage:      "schedule",
		UserID:     userID,
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		OccurredAt: time.Now().UTC(),
	})
}
