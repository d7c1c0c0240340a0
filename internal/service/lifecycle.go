package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
)

// LifecycleServiceOptions groups dependencies for LifecycleService.
type LifecycleServiceOptions struct {
	Repo    core.JobRepository // Required: job repository
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: metrics sink (StatsD-compatible)
}

// LifecycleService manages the saved/expiring state of jobs. Every unsaved
// job carries an expiration deadline; saving clears it, unsaving restarts it.
type LifecycleService struct {
	repo    core.JobRepository
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewLifecycleService constructs a new LifecycleService.
func NewLifecycleService(opts LifecycleServiceOptions) (*LifecycleService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "lifecycle_service")
	}

	return &LifecycleService{
		repo:    opts.Repo,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Save pins a job so the sweeper never removes it. Saving an already saved
// job is a no-op that returns the current row.
func (s *LifecycleService) Save(ctx context.Context, jobID, userID string) (*model.Job, error) {
	if err := validateJobRef(jobID, userID); err != nil {
		return nil, err
	}

	job, err := s.repo.MarkSaved(ctx, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job saved", "job_id", jobID, "user_id", userID)
	}
	s.countTransition("save")
	return job, nil
}

// Unsave releases a saved job back into the expiring pool with a fresh
// deadline. Unsaving an already-unsaved job is a no-op that returns the
// current row with its existing deadline.
func (s *LifecycleService) Unsave(ctx context.Context, jobID, userID string) (*model.Job, error) {
	if err := validateJobRef(jobID, userID); err != nil {
		return nil, err
	}

	job, err := s.repo.MarkUnsaved(ctx, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("unsave job: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job unsaved",
			"job_id", jobID, "user_id", userID, "expires_at", job.ExpiresAt)
	}
	s.countTransition("unsave")
	return job, nil
}

// RequireSaved loads a job owned by the user and verifies it is currently
// saved. Operations that must not touch an expiring job, such as submitting
// an application, call this before performing any side effects.
func (s *LifecycleService) RequireSaved(ctx context.Context, jobID, userID string) (*model.Job, error) {
	job, err := s.Get(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}
	if !job.Saved {
		return nil, apperrors.JobNotSaved("job must be saved first")
	}
	return job, nil
}

// Get returns a job owned by the user.
func (s *LifecycleService) Get(ctx context.Context, jobID, userID string) (*model.Job, error) {
	if err := validateJobRef(jobID, userID); err != nil {
		return nil, err
	}

	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if job.UserID != userID {
		return nil, apperrors.NotFoundf("job %s not found", jobID)
	}
	return job, nil
}

// List returns the user's jobs, newest first.
func (s *LifecycleService) List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	jobs, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ExpirationSummary reports lifecycle counts for one user's corpus.
func (s *LifecycleService) ExpirationSummary(ctx context.Context, userID string) (*model.ExpirationSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ValidationField("user_id", "user id is required")
	}

	summary, err := s.repo.ExpirationSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("expiration summary: %w", err)
	}
	return summary, nil
}

func (s *LifecycleService) countTransition(op string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Count("lifecycle.transition", 1, map[string]string{"operation": op})
}

func validateJobRef(jobID, userID string) error {
	if strings.TrimSpace(jobID) == "" {
		return apperrors.ValidationField("job_id", "job id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return apperrors.ValidationField("user_id", "user id is required")
	}
	return nil
}
