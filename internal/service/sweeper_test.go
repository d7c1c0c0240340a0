package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/internal/domain/model"
)

func newSweeperService(t *testing.T, repo *fakeJobRepo, cfg config.SweeperConfig) *SweeperService {
	t.Helper()
	svc, err := NewSweeperService(SweeperServiceOptions{Repo: repo, Config: cfg})
	require.NoError(t, err)
	return svc
}

func expiredJob(id, userID string, now time.Time) *model.Job {
	job := searchJob(id, userID, "stale role", now.Add(-model.UnsavedTTL-time.Hour))
	exp := now.Add(-time.Hour)
	job.ExpiresAt = &exp
	return job
}

func TestNewSweeperService_Validation(t *testing.T) {
	repo := newFakeJobRepo()

	_, err := NewSweeperService(SweeperServiceOptions{Config: config.SweeperConfig{Interval: time.Minute, BatchSize: 10}})
	assert.ErrorContains(t, err, "JobRepository is required")

	_, err = NewSweeperService(SweeperServiceOptions{Repo: repo, Config: config.SweeperConfig{BatchSize: 10}})
	assert.ErrorContains(t, err, "interval")

	_, err = NewSweeperService(SweeperServiceOptions{Repo: repo, Config: config.SweeperConfig{Interval: time.Minute}})
	assert.ErrorContains(t, err, "batch size")
}

func TestSweeperService_SweepExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("removes expired unsaved jobs across batches", func(t *testing.T) {
		repo := newFakeJobRepo()
		now := repo.now()
		for _, id := range []string{"a", "b", "c", "d", "e"} {
			repo.add(expiredJob("job-"+id, "user-1", now))
		}

		svc := newSweeperService(t, repo, config.SweeperConfig{Interval: time.Minute, BatchSize: 2})
		count, err := svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)

		remaining, err := repo.List(ctx, model.JobListOptions{UserID: "user-1"})
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})

	t.Run("saved jobs survive even when expired", func(t *testing.T) {
		repo := newFakeJobRepo()
		now := repo.now()

		pinned := expiredJob("job-pinned", "user-1", now)
		pinned.Saved = true
		repo.add(pinned, expiredJob("job-gone", "user-1", now))

		svc := newSweeperService(t, repo, config.SweeperConfig{Interval: time.Minute, BatchSize: 10})
		count, err := svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		remaining, err := repo.List(ctx, model.JobListOptions{UserID: "user-1"})
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "job-pinned", remaining[0].ID)
	})

	t.Run("fresh jobs are untouched", func(t *testing.T) {
		repo := newFakeJobRepo()
		repo.add(searchJob("job-fresh", "user-1", "fresh role", repo.now()))

		svc := newSweeperService(t, repo, config.SweeperConfig{Interval: time.Minute, BatchSize: 10})
		count, err := svc.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("repository errors surface with partial count", func(t *testing.T) {
		repo := newFakeJobRepo()
		repo.deleteExpiredErr = errors.New("connection reset")

		svc := newSweeperService(t, repo, config.SweeperConfig{Interval: time.Minute, BatchSize: 10})
		_, err := svc.SweepExpired(ctx)
		assert.ErrorContains(t, err, "delete expired jobs")
	})
}

func TestSweeperService_Run(t *testing.T) {
	repo := newFakeJobRepo()
	repo.add(expiredJob("job-1", "user-1", repo.now()))

	svc := newSweeperService(t, repo, config.SweeperConfig{Interval: 10 * time.Millisecond, BatchSize: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	// Give the initial sweep a chance to fire, then stop.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}

	remaining, err := repo.List(context.Background(), model.JobListOptions{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
