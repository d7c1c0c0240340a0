package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

// fakeJobRepo is an in-memory core.JobRepository for service tests.
type fakeJobRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Job
	now  func() time.Time

	bulkInsertErr    error
	deleteExpiredErr error
	getErr           error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{
		rows: make(map[string]*model.Job),
		now:  func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func (f *fakeJobRepo) add(jobs ...*model.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range jobs {
		cp := *j
		f.rows[j.ID] = &cp
	}
}

func (f *fakeJobRepo) BulkInsert(_ context.Context, jobs []*model.Job) (int, error) {
	if f.bulkInsertErr != nil {
		return 0, f.bulkInsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	inserted := 0
	for _, job := range jobs {
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		if job.ScrapedAt.IsZero() {
			job.ScrapedAt = f.now()
		}
		dup := false
		for _, existing := range f.rows {
			if existing.UserID == job.UserID && existing.URL == job.URL && existing.URL != "" {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if !job.Saved && job.ExpiresAt == nil {
			// Mirrors the repo: expiry counts from insert time, not scrape time.
			exp := f.now().Add(model.UnsavedTTL)
			job.ExpiresAt = &exp
		}
		cp := *job
		f.rows[job.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*model.Job, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.rows[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobRepo) GetByIDs(_ context.Context, ids []string) ([]*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Job
	for _, id := range ids {
		if job, ok := f.rows[id]; ok {
			cp := *job
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeJobRepo) List(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Job
	for _, job := range f.rows {
		if job.UserID != opts.UserID {
			continue
		}
		if opts.Saved != nil && job.Saved != *opts.Saved {
			continue
		}
		if !opts.IncludeDuplicates && job.Duplicate {
			continue
		}
		cp := *job
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScrapedAt.Equal(out[j].ScrapedAt) {
			return out[i].ScrapedAt.After(out[j].ScrapedAt)
		}
		return out[i].ID < out[j].ID
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeJobRepo) ListRecent(_ context.Context, limit int) ([]*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Job
	for _, job := range f.rows {
		cp := *job
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScrapedAt.Equal(out[j].ScrapedAt) {
			return out[i].ScrapedAt.After(out[j].ScrapedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeJobRepo) MarkSaved(_ context.Context, id, userID string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.rows[id]
	if !ok || job.UserID != userID {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	if !job.Saved {
		job.Saved = true
		now := f.now()
		job.SavedAt = &now
		job.ExpiresAt = nil
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobRepo) MarkUnsaved(_ context.Context, id, userID string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.rows[id]
	if !ok || job.UserID != userID {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	if job.Saved {
		job.Saved = false
		job.SavedAt = nil
		exp := f.now().Add(model.UnsavedTTL)
		job.ExpiresAt = &exp
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobRepo) SetDuplicate(_ context.Context, id string, duplicate bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.rows[id]
	if !ok {
		return apperrors.NotFoundf("job %s not found", id)
	}
	job.Duplicate = duplicate
	return nil
}

func (f *fakeJobRepo) SetSpamScore(_ context.Context, params core.SetSpamScoreParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.rows[params.JobID]
	if !ok {
		return apperrors.NotFoundf("job %s not found", params.JobID)
	}
	job.SpamScore = params.Score
	job.SpamIndicators = params.Indicators
	return nil
}

func (f *fakeJobRepo) DeleteExpired(_ context.Context, limit int) (int, error) {
	if f.deleteExpiredErr != nil {
		return 0, f.deleteExpiredErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	deleted := 0
	for id, job := range f.rows {
		if deleted >= limit {
			break
		}
		if !job.Saved && job.ExpiresAt != nil && job.ExpiresAt.Before(now) {
			delete(f.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeJobRepo) ExpirationSummary(_ context.Context, userID string) (*model.ExpirationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	summary := &model.ExpirationSummary{}
	for _, job := range f.rows {
		if job.UserID != userID {
			continue
		}
		summary.TotalJobs++
		if job.Saved {
			summary.SavedJobs++
			continue
		}
		summary.UnsavedJobs++
		if job.ExpiresAt == nil {
			continue
		}
		switch {
		case job.ExpiresAt.Before(now):
			summary.ExpiredJobs++
		case job.ExpiresAt.Before(now.Add(24 * time.Hour)):
			summary.ExpiringSoon++
		}
	}
	return summary, nil
}

// fakePrefRepo is an in-memory core.PreferenceRepository.
type fakePrefRepo struct {
	mu     sync.Mutex
	stored map[string]*model.SearchPreferences
	getErr error
}

func newFakePrefRepo() *fakePrefRepo {
	return &fakePrefRepo{stored: make(map[string]*model.SearchPreferences)}
}

func (f *fakePrefRepo) Get(_ context.Context, userID string) (*model.SearchPreferences, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if prefs, ok := f.stored[userID]; ok {
		cp := *prefs
		return &cp, nil
	}
	defaults := model.DefaultSearchPreferences(userID)
	return &defaults, nil
}

func (f *fakePrefRepo) Upsert(_ context.Context, prefs *model.SearchPreferences) (*model.SearchPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *prefs
	f.stored[prefs.UserID] = &cp
	out := cp
	return &out, nil
}

func (f *fakePrefRepo) ListAutoSearchUsers(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []string
	for id, prefs := range f.stored {
		if prefs.AutoSearchEnabled {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users, nil
}

// fakeLimiter is a canned core.RateLimiter.
type fakeLimiter struct {
	decision core.RateLimitDecision
	err      error
	calls    int
}

func (f *fakeLimiter) Allow(context.Context, string) (core.RateLimitDecision, error) {
	f.calls++
	return f.decision, f.err
}

// fakeQueue is an in-memory core.EnrichmentQueue.
type fakeQueue struct {
	mu      sync.Mutex
	pending []string
	claimed []string
}

func (f *fakeQueue) Publish(_ context.Context, jobIDs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, jobIDs...)
	return nil
}

func (f *fakeQueue) Claim(ctx context.Context, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if len(f.pending) == 0 {
		return "", nil
	}
	id := f.pending[0]
	f.pending = f.pending[1:]
	f.claimed = append(f.claimed, id)
	return id, nil
}

func (f *fakeQueue) Ack(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range f.claimed {
		if id == jobID {
			f.claimed = append(f.claimed[:i], f.claimed[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeQueue) RequeueStale(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.claimed)
	f.pending = append(f.claimed, f.pending...)
	f.claimed = nil
	return n, nil
}

// fakeEmbedder returns canned vectors per text, tracking call counts.
type fakeEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0, 0},
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return f.fallback, nil
}

// fakeCacheRepo is an in-memory core.CacheRepository. TTLs are ignored.
type fakeCacheRepo struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: make(map[string][]byte)}
}

func (f *fakeCacheRepo) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeCacheRepo) Get(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, nil
}

func (f *fakeCacheRepo) Delete(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	delete(f.data, key)
	return ok, nil
}

func (f *fakeCacheRepo) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeCacheRepo) SetIfNotExists(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = append([]byte(nil), value...)
	return true, nil
}

func (f *fakeCacheRepo) Health(context.Context) error { return nil }

// fakeSource is a canned core.Source.
type fakeSource struct {
	name     model.JobSource
	postings []model.RawPosting
	err      error
	delay    time.Duration
	calls    int
	requests []core.FetchRequest
}

func (f *fakeSource) Name() model.JobSource { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, req core.FetchRequest) ([]model.RawPosting, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, apperrors.SourceTimeout(string(f.name), ctx.Err())
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.postings, nil
}

func rawPosting(source model.JobSource, n int) model.RawPosting {
	return model.RawPosting{
		Source:      source,
		ExternalID:  fmt.Sprintf("%s-%d", source, n),
		Title:       fmt.Sprintf("Go Engineer %d", n),
		Company:     "Acme",
		Location:    "Remote",
		Description: strings.Repeat("Build and operate Go services in production. ", 3),
		URL:         fmt.Sprintf("https://example.com/%s/%d", source, n),
	}
}
