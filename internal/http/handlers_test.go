package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

type stubIngest struct {
	result *model.ScrapeResult
	err    error
	got    *model.ScrapeRequest
}

func (s *stubIngest) Scrape(_ context.Context, req *model.ScrapeRequest) (*model.ScrapeResult, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubLifecycle struct {
	job     *model.Job
	jobs    []*model.Job
	summary *model.ExpirationSummary
	err     error
	gotOpts model.JobListOptions
}

func (s *stubLifecycle) Save(context.Context, string, string) (*model.Job, error) {
	return s.job, s.err
}

func (s *stubLifecycle) Unsave(context.Context, string, string) (*model.Job, error) {
	return s.job, s.err
}

func (s *stubLifecycle) Get(context.Context, string, string) (*model.Job, error) {
	return s.job, s.err
}

func (s *stubLifecycle) List(_ context.Context, opts model.JobListOptions) ([]*model.Job, error) {
	s.gotOpts = opts
	return s.jobs, s.err
}

func (s *stubLifecycle) ExpirationSummary(context.Context, string) (*model.ExpirationSummary, error) {
	return s.summary, s.err
}

type stubSearch struct {
	results []model.ScoredJob
	err     error
	got     *model.SearchRequest
}

func (s *stubSearch) Search(_ context.Context, req *model.SearchRequest) ([]model.ScoredJob, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type stubPrefRepo struct {
	prefs *model.SearchPreferences
	err   error
}

func (s *stubPrefRepo) Get(_ context.Context, userID string) (*model.SearchPreferences, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.prefs != nil {
		return s.prefs, nil
	}
	defaults := model.DefaultSearchPreferences(userID)
	return &defaults, nil
}

func (s *stubPrefRepo) Upsert(_ context.Context, prefs *model.SearchPreferences) (*model.SearchPreferences, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.prefs = prefs
	return prefs, nil
}

func (s *stubPrefRepo) ListAutoSearchUsers(context.Context) ([]string, error) {
	return nil, nil
}

type routerOpts struct {
	ingest    *stubIngest
	lifecycle *stubLifecycle
	search    *stubSearch
	prefs     *stubPrefRepo
}

func newTestRouter(opts routerOpts) http.Handler {
	if opts.ingest == nil {
		opts.ingest = &stubIngest{}
	}
	if opts.lifecycle == nil {
		opts.lifecycle = &stubLifecycle{}
	}
	if opts.search == nil {
		opts.search = &stubSearch{}
	}
	if opts.prefs == nil {
		opts.prefs = &stubPrefRepo{}
	}
	return NewRouter(RouterServices{
		Ingest:    opts.ingest,
		Lifecycle: opts.lifecycle,
		Search:    opts.search,
		Prefs:     opts.prefs,
	})
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestScrapeEndpoint(t *testing.T) {
	t.Run("partial source failure still returns 200", func(t *testing.T) {
		ingest := &stubIngest{result: &model.ScrapeResult{
			SearchID: "search-1",
			JobCount: 2,
			Jobs:     []model.Job{{ID: "a"}, {ID: "b"}},
			Failures: []model.SourceFailure{{Source: model.SourceJSearch, Reason: "quota", Unavailable: true}},
		}}
		router := newTestRouter(routerOpts{ingest: ingest})

		rec := doJSON(t, router, http.MethodPost, "/api/scrape",
			map[string]any{"user_id": "user-1", "keywords": "golang"})

		require.Equal(t, http.StatusOK, rec.Code)
		var result model.ScrapeResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, 2, result.JobCount)
		require.Len(t, result.Failures, 1)
		assert.True(t, result.Failures[0].Unavailable)
		assert.Equal(t, "user-1", ingest.got.UserID)
	})

	t.Run("rate limited maps to 429 with Retry-After", func(t *testing.T) {
		ingest := &stubIngest{err: apperrors.RateLimited("scrape budget exhausted", 90*time.Second)}
		router := newTestRouter(routerOpts{ingest: ingest})

		rec := doJSON(t, router, http.MethodPost, "/api/scrape",
			map[string]any{"user_id": "user-1", "keywords": "golang"})

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "90", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "rate_limited")
	})

	t.Run("all sources failed maps to 502", func(t *testing.T) {
		ingest := &stubIngest{err: apperrors.AllSourcesFailed(errors.New("adzuna down"))}
		router := newTestRouter(routerOpts{ingest: ingest})

		rec := doJSON(t, router, http.MethodPost, "/api/scrape",
			map[string]any{"user_id": "user-1", "keywords": "golang"})

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "all_sources_failed")
	})

	t.Run("validation maps to 400", func(t *testing.T) {
		ingest := &stubIngest{err: apperrors.Validation("keywords are required")}
		router := newTestRouter(routerOpts{ingest: ingest})

		rec := doJSON(t, router, http.MethodPost, "/api/scrape",
			map[string]any{"user_id": "user-1"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		router := newTestRouter(routerOpts{})

		req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_json")
	})
}

func TestJobEndpoints(t *testing.T) {
	t.Run("save returns the updated job", func(t *testing.T) {
		lc := &stubLifecycle{job: &model.Job{ID: "job-1", Saved: true}}
		router := newTestRouter(routerOpts{lifecycle: lc})

		rec := doJSON(t, router, http.MethodPost, "/api/jobs/job-1/save?user_id=user-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var job model.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.True(t, job.Saved)
	})

	t.Run("unsave returns the updated job", func(t *testing.T) {
		exp := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
		lc := &stubLifecycle{job: &model.Job{ID: "job-1", ExpiresAt: &exp}}
		router := newTestRouter(routerOpts{lifecycle: lc})

		rec := doJSON(t, router, http.MethodPost, "/api/jobs/job-1/unsave?user_id=user-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var job model.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.False(t, job.Saved)
		assert.NotNil(t, job.ExpiresAt)
	})

	t.Run("a job_not_saved error maps to 409", func(t *testing.T) {
		lc := &stubLifecycle{err: apperrors.JobNotSaved("job must be saved first")}
		router := newTestRouter(routerOpts{lifecycle: lc})

		rec := doJSON(t, router, http.MethodPost, "/api/jobs/job-1/unsave?user_id=user-1", nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "job_not_saved")
	})

	t.Run("unknown job maps to 404", func(t *testing.T) {
		lc := &stubLifecycle{err: apperrors.NotFoundf("job job-1 not found")}
		router := newTestRouter(routerOpts{lifecycle: lc})

		rec := doJSON(t, router, http.MethodGet, "/api/jobs/job-1?user_id=user-1", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list parses filters", func(t *testing.T) {
		lc := &stubLifecycle{jobs: []*model.Job{{ID: "a"}}}
		router := newTestRouter(routerOpts{lifecycle: lc})

		rec := doJSON(t, router, http.MethodGet,
			"/api/jobs/?user_id=user-1&saved=true&limit=5&offset=10", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", lc.gotOpts.UserID)
		require.NotNil(t, lc.gotOpts.Saved)
		assert.True(t, *lc.gotOpts.Saved)
		assert.Equal(t, 5, lc.gotOpts.Limit)
		assert.Equal(t, 10, lc.gotOpts.Offset)
	})

	t.Run("list without user is rejected", func(t *testing.T) {
		router := newTestRouter(routerOpts{})

		rec := doJSON(t, router, http.MethodGet, "/api/jobs/", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("user id header takes precedence", func(t *testing.T) {
		lc := &stubLifecycle{jobs: nil}
		router := newTestRouter(routerOpts{lifecycle: lc})

		req := httptest.NewRequest(http.MethodGet, "/api/jobs/?user_id=query-user", nil)
		req.Header.Set("X-User-ID", "header-user")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "header-user", lc.gotOpts.UserID)
	})

	t.Run("expiration summary", func(t *testing.T) {
		lc := &stubLifecycle{summary: &model.ExpirationSummary{TotalJobs: 4, SavedJobs: 1, UnsavedJobs: 3, ExpiringSoon: 2}}
		router := newTestRouter(routerOpts{lifecycle: lc})

		rec := doJSON(t, router, http.MethodGet, "/api/jobs/expiration-summary?user_id=user-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var summary model.ExpirationSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 2, summary.ExpiringSoon)
	})
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("parses query parameters", func(t *testing.T) {
		search := &stubSearch{results: []model.ScoredJob{{Job: model.Job{ID: "a"}, CombinedScore: 0.9}}}
		router := newTestRouter(routerOpts{search: search})

		rec := doJSON(t, router, http.MethodGet,
			"/api/search?user_id=user-1&q=golang&mode=keyword&limit=5", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "golang", search.got.Query)
		assert.Equal(t, model.SearchModeKeyword, search.got.Mode)
		assert.Equal(t, 5, search.got.Limit)
		assert.Contains(t, rec.Body.String(), `"count":1`)
	})

	t.Run("missing mode defaults to hybrid", func(t *testing.T) {
		search := &stubSearch{}
		router := newTestRouter(routerOpts{search: search})

		rec := doJSON(t, router, http.MethodGet, "/api/search?user_id=user-1&q=golang", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, model.SearchModeHybrid, search.got.Mode)
	})

	t.Run("invalid mode is rejected before the service runs", func(t *testing.T) {
		search := &stubSearch{}
		router := newTestRouter(routerOpts{search: search})

		rec := doJSON(t, router, http.MethodGet, "/api/search?user_id=user-1&q=golang&mode=psychic", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, search.got)
	})
}

func TestPreferenceEndpoints(t *testing.T) {
	t.Run("get returns defaults for unknown users", func(t *testing.T) {
		router := newTestRouter(routerOpts{})

		rec := doJSON(t, router, http.MethodGet, "/api/preferences/?user_id=user-1", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var prefs model.SearchPreferences
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prefs))
		assert.Equal(t, "user-1", prefs.UserID)
		assert.Equal(t, 50, prefs.MaxResults)
	})

	t.Run("put stores preferences", func(t *testing.T) {
		prefRepo := &stubPrefRepo{}
		router := newTestRouter(routerOpts{prefs: prefRepo})

		rec := doJSON(t, router, http.MethodPut, "/api/preferences/", map[string]any{
			"user_id":             "user-1",
			"max_results":         25,
			"remote_only":         true,
			"blacklist_companies": []string{"Shady Inc"},
		})

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, prefRepo.prefs)
		assert.True(t, prefRepo.prefs.RemoteOnly)
		assert.Equal(t, 25, prefRepo.prefs.MaxResults)
	})

	t.Run("put without user id is rejected", func(t *testing.T) {
		router := newTestRouter(routerOpts{})

		rec := doJSON(t, router, http.MethodPut, "/api/preferences/", map[string]any{"max_results": 5})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(routerOpts{})

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
