package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/search"
)

type searchFixture struct {
	repo     *fakeJobRepo
	prefs    *fakePrefRepo
	embedder *fakeEmbedder
	keyword  *search.KeywordIndex
	vector   *search.VectorIndex
	svc      *SearchService
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()

	f := &searchFixture{
		repo:     newFakeJobRepo(),
		prefs:    newFakePrefRepo(),
		embedder: newFakeEmbedder(),
		keyword:  search.NewKeywordIndex(),
		vector:   search.NewVectorIndex(),
	}

	embeddings, err := NewEmbeddingService(EmbeddingServiceOptions{
		Embedder: f.embedder,
		Shared:   newFakeCacheRepo(),
	})
	require.NoError(t, err)

	f.svc, err = NewSearchService(SearchServiceOptions{
		Jobs:       f.repo,
		Prefs:      f.prefs,
		Embeddings: embeddings,
		Keyword:    f.keyword,
		Vector:     f.vector,
	})
	require.NoError(t, err)
	return f
}

// indexJob stores a job and registers it in both indexes.
func (f *searchFixture) indexJob(job *model.Job, vector []float32) {
	f.repo.add(job)
	f.keyword.Add(job.ID, job.UserID, job.SearchText(), job.ScrapedAt)
	if vector != nil {
		f.vector.Add(job.ID, vector)
	}
}

func searchJob(id, userID, title string, scrapedAt time.Time) *model.Job {
	exp := scrapedAt.Add(model.UnsavedTTL)
	return &model.Job{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Company:     "Acme",
		Description: "Production Go services.",
		URL:         "https://example.com/" + id,
		ScrapedAt:   scrapedAt,
		ExpiresAt:   &exp,
	}
}

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("semantic dominates keyword in hybrid mode", func(t *testing.T) {
		f := newSearchFixture(t)

		// keywordOnly matches the query terms exactly but has an orthogonal
		// vector; semanticOnly is the reverse.
		keywordOnly := searchJob("job-kw", "user-1", "golang kubernetes", base)
		semanticOnly := searchJob("job-sem", "user-1", "container orchestration", base)
		f.indexJob(keywordOnly, []float32{0, 1, 0})
		f.indexJob(semanticOnly, []float32{1, 0, 0})
		f.embedder.vectors["golang kubernetes"] = []float32{1, 0, 0}

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang kubernetes",
			Mode:   model.SearchModeHybrid,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)

		// 0.7*1.0 semantic beats 0.3*1.0 keyword.
		assert.Equal(t, "job-sem", results[0].Job.ID)
		assert.Equal(t, "job-kw", results[1].Job.ID)
		assert.Greater(t, results[0].CombinedScore, results[1].CombinedScore)
		assert.InDelta(t, 0.7, results[0].CombinedScore, 0.05)
	})

	t.Run("keyword mode ignores vectors", func(t *testing.T) {
		f := newSearchFixture(t)
		job := searchJob("job-1", "user-1", "golang developer", base)
		f.indexJob(job, []float32{1, 0, 0})

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang",
			Mode:   model.SearchModeKeyword,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Zero(t, results[0].SemanticScore)
		assert.Positive(t, results[0].KeywordScore)
		assert.Equal(t, results[0].KeywordScore, results[0].CombinedScore)
	})

	t.Run("semantic mode ignores the inverted index", func(t *testing.T) {
		f := newSearchFixture(t)
		job := searchJob("job-1", "user-1", "data pipelines", base)
		f.indexJob(job, []float32{1, 0, 0})
		f.embedder.vectors["streaming etl"] = []float32{1, 0, 0}

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "streaming etl",
			Mode:   model.SearchModeSemantic,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Zero(t, results[0].KeywordScore)
		assert.InDelta(t, 1.0, results[0].SemanticScore, 0.001)
	})

	t.Run("other users jobs never leak through semantic retrieval", func(t *testing.T) {
		f := newSearchFixture(t)
		mine := searchJob("job-mine", "user-1", "golang developer", base)
		theirs := searchJob("job-theirs", "user-2", "golang developer", base)
		f.indexJob(mine, []float32{1, 0, 0})
		f.indexJob(theirs, []float32{1, 0, 0})
		f.embedder.vectors["golang"] = []float32{1, 0, 0}

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "job-mine", results[0].Job.ID)
	})

	t.Run("duplicates are excluded", func(t *testing.T) {
		f := newSearchFixture(t)
		job := searchJob("job-dup", "user-1", "golang developer", base)
		job.Duplicate = true
		f.indexJob(job, nil)

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang",
			Mode:   model.SearchModeKeyword,
		})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("min match score cuts weak results", func(t *testing.T) {
		f := newSearchFixture(t)
		strong := searchJob("job-strong", "user-1", "golang golang golang", base)
		weak := searchJob("job-weak", "user-1", "golang plus many other unrelated words here", base)
		f.indexJob(strong, nil)
		f.indexJob(weak, nil)

		minScore := 0.9
		_, err := f.prefs.Upsert(ctx, &model.SearchPreferences{
			UserID:        "user-1",
			MaxResults:    50,
			MinMatchScore: &minScore,
		})
		require.NoError(t, err)

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang",
			Mode:   model.SearchModeKeyword,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "job-strong", results[0].Job.ID)
	})

	t.Run("ties break by recency", func(t *testing.T) {
		f := newSearchFixture(t)
		older := searchJob("job-old", "user-1", "golang developer", base.Add(-time.Hour))
		newer := searchJob("job-new", "user-1", "golang developer", base)
		f.indexJob(older, nil)
		f.indexJob(newer, nil)

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang developer",
			Mode:   model.SearchModeKeyword,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "job-new", results[0].Job.ID)
		assert.Equal(t, "job-old", results[1].Job.ID)
	})

	t.Run("limit caps the result set", func(t *testing.T) {
		f := newSearchFixture(t)
		for i := 0; i < 5; i++ {
			job := searchJob(string(rune('a'+i)), "user-1", "golang developer", base.Add(time.Duration(i)*time.Minute))
			f.indexJob(job, nil)
		}

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang",
			Limit:  2,
			Mode:   model.SearchModeKeyword,
		})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("hybrid degrades to keyword when embedder is down", func(t *testing.T) {
		f := newSearchFixture(t)
		f.embedder.err = errors.New("model unavailable")
		job := searchJob("job-1", "user-1", "golang developer", base)
		f.indexJob(job, nil)

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang",
			Mode:   model.SearchModeHybrid,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Zero(t, results[0].SemanticScore)
	})

	t.Run("semantic mode fails when embedder is down", func(t *testing.T) {
		f := newSearchFixture(t)
		f.embedder.err = errors.New("model unavailable")

		_, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "golang",
			Mode:   model.SearchModeSemantic,
		})
		assert.Error(t, err)
	})

	t.Run("invalid requests are rejected", func(t *testing.T) {
		f := newSearchFixture(t)

		_, err := f.svc.Search(ctx, &model.SearchRequest{UserID: "user-1"})
		assert.True(t, apperrors.IsValidation(err))

		_, err = f.svc.Search(ctx, &model.SearchRequest{UserID: "user-1", Query: "go", Mode: "bogus"})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("no matches returns an empty slice", func(t *testing.T) {
		f := newSearchFixture(t)

		results, err := f.svc.Search(ctx, &model.SearchRequest{
			UserID: "user-1",
			Query:  "nothing indexed",
			Mode:   model.SearchModeKeyword,
		})
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})
}
