package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/filterpref"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/search"
)

const (
	// Hybrid score weights. Semantic similarity dominates; keywords anchor
	// exact-term matches.
	keywordWeight  = 0.3
	semanticWeight = 0.7

	// DefaultSearchLimit is applied when a request does not set one.
	DefaultSearchLimit = 20

	// Semantic retrieval is user-agnostic, so it over-fetches and filters.
	semanticOverFetch = 2
)

// SearchServiceOptions groups dependencies for SearchService.
type SearchServiceOptions struct {
	Jobs       core.JobRepository        // Required: job repository
	Prefs      core.PreferenceRepository // Required: preference repository
	Embeddings *EmbeddingService         // Required for semantic and hybrid modes
	Keyword    *search.KeywordIndex      // Required: inverted index
	Vector     *search.VectorIndex       // Required: vector index
	Logger     *slog.Logger              // Optional: structured logger
	Metrics    statsd.Sink               // Optional: metrics sink (StatsD-compatible)
}

// SearchService answers queries over a user's ingested corpus. Keyword and
// semantic retrieval run against in-memory indexes maintained by the indexer
// worker; hybrid mode blends both scores.
type SearchService struct {
	jobs       core.JobRepository
	prefs      core.PreferenceRepository
	embeddings *EmbeddingService
	keyword    *search.KeywordIndex
	vector     *search.VectorIndex
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewSearchService constructs a new SearchService.
func NewSearchService(opts SearchServiceOptions) (*SearchService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Prefs == nil {
		return nil, errors.New("PreferenceRepository is required")
	}
	if opts.Keyword == nil {
		return nil, errors.New("KeywordIndex is required")
	}
	if opts.Vector == nil {
		return nil, errors.New("VectorIndex is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "search_service")
	}

	return &SearchService{
		jobs:       opts.Jobs,
		prefs:      opts.Prefs,
		embeddings: opts.Embeddings,
		keyword:    opts.Keyword,
		vector:     opts.Vector,
		logger:     logger,
		metrics:    opts.Metrics,
	}, nil
}

// Search runs one query and returns scored, preference-filtered results.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) ([]model.ScoredJob, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	mode := req.Mode
	if mode == "" {
		mode = model.SearchModeHybrid
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	start := time.Now()

	keywordScores := map[string]float64{}
	if mode == model.SearchModeKeyword || mode == model.SearchModeHybrid {
		for _, hit := range s.keyword.Search(req.UserID, req.Query, limit*semanticOverFetch) {
			keywordScores[hit.JobID] = hit.Score
		}
	}

	semanticScores := map[string]float64{}
	if mode == model.SearchModeSemantic || mode == model.SearchModeHybrid {
		scores, err := s.semanticScores(ctx, req.Query, limit)
		if err != nil {
			if mode == model.SearchModeSemantic {
				return nil, err
			}
			// Hybrid degrades to keyword-only when the embedder is down.
			if s.logger != nil {
				s.logger.WarnContext(ctx, "semantic scoring unavailable, keyword only",
					"error", err)
			}
		} else {
			semanticScores = scores
		}
	}

	combined := combineScores(mode, keywordScores, semanticScores)
	if len(combined) == 0 {
		return []model.ScoredJob{}, nil
	}

	results, err := s.hydrate(ctx, req.UserID, combined)
	if err != nil {
		return nil, err
	}

	prefs, err := s.prefs.Get(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	results = filterpref.ApplyScored(results, prefs)

	sortScored(results)
	if len(results) > limit {
		results = results[:limit]
	}

	if s.metrics != nil {
		s.metrics.Count("search.query", 1, map[string]string{"mode": string(mode)})
		s.metrics.Timing("search.query_duration", time.Since(start), nil)
	}
	return results, nil
}

// semanticScores embeds the query and scans the vector index. Retrieval is
// user-agnostic, so it over-fetches and drops other users' jobs during
// hydration.
func (s *SearchService) semanticScores(ctx context.Context, query string, limit int) (map[string]float64, error) {
	if s.embeddings == nil {
		return nil, errors.New("embedding service not configured")
	}

	vec, err := s.embeddings.GetOrCompute(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scores := map[string]float64{}
	for _, match := range s.vector.Search(vec, limit*semanticOverFetch) {
		scores[match.JobID] = match.Score
	}
	return scores, nil
}

type scoreParts struct {
	keyword  float64
	semantic float64
	combined float64
}

func combineScores(mode model.SearchMode, keyword, semantic map[string]float64) map[string]scoreParts {
	out := make(map[string]scoreParts, len(keyword)+len(semantic))
	for id, ks := range keyword {
		p := out[id]
		p.keyword = ks
		out[id] = p
	}
	for id, ss := range semantic {
		p := out[id]
		p.semantic = ss
		out[id] = p
	}

	for id, p := range out {
		switch mode {
		case model.SearchModeKeyword:
			p.combined = p.keyword
		case model.SearchModeSemantic:
			p.combined = p.semantic
		default:
			// A job missing from one component contributes zero there.
			p.combined = keywordWeight*p.keyword + semanticWeight*p.semantic
		}
		out[id] = p
	}
	return out
}

// hydrate loads the scored rows and drops hits that belong to other users or
// no longer exist (swept between indexing and query).
func (s *SearchService) hydrate(ctx context.Context, userID string, combined map[string]scoreParts) ([]model.ScoredJob, error) {
	ids := make([]string, 0, len(combined))
	for id := range combined {
		ids = append(ids, id)
	}

	jobs, err := s.jobs.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}

	results := make([]model.ScoredJob, 0, len(jobs))
	for _, job := range jobs {
		if job.UserID != userID || job.Duplicate {
			continue
		}
		p := combined[job.ID]
		results = append(results, model.ScoredJob{
			Job:           *job,
			KeywordScore:  p.keyword,
			SemanticScore: p.semantic,
			CombinedScore: p.combined,
		})
	}
	return results, nil
}

// sortScored orders results by combined score descending, breaking ties by
// recency.
func sortScored(results []model.ScoredJob) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].Job.ScrapedAt.After(results[j].Job.ScrapedAt)
	})
}
