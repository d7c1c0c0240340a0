package service

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/jobscout/jobscout/internal/cache"
	"github.com/jobscout/jobscout/internal/core"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/observability/statsd"
)

const (
	// LocalEmbeddingTTL bounds how long a vector stays in the in-process cache.
	LocalEmbeddingTTL = time.Hour
	// SharedEmbeddingTTL bounds how long a vector stays in Redis.
	SharedEmbeddingTTL = 30 * 24 * time.Hour

	embeddingKeyPrefix = "embed:"
)

// EmbeddingServiceOptions groups dependencies for EmbeddingService.
type EmbeddingServiceOptions struct {
	Embedder core.Embedder         // Required: vector model client
	Shared   core.CacheRepository  // Required: Redis-backed shared cache
	Local    *cache.VectorLRU      // Optional: in-process cache, created when nil
	Logger   *slog.Logger          // Optional: structured logger
	Metrics  statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// EmbeddingService resolves text to dense vectors through a two-level cache:
// in-process LRU first, shared Redis second, the embedder only on a full miss.
// Both levels are keyed by a hash of the normalized text, so reworded spacing
// or casing never recomputes a vector.
type EmbeddingService struct {
	embedder core.Embedder
	shared   core.CacheRepository
	local    *cache.VectorLRU
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewEmbeddingService constructs a new EmbeddingService.
func NewEmbeddingService(opts EmbeddingServiceOptions) (*EmbeddingService, error) {
	if opts.Embedder == nil {
		return nil, errors.New("Embedder is required")
	}
	if opts.Shared == nil {
		return nil, errors.New("shared CacheRepository is required")
	}

	local := opts.Local
	if local == nil {
		local = cache.NewVectorLRU(cache.DefaultVectorLRUConfig())
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "embedding_service")
	}

	return &EmbeddingService{
		embedder: opts.Embedder,
		shared:   opts.Shared,
		local:    local,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// GetOrCompute returns the embedding for the text, computing it only when
// neither cache level has it. Embedder failures propagate; shared-cache write
// failures are logged and swallowed so a Redis hiccup never fails a search.
func (s *EmbeddingService) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Validation("text is required")
	}

	key := embeddingKeyPrefix + cache.TextKey(text)

	if vec, ok := s.local.Get(key); ok {
		s.countCacheLookup("l1", "hit")
		return vec, nil
	}
	s.countCacheLookup("l1", "miss")

	raw, err := s.shared.Get(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "shared embedding cache read failed", "error", err)
		}
	} else if raw != nil {
		vec, decodeErr := decodeVector(raw)
		if decodeErr == nil {
			s.countCacheLookup("l2", "hit")
			s.local.Set(key, vec, LocalEmbeddingTTL)
			return vec, nil
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "corrupt shared embedding entry, recomputing",
				"key", key, "error", decodeErr)
		}
	}
	s.countCacheLookup("l2", "miss")

	start := time.Now()
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(vec) == 0 {
		return nil, errors.New("embedder returned an empty vector")
	}
	if s.metrics != nil {
		s.metrics.Timing("embedding.compute_duration", time.Since(start), nil)
	}

	s.local.Set(key, vec, LocalEmbeddingTTL)
	if err := s.shared.Set(ctx, key, encodeVector(vec), SharedEmbeddingTTL); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "shared embedding cache write failed", "error", err)
		}
	}

	return vec, nil
}

// LocalStats exposes in-process cache counters for diagnostics.
func (s *EmbeddingService) LocalStats() cache.VectorLRUStats {
	return s.local.Stats()
}

func (s *EmbeddingService) countCacheLookup(layer, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Count("embedding.cache_lookup", 1, map[string]string{
		"layer":  layer,
		"result": result,
	})
}

// encodeVector packs a vector as little-endian float32s for Redis storage.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("invalid vector payload length %d", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}
