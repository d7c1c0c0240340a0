// Package embed provides Embedder implementations: a deterministic
// in-process feature-hash embedder for development and tests, and a client
// for OpenAI-compatible embedding APIs.
package embed

import (
	"context"
	"errors"
	"hash/fnv"
	"math"

	"github.com/jobscout/jobscout/internal/search"
)

// DefaultDimensions is the vector width of the local embedder.
const DefaultDimensions = 256

// LocalEmbedder maps text to a fixed-width vector by feature hashing: each
// term and each adjacent term pair is hashed into a bucket, with a second
// hash choosing the sign. The output is L2-normalized, so cosine similarity
// over these vectors approximates term-overlap similarity. Deterministic
// across processes, which keeps the shared Redis cache coherent.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a LocalEmbedder with the given vector width.
// Non-positive widths fall back to DefaultDimensions.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &LocalEmbedder{dims: dims}
}

// Embed computes the feature-hash vector for text.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	terms := search.Tokenize(text)
	if len(terms) == 0 {
		return nil, errors.New("no embeddable terms in text")
	}

	vec := make([]float32, e.dims)
	add := func(feature string) {
		h := fnv.New64a()
		h.Write([]byte(feature))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dims)) // #nosec G115 - dims is a small positive int
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	for i, term := range terms {
		add(term)
		if i > 0 {
			// Term pairs catch word order, so "senior engineer" and
			// "engineer senior" do not collapse to the same vector.
			add(terms[i-1] + " " + term)
		}
	}

	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
