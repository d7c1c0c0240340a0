package search

import (
	"math"
	"sort"
	"sync"
)

// VectorMatch is one nearest-neighbor result.
type VectorMatch struct {
	JobID string
	Score float64 // cosine similarity, clamped to [0,1]
}

// VectorIndex is a brute-force cosine nearest-neighbor index. Vectors are
// L2-normalized on insert so lookup reduces to a dot product. Suitable for
// per-user corpora in the low tens of thousands.
type VectorIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewVectorIndex returns an empty index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{vectors: make(map[string][]float32)}
}

// Add stores the vector for a job, replacing any previous entry. Zero-length
// or zero-magnitude vectors are ignored.
func (idx *VectorIndex) Add(jobID string, vector []float32) {
	normalized, ok := normalize(vector)
	if !ok {
		return
	}
	idx.mu.Lock()
	idx.vectors[jobID] = normalized
	idx.mu.Unlock()
}

// Remove drops a job from the index. Unknown IDs are a no-op.
func (idx *VectorIndex) Remove(jobID string) {
	idx.mu.Lock()
	delete(idx.vectors, jobID)
	idx.mu.Unlock()
}

// Len returns the number of indexed vectors.
func (idx *VectorIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Search returns up to k nearest neighbors of the query vector, best first.
// Callers over-fetch and filter by owner afterwards; the index itself has no
// notion of users.
func (idx *VectorIndex) Search(query []float32, k int) []VectorMatch {
	normalized, ok := normalize(query)
	if !ok || k <= 0 {
		return nil
	}

	idx.mu.RLock()
	matches := make([]VectorMatch, 0, len(idx.vectors))
	for jobID, vec := range idx.vectors {
		if len(vec) != len(normalized) {
			continue
		}
		score := dot(normalized, vec)
		if score < 0 {
			score = 0
		}
		matches = append(matches, VectorMatch{JobID: jobID, Score: score})
	}
	idx.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].JobID < matches[j].JobID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func normalize(vec []float32) ([]float32, bool) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return nil, false
	}
	mag := math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / mag)
	}
	return out, true
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
