// Package search provides the in-memory indexes behind hybrid job search:
// a keyword inverted index with term-frequency scoring and a brute-force
// cosine vector index. Both are safe for concurrent use and are rebuilt from
// the store on startup by the indexer worker.
package search

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

var termSplitter = regexp.MustCompile(`[^a-z0-9+#]+`)

// Tokenize lower-cases text and splits it into index terms. Single-character
// alphabetic terms are dropped as noise; "c" survives only via "c++"/"c#".
func Tokenize(text string) []string {
	parts := termSplitter.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(p) == 1 && p[0] >= 'a' && p[0] <= 'z' {
			continue
		}
		terms = append(terms, p)
	}
	return terms
}

type keywordDoc struct {
	userID    string
	scrapedAt time.Time
	length    int // total term count, for TF normalization
}

// KeywordHit is one scored match from the keyword index.
type KeywordHit struct {
	JobID     string
	Score     float64 // normalized to [0,1] within the result set
	ScrapedAt time.Time
}

// KeywordIndex is an inverted index over job search text, partitioned by
// owning user.
type KeywordIndex struct {
	mu       sync.RWMutex
	docs     map[string]keywordDoc
	postings map[string]map[string]int // term -> jobID -> occurrences
}

// NewKeywordIndex returns an empty index.
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{
		docs:     make(map[string]keywordDoc),
		postings: make(map[string]map[string]int),
	}
}

// Add indexes the text for a job, replacing any previous entry for the same
// job ID.
func (idx *KeywordIndex) Add(jobID, userID, text string, scrapedAt time.Time) {
	terms := Tokenize(text)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(jobID)
	idx.docs[jobID] = keywordDoc{userID: userID, scrapedAt: scrapedAt, length: len(terms)}
	for _, term := range terms {
		posting, ok := idx.postings[term]
		if !ok {
			posting = make(map[string]int)
			idx.postings[term] = posting
		}
		posting[jobID]++
	}
}

// Remove drops a job from the index. Unknown IDs are a no-op.
func (idx *KeywordIndex) Remove(jobID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(jobID)
}

func (idx *KeywordIndex) removeLocked(jobID string) {
	if _, ok := idx.docs[jobID]; !ok {
		return
	}
	delete(idx.docs, jobID)
	for term, posting := range idx.postings {
		if _, ok := posting[jobID]; ok {
			delete(posting, jobID)
			if len(posting) == 0 {
				delete(idx.postings, term)
			}
		}
	}
}

// Len returns the number of indexed jobs.
func (idx *KeywordIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search scores the user's jobs against the query terms and returns up to
// limit hits, best first. Raw scores are summed term frequencies divided by
// document length; the result set is then scaled so the best hit scores 1.
// Ties break by most recent scrape.
func (idx *KeywordIndex) Search(userID, query string, limit int) []KeywordHit {
	terms := Tokenize(query)
	if len(terms) == 0 || limit <= 0 {
		return nil
	}
	unique := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		unique[t] = struct{}{}
	}

	idx.mu.RLock()
	raw := make(map[string]float64)
	for term := range unique {
		for jobID, count := range idx.postings[term] {
			doc := idx.docs[jobID]
			if doc.userID != userID || doc.length == 0 {
				continue
			}
			raw[jobID] += float64(count) / float64(doc.length)
		}
	}

	hits := make([]KeywordHit, 0, len(raw))
	var best float64
	for jobID, score := range raw {
		if score > best {
			best = score
		}
		hits = append(hits, KeywordHit{
			JobID:     jobID,
			Score:     score,
			ScrapedAt: idx.docs[jobID].scrapedAt,
		})
	}
	idx.mu.RUnlock()

	if best > 0 {
		for i := range hits {
			hits[i].Score /= best
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ScrapedAt.After(hits[j].ScrapedAt)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
