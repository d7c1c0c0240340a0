// Package dedup detects near-duplicate job postings within a user's corpus
// using fuzzy text comparison. It is pure computation; the enrichment worker
// decides what to do with flagged duplicates.
package dedup

import (
	"strings"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// Field weights for the combined similarity score. Company and title dominate
// so that postings from different companies can never cross the threshold on
// title alone (0.35 + 0.10 + 0.20 = 0.65 < threshold).
const (
	titleWeight       = 0.35
	companyWeight     = 0.35
	locationWeight    = 0.10
	descriptionWeight = 0.20
)

// DefaultThreshold is the combined similarity at or above which two postings
// are considered duplicates.
const DefaultThreshold = 0.85

// Similarity computes the weighted field similarity between two jobs in [0, 1].
func Similarity(a, b *model.Job) float64 {
	return titleWeight*stringSimilarity(a.Title, b.Title) +
		companyWeight*stringSimilarity(a.Company, b.Company) +
		locationWeight*stringSimilarity(a.Location, b.Location) +
		descriptionWeight*stringSimilarity(a.Description, b.Description)
}

// IsDuplicate reports whether candidate is a near-duplicate of any job in
// existing. Only jobs owned by the same user are compared; dedup is per-user,
// never global.
func IsDuplicate(candidate *model.Job, existing []model.Job) bool {
	match, _ := FindDuplicate(candidate, existing)
	return match != nil
}

// FindDuplicate returns the first existing job whose combined similarity with
// the candidate reaches DefaultThreshold, along with the score. Returns
// (nil, 0) when no duplicate exists.
func FindDuplicate(candidate *model.Job, existing []model.Job) (*model.Job, float64) {
	for i := range existing {
		other := &existing[i]
		if other.UserID != candidate.UserID {
			continue
		}
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		if score := Similarity(candidate, other); score >= DefaultThreshold {
			return other, score
		}
	}
	return nil, 0
}

// stringSimilarity compares two strings after normalization (case-folded,
// whitespace-collapsed) using trigram Jaccard similarity. Equal normalized
// strings score 1; strings too short for trigrams fall back to equality.
func stringSimilarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ta, tb := trigrams(na), trigrams(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var intersection int
	for t := range ta {
		if _, ok := tb[t]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func trigrams(s string) map[string]struct{} {
	runes := []rune(s)
	if len(runes) < 3 {
		// Pad very short strings so they still produce one gram.
		padded := string(runes) + strings.Repeat(" ", 3-len(runes))
		return map[string]struct{}{padded: {}}
	}
	grams := make(map[string]struct{}, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = struct{}{}
	}
	return grams
}
