// Package filterpref applies a user's search preferences to a slice of jobs.
// Filtering is pure and side-effect free so it can run identically for manual
// and scheduled ingestion as well as on search results.
package filterpref

import (
	"strings"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// Apply returns the jobs that pass every enabled preference. The input slice
// is not modified. A nil prefs passes everything through.
func Apply(jobs []*model.Job, prefs *model.SearchPreferences) []*model.Job {
	if prefs == nil {
		return jobs
	}

	kept := make([]*model.Job, 0, len(jobs))
	for _, job := range jobs {
		if Matches(job, prefs) {
			kept = append(kept, job)
		}
	}
	return kept
}

// Matches reports whether a single job passes the preferences.
func Matches(job *model.Job, prefs *model.SearchPreferences) bool {
	if prefs == nil {
		return true
	}
	if !prefs.SourceEnabled(job.Source) {
		return false
	}
	if prefs.CompanyBlacklisted(job.Company) {
		return false
	}
	if containsBlacklistedKeyword(job, prefs.BlacklistKeywords) {
		return false
	}
	if prefs.RemoteOnly && job.WorkArrangement != model.ArrangementRemote {
		return false
	}
	return true
}

// ApplyScored filters ranked search results. In addition to the job-level
// preferences it drops results below MinMatchScore when one is set.
func ApplyScored(results []model.ScoredJob, prefs *model.SearchPreferences) []model.ScoredJob {
	if prefs == nil {
		return results
	}

	kept := make([]model.ScoredJob, 0, len(results))
	for _, res := range results {
		if !Matches(&res.Job, prefs) {
			continue
		}
		if prefs.MinMatchScore != nil && res.CombinedScore < *prefs.MinMatchScore {
			continue
		}
		kept = append(kept, res)
	}
	return kept
}

// containsBlacklistedKeyword scans title and description case-insensitively.
func containsBlacklistedKeyword(job *model.Job, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	text := strings.ToLower(job.Title + " " + job.Description)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
