// Package normalize converts heterogeneous raw postings into canonical Job
// records. Every function here is pure: no I/O, no shared state, safe to run
// per-posting in parallel. Normalization never fails outright; any field the
// source omits or that cannot be parsed degrades to its zero value.
package normalize

import (
	"strings"
	"time"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// Keyword sets for work-arrangement detection. Precedence is
// Remote > Hybrid > OnSite > Unknown; the first set with a hit wins.
var (
	remoteKeywords = []string{
		"remote", "fully remote", "work from home", "wfh", "anywhere",
		"distributed team", "telecommute",
	}
	hybridKeywords = []string{
		"hybrid", "partially remote", "days in office", "flexible location",
	}
	onSiteKeywords = []string{
		"on-site", "onsite", "on site", "in office", "in-office", "office based",
	}
)

// Posting converts one RawPosting into a canonical Job. Identity, ownership,
// and lifecycle fields are left for the caller to assign at persistence time.
func Posting(raw model.RawPosting) model.Job {
	title := strings.TrimSpace(raw.Title)
	company := strings.TrimSpace(raw.Company)
	location := strings.TrimSpace(raw.Location)
	description := strings.TrimSpace(raw.Description)

	salaryText := raw.SalaryText
	if salaryText == "" {
		salaryText = description
	}
	salaryMin, salaryMax := Salary(salaryText)

	job := model.Job{
		Source:          raw.Source,
		Title:           title,
		Company:         company,
		Location:        location,
		Description:     description,
		URL:             strings.TrimSpace(raw.URL),
		WorkArrangement: Arrangement(title, description, location),
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		RequiredSkills:  Skills(title + " " + description),
		ExperienceLevel: ExperienceLevel(title),
		PostedAt:        parsePostedAt(raw.PostedAt),
	}
	return job
}

// Arrangement detects the work arrangement from the title, description, and
// location fields. The first matching keyword wins, in precedence order.
func Arrangement(title, description, location string) model.WorkArrangement {
	haystack := strings.ToLower(title + " " + description + " " + location)

	for _, kw := range remoteKeywords {
		if strings.Contains(haystack, kw) {
			return model.ArrangementRemote
		}
	}
	for _, kw := range hybridKeywords {
		if strings.Contains(haystack, kw) {
			return model.ArrangementHybrid
		}
	}
	for _, kw := range onSiteKeywords {
		if strings.Contains(haystack, kw) {
			return model.ArrangementOnSite
		}
	}
	return model.ArrangementUnknown
}

// seniorityMarkers map title substrings to an experience level, scanned in order.
var seniorityMarkers = []struct {
	marker string
	level  string
}{
	{"principal", "principal"},
	{"staff", "staff"},
	{"lead", "lead"},
	{"senior", "senior"},
	{"sr.", "senior"},
	{"sr ", "senior"},
	{"junior", "junior"},
	{"jr.", "junior"},
	{"jr ", "junior"},
	{"intern", "intern"},
	{"entry level", "entry"},
	{"entry-level", "entry"},
	{"graduate", "entry"},
}

// ExperienceLevel infers a coarse seniority band from the job title.
// Returns empty string when no marker is present.
func ExperienceLevel(title string) string {
	lower := strings.ToLower(title)
	for _, m := range seniorityMarkers {
		if strings.Contains(lower, m.marker) {
			return m.level
		}
	}
	return ""
}

func parsePostedAt(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
