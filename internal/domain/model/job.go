// Package model defines the core data types and structures used throughout the jobscout pipeline.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobSource identifies the scraping provider a posting came from.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobSource string

// WorkArrangement describes where the work happens.
type WorkArrangement string

const (
	// SourceAdzuna is the Adzuna job board API.
	SourceAdzuna JobSource = "adzuna"
	// SourceRemotive is the Remotive remote-jobs API.
	SourceRemotive JobSource = "remotive"
	// SourceJSearch is the JSearch aggregator API.
	SourceJSearch JobSource = "jsearch"

	// ArrangementRemote indicates fully remote work.
	ArrangementRemote WorkArrangement = "remote"
	// ArrangementHybrid indicates a mix of remote and on-site work.
	ArrangementHybrid WorkArrangement = "hybrid"
	// ArrangementOnSite indicates on-site work.
	ArrangementOnSite WorkArrangement = "onsite"
	// ArrangementUnknown indicates the posting did not specify an arrangement.
	ArrangementUnknown WorkArrangement = "unknown"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobSource to allow env parsing.
func (s *JobSource) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	src := JobSource(v)
	if src.Valid() {
		*s = src
		return nil
	}
	return fmt.Errorf("invalid JobSource: %q", v)
}

// Valid returns true if the JobSource is a known provider.
func (s JobSource) Valid() bool {
	return s == SourceAdzuna || s == SourceRemotive || s == SourceJSearch
}

// AllSources returns every known provider, in stable order.
func AllSources() []JobSource {
	return []JobSource{SourceAdzuna, SourceRemotive, SourceJSearch}
}

// Valid returns true if the WorkArrangement is valid.
func (a WorkArrangement) Valid() bool {
	return a == ArrangementRemote || a == ArrangementHybrid ||
		a == ArrangementOnSite || a == ArrangementUnknown
}

// UnsavedTTL is how long an unsaved job lives before the sweeper may delete it.
const UnsavedTTL = 48 * time.Hour

// Job is the canonical, persisted representation of a posting, owned by one user.
type Job struct {
	ID       string    `json:"id"        db:"id"`
	UserID   string    `json:"user_id"   db:"user_id"`
	SearchID string    `json:"search_id" db:"search_id"` // groups jobs from one ingestion run
	Source   JobSource `json:"source"    db:"source"`

	Title           string          `json:"title"                      db:"title"`
	Company         string          `json:"company"                    db:"company"`
	Location        string          `json:"location"                   db:"location"`
	Description     string          `json:"description"                db:"description"`
	URL             string          `json:"url"                        db:"url"`
	WorkArrangement WorkArrangement `json:"work_arrangement"           db:"work_arrangement"`
	SalaryMin       *int            `json:"salary_min,omitempty"       db:"salary_min"`
	SalaryMax       *int            `json:"salary_max,omitempty"       db:"salary_max"`
	RequiredSkills  []string        `json:"required_skills,omitempty"  db:"required_skills"`
	ExperienceLevel string          `json:"experience_level,omitempty" db:"experience_level"`

	SpamScore      int      `json:"spam_score"                db:"spam_score"`
	SpamIndicators []string `json:"spam_indicators,omitempty" db:"spam_indicators"`
	Duplicate      bool     `json:"duplicate"                 db:"duplicate"`

	Saved     bool       `json:"saved"                db:"saved"`
	SavedAt   *time.Time `json:"saved_at,omitempty"   db:"saved_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`

	// PostedAt is the provider's publication date, informational only.
	// Lifecycle timestamps are always anchored to scrape/insert time.
	PostedAt  *time.Time `json:"posted_at,omitempty" db:"posted_at"`
	ScrapedAt time.Time  `json:"scraped_at"          db:"scraped_at"`
	CreatedAt time.Time  `json:"created_at"          db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"          db:"updated_at"`
}

// LifecycleValid reports whether the saved/expiry invariant holds:
// saved implies savedAt set and expiresAt nil, unsaved the reverse.
func (j *Job) LifecycleValid() bool {
	if j.Saved {
		return j.SavedAt != nil && j.ExpiresAt == nil
	}
	return j.SavedAt == nil && j.ExpiresAt != nil
}

// SearchText returns the text used for embedding and keyword indexing.
func (j *Job) SearchText() string {
	parts := []string{j.Title, j.Company, j.Location, j.Description}
	if len(j.RequiredSkills) > 0 {
		parts = append(parts, strings.Join(j.RequiredSkills, " "))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// RawPosting is a job listing exactly as a provider adapter produced it,
// before normalization. Field mapping from provider JSON happens in the
// adapter; salary/arrangement/skill parsing happens in the normalizer.
type RawPosting struct {
	Source      JobSource `json:"source"`
	ExternalID  string    `json:"external_id,omitempty"`
	Title       string    `json:"title"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	SalaryText  string    `json:"salary_text,omitempty"`
	PostedAt    string    `json:"posted_at,omitempty"`
}

// ScrapeRequest describes one ingestion run for a user.
type ScrapeRequest struct {
	UserID     string      `json:"user_id"`
	Keywords   string      `json:"keywords"`
	Location   string      `json:"location,omitempty"`
	MaxResults int         `json:"max_results,omitempty"`
	Sources    []JobSource `json:"sources,omitempty"` // empty means all enabled sources
	Scheduled  bool        `json:"-"`                  // set by the scheduler path
}

// Validate validates the ScrapeRequest fields before any I/O happens.
func (r *ScrapeRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(r.Keywords) == "" {
		return errors.New("keywords are required")
	}
	if r.MaxResults < 0 {
		return errors.New("max results must be >= 0")
	}
	for _, src := range r.Sources {
		if !src.Valid() {
			return fmt.Errorf("invalid source: %q", src)
		}
	}
	return nil
}

// SourceFailure records why one provider produced no results for a run.
type SourceFailure struct {
	Source JobSource `json:"source"`
	Reason string    `json:"reason"`
	// Unavailable marks quota/auth failures that should not be retried.
	Unavailable bool `json:"unavailable"`
}

// ScrapeResult is the partial-success outcome of one ingestion run: jobs from
// every provider that answered, plus a failure record per provider that did not.
type ScrapeResult struct {
	SearchID string          `json:"search_id"`
	Jobs     []Job           `json:"jobs"`
	JobCount int             `json:"job_count"`
	Failures []SourceFailure `json:"failures,omitempty"`
}

// JobListOptions filters and pages job listings.
type JobListOptions struct {
	UserID            string
	Saved             *bool
	IncludeDuplicates bool
	Limit             int
	Offset            int
}

// ExpirationSummary aggregates lifecycle state for one user's corpus.
type ExpirationSummary struct {
	TotalJobs    int `json:"total_jobs"`
	SavedJobs    int `json:"saved_jobs"`
	UnsavedJobs  int `json:"unsaved_jobs"`
	ExpiringSoon int `json:"expiring_soon"` // unsaved, expires within 24h
	ExpiredJobs  int `json:"expired_jobs"`  // unsaved, already past expiry
}

// SearchMode selects the retrieval strategy.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type SearchMode string

const (
	// SearchModeKeyword uses the inverted index only.
	SearchModeKeyword SearchMode = "keyword"
	// SearchModeSemantic uses embedding nearest-neighbor only.
	SearchModeSemantic SearchMode = "semantic"
	// SearchModeHybrid combines both scores. Default.
	SearchModeHybrid SearchMode = "hybrid"
)

// Valid returns true if the SearchMode is valid.
func (m SearchMode) Valid() bool {
	return m == SearchModeKeyword || m == SearchModeSemantic || m == SearchModeHybrid
}

// UnmarshalText implements encoding.TextUnmarshaler for SearchMode.
func (m *SearchMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	if v == "" {
		*m = SearchModeHybrid
		return nil
	}
	mode := SearchMode(v)
	if mode.Valid() {
		*m = mode
		return nil
	}
	return fmt.Errorf("invalid SearchMode: %q", v)
}

// SearchRequest describes one search over a user's corpus.
type SearchRequest struct {
	UserID string     `json:"user_id"`
	Query  string     `json:"query"`
	Limit  int        `json:"limit,omitempty"`
	Mode   SearchMode `json:"mode,omitempty"`
}

// Validate validates the SearchRequest fields.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	if r.Limit < 0 {
		return errors.New("limit must be >= 0")
	}
	if r.Mode != "" && !r.Mode.Valid() {
		return fmt.Errorf("invalid mode: %q", r.Mode)
	}
	return nil
}

// ScoredJob is a search hit with its component and combined scores.
type ScoredJob struct {
	Job           Job     `json:"job"`
	KeywordScore  float64 `json:"keyword_score"`
	SemanticScore float64 `json:"semantic_score"`
	CombinedScore float64 `json:"combined_score"`
}
