// Package testutil provides testing utilities and helpers for the jobscout pipeline.
package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// JobBuilder provides a fluent interface for building model.Job values for testing.
type JobBuilder struct {
	job *model.Job
}

// NewJob creates a new JobBuilder with sensible defaults: an unsaved remote
// posting scraped at TestTime with the standard 48h expiry.
func NewJob() *JobBuilder {
	scrapedAt := TestTime()
	expiresAt := scrapedAt.Add(model.UnsavedTTL)
	return &JobBuilder{
		job: &model.Job{
			ID:              uuid.NewString(),
			UserID:          "user-1",
			SearchID:        "search-1",
			Source:          model.SourceAdzuna,
			Title:           "Backend Engineer",
			Company:         "Acme Software",
			Location:        "Remote",
			Description:     "Design and operate Go services for the Acme payments platform.",
			URL:             "https://careers.acme.example/jobs/" + uuid.NewString(),
			WorkArrangement: model.ArrangementRemote,
			ExpiresAt:       &expiresAt,
			ScrapedAt:       scrapedAt,
		},
	}
}

// WithID sets the job ID.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithUser sets the owning user.
func (b *JobBuilder) WithUser(userID string) *JobBuilder {
	b.job.UserID = userID
	return b
}

// WithSearchID sets the ingestion run grouping.
func (b *JobBuilder) WithSearchID(searchID string) *JobBuilder {
	b.job.SearchID = searchID
	return b
}

// WithSource sets the provider.
func (b *JobBuilder) WithSource(source model.JobSource) *JobBuilder {
	b.job.Source = source
	return b
}

// WithTitle sets the title.
func (b *JobBuilder) WithTitle(title string) *JobBuilder {
	b.job.Title = title
	return b
}

// WithCompany sets the company.
func (b *JobBuilder) WithCompany(company string) *JobBuilder {
	b.job.Company = company
	return b
}

// WithLocation sets the location.
func (b *JobBuilder) WithLocation(location string) *JobBuilder {
	b.job.Location = location
	return b
}

// WithDescription sets the description.
func (b *JobBuilder) WithDescription(description string) *JobBuilder {
	b.job.Description = description
	return b
}

// WithURL sets the canonical posting URL.
func (b *JobBuilder) WithURL(url string) *JobBuilder {
	b.job.URL = url
	return b
}

// WithSalary sets the salary range.
func (b *JobBuilder) WithSalary(minSalary, maxSalary int) *JobBuilder {
	b.job.SalaryMin = &minSalary
	b.job.SalaryMax = &maxSalary
	return b
}

// WithSkills sets the extracted skills.
func (b *JobBuilder) WithSkills(skills ...string) *JobBuilder {
	b.job.RequiredSkills = skills
	return b
}

// Saved marks the job saved at the given time, clearing its expiry.
func (b *JobBuilder) Saved(at time.Time) *JobBuilder {
	b.job.Saved = true
	b.job.SavedAt = &at
	b.job.ExpiresAt = nil
	return b
}

// ScrapedAt sets the scrape time and realigns the unsaved expiry with it.
func (b *JobBuilder) ScrapedAt(at time.Time) *JobBuilder {
	b.job.ScrapedAt = at
	if !b.job.Saved {
		expiresAt := at.Add(model.UnsavedTTL)
		b.job.ExpiresAt = &expiresAt
	}
	return b
}

// ExpiresAt overrides the expiry directly.
func (b *JobBuilder) ExpiresAt(at time.Time) *JobBuilder {
	b.job.ExpiresAt = &at
	return b
}

// Build returns the constructed Job.
func (b *JobBuilder) Build() *model.Job {
	return b.job
}

// Common raw posting presets.

// RemotePosting creates a raw posting that normalizes to a remote job.
func RemotePosting(source model.JobSource, n int) model.RawPosting {
	return model.RawPosting{
		Source:      source,
		ExternalID:  fmt.Sprintf("ext-%d", n),
		Title:       fmt.Sprintf("Senior Go Engineer %d", n),
		Company:     "Globex",
		Location:    "Remote",
		Description: "Fully remote role building Go microservices with PostgreSQL and Redis.",
		URL:         fmt.Sprintf("https://%s.example/jobs/%d", source, n),
		SalaryText:  "$120k - $150k",
		PostedAt:    TestTime().Add(-time.Duration(n) * time.Hour).Format(time.RFC3339),
	}
}

// PreferencesBuilder provides a fluent interface for building SearchPreferences.
type PreferencesBuilder struct {
	prefs model.SearchPreferences
}

// NewPreferences creates a PreferencesBuilder seeded with the defaults for
// the given user.
func NewPreferences(userID string) *PreferencesBuilder {
	return &PreferencesBuilder{prefs: model.DefaultSearchPreferences(userID)}
}

// WithSources restricts enabled sources.
func (b *PreferencesBuilder) WithSources(sources ...model.JobSource) *PreferencesBuilder {
	b.prefs.EnabledSources = sources
	return b
}

// WithBlacklistCompanies sets the company blacklist.
func (b *PreferencesBuilder) WithBlacklistCompanies(companies ...string) *PreferencesBuilder {
	b.prefs.BlacklistCompanies = companies
	return b
}

// WithBlacklistKeywords sets the keyword blacklist.
func (b *PreferencesBuilder) WithBlacklistKeywords(keywords ...string) *PreferencesBuilder {
	b.prefs.BlacklistKeywords = keywords
	return b
}

// RemoteOnly restricts results to remote arrangements.
func (b *PreferencesBuilder) RemoteOnly() *PreferencesBuilder {
	b.prefs.RemoteOnly = true
	return b
}

// AutoSearch enables scheduled ingestion for the user with the given query.
func (b *PreferencesBuilder) AutoSearch(keywords string) *PreferencesBuilder {
	b.prefs.AutoSearchEnabled = true
	b.prefs.AutoSearchKeywords = keywords
	return b
}

// WithMinMatchScore sets the minimum combined search score.
func (b *PreferencesBuilder) WithMinMatchScore(score float64) *PreferencesBuilder {
	b.prefs.MinMatchScore = &score
	return b
}

// Build returns the constructed SearchPreferences.
func (b *PreferencesBuilder) Build() *model.SearchPreferences {
	prefs := b.prefs
	return &prefs
}
