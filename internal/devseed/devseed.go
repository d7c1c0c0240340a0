// Package devseed seeds a local development database with a demo user,
// preferences and a handful of job postings so the API has data to serve
// right after `docker compose up`. Never wired in production builds.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jobscout/jobscout/internal/data"
	"github.com/jobscout/jobscout/internal/domain/model"
)

// DemoUserID is the user every seeded row belongs to.
const DemoUserID = "demo"

// Options configures a seeding run.
type Options struct {
	DB     *sql.DB
	Logger *slog.Logger
}

// Run seeds the demo user if it has no jobs yet. Safe to call on every dev
// startup; an already-seeded database is left untouched.
func Run(ctx context.Context, opts Options) error {
	if opts.DB == nil {
		return fmt.Errorf("devseed: database handle is required")
	}

	jobs := data.NewJobRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})
	prefs := data.NewPreferenceRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})

	existing, err := jobs.List(ctx, model.JobListOptions{UserID: DemoUserID, Limit: 1, IncludeDuplicates: true})
	if err != nil {
		return fmt.Errorf("check existing seed data: %w", err)
	}
	if len(existing) > 0 {
		if opts.Logger != nil {
			opts.Logger.InfoContext(ctx, "dev seed skipped, demo user already has jobs")
		}
		return nil
	}

	demoPrefs := model.DefaultSearchPreferences(DemoUserID)
	demoPrefs.DesiredLocations = []string{"Remote", "Minneapolis, MN"}
	demoPrefs.AutoSearchEnabled = true
	demoPrefs.AutoSearchKeywords = "senior golang engineer"
	if _, err := prefs.Upsert(ctx, &demoPrefs); err != nil {
		return fmt.Errorf("seed preferences: %w", err)
	}

	inserted, err := jobs.BulkInsert(ctx, demoJobs())
	if err != nil {
		return fmt.Errorf("seed jobs: %w", err)
	}

	if opts.Logger != nil {
		opts.Logger.InfoContext(ctx, "dev seed complete",
			"user_id", DemoUserID, "jobs", inserted)
	}
	return nil
}

func demoJobs() []*model.Job {
	searchID := uuid.NewString()
	now := time.Now().UTC()

	seeds := []struct {
		source      model.JobSource
		title       string
		company     string
		location    string
		arrangement model.WorkArrangement
		salaryMin   int
		salaryMax   int
		skills      []string
		description string
	}{
		{
			source:      model.SourceAdzuna,
			title:       "Senior Go Engineer",
			company:     "Northwind Logistics",
			location:    "Minneapolis, MN",
			arrangement: model.ArrangementHybrid,
			salaryMin:   150000,
			salaryMax:   185000,
			skills:      []string{"go", "postgresql", "kubernetes"},
			description: "Build and operate the routing services that move a million packages a day. Strong Go and PostgreSQL experience required.",
		},
		{
			source:      model.SourceRemotive,
			title:       "Backend Engineer, Payments",
			company:     "Ledgerline",
			location:    "Remote",
			arrangement: model.ArrangementRemote,
			salaryMin:   140000,
			salaryMax:   170000,
			skills:      []string{"go", "grpc", "redis"},
			description: "Own the ledger service behind our payments API. You will design idempotent money-movement flows in Go and gRPC.",
		},
		{
			source:      model.SourceJSearch,
			title:       "Platform Engineer",
			company:     "Granite Cloud",
			location:    "Denver, CO",
			arrangement: model.ArrangementOnSite,
			salaryMin:   130000,
			salaryMax:   160000,
			skills:      []string{"go", "terraform", "aws"},
			description: "Join the platform team building internal developer tooling and deployment infrastructure on AWS.",
		},
		{
			source:      model.SourceRemotive,
			title:       "Staff Software Engineer, Search",
			company:     "Brightquery",
			location:    "Remote",
			arrangement: model.ArrangementRemote,
			salaryMin:   180000,
			salaryMax:   220000,
			skills:      []string{"go", "elasticsearch", "vector search"},
			description: "Lead the relevance work on our hybrid keyword and semantic search stack serving tens of millions of queries.",
		},
	}

	out := make([]*model.Job, 0, len(seeds))
	for i, s := range seeds {
		scrapedAt := now.Add(-time.Duration(i) * time.Hour)
		expiresAt := scrapedAt.Add(model.UnsavedTTL)
		salaryMin, salaryMax := s.salaryMin, s.salaryMax
		out = append(out, &model.Job{
			ID:              uuid.NewString(),
			UserID:          DemoUserID,
			SearchID:        searchID,
			Source:          s.source,
			Title:           s.title,
			Company:         s.company,
			Location:        s.location,
			Description:     s.description,
			URL:             fmt.Sprintf("https://example.com/jobs/%s/%d", s.source, i),
			WorkArrangement: s.arrangement,
			SalaryMin:       &salaryMin,
			SalaryMax:       &salaryMax,
			RequiredSkills:  s.skills,
			ExperienceLevel: "senior",
			ExpiresAt:       &expiresAt,
			ScrapedAt:       scrapedAt,
		})
	}
	return out
}
