package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
	"github.com/jobscout/jobscout/internal/testutil"
)

func TestPreferenceRepo_GetDefaults(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewPreferenceRepo(db, RepoConfig{})

		prefs, err := repo.Get(context.Background(), "never-configured")
		require.NoError(t, err)
		assert.Equal(t, "never-configured", prefs.UserID)
		assert.Equal(t, model.AllSources(), prefs.EnabledSources)
		assert.Equal(t, 50, prefs.MaxResults)
		assert.False(t, prefs.AutoSearchEnabled)
	})
}

func TestPreferenceRepo_UpsertRoundTrip(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewPreferenceRepo(db, RepoConfig{})
		ctx := context.Background()

		prefs := testutil.NewPreferences("u1").
			WithSources(model.SourceAdzuna, model.SourceRemotive).
			WithBlacklistCompanies("ShadyCo").
			WithBlacklistKeywords("crypto").
			RemoteOnly().
			AutoSearch("golang backend").
			WithMinMatchScore(0.4).
			Build()

		stored, err := repo.Upsert(ctx, prefs)
		require.NoError(t, err)
		assert.Equal(t, []model.JobSource{model.SourceAdzuna, model.SourceRemotive}, stored.EnabledSources)
		assert.Equal(t, []string{"ShadyCo"}, stored.BlacklistCompanies)
		assert.True(t, stored.RemoteOnly)
		assert.True(t, stored.AutoSearchEnabled)
		assert.Equal(t, "golang backend", stored.AutoSearchKeywords)
		require.NotNil(t, stored.MinMatchScore)
		assert.InDelta(t, 0.4, *stored.MinMatchScore, 0.0001)

		// Second upsert replaces the row.
		prefs.RemoteOnly = false
		prefs.BlacklistKeywords = nil
		updated, err := repo.Upsert(ctx, prefs)
		require.NoError(t, err)
		assert.False(t, updated.RemoteOnly)
		assert.Empty(t, updated.BlacklistKeywords)

		fetched, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, fetched.RemoteOnly)
	})
}

func TestPreferenceRepo_UpsertValidation(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewPreferenceRepo(db, RepoConfig{})
		ctx := context.Background()

		bad := testutil.NewPreferences("u1").Build()
		bad.EnabledSources = []model.JobSource{"craigslist"}
		_, err := repo.Upsert(ctx, bad)
		assert.True(t, apperrors.IsValidation(err))

		outOfRange := testutil.NewPreferences("u1").WithMinMatchScore(1.5).Build()
		_, err = repo.Upsert(ctx, outOfRange)
		assert.True(t, apperrors.IsValidation(err))

		noUser := testutil.NewPreferences("").Build()
		_, err = repo.Upsert(ctx, noUser)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestPreferenceRepo_ListAutoSearchUsers(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewPreferenceRepo(db, RepoConfig{})
		ctx := context.Background()

		_, err := repo.Upsert(ctx, testutil.NewPreferences("auto-1").AutoSearch("golang backend").Build())
		require.NoError(t, err)
		_, err = repo.Upsert(ctx, testutil.NewPreferences("auto-2").AutoSearch("golang backend").Build())
		require.NoError(t, err)
		_, err = repo.Upsert(ctx, testutil.NewPreferences("manual-only").Build())
		require.NoError(t, err)

		users, err := repo.ListAutoSearchUsers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"auto-1", "auto-2"}, users)
	})
}
