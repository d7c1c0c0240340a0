package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

// PreferenceRepo provides database operations for per-user search
// preferences.
type PreferenceRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewPreferenceRepo creates a new PreferenceRepo instance.
func NewPreferenceRepo(db *sql.DB, cfg RepoConfig) *PreferenceRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &PreferenceRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const preferenceColumns = `
  user_id,
  enabled_sources,
  max_results,
  desired_locations,
  blacklist_companies,
  blacklist_keywords,
  min_match_score,
  remote_only,
  auto_search_enabled,
  auto_search_keywords
`

// Get returns the user's stored preferences. Users who have never configured
// anything get the defaults rather than a not-found error.
func (r *PreferenceRepo) Get(ctx context.Context, userID string) (*model.SearchPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ValidationField("user_id", "user id is required")
	}

	row := r.DB.QueryRowContext(ctx, `
		SELECT `+preferenceColumns+`
		FROM search_preferences
		WHERE user_id = $1
	`, userID)

	prefs, err := scanPreferences(row)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := model.DefaultSearchPreferences(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return prefs, nil
}

// Upsert stores the user's preferences, replacing any previous row.
func (r *PreferenceRepo) Upsert(ctx context.Context, prefs *model.SearchPreferences) (*model.SearchPreferences, error) {
	if prefs == nil {
		return nil, errors.New("preferences are required")
	}
	if strings.TrimSpace(prefs.UserID) == "" {
		return nil, apperrors.ValidationField("user_id", "user id is required")
	}
	for _, src := range prefs.EnabledSources {
		if !src.Valid() {
			return nil, apperrors.Validationf("invalid source: %q", src)
		}
	}
	if prefs.MinMatchScore != nil && (*prefs.MinMatchScore < 0 || *prefs.MinMatchScore > 1) {
		return nil, apperrors.ValidationField("min_match_score", "min match score must be within [0,1]")
	}

	sources, err := encodeSourceArray(prefs.EnabledSources)
	if err != nil {
		return nil, fmt.Errorf("encode enabled_sources: %w", err)
	}
	locations, err := encodeStringArray(prefs.DesiredLocations)
	if err != nil {
		return nil, fmt.Errorf("encode desired_locations: %w", err)
	}
	companies, err := encodeStringArray(prefs.BlacklistCompanies)
	if err != nil {
		return nil, fmt.Errorf("encode blacklist_companies: %w", err)
	}
	keywords, err := encodeStringArray(prefs.BlacklistKeywords)
	if err != nil {
		return nil, fmt.Errorf("encode blacklist_keywords: %w", err)
	}

	currentTime := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO search_preferences(
			user_id, enabled_sources, max_results, desired_locations,
			blacklist_companies, blacklist_keywords, min_match_score,
			remote_only, auto_search_enabled, auto_search_keywords,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
		ON CONFLICT (user_id) DO UPDATE SET
			enabled_sources = EXCLUDED.enabled_sources,
			max_results = EXCLUDED.max_results,
			desired_locations = EXCLUDED.desired_locations,
			blacklist_companies = EXCLUDED.blacklist_companies,
			blacklist_keywords = EXCLUDED.blacklist_keywords,
			min_match_score = EXCLUDED.min_match_score,
			remote_only = EXCLUDED.remote_only,
			auto_search_enabled = EXCLUDED.auto_search_enabled,
			auto_search_keywords = EXCLUDED.auto_search_keywords,
			updated_at = EXCLUDED.updated_at
		RETURNING `+preferenceColumns+`
	`,
		prefs.UserID, sources, prefs.MaxResults, locations,
		companies, keywords, prefs.MinMatchScore,
		prefs.RemoteOnly, prefs.AutoSearchEnabled,
		strings.TrimSpace(prefs.AutoSearchKeywords), currentTime,
	)

	stored, err := scanPreferences(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return stored, nil
}

// ListAutoSearchUsers returns the IDs of users with scheduled ingestion
// enabled.
func (r *PreferenceRepo) ListAutoSearchUsers(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id
		FROM search_preferences
		WHERE auto_search_enabled = TRUE
		ORDER BY user_id
	`)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var userIDs []string
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("scan auto search user: %w", scanErr)
		}
		userIDs = append(userIDs, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapDBError(rowsErr)
	}
	return userIDs, nil
}

type preferenceRowScanner interface {
	Scan(dest ...any) error
}

func scanPreferences(scanner preferenceRowScanner) (*model.SearchPreferences, error) {
	var (
		prefs                          model.SearchPreferences
		sources                        []byte
		locations, companies, keywords []byte
		minScore                       sql.NullFloat64
	)
	if err := scanner.Scan(
		&prefs.UserID,
		&sources,
		&prefs.MaxResults,
		&locations,
		&companies,
		&keywords,
		&minScore,
		&prefs.RemoteOnly,
		&prefs.AutoSearchEnabled,
		&prefs.AutoSearchKeywords,
	); err != nil {
		return nil, err
	}

	if err := decodeSourceArray(sources, &prefs.EnabledSources); err != nil {
		return nil, fmt.Errorf("decode enabled_sources: %w", err)
	}
	if err := decodeStringArray(locations, &prefs.DesiredLocations); err != nil {
		return nil, fmt.Errorf("decode desired_locations: %w", err)
	}
	if err := decodeStringArray(companies, &prefs.BlacklistCompanies); err != nil {
		return nil, fmt.Errorf("decode blacklist_companies: %w", err)
	}
	if err := decodeStringArray(keywords, &prefs.BlacklistKeywords); err != nil {
		return nil, fmt.Errorf("decode blacklist_keywords: %w", err)
	}
	if minScore.Valid {
		v := minScore.Float64
		prefs.MinMatchScore = &v
	}
	return &prefs, nil
}

func encodeSourceArray(sources []model.JobSource) ([]byte, error) {
	if len(sources) == 0 {
		return []byte(`[]`), nil
	}
	return json.Marshal(sources)
}

func decodeSourceArray(raw []byte, dst *[]model.JobSource) error {
	if len(raw) == 0 {
		*dst = nil
		return nil
	}
	return json.Unmarshal(raw, dst)
}
