package model

import "strings"

// SearchPreferences holds one user's ingestion and search settings. Loaded
// once per request and threaded explicitly through the pipeline; never read
// from shared mutable state mid-request.
type SearchPreferences struct {
	UserID             string      `json:"user_id"              db:"user_id"`
	EnabledSources     []JobSource `json:"enabled_sources"      db:"enabled_sources"`
	MaxResults         int         `json:"max_results"          db:"max_results"`
	DesiredLocations   []string    `json:"desired_locations"    db:"desired_locations"`
	BlacklistCompanies []string    `json:"blacklist_companies"  db:"blacklist_companies"`
	BlacklistKeywords  []string    `json:"blacklist_keywords"   db:"blacklist_keywords"`
	MinMatchScore      *float64    `json:"min_match_score"      db:"min_match_score"`
	RemoteOnly         bool        `json:"remote_only"          db:"remote_only"`
	AutoSearchEnabled  bool        `json:"auto_search_enabled"  db:"auto_search_enabled"`
	AutoSearchKeywords string      `json:"auto_search_keywords" db:"auto_search_keywords"`
}

// DefaultSearchPreferences returns the preferences applied to a user who has
// never configured any: all sources enabled, no filtering.
func DefaultSearchPreferences(userID string) SearchPreferences {
	return SearchPreferences{
		UserID:         userID,
		EnabledSources: AllSources(),
		MaxResults:     50,
	}
}

// SourceEnabled reports whether the given provider is enabled for this user.
// An empty EnabledSources list means every provider is enabled.
func (p *SearchPreferences) SourceEnabled(src JobSource) bool {
	if len(p.EnabledSources) == 0 {
		return true
	}
	for _, s := range p.EnabledSources {
		if s == src {
			return true
		}
	}
	return false
}

// CompanyBlacklisted reports whether the company matches the blacklist,
// case-insensitively.
func (p *SearchPreferences) CompanyBlacklisted(company string) bool {
	c := strings.ToLower(strings.TrimSpace(company))
	if c == "" {
		return false
	}
	for _, b := range p.BlacklistCompanies {
		if strings.ToLower(strings.TrimSpace(b)) == c {
			return true
		}
	}
	return false
}
