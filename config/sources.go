package config

import "strings"

// SourcesConfig groups job source provider configuration. A provider with
// missing credentials is skipped at startup with a warning, so a
// misconfigured provider degrades the pipeline instead of failing it.
type SourcesConfig struct {
	Adzuna   AdzunaSourceConfig   `envPrefix:"ADZUNA_"`
	Remotive RemotiveSourceConfig `envPrefix:"REMOTIVE_"`
	JSearch  JSearchSourceConfig  `envPrefix:"JSEARCH_"`
}

// Sanitize applies guardrails to source configuration values.
func (s *SourcesConfig) Sanitize() {
	s.Adzuna.sanitize()
	s.JSearch.sanitize()
}

// AdzunaSourceConfig contains Adzuna API credentials.
type AdzunaSourceConfig struct {
	Enabled bool   `env:"ENABLED"  envDefault:"true"`
	AppID   string `env:"APP_ID"   envDefault:""`
	AppKey  string `env:"APP_KEY"  envDefault:""`
	Country string `env:"COUNTRY"  envDefault:"us"`
	BaseURL string `env:"BASE_URL" envDefault:""`
}

func (a *AdzunaSourceConfig) sanitize() {
	a.AppID = strings.TrimSpace(a.AppID)
	a.AppKey = strings.TrimSpace(a.AppKey)
	a.Country = strings.ToLower(strings.TrimSpace(a.Country))
}

// RemotiveSourceConfig contains Remotive configuration. The Remotive API is
// public and needs no credentials.
type RemotiveSourceConfig struct {
	Enabled bool   `env:"ENABLED"  envDefault:"true"`
	BaseURL string `env:"BASE_URL" envDefault:""`
}

// JSearchSourceConfig contains JSearch (RapidAPI) credentials.
type JSearchSourceConfig struct {
	Enabled bool   `env:"ENABLED"  envDefault:"true"`
	APIKey  string `env:"API_KEY"  envDefault:""`
	APIHost string `env:"API_HOST" envDefault:""`
	BaseURL string `env:"BASE_URL" envDefault:""`
}

func (j *JSearchSourceConfig) sanitize() {
	j.APIKey = strings.TrimSpace(j.APIKey)
	j.APIHost = strings.TrimSpace(j.APIHost)
}
