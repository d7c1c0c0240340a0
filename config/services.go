package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeEnricher runs the enrichment queue workers.
	ServiceModeEnricher ServiceMode = "enricher"
	// ServiceModeSweeper runs the expired-job sweeper.
	ServiceModeSweeper ServiceMode = "sweeper"
	// ServiceModeScheduler runs scheduled ingestion for auto-search users.
	ServiceModeScheduler ServiceMode = "scheduler"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeEnricher,
		ServiceModeSweeper,
		ServiceModeScheduler,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP,
			ServiceModeEnricher,
			ServiceModeSweeper,
			ServiceModeScheduler:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, enricher, sweeper, scheduler)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// IngestConfig contains ingestion run configuration.
type IngestConfig struct {
	// SourceTimeout bounds one provider fetch within a scrape run.
	SourceTimeout time.Duration `env:"INGEST_SOURCE_TIMEOUT" envDefault:"3m"`
}

// Sanitize applies guardrails to ingestion configuration values.
func (i *IngestConfig) Sanitize() {
	if i.SourceTimeout < 5*time.Second {
		i.SourceTimeout = 5 * time.Second
	}
}

// RateLimitConfig contains the per-user ingestion budget.
type RateLimitConfig struct {
	// Window is the sliding window length.
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`

	// MaxRequests is the number of scrape runs allowed per window per user.
	MaxRequests int `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"10"`
}

// Sanitize applies guardrails to rate limit configuration values.
func (r *RateLimitConfig) Sanitize() {
	if r.Window < time.Minute {
		r.Window = time.Minute
	}
	if r.MaxRequests < 1 {
		r.MaxRequests = 1
	}
}

// EnrichConfig contains enrichment worker configuration.
type EnrichConfig struct {
	// Workers is the number of queue consumer goroutines.
	Workers int `env:"ENRICH_WORKERS" envDefault:"2"`

	// ClaimTimeout is how long one queue poll blocks before retrying.
	ClaimTimeout time.Duration `env:"ENRICH_CLAIM_TIMEOUT" envDefault:"5s"`

	// DedupScanLimit is how many recent rows duplicate detection compares against.
	DedupScanLimit int `env:"ENRICH_DEDUP_SCAN_LIMIT" envDefault:"500"`
}

// Sanitize applies guardrails to enrichment configuration values.
func (e *EnrichConfig) Sanitize() {
	if e.Workers < 1 {
		e.Workers = 1
	}
	if e.ClaimTimeout < time.Second {
		e.ClaimTimeout = time.Second
	}
	if e.DedupScanLimit < 1 {
		e.DedupScanLimit = 1
	}
	if e.DedupScanLimit > 10000 {
		e.DedupScanLimit = 10000
	}
}

// SweeperConfig contains expired-job sweeper configuration.
type SweeperConfig struct {
	// Interval is the sweep tick interval.
	Interval time.Duration `env:"SWEEPER_INTERVAL" envDefault:"10m"`

	// BatchSize is the maximum number of rows to delete per batch.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"SWEEPER_BATCH_SIZE" envDefault:"500"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	// Enforce a minimum interval to prevent excessive database load
	if s.Interval < time.Minute {
		s.Interval = time.Minute
	}

	// Enforce batch size bounds to prevent excessive locks or inefficiency
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
	if s.BatchSize > 10000 {
		s.BatchSize = 10000
	}
}

// SchedulerConfig contains scheduled ingestion configuration.
type SchedulerConfig struct {
	// Schedule is the cron spec for scheduled ingestion cycles.
	// Accepts standard cron expressions and @every descriptors.
	Schedule string `env:"SCHEDULER_CRON" envDefault:"@every 6h"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	s.Schedule = strings.TrimSpace(s.Schedule)
	if s.Schedule == "" {
		s.Schedule = "@every 6h"
	}
}
