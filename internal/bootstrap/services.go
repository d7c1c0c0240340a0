// Package bootstrap wires configuration, storage and services into runnable
// processes. Each enabled service mode shares the same container so the HTTP
// API, the enricher and the background loops see one set of indexes and repos.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/internal/adapters/embed"
	"github.com/jobscout/jobscout/internal/adapters/sources"
	"github.com/jobscout/jobscout/internal/cache"
	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/data"
	"github.com/jobscout/jobscout/internal/observability/notify/pagerduty"
	"github.com/jobscout/jobscout/internal/observability/notify/slack"
	"github.com/jobscout/jobscout/internal/observability/statsd"
	"github.com/jobscout/jobscout/internal/search"
	"github.com/jobscout/jobscout/internal/service"
	"github.com/jobscout/jobscout/internal/service/failurenotifier"
)

// indexRebuildLimit caps how many rows the startup reindex loads.
const indexRebuildLimit = 10000

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Ingest     *service.IngestService
	Search     *service.SearchService
	Lifecycle  *service.LifecycleService
	Enrich     *service.EnrichService
	Sweeper    *service.SweeperService
	Scheduler  *service.SchedulerService
	Embeddings *service.EmbeddingService

	Prefs         core.PreferenceRepository
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	JobRepo   *data.JobRepo
	PrefRepo  *data.PreferenceRepo
	CacheRepo *data.RedisCacheRepo
	Queue     *data.RedisEnrichmentQueue
	Limiter   *data.RedisRateLimiter
}

// BuildServices wires every service from configuration. The in-memory search
// indexes are rebuilt from the database before the container is returned.
func BuildServices(ctx context.Context, deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil {
		return ServiceContainer{}, errors.New("config is required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database handle is required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	obs := buildObservability(logger, cfg.Observability)
	repos := buildRepositories(deps, logger)
	srcs, err := buildSources(cfg.Sources, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	embedder, err := buildEmbedder(cfg.Embedding, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build embedder: %w", err)
	}

	embeddings, err := service.NewEmbeddingService(service.EmbeddingServiceOptions{
		Embedder: embedder,
		Shared:   repos.CacheRepo,
		Local:    cache.NewVectorLRU(cache.VectorLRUConfig{Capacity: cfg.Embedding.LocalCacheSize}),
		Logger:   logger,
		Metrics:  obs.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create embedding service: %w", err)
	}

	keywordIndex := search.NewKeywordIndex()
	vectorIndex := search.NewVectorIndex()

	ingest, err := service.NewIngestService(service.IngestServiceOptions{
		Sources:       srcs,
		Jobs:          repos.JobRepo,
		Prefs:         repos.PrefRepo,
		Limiter:       repos.Limiter,
		Queue:         repos.Queue,
		Logger:        logger,
		Metrics:       obs.MetricsSink,
		SourceTimeout: cfg.Ingest.SourceTimeout,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create ingest service: %w", err)
	}

	searchSvc, err := service.NewSearchService(service.SearchServiceOptions{
		Jobs:       repos.JobRepo,
		Prefs:      repos.PrefRepo,
		Embeddings: embeddings,
		Keyword:    keywordIndex,
		Vector:     vectorIndex,
		Logger:     logger,
		Metrics:    obs.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create search service: %w", err)
	}

	lifecycle, err := service.NewLifecycleService(service.LifecycleServiceOptions{
		Repo:    repos.JobRepo,
		Logger:  logger,
		Metrics: obs.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create lifecycle service: %w", err)
	}

	enrich, err := service.NewEnrichService(service.EnrichServiceOptions{
		Jobs:           repos.JobRepo,
		Queue:          repos.Queue,
		Embeddings:     embeddings,
		Keyword:        keywordIndex,
		Vector:         vectorIndex,
		Logger:         logger,
		Metrics:        obs.MetricsSink,
		Workers:        cfg.Enrich.Workers,
		ClaimTimeout:   cfg.Enrich.ClaimTimeout,
		DedupScanLimit: cfg.Enrich.DedupScanLimit,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create enrich service: %w", err)
	}

	sweeper, err := service.NewSweeperService(service.SweeperServiceOptions{
		Repo:     repos.JobRepo,
		Config:   cfg.Sweeper,
		Logger:   logger,
		Metrics:  obs.MetricsSink,
		Notifier: obs.FailureNotifier,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create sweeper service: %w", err)
	}

	scheduler, err := service.NewSchedulerService(service.SchedulerServiceOptions{
		Ingest:   ingest,
		Prefs:    repos.PrefRepo,
		Schedule: cfg.Scheduler.Schedule,
		Logger:   logger,
		Metrics:  obs.MetricsSink,
		Notifier: obs.FailureNotifier,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create scheduler service: %w", err)
	}

	if _, err := enrich.RebuildIndexes(ctx, indexRebuildLimit); err != nil {
		// A failed warm rebuild leaves search degraded but the pipeline
		// functional; the enricher repopulates as jobs flow through.
		logger.WarnContext(ctx, "search index rebuild failed", "error", err)
	}

	return ServiceContainer{
		Ingest:        ingest,
		Search:        searchSvc,
		Lifecycle:     lifecycle,
		Enrich:        enrich,
		Sweeper:       sweeper,
		Scheduler:     scheduler,
		Embeddings:    embeddings,
		Prefs:         repos.PrefRepo,
		Observability: obs,
	}, nil
}

// buildObservability configures metrics and notification adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.Enabled {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "jobscout",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	failureNotifier := buildFailureNotifier(obsLogger, cfg.Notifications)

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: failureNotifier,
		NotifierConfig:  cfg.Notifications,
	}
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger.With("component", "failure_notifier"),
		Sinks:  sinks,
	})
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(deps ServiceDeps, logger *slog.Logger) *serviceRepositories {
	repoCfg := data.RepoConfig{Logger: logger}
	return &serviceRepositories{
		JobRepo:   data.NewJobRepo(deps.DB, repoCfg),
		PrefRepo:  data.NewPreferenceRepo(deps.DB, repoCfg),
		CacheRepo: data.NewRedisCacheRepo(deps.RedisClient),
		Queue:     data.NewRedisEnrichmentQueue(deps.RedisClient, data.QueueConfig{}),
		Limiter: data.NewRedisRateLimiter(deps.RedisClient, data.RateLimitConfig{
			Window:      deps.Config.RateLimit.Window,
			MaxRequests: deps.Config.RateLimit.MaxRequests,
		}),
	}
}

// buildSources assembles the enabled provider adapters. Providers with
// missing credentials are skipped with a warning rather than failing startup;
// their fetches would only ever produce source_unavailable errors.
func buildSources(cfg config.SourcesConfig, logger *slog.Logger) ([]core.Source, error) {
	var out []core.Source

	switch {
	case !cfg.Adzuna.Enabled:
	case cfg.Adzuna.AppID == "" || cfg.Adzuna.AppKey == "":
		logger.Warn("adzuna disabled, credentials not configured")
	default:
		out = append(out, sources.NewAdzuna(sources.AdzunaConfig{
			AppID:   cfg.Adzuna.AppID,
			AppKey:  cfg.Adzuna.AppKey,
			Country: cfg.Adzuna.Country,
			BaseURL: cfg.Adzuna.BaseURL,
			Logger:  logger,
		}))
	}

	if cfg.Remotive.Enabled {
		out = append(out, sources.NewRemotive(sources.RemotiveConfig{
			BaseURL: cfg.Remotive.BaseURL,
			Logger:  logger,
		}))
	}

	switch {
	case !cfg.JSearch.Enabled:
	case cfg.JSearch.APIKey == "":
		logger.Warn("jsearch disabled, credentials not configured")
	default:
		out = append(out, sources.NewJSearch(sources.JSearchConfig{
			APIKey:  cfg.JSearch.APIKey,
			APIHost: cfg.JSearch.APIHost,
			BaseURL: cfg.JSearch.BaseURL,
			Logger:  logger,
		}))
	}

	if len(out) == 0 {
		return nil, errors.New("no scrape sources enabled; check SOURCES configuration")
	}
	return out, nil
}

// buildEmbedder selects the vector model client from configuration.
//
//nolint:ireturn // callers need the core.Embedder port, not a concrete client.
func buildEmbedder(cfg config.EmbeddingConfig, logger *slog.Logger) (core.Embedder, error) {
	if cfg.Provider == config.EmbeddingProviderHTTP {
		client, err := embed.NewHTTPEmbedder(embed.HTTPEmbedderConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Client:   &http.Client{Timeout: cfg.Timeout},
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using http embedding provider", "endpoint", cfg.Endpoint, "model", cfg.Model)
		return client, nil
	}

	logger.Info("using local embedding provider", "dimensions", cfg.Dimensions)
	return embed.NewLocalEmbedder(cfg.Dimensions), nil
}
