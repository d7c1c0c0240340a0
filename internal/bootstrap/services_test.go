package bootstrap

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/internal/adapters/embed"
	"github.com/jobscout/jobscout/internal/domain/model"
)

func TestBuildSources(t *testing.T) {
	logger := slog.Default()

	t.Run("skips providers with missing credentials", func(t *testing.T) {
		cfg := config.SourcesConfig{
			Adzuna:   config.AdzunaSourceConfig{Enabled: true}, // no app id/key
			Remotive: config.RemotiveSourceConfig{Enabled: true},
			JSearch:  config.JSearchSourceConfig{Enabled: true}, // no api key
		}

		srcs, err := buildSources(cfg, logger)
		require.NoError(t, err)
		require.Len(t, srcs, 1)
		assert.Equal(t, model.SourceRemotive, srcs[0].Name())
	})

	t.Run("builds all providers when fully configured", func(t *testing.T) {
		cfg := config.SourcesConfig{
			Adzuna: config.AdzunaSourceConfig{
				Enabled: true,
				AppID:   "app-id",
				AppKey:  "app-key",
			},
			Remotive: config.RemotiveSourceConfig{Enabled: true},
			JSearch: config.JSearchSourceConfig{
				Enabled: true,
				APIKey:  "rapid-key",
			},
		}

		srcs, err := buildSources(cfg, logger)
		require.NoError(t, err)
		require.Len(t, srcs, 3)

		names := make(map[model.JobSource]bool, len(srcs))
		for _, src := range srcs {
			names[src.Name()] = true
		}
		assert.True(t, names[model.SourceAdzuna])
		assert.True(t, names[model.SourceRemotive])
		assert.True(t, names[model.SourceJSearch])
	})

	t.Run("errors when nothing is enabled", func(t *testing.T) {
		_, err := buildSources(config.SourcesConfig{}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no scrape sources enabled")
	})
}

func TestBuildEmbedder(t *testing.T) {
	logger := slog.Default()

	t.Run("local provider", func(t *testing.T) {
		embedder, err := buildEmbedder(config.EmbeddingConfig{
			Provider:   config.EmbeddingProviderLocal,
			Dimensions: 64,
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &embed.LocalEmbedder{}, embedder)
	})

	t.Run("http provider", func(t *testing.T) {
		embedder, err := buildEmbedder(config.EmbeddingConfig{
			Provider: config.EmbeddingProviderHTTP,
			Endpoint: "https://api.example.com/v1/embeddings",
			Model:    "text-embedding-3-small",
			Timeout:  5 * time.Second,
		}, logger)
		require.NoError(t, err)
		assert.IsType(t, &embed.HTTPEmbedder{}, embedder)
	})

	t.Run("http provider without endpoint fails", func(t *testing.T) {
		_, err := buildEmbedder(config.EmbeddingConfig{
			Provider: config.EmbeddingProviderHTTP,
		}, logger)
		require.Error(t, err)
	})
}

func TestBuildFailureNotifier(t *testing.T) {
	logger := slog.Default()

	t.Run("disabled notifications produce an inert notifier", func(t *testing.T) {
		svc := buildFailureNotifier(logger, config.ObservabilityNotificationsConfig{})
		require.NotNil(t, svc)
		assert.False(t, svc.Enabled())
	})

	t.Run("registers configured sinks", func(t *testing.T) {
		svc := buildFailureNotifier(logger, config.ObservabilityNotificationsConfig{
			Enabled: true,
			Slack: config.SlackNotificationConfig{
				Enabled:    true,
				WebhookURL: "https://hooks.slack.com/services/T0/B0/x",
			},
			PagerDuty: config.PagerDutyNotificationConfig{
				Enabled:    true,
				RoutingKey: "routing-key",
			},
		})
		require.NotNil(t, svc)
		assert.True(t, svc.Enabled())
	})

	t.Run("misconfigured sinks are skipped", func(t *testing.T) {
		svc := buildFailureNotifier(logger, config.ObservabilityNotificationsConfig{
			Enabled: true,
			Slack:   config.SlackNotificationConfig{Enabled: true}, // no webhook URL
		})
		require.NotNil(t, svc)
		assert.False(t, svc.Enabled())
	})
}

func TestGetEnabledServices(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		assert.Empty(t, GetEnabledServices(nil))
	})

	t.Run("multiple services", func(t *testing.T) {
		cfg := &config.AppConfig{Services: "http,enricher"}
		got := GetEnabledServices(cfg)
		assert.ElementsMatch(t, []string{"http", "enricher"}, got)
	})

	t.Run("invalid service name", func(t *testing.T) {
		cfg := &config.AppConfig{Services: "http,reaper"}
		assert.Empty(t, GetEnabledServices(cfg))
		require.Error(t, ValidateServiceConfig(cfg))
	})
}
