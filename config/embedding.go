package config

import (
	"fmt"
	"strings"
	"time"
)

// EmbeddingProvider selects the embedder implementation.
type EmbeddingProvider string

const (
	// EmbeddingProviderLocal computes deterministic feature-hash vectors
	// in process. No external dependency; suitable for dev and tests.
	EmbeddingProviderLocal EmbeddingProvider = "local"
	// EmbeddingProviderHTTP calls an OpenAI-compatible embeddings endpoint.
	EmbeddingProviderHTTP EmbeddingProvider = "http"
)

// UnmarshalText implements encoding.TextUnmarshaler for EmbeddingProvider.
func (p *EmbeddingProvider) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "local", "http":
		*p = EmbeddingProvider(v)
		return nil
	default:
		return fmt.Errorf("invalid EmbeddingProvider: %q (valid options: local, http)", v)
	}
}

// EmbeddingConfig contains embedding provider configuration.
type EmbeddingConfig struct {
	// Provider selects the embedder implementation.
	Provider EmbeddingProvider `env:"EMBEDDING_PROVIDER" envDefault:"local"`

	// Endpoint is the embeddings API URL for the http provider.
	Endpoint string `env:"EMBEDDING_ENDPOINT" envDefault:""`

	// APIKey is the bearer token for the http provider.
	APIKey string `env:"EMBEDDING_API_KEY" envDefault:""`

	// Model is the model name sent to the http provider.
	Model string `env:"EMBEDDING_MODEL" envDefault:""`

	// Dimensions is the vector width for the local provider.
	Dimensions int `env:"EMBEDDING_DIMENSIONS" envDefault:"256"`

	// Timeout bounds one embedding request for the http provider.
	Timeout time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"10s"`

	// LocalCacheSize is the in-process cache capacity in entries.
	LocalCacheSize int `env:"EMBEDDING_LOCAL_CACHE_SIZE" envDefault:"2048"`
}

// Sanitize applies guardrails to embedding configuration values.
func (e *EmbeddingConfig) Sanitize() {
	e.Endpoint = strings.TrimSpace(e.Endpoint)
	e.APIKey = strings.TrimSpace(e.APIKey)
	e.Model = strings.TrimSpace(e.Model)

	if e.Dimensions < 16 {
		e.Dimensions = 16
	}
	if e.Dimensions > 4096 {
		e.Dimensions = 4096
	}
	if e.Timeout <= 0 {
		e.Timeout = 10 * time.Second
	}
	if e.LocalCacheSize < 1 {
		e.LocalCacheSize = 1
	}

	// The http provider needs an endpoint; fall back to local rather than
	// failing startup.
	if e.Provider == EmbeddingProviderHTTP && e.Endpoint == "" {
		e.Provider = EmbeddingProviderLocal
	}
	if e.Provider == "" {
		e.Provider = EmbeddingProviderLocal
	}
}
