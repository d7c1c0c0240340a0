package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewLocalEmbedder(64)

	t.Run("deterministic across calls", func(t *testing.T) {
		a, err := e.Embed(ctx, "senior golang engineer")
		require.NoError(t, err)
		b, err := e.Embed(ctx, "senior golang engineer")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("output is unit length", func(t *testing.T) {
		vec, err := e.Embed(ctx, "distributed systems engineer")
		require.NoError(t, err)
		require.Len(t, vec, 64)

		var sum float64
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
	})

	t.Run("similar texts are closer than unrelated ones", func(t *testing.T) {
		base, err := e.Embed(ctx, "senior golang backend engineer")
		require.NoError(t, err)
		near, err := e.Embed(ctx, "golang backend engineer")
		require.NoError(t, err)
		far, err := e.Embed(ctx, "pastry chef wanted urgently")
		require.NoError(t, err)

		assert.Greater(t, dot(base, near), dot(base, far))
	})

	t.Run("word order matters", func(t *testing.T) {
		a, err := e.Embed(ctx, "senior engineer")
		require.NoError(t, err)
		b, err := e.Embed(ctx, "engineer senior")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("text without terms errors", func(t *testing.T) {
		_, err := e.Embed(ctx, "  ! ?  ")
		assert.Error(t, err)
	})

	t.Run("zero dims falls back to default", func(t *testing.T) {
		vec, err := NewLocalEmbedder(0).Embed(ctx, "golang")
		require.NoError(t, err)
		assert.Len(t, vec, DefaultDimensions)
	})
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestHTTPEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("sends model and bearer token, parses vector", func(t *testing.T) {
		var gotAuth, gotModel string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			var req embedRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			gotModel = req.Model
			require.Equal(t, []string{"golang engineer"}, req.Input)

			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
			})
		}))
		defer server.Close()

		e, err := NewHTTPEmbedder(HTTPEmbedderConfig{
			Endpoint: server.URL,
			APIKey:   "secret",
			Model:    "text-embed-small",
		})
		require.NoError(t, err)

		vec, err := e.Embed(ctx, "golang engineer")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
		assert.Equal(t, "Bearer secret", gotAuth)
		assert.Equal(t, "text-embed-small", gotModel)
	})

	t.Run("non-200 surfaces status and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()

		e, err := NewHTTPEmbedder(HTTPEmbedderConfig{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = e.Embed(ctx, "golang")
		assert.ErrorContains(t, err, "429")
		assert.ErrorContains(t, err, "quota exceeded")
	})

	t.Run("empty payload errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
		}))
		defer server.Close()

		e, err := NewHTTPEmbedder(HTTPEmbedderConfig{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = e.Embed(ctx, "golang")
		assert.ErrorContains(t, err, "no vector")
	})

	t.Run("endpoint is required", func(t *testing.T) {
		_, err := NewHTTPEmbedder(HTTPEmbedderConfig{})
		assert.Error(t, err)
	})
}
