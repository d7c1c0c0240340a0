package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

func TestAdzuna_Fetch(t *testing.T) {
	t.Run("maps provider fields to raw postings", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "id-1", r.URL.Query().Get("app_id"))
			assert.Equal(t, "key-1", r.URL.Query().Get("app_key"))
			assert.Equal(t, "golang developer", r.URL.Query().Get("what"))
			assert.Equal(t, "Berlin", r.URL.Query().Get("where"))

			fmt.Fprint(w, `{"count":1,"results":[{
				"id":"ext-1",
				"title":"Senior Go Engineer",
				"description":"Build backend services.",
				"company":{"display_name":"Acme"},
				"location":{"display_name":"Berlin, Germany"},
				"salary_min":80000,
				"salary_max":100000,
				"redirect_url":"https://example.com/jobs/1",
				"created":"2026-08-20T10:00:00Z"
			}]}`)
		}))
		defer server.Close()

		adapter := NewAdzuna(AdzunaConfig{AppID: "id-1", AppKey: "key-1", BaseURL: server.URL})
		assert.Equal(t, model.SourceAdzuna, adapter.Name())

		postings, err := adapter.Fetch(context.Background(), core.FetchRequest{
			Keywords: "golang developer",
			Location: "Berlin",
		})
		require.NoError(t, err)
		require.Len(t, postings, 1)

		p := postings[0]
		assert.Equal(t, model.SourceAdzuna, p.Source)
		assert.Equal(t, "ext-1", p.ExternalID)
		assert.Equal(t, "Senior Go Engineer", p.Title)
		assert.Equal(t, "Acme", p.Company)
		assert.Equal(t, "Berlin, Germany", p.Location)
		assert.Equal(t, "https://example.com/jobs/1", p.URL)
		assert.Equal(t, "80000-100000", p.SalaryText)
		assert.Equal(t, "2026-08-20T10:00:00Z", p.PostedAt)
	})

	t.Run("missing credentials is source unavailable", func(t *testing.T) {
		adapter := NewAdzuna(AdzunaConfig{})

		_, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go"})
		assert.True(t, apperrors.IsSourceUnavailable(err))
	})

	t.Run("quota rejection is source unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		adapter := NewAdzuna(AdzunaConfig{AppID: "id", AppKey: "key", BaseURL: server.URL})

		_, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go"})
		assert.True(t, apperrors.IsSourceUnavailable(err))
	})

	t.Run("server error is a plain error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		adapter := NewAdzuna(AdzunaConfig{AppID: "id", AppKey: "key", BaseURL: server.URL})

		_, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go"})
		require.Error(t, err)
		assert.False(t, apperrors.IsSourceUnavailable(err))
	})

	t.Run("deadline exceeded is source timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		adapter := NewAdzuna(AdzunaConfig{AppID: "id", AppKey: "key", BaseURL: server.URL})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := adapter.Fetch(ctx, core.FetchRequest{Keywords: "go"})
		assert.True(t, apperrors.IsSourceTimeout(err))
	})

	t.Run("result limit is enforced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"count":3,"results":[
				{"id":"1","title":"A"},
				{"id":"2","title":"B"},
				{"id":"3","title":"C"}
			]}`)
		}))
		defer server.Close()

		adapter := NewAdzuna(AdzunaConfig{AppID: "id", AppKey: "key", BaseURL: server.URL})

		postings, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go", MaxResults: 2})
		require.NoError(t, err)
		assert.Len(t, postings, 2)
	})
}

func TestRemotive_Fetch(t *testing.T) {
	t.Run("maps provider fields to raw postings", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "golang", r.URL.Query().Get("search"))

			fmt.Fprint(w, `{"jobs":[{
				"id":42,
				"url":"https://remotive.com/jobs/42",
				"title":"Go Developer",
				"company_name":"Remote Co",
				"candidate_required_location":"Europe",
				"salary":"$90k-$110k",
				"description":"Ship Go services.",
				"publication_date":"2026-08-21T08:00:00"
			}]}`)
		}))
		defer server.Close()

		adapter := NewRemotive(RemotiveConfig{BaseURL: server.URL})
		assert.Equal(t, model.SourceRemotive, adapter.Name())

		postings, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "golang"})
		require.NoError(t, err)
		require.Len(t, postings, 1)

		p := postings[0]
		assert.Equal(t, model.SourceRemotive, p.Source)
		assert.Equal(t, "42", p.ExternalID)
		assert.Equal(t, "Go Developer", p.Title)
		assert.Equal(t, "Remote Co", p.Company)
		assert.Equal(t, "Europe", p.Location)
		assert.Equal(t, "$90k-$110k", p.SalaryText)
	})

	t.Run("blank location defaults to remote", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"jobs":[{"id":1,"title":"Go Dev","candidate_required_location":"  "}]}`)
		}))
		defer server.Close()

		adapter := NewRemotive(RemotiveConfig{BaseURL: server.URL})

		postings, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go"})
		require.NoError(t, err)
		require.Len(t, postings, 1)
		assert.Equal(t, "Remote", postings[0].Location)
	})

	t.Run("result limit is enforced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"jobs":[{"id":1,"title":"A"},{"id":2,"title":"B"},{"id":3,"title":"C"}]}`)
		}))
		defer server.Close()

		adapter := NewRemotive(RemotiveConfig{BaseURL: server.URL})

		postings, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go", MaxResults: 1})
		require.NoError(t, err)
		assert.Len(t, postings, 1)
	})
}

func TestJSearch_Fetch(t *testing.T) {
	t.Run("maps provider fields to raw postings", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "rapid-key", r.Header.Get("X-RapidAPI-Key"))
			assert.Equal(t, "golang in Austin", r.URL.Query().Get("query"))

			fmt.Fprint(w, `{"status":"OK","data":[{
				"job_id":"js-1",
				"job_title":"Backend Engineer",
				"employer_name":"Widgets Inc",
				"job_city":"Austin",
				"job_state":"TX",
				"job_country":"US",
				"job_description":"Go and Postgres.",
				"job_apply_link":"https://example.com/apply/1",
				"job_is_remote":false,
				"job_min_salary":120000,
				"job_max_salary":150000,
				"job_posted_at_datetime_utc":"2026-08-22T00:00:00Z"
			}]}`)
		}))
		defer server.Close()

		adapter := NewJSearch(JSearchConfig{APIKey: "rapid-key", BaseURL: server.URL})
		assert.Equal(t, model.SourceJSearch, adapter.Name())

		postings, err := adapter.Fetch(context.Background(), core.FetchRequest{
			Keywords: "golang",
			Location: "Austin",
		})
		require.NoError(t, err)
		require.Len(t, postings, 1)

		p := postings[0]
		assert.Equal(t, model.SourceJSearch, p.Source)
		assert.Equal(t, "js-1", p.ExternalID)
		assert.Equal(t, "Backend Engineer", p.Title)
		assert.Equal(t, "Widgets Inc", p.Company)
		assert.Equal(t, "Austin, TX, US", p.Location)
		assert.Equal(t, "120000-150000", p.SalaryText)
	})

	t.Run("remote flag overrides location", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"status":"OK","data":[{"job_id":"js-2","job_title":"Go Dev","job_city":"Austin","job_is_remote":true}]}`)
		}))
		defer server.Close()

		adapter := NewJSearch(JSearchConfig{APIKey: "k", BaseURL: server.URL})

		postings, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go"})
		require.NoError(t, err)
		require.Len(t, postings, 1)
		assert.Equal(t, "Remote", postings[0].Location)
	})

	t.Run("missing api key is source unavailable", func(t *testing.T) {
		adapter := NewJSearch(JSearchConfig{})

		_, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go"})
		assert.True(t, apperrors.IsSourceUnavailable(err))
	})

	t.Run("non-ok provider status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"status":"ERROR","data":[]}`)
		}))
		defer server.Close()

		adapter := NewJSearch(JSearchConfig{APIKey: "k", BaseURL: server.URL})

		_, err := adapter.Fetch(context.Background(), core.FetchRequest{Keywords: "go"})
		assert.Error(t, err)
	})
}
