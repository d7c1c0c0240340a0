package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
	apperrors "github.com/jobscout/jobscout/internal/errors"
)

const (
	jsearchDefaultBaseURL = "https://jsearch.p.rapidapi.com/search"
	jsearchDefaultHost    = "jsearch.p.rapidapi.com"
	jsearchPageSize       = 10
	jsearchMaxPages       = 5
)

// JSearchConfig holds the configuration for the JSearch (RapidAPI) adapter.
type JSearchConfig struct {
	APIKey  string
	BaseURL string
	APIHost string
	Client  *http.Client
	Logger  *slog.Logger
}

// JSearch fetches postings from the JSearch aggregator on RapidAPI.
type JSearch struct {
	cfg    JSearchConfig
	client *http.Client
	logger *slog.Logger
}

// NewJSearch creates a JSearch adapter from the given configuration.
func NewJSearch(cfg JSearchConfig) *JSearch {
	if cfg.BaseURL == "" {
		cfg.BaseURL = jsearchDefaultBaseURL
	}
	if cfg.APIHost == "" {
		cfg.APIHost = jsearchDefaultHost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JSearch{
		cfg:    cfg,
		client: defaultClient(cfg.Client),
		logger: logger.With("component", "sources.jsearch"),
	}
}

// Name returns the provider identifier.
func (j *JSearch) Name() model.JobSource { return model.SourceJSearch }

type jsearchResponse struct {
	Status string        `json:"status"`
	Data   []jsearchData `json:"data"`
}

type jsearchData struct {
	JobID       string   `json:"job_id"`
	Title       string   `json:"job_title"`
	Employer    string   `json:"employer_name"`
	City        string   `json:"job_city"`
	State       string   `json:"job_state"`
	Country     string   `json:"job_country"`
	Description string   `json:"job_description"`
	ApplyLink   string   `json:"job_apply_link"`
	IsRemote    bool     `json:"job_is_remote"`
	MinSalary   *float64 `json:"job_min_salary"`
	MaxSalary   *float64 `json:"job_max_salary"`
	PostedAt    string   `json:"job_posted_at_datetime_utc"`
}

// Fetch retrieves postings for the query.
func (j *JSearch) Fetch(ctx context.Context, req core.FetchRequest) ([]model.RawPosting, error) {
	if j.cfg.APIKey == "" {
		return nil, apperrors.SourceUnavailable(string(model.SourceJSearch),
			errors.New("api key not configured"))
	}

	limit := req.Limit()
	pages := (limit + jsearchPageSize - 1) / jsearchPageSize
	if pages > jsearchMaxPages {
		pages = jsearchMaxPages
	}

	query := req.Keywords
	if req.Location != "" {
		query = req.Keywords + " in " + req.Location
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("num_pages", strconv.Itoa(pages))

	header := http.Header{}
	header.Set("X-RapidAPI-Key", j.cfg.APIKey)
	header.Set("X-RapidAPI-Host", j.cfg.APIHost)

	var resp jsearchResponse
	if err := getJSON(ctx, j.client, model.SourceJSearch, j.cfg.BaseURL+"?"+params.Encode(), header, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != "OK" {
		return nil, fmt.Errorf("%s: response status %q", model.SourceJSearch, resp.Status)
	}

	postings := make([]model.RawPosting, 0, len(resp.Data))
	for _, d := range resp.Data {
		if len(postings) >= limit {
			break
		}
		postings = append(postings, model.RawPosting{
			Source:      model.SourceJSearch,
			ExternalID:  d.JobID,
			Title:       d.Title,
			Company:     d.Employer,
			Location:    jsearchLocation(d),
			Description: d.Description,
			URL:         d.ApplyLink,
			SalaryText:  jsearchSalaryText(d.MinSalary, d.MaxSalary),
			PostedAt:    d.PostedAt,
		})
	}
	return postings, nil
}

func jsearchLocation(d jsearchData) string {
	if d.IsRemote {
		return "Remote"
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{d.City, d.State, d.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

func jsearchSalaryText(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%d-%d", int(*min), int(*max))
	case min != nil:
		return strconv.Itoa(int(*min))
	case max != nil:
		return strconv.Itoa(int(*max))
	default:
		return ""
	}
}
