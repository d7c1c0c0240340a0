package sources

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
)

const remotiveDefaultBaseURL = "https://remotive.com/api/remote-jobs"

// RemotiveConfig holds the configuration for the Remotive adapter. The
// Remotive API is public and needs no credentials.
type RemotiveConfig struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

// Remotive fetches postings from the Remotive remote-jobs API.
type Remotive struct {
	cfg    RemotiveConfig
	client *http.Client
	logger *slog.Logger
}

// NewRemotive creates a Remotive adapter from the given configuration.
func NewRemotive(cfg RemotiveConfig) *Remotive {
	if cfg.BaseURL == "" {
		cfg.BaseURL = remotiveDefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Remotive{
		cfg:    cfg,
		client: defaultClient(cfg.Client),
		logger: logger.With("component", "sources.remotive"),
	}
}

// Name returns the provider identifier.
func (r *Remotive) Name() model.JobSource { return model.SourceRemotive }

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID             int64  `json:"id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	CompanyName    string `json:"company_name"`
	Location       string `json:"candidate_required_location"`
	Salary         string `json:"salary"`
	Description    string `json:"description"`
	PublicationDat string `json:"publication_date"`
}

// Fetch retrieves postings for the query. Remotive only lists remote roles,
// so the request location is ignored.
func (r *Remotive) Fetch(ctx context.Context, req core.FetchRequest) ([]model.RawPosting, error) {
	params := url.Values{}
	params.Set("search", req.Keywords)
	params.Set("limit", strconv.Itoa(req.Limit()))

	var resp remotiveResponse
	if err := getJSON(ctx, r.client, model.SourceRemotive, r.cfg.BaseURL+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	limit := req.Limit()
	postings := make([]model.RawPosting, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		if len(postings) >= limit {
			break
		}
		location := strings.TrimSpace(j.Location)
		if location == "" {
			location = "Remote"
		}
		postings = append(postings, model.RawPosting{
			Source:      model.SourceRemotive,
			ExternalID:  strconv.FormatInt(j.ID, 10),
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    location,
			Description: j.Description,
			URL:         j.URL,
			SalaryText:  j.Salary,
			PostedAt:    j.PublicationDat,
		})
	}
	return postings, nil
}
