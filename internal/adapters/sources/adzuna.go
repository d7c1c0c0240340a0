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
	adzunaDefaultBaseURL = "https://api.adzuna.com/v1/api/jobs"
	adzunaDefaultCountry = "us"
	adzunaPageSize       = 50
	adzunaMaxPages       = 3
)

// AdzunaConfig holds the configuration for the Adzuna adapter.
type AdzunaConfig struct {
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", ...
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

// Adzuna fetches postings from the Adzuna job board API.
type Adzuna struct {
	cfg    AdzunaConfig
	client *http.Client
	logger *slog.Logger
}

// NewAdzuna creates an Adzuna adapter from the given configuration.
func NewAdzuna(cfg AdzunaConfig) *Adzuna {
	if cfg.Country == "" {
		cfg.Country = adzunaDefaultCountry
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = adzunaDefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adzuna{
		cfg:    cfg,
		client: defaultClient(cfg.Client),
		logger: logger.With("component", "sources.adzuna"),
	}
}

// Name returns the provider identifier.
func (a *Adzuna) Name() model.JobSource { return model.SourceAdzuna }

type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

type adzunaResult struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Company     adzunaCompany  `json:"company"`
	Location    adzunaLocation `json:"location"`
	SalaryMin   float64        `json:"salary_min"`
	SalaryMax   float64        `json:"salary_max"`
	RedirectURL string         `json:"redirect_url"`
	Created     string         `json:"created"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Fetch retrieves postings for the query, paging until the request limit,
// an empty page, or adzunaMaxPages.
func (a *Adzuna) Fetch(ctx context.Context, req core.FetchRequest) ([]model.RawPosting, error) {
	if a.cfg.AppID == "" || a.cfg.AppKey == "" {
		return nil, apperrors.SourceUnavailable(string(model.SourceAdzuna),
			errors.New("app id / app key not configured"))
	}

	limit := req.Limit()
	var postings []model.RawPosting

	for page := 1; page <= adzunaMaxPages && len(postings) < limit; page++ {
		batch, err := a.fetchPage(ctx, req, page)
		if err != nil {
			// A later page failing does not discard earlier pages.
			if len(postings) > 0 {
				a.logger.WarnContext(ctx, "page fetch failed, returning partial results",
					"page", page, "error", err)
				break
			}
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		postings = append(postings, batch...)
		if len(batch) < adzunaPageSize {
			break
		}
	}

	if len(postings) > limit {
		postings = postings[:limit]
	}
	return postings, nil
}

func (a *Adzuna) fetchPage(ctx context.Context, req core.FetchRequest, page int) ([]model.RawPosting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", a.cfg.BaseURL, a.cfg.Country, page)

	params := url.Values{}
	params.Set("app_id", a.cfg.AppID)
	params.Set("app_key", a.cfg.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", req.Keywords)
	if req.Location != "" {
		params.Set("where", req.Location)
	}
	params.Set("sort_by", "date")

	var resp adzunaResponse
	if err := getJSON(ctx, a.client, model.SourceAdzuna, endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	postings := make([]model.RawPosting, 0, len(resp.Results))
	for _, r := range resp.Results {
		postings = append(postings, model.RawPosting{
			Source:      model.SourceAdzuna,
			ExternalID:  r.ID,
			Title:       r.Title,
			Company:     r.Company.DisplayName,
			Location:    r.Location.DisplayName,
			Description: r.Description,
			URL:         r.RedirectURL,
			SalaryText:  adzunaSalaryText(r.SalaryMin, r.SalaryMax),
			PostedAt:    r.Created,
		})
	}
	return postings, nil
}

// adzunaSalaryText re-renders the numeric salary fields as a range string so
// the normalizer treats every provider's pay data the same way.
func adzunaSalaryText(min, max float64) string {
	switch {
	case min > 0 && max > 0:
		return fmt.Sprintf("%d-%d", int(min), int(max))
	case min > 0:
		return strconv.Itoa(int(min))
	case max > 0:
		return strconv.Itoa(int(max))
	default:
		return ""
	}
}
