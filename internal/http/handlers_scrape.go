// Package httpx provides the JSON API for the jobscout pipeline.
package httpx

import (
	"context"
	"net/http"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// IngestAPI runs scrape requests. Implemented by service.IngestService.
type IngestAPI interface {
	Scrape(ctx context.Context, req *model.ScrapeRequest) (*model.ScrapeResult, error)
}

// ScrapeHandlers provides HTTP handlers for ingestion runs.
type ScrapeHandlers struct {
	Svc IngestAPI
}

// Scrape handles POST /api/scrape: runs one ingestion pass across the user's
// enabled sources. Partial source failures still return 200 with the failure
// list in the body; only validation, rate limiting, and total source failure
// map to error statuses.
func (h *ScrapeHandlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req model.ScrapeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Scrape(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
