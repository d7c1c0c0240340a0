package httpx

import (
	"context"
	"net/http"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// SearchAPI runs hybrid search queries. Implemented by service.SearchService.
type SearchAPI interface {
	Search(ctx context.Context, req *model.SearchRequest) ([]model.ScoredJob, error)
}

// SearchHandlers provides HTTP handlers for search.
type SearchHandlers struct {
	Svc SearchAPI
}

// Search handles GET /api/search with q, mode, and limit query parameters.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	req := &model.SearchRequest{
		UserID: requestUserID(r),
		Query:  r.URL.Query().Get("q"),
		Limit:  parseIntQuery(r, "limit", 0),
	}
	if err := req.Mode.UnmarshalText([]byte(r.URL.Query().Get("mode"))); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: err})
		return
	}

	results, err := h.Svc.Search(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}
