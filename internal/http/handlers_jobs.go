package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobscout/jobscout/internal/domain/model"
)

// LifecycleAPI manages job saved/expiring state. Implemented by
// service.LifecycleService.
type LifecycleAPI interface {
	Save(ctx context.Context, jobID, userID string) (*model.Job, error)
	Unsave(ctx context.Context, jobID, userID string) (*model.Job, error)
	Get(ctx context.Context, jobID, userID string) (*model.Job, error)
	List(ctx context.Context, opts model.JobListOptions) ([]*model.Job, error)
	ExpirationSummary(ctx context.Context, userID string) (*model.ExpirationSummary, error)
}

// JobHandlers provides HTTP handlers for job lifecycle operations.
type JobHandlers struct {
	Svc LifecycleAPI
}

// SaveJob handles POST /api/jobs/{id}/save.
func (h *JobHandlers) SaveJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Save(r.Context(), chi.URLParam(r, "id"), requestUserID(r))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// UnsaveJob handles POST /api/jobs/{id}/unsave.
func (h *JobHandlers) UnsaveJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Unsave(r.Context(), chi.URLParam(r, "id"), requestUserID(r))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"), requestUserID(r))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs. Supports saved, include_duplicates, limit,
// and offset query parameters.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "validation",
			Err: errors.New("user_id is required"),
		})
		return
	}

	opts := model.JobListOptions{
		UserID:            userID,
		IncludeDuplicates: r.URL.Query().Get("include_duplicates") == "true",
		Limit:             parseIntQuery(r, "limit", 0),
		Offset:            parseIntQuery(r, "offset", 0),
	}
	if savedStr := r.URL.Query().Get("saved"); savedStr != "" {
		saved := savedStr == "true"
		opts.Saved = &saved
	}

	jobs, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// ExpirationSummary handles GET /api/jobs/expiration-summary.
func (h *JobHandlers) ExpirationSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Svc.ExpirationSummary(r.Context(), requestUserID(r))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// requestUserID extracts the acting user from the request. Identity comes
// from the X-User-ID header, falling back to the user_id query parameter.
func requestUserID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("user_id")
}

func parseIntQuery(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
