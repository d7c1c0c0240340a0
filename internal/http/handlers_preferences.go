package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jobscout/jobscout/internal/core"
	"github.com/jobscout/jobscout/internal/domain/model"
)

// PreferenceHandlers provides HTTP handlers for search preferences.
type PreferenceHandlers struct {
	Repo core.PreferenceRepository
}

// GetPreferences handles GET /api/preferences. Users who never configured
// preferences get the defaults.
func (h *PreferenceHandlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	if userID == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "validation",
			Err: errors.New("user_id is required"),
		})
		return
	}

	prefs, err := h.Repo.Get(r.Context(), userID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, prefs)
}

// PutPreferences handles PUT /api/preferences, replacing the user's stored
// preferences wholesale.
func (h *PreferenceHandlers) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.SearchPreferences
	if !DecodeJSON(w, r, &prefs) {
		return
	}
	if prefs.UserID == "" {
		prefs.UserID = requestUserID(r)
	}
	if strings.TrimSpace(prefs.UserID) == "" {
		WriteError(w, ErrorParams{
			Code: http.StatusBadRequest, ErrCode: "validation",
			Err: errors.New("user_id is required"),
		})
		return
	}

	stored, err := h.Repo.Upsert(r.Context(), &prefs)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stored)
}
