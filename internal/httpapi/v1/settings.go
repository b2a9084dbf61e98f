package v1

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/Andrew-Atwater/TeamF/internal/planner"
)

// getSettings handles GET /v1/settings. Users who never saved preferences
// get the defaults.
func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	q, ok := r.Context().Value(ctxKeyUserQuery).(listUserQuery)
	if !ok {
		badRequest(w, "missing validated query")
		return
	}
	st, err := s.settingsSvc.Get(r.Context(), q.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSettingsDoc(st))
}

// putSettings handles PUT /v1/settings, replacing the whole document.
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req settingsDoc
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		badRequest(w, "user_id is required")
		return
	}
	saved, err := s.settingsSvc.Put(r.Context(), planner.Settings{
		UserID:         req.UserID,
		DarkMode:       req.DarkMode,
		FontSize:       req.FontSize,
		FontFamily:     req.FontFamily,
		CurrencySymbol: req.CurrencySymbol,
		DateFormat:     req.DateFormat,
		Notifications:  req.Notifications,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	toJSON(w, http.StatusOK, toSettingsDoc(saved))
}
