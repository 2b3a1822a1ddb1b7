package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"postcal/internal/calendar"
	"postcal/internal/core"

	"github.com/go-chi/chi/v5"
)

type addTrackRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Order *int   `json:"order"`
}

func (s *Server) handleAddTrack(w http.ResponseWriter, r *http.Request) {
	var req addTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON payload")
		return
	}
	result, err := s.calendar.AddTrack(r.Context(), calendar.AddTrackParams{
		Name:  req.Name,
		Type:  core.TrackType(req.Type),
		Order: req.Order,
	})
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	result, err := s.calendar.ListTracks(r.Context(), calendar.ListTracksParams{
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 0),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	})
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRemoveTrack(w http.ResponseWriter, r *http.Request) {
	result, err := s.calendar.RemoveTrack(r.Context(), chi.URLParam(r, "trackID"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
