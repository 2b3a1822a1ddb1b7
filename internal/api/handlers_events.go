package api

import (
	"encoding/json"
	"net/http"

	"postcal/internal/calendar"

	"github.com/go-chi/chi/v5"
)

type addEventRequest struct {
	TrackName     string         `json:"trackName"`
	EventName     string         `json:"eventName"`
	Prompt        string         `json:"prompt"`
	ScheduledTime string         `json:"scheduledTime"`
	Platform      string         `json:"platform"`
	Agent         string         `json:"agent"`
	Metadata      map[string]any `json:"metadata"`
}

type updateEventRequest struct {
	Name          *string `json:"name"`
	Prompt        *string `json:"prompt"`
	ScheduledTime *string `json:"scheduledTime"`
	Approved      *bool   `json:"approved"`
	Platform      *string `json:"platform"`
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON payload")
		return
	}
	result, err := s.calendar.AddEvent(r.Context(), calendar.AddEventParams{
		TrackName:     req.TrackName,
		EventName:     req.EventName,
		Prompt:        req.Prompt,
		ScheduledTime: req.ScheduledTime,
		Platform:      req.Platform,
		Agent:         req.Agent,
		Metadata:      req.Metadata,
	})
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := s.calendar.ListEvents(r.Context(), calendar.ListEventsParams{
		TrackID:   query.Get("trackId"),
		Status:    query.Get("status"),
		Platform:  query.Get("platform"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
		Limit:     parseIntDefault(query.Get("limit"), 0),
		Offset:    parseIntDefault(query.Get("offset"), 0),
	})
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON payload")
		return
	}
	result, err := s.calendar.UpdateEvent(r.Context(), chi.URLParam(r, "eventID"), calendar.EventPatch{
		Name:          req.Name,
		Prompt:        req.Prompt,
		ScheduledTime: req.ScheduledTime,
		Approved:      req.Approved,
		Platform:      req.Platform,
	})
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRemoveEvent(w http.ResponseWriter, r *http.Request) {
	result, err := s.calendar.RemoveEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
