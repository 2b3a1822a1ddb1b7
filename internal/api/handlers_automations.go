package api

import (
	"encoding/json"
	"net/http"

	"postcal/internal/calendar"

	"github.com/go-chi/chi/v5"
)

type addAutomationRequest struct {
	Name    string `json:"name"`
	Trigger string `json:"trigger"`
	Action  string `json:"action"`
	Enabled *bool  `json:"enabled"`
}

type updateAutomationRequest struct {
	Name    *string `json:"name"`
	Trigger *string `json:"trigger"`
	Action  *string `json:"action"`
	Enabled *bool   `json:"enabled"`
}

func (s *Server) handleAddAutomation(w http.ResponseWriter, r *http.Request) {
	var req addAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON payload")
		return
	}
	result, err := s.calendar.AddAutomation(r.Context(), calendar.AddAutomationParams{
		Name:    req.Name,
		Trigger: req.Trigger,
		Action:  req.Action,
		Enabled: req.Enabled,
	})
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListAutomations(w http.ResponseWriter, r *http.Request) {
	results, err := s.calendar.ListAutomations(r.Context())
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"automations": results})
}

func (s *Server) handleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	var req updateAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON payload")
		return
	}
	result, err := s.calendar.UpdateAutomation(r.Context(), chi.URLParam(r, "automationID"), calendar.AutomationPatch{
		Name:    req.Name,
		Trigger: req.Trigger,
		Action:  req.Action,
		Enabled: req.Enabled,
	})
	if err != nil {
		s.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRemoveAutomation(w http.ResponseWriter, r *http.Request) {
	if err := s.calendar.RemoveAutomation(r.Context(), chi.URLParam(r, "automationID")); err != nil {
		s.writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
