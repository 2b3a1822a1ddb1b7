package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"postcal/internal/calendar"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server holds the HTTP server state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	calendar   *calendar.Calendar
	logger     *slog.Logger
	authToken  string
}

// NewServer constructs the HTTP API server.
func NewServer(addr, authToken string, cal *calendar.Calendar, logger *slog.Logger) (*Server, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		calendar:  cal,
		logger:    logger,
		authToken: authToken,
	}
	s.registerRoutes()

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.httpServer = httpServer
	return s, nil
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Route("/v1", func(r chi.Router) {
		if s.authToken != "" {
			r.Use(bearerAuth(s.authToken))
		}

		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", s.handleListTracks)
			r.Post("/", s.handleAddTrack)
			r.Delete("/{trackID}", s.handleRemoveTrack)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleAddEvent)
			r.Patch("/{eventID}", s.handleUpdateEvent)
			r.Delete("/{eventID}", s.handleRemoveEvent)
		})

		r.Route("/automations", func(r chi.Router) {
			r.Get("/", s.handleListAutomations)
			r.Post("/", s.handleAddAutomation)
			r.Patch("/{automationID}", s.handleUpdateAutomation)
			r.Delete("/{automationID}", s.handleRemoveAutomation)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]any{
		"error": map[string]string{
			"kind":    code,
			"message": message,
		},
	}
	writeJSON(w, status, payload)
}

// writeOpError maps the operation error taxonomy onto HTTP statuses and
// writes the self-describing payload.
func (s *Server) writeOpError(w http.ResponseWriter, err error) {
	kind := calendar.ErrorKind(err)
	status := http.StatusInternalServerError
	switch kind {
	case calendar.KindValidation:
		status = http.StatusBadRequest
	case calendar.KindDuplicateTrack:
		status = http.StatusConflict
	case calendar.KindNotFound:
		status = http.StatusNotFound
	default:
		s.logger.Error("operation failed", "err", err)
	}
	writeJSON(w, status, calendar.ErrorPayload(err))
}
