package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcal/internal/calendar"
	"postcal/internal/sidecar"
	"postcal/internal/store"
)

func newTestServer(t *testing.T, authToken string) *Server {
	t.Helper()
	st, err := store.Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.DB.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cal := calendar.New(st, sidecar.NoOpWriter{}, logger, "")
	server, err := NewServer("127.0.0.1:0", authToken, cal, logger)
	require.NoError(t, err)
	return server
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestTracks_CreateListDelete(t *testing.T) {
	server := newTestServer(t, "")
	h := server.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/tracks", map[string]any{"name": "Launch"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	trackID := created["id"].(string)
	assert.Equal(t, "planned", created["type"])

	rec = doJSON(t, h, http.MethodGet, "/v1/tracks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)
	tracks := listed["tracks"].([]any)
	require.Len(t, tracks, 1)

	rec = doJSON(t, h, http.MethodDelete, "/v1/tracks/"+trackID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decodeBody(t, rec)
	assert.Equal(t, float64(0), removed["deletedEvents"])
}

func TestTracks_DuplicateReturnsConflictWithExisting(t *testing.T) {
	server := newTestServer(t, "")
	h := server.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/tracks", map[string]any{"name": "Launch"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)

	rec = doJSON(t, h, http.MethodPost, "/v1/tracks", map[string]any{"name": "Launch"})
	require.Equal(t, http.StatusConflict, rec.Code)
	payload := decodeBody(t, rec)
	errObj := payload["error"].(map[string]any)
	assert.Equal(t, "duplicate_track", errObj["kind"])
	existing := errObj["existingTrack"].(map[string]any)
	assert.Equal(t, created["id"], existing["id"])
}

func TestTracks_DeleteMissingReturnsNotFound(t *testing.T) {
	server := newTestServer(t, "")
	rec := doJSON(t, server.Handler(), http.MethodDelete, "/v1/tracks/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "not_found", payload["error"].(map[string]any)["kind"])
}

func TestEvents_CreateAndList(t *testing.T) {
	server := newTestServer(t, "")
	h := server.Handler()
	scheduled := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)

	rec := doJSON(t, h, http.MethodPost, "/v1/events", map[string]any{
		"trackName":     "Launch",
		"eventName":     "Teaser 1",
		"prompt":        "write the teaser",
		"scheduledTime": scheduled,
		"platform":      "linkedin",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, scheduled, created["scheduledTime"])
	assert.Equal(t, "linkedin", created["platform"])
	assert.NotEmpty(t, created["mediaPath"])

	rec = doJSON(t, h, http.MethodGet, "/v1/events?platform=linkedin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)
	events := listed["events"].([]any)
	require.Len(t, events, 1)
	event := events[0].(map[string]any)
	assert.Equal(t, "pending", event["status"])
}

func TestEvents_PastTimeRejectedWithItemizedFields(t *testing.T) {
	server := newTestServer(t, "")
	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/events", map[string]any{
		"trackName":     "Launch",
		"eventName":     "Late",
		"prompt":        "too late",
		"scheduledTime": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeBody(t, rec)
	errObj := payload["error"].(map[string]any)
	assert.Equal(t, "validation", errObj["kind"])
	fields := errObj["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "scheduledTime", fields[0].(map[string]any)["field"])
}

func TestEvents_EmptyPatchRejected(t *testing.T) {
	server := newTestServer(t, "")
	h := server.Handler()
	scheduled := time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)

	rec := doJSON(t, h, http.MethodPost, "/v1/events", map[string]any{
		"trackName":     "Launch",
		"eventName":     "Teaser",
		"prompt":        "p",
		"scheduledTime": scheduled,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	eventID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, h, http.MethodPatch, "/v1/events/"+eventID, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/v1/events/"+eventID, map[string]any{"approved": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["approved"])
}

func TestEvents_DeleteIsIdempotent(t *testing.T) {
	server := newTestServer(t, "")
	rec := doJSON(t, server.Handler(), http.MethodDelete, "/v1/events/ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "ghost")
}

func TestBearerAuth_GuardsAPI(t *testing.T) {
	server := newTestServer(t, "sekrit")
	h := server.Handler()

	rec := doJSON(t, h, http.MethodGet, "/v1/tracks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The token is only accepted in the Authorization header.
	query := doJSON(t, h, http.MethodGet, "/v1/tracks?token=sekrit", nil)
	assert.Equal(t, http.StatusUnauthorized, query.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/tracks", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	authed := httptest.NewRecorder()
	h.ServeHTTP(authed, req)
	assert.Equal(t, http.StatusOK, authed.Code)
}

func TestAutomations_CRUD(t *testing.T) {
	server := newTestServer(t, "")
	h := server.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/automations", map[string]any{
		"name":    "daily",
		"trigger": "whenever",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/v1/automations", map[string]any{
		"name":    "daily",
		"trigger": "0 9 * * 1-5",
		"action":  `{"trackName":"Workdays"}`,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	assert.NotEmpty(t, created["nextRunAt"])
	id := created["id"].(string)

	rec = doJSON(t, h, http.MethodPatch, "/v1/automations/"+id, map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody(t, rec)
	assert.Equal(t, false, updated["enabled"])
	assert.Nil(t, updated["nextRunAt"])

	rec = doJSON(t, h, http.MethodDelete, "/v1/automations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
