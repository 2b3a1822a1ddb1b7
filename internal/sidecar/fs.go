package sidecar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"postcal/internal/core"
)

// trackInfo is the companion file written into a track's folder.
type trackInfo struct {
	TrackID   string `json:"trackId"`
	TrackName string `json:"trackName"`
	TrackType string `json:"trackType"`
	CreatedAt string `json:"createdAt"`
}

// eventInfo is the info.json written into an event's media folder.
type eventInfo struct {
	EventID   string `json:"eventId"`
	EventName string `json:"eventName"`
	TrackID   string `json:"trackId"`
	CreatedAt string `json:"createdAt"`
}

// FSWriter writes sidecar folders and files under a workspace root.
type FSWriter struct {
	root string
}

// NewFSWriter creates a writer rooted at the workspace directory.
func NewFSWriter(root string) *FSWriter {
	return &FSWriter{root: root}
}

// EnsureTrackDir creates tracks/{sanitized-name}/ and drops an info.json
// describing the track.
func (w *FSWriter) EnsureTrackDir(ctx context.Context, track *core.Track) error {
	dir := filepath.Join(w.root, "tracks", core.SanitizeName(track.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create track dir: %w", err)
	}
	info := trackInfo{
		TrackID:   track.ID,
		TrackName: track.Name,
		TrackType: string(track.Type),
		CreatedAt: track.CreatedAt.UTC().Format(time.RFC3339),
	}
	return writeJSONFile(filepath.Join(dir, "info.json"), info)
}

// WriteEventInfo creates the event's media folder and writes its info.json.
func (w *FSWriter) WriteEventInfo(ctx context.Context, track *core.Track, event *core.Event) error {
	dir := filepath.Join(w.root, filepath.FromSlash(event.MediaPath))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	info := eventInfo{
		EventID:   event.ID,
		EventName: event.Name,
		TrackID:   event.TrackID,
		CreatedAt: event.CreatedAt.UTC().Format(time.RFC3339),
	}
	return writeJSONFile(filepath.Join(dir, "info.json"), info)
}

func writeJSONFile(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
