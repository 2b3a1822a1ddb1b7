// Package sidecar writes best-effort companion files next to the database:
// a folder per track and, per event, a media folder holding an info.json.
// Nothing here may fail a calendar operation; callers log and move on.
package sidecar

import (
	"context"

	"postcal/internal/core"
)

// Writer is the side-channel contract the calendar operations call into.
type Writer interface {
	EnsureTrackDir(ctx context.Context, track *core.Track) error
	WriteEventInfo(ctx context.Context, track *core.Track, event *core.Event) error
}

// NoOpWriter does nothing. Used in tests and when no workspace directory
// is writable.
type NoOpWriter struct{}

func (NoOpWriter) EnsureTrackDir(ctx context.Context, track *core.Track) error {
	return nil
}

func (NoOpWriter) WriteEventInfo(ctx context.Context, track *core.Track, event *core.Event) error {
	return nil
}
