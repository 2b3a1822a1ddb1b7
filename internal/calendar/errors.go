package calendar

import (
	"errors"

	"postcal/internal/core"
	"postcal/internal/store"
)

// Error kinds surfaced to callers. The host decides what to do from the
// kind alone; the message is for humans.
const (
	KindValidation     = "validation"
	KindDuplicateTrack = "duplicate_track"
	KindNotFound       = "not_found"
	KindInternal       = "internal"
)

// ErrorKind classifies an operation error into the stable taxonomy.
func ErrorKind(err error) string {
	var verr *core.ValidationError
	var dup *core.DuplicateTrackError
	switch {
	case errors.As(err, &verr):
		return KindValidation
	case errors.As(err, &dup):
		return KindDuplicateTrack
	case errors.Is(err, store.ErrTrackNotFound),
		errors.Is(err, store.ErrEventNotFound),
		errors.Is(err, store.ErrAutomationNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// ErrorPayload renders an operation error as a self-describing object:
// {"error": {"kind", "message", optional "fields" / "existingTrack"}}.
// Internal errors keep their detail out of the payload.
func ErrorPayload(err error) map[string]any {
	kind := ErrorKind(err)
	inner := map[string]any{
		"kind":    kind,
		"message": err.Error(),
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		inner["fields"] = verr.Fields
	}
	var dup *core.DuplicateTrackError
	if errors.As(err, &dup) {
		inner["existingTrack"] = trackToResult(dup.Existing)
	}
	if kind == KindInternal {
		inner["message"] = "internal error"
	}
	return map[string]any{"error": inner}
}
