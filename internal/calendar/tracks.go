package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postcal/internal/core"
	"postcal/internal/store"
)

// AddTrackParams creates a track explicitly. Order is optional; when
// absent the track is appended after the current highest order.
type AddTrackParams struct {
	Name  string
	Type  core.TrackType
	Order *int
}

// TrackResult is the boundary representation of a track.
type TrackResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Order     int    `json:"order"`
	CreatedAt string `json:"createdAt"`
}

// ListTracksParams pages through planned tracks.
type ListTracksParams struct {
	Limit  int
	Offset int
}

// ListTracksResult is the list_tracks response.
type ListTracksResult struct {
	Tracks     []TrackResult `json:"tracks"`
	Pagination Pagination    `json:"pagination"`
}

// RemoveTrackResult is the remove_track response.
type RemoveTrackResult struct {
	Message       string `json:"message"`
	DeletedEvents int    `json:"deletedEvents"`
	TrackType     string `json:"trackType"`
}

// AddTrack creates a track, failing with DuplicateTrackError when the
// (name, type) pair already exists. The existing track rides along in the
// error so the caller can reuse it.
func (c *Calendar) AddTrack(ctx context.Context, params AddTrackParams) (*TrackResult, error) {
	name := strings.TrimSpace(params.Name)
	trackType := params.Type
	if trackType == "" {
		trackType = core.TrackTypePlanned
	}

	verr := &core.ValidationError{}
	if name == "" {
		verr.Add("name", "must not be empty")
	}
	if !core.ValidTrackType(trackType) {
		verr.Add("type", fmt.Sprintf("must be %s or %s", core.TrackTypePlanned, core.TrackTypeAutomation))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if existing, err := c.store.GetTrackByName(ctx, name, trackType); err == nil {
		return nil, &core.DuplicateTrackError{Existing: existing}
	} else if !errors.Is(err, store.ErrTrackNotFound) {
		return nil, err
	}

	track, err := c.createTrack(ctx, name, trackType, params.Order)
	if err != nil {
		return nil, err
	}
	return trackToResult(track), nil
}

// ListTracks returns planned tracks ascending by order, insertion order
// breaking ties.
func (c *Calendar) ListTracks(ctx context.Context, params ListTracksParams) (*ListTracksResult, error) {
	limit := params.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	verr := &core.ValidationError{}
	if limit < 1 || limit > maxLimit {
		verr.Add("limit", fmt.Sprintf("must be between 1 and %d", maxLimit))
	}
	if params.Offset < 0 {
		verr.Add("offset", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	tracks, total, err := c.store.ListTracks(ctx, core.TrackTypePlanned, limit, params.Offset)
	if err != nil {
		return nil, err
	}
	result := &ListTracksResult{
		Tracks:     make([]TrackResult, 0, len(tracks)),
		Pagination: Pagination{Total: total, Limit: limit, Offset: params.Offset},
	}
	for _, track := range tracks {
		result.Tracks = append(result.Tracks, *trackToResult(track))
	}
	return result, nil
}

// RemoveTrack deletes the track and everything it owns. The cascade is the
// storage engine's; the count of removed events is reported back.
func (c *Calendar) RemoveTrack(ctx context.Context, trackID string) (*RemoveTrackResult, error) {
	if strings.TrimSpace(trackID) == "" {
		verr := &core.ValidationError{}
		verr.Add("trackId", "must not be empty")
		return nil, verr
	}
	track, deleted, err := c.store.DeleteTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	c.logger.Info("track removed", "track_id", trackID, "deleted_events", deleted)
	return &RemoveTrackResult{
		Message:       fmt.Sprintf("track %q deleted", track.Name),
		DeletedEvents: deleted,
		TrackType:     string(track.Type),
	}, nil
}

// createTrack inserts a new track at the end of the ordering. A concurrent
// insert of the same (name, type) loses the race at the unique index; the
// winner's row is re-read and returned inside DuplicateTrackError.
func (c *Calendar) createTrack(ctx context.Context, name string, trackType core.TrackType, order *int) (*core.Track, error) {
	sortOrder := 0
	if order != nil {
		sortOrder = *order
	} else {
		max, err := c.store.MaxTrackOrder(ctx)
		if err != nil {
			return nil, err
		}
		sortOrder = max + 1
	}

	track := &core.Track{
		ID:    core.NewID(),
		Name:  name,
		Type:  trackType,
		Order: sortOrder,
	}
	if err := c.store.InsertTrack(ctx, track); err != nil {
		if errors.Is(err, store.ErrTrackExists) {
			existing, rerr := c.store.GetTrackByName(ctx, name, trackType)
			if rerr != nil {
				return nil, fmt.Errorf("re-read track after unique violation: %w", rerr)
			}
			return nil, &core.DuplicateTrackError{Existing: existing}
		}
		return nil, err
	}

	if err := c.sidecar.EnsureTrackDir(ctx, track); err != nil {
		c.logger.Warn("track sidecar write failed", "track_id", track.ID, "err", err)
	}
	return track, nil
}

// findOrCreateTrack resolves the planned track an event names, creating it
// when absent. Losing the unique-index race counts as "already existed".
func (c *Calendar) findOrCreateTrack(ctx context.Context, name string) (*core.Track, error) {
	track, err := c.store.GetTrackByName(ctx, name, core.TrackTypePlanned)
	if err == nil {
		return track, nil
	}
	if !errors.Is(err, store.ErrTrackNotFound) {
		return nil, err
	}
	track, err = c.createTrack(ctx, name, core.TrackTypePlanned, nil)
	if err != nil {
		var dup *core.DuplicateTrackError
		if errors.As(err, &dup) {
			return dup.Existing, nil
		}
		return nil, err
	}
	return track, nil
}

func trackToResult(track *core.Track) *TrackResult {
	return &TrackResult{
		ID:        track.ID,
		Name:      track.Name,
		Type:      string(track.Type),
		Order:     track.Order,
		CreatedAt: track.CreatedAt.UTC().Format(time.RFC3339),
	}
}
