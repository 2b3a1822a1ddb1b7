package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"postcal/internal/core"
	"postcal/internal/store"
)

// AddEventParams schedules a new event. ScheduledTime is the caller's
// ISO-8601 string and is echoed back verbatim so round-trips stay exact.
type AddEventParams struct {
	TrackName     string
	EventName     string
	Prompt        string
	ScheduledTime string
	Platform      string
	Agent         string
	Metadata      map[string]any
}

// AddEventResult is the add_scheduled_event response.
type AddEventResult struct {
	ID             string `json:"id"`
	TrackID        string `json:"trackId"`
	Name           string `json:"name"`
	ScheduledTime  string `json:"scheduledTime"`
	GenerationTime string `json:"generationTime"`
	MediaPath      string `json:"mediaPath"`
	Platform       string `json:"platform"`
}

// ListEventsParams filters scheduled events. All fields are optional.
type ListEventsParams struct {
	TrackID   string
	Status    string
	Platform  string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}

// EventResult is the boundary representation of an event.
type EventResult struct {
	ID               string         `json:"id"`
	TrackID          string         `json:"trackId"`
	Name             string         `json:"name"`
	Platform         string         `json:"platform"`
	Prompt           string         `json:"prompt"`
	ScheduledTime    string         `json:"scheduledTime"`
	GenerationTime   string         `json:"generationTime"`
	Agent            string         `json:"agent"`
	ContentGenerated bool           `json:"contentGenerated"`
	Approved         bool           `json:"approved"`
	Posted           bool           `json:"posted"`
	Status           string         `json:"status"`
	MediaPath        string         `json:"mediaPath"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	EventType        string         `json:"eventType"`
	CreatedAt        string         `json:"createdAt"`
	UpdatedAt        string         `json:"updatedAt"`
}

// ListEventsResult is the list_scheduled_events response.
type ListEventsResult struct {
	Events     []EventResult `json:"events"`
	Pagination Pagination    `json:"pagination"`
}

// EventPatch is the typed update payload: one optional slot per mutable
// field, so "at least one field present" and the per-field derivation
// rules are enforced by the shape itself.
type EventPatch struct {
	Name          *string
	Prompt        *string
	ScheduledTime *string
	Approved      *bool
	Platform      *string
}

// Empty reports whether no field is set.
func (p EventPatch) Empty() bool {
	return p.Name == nil && p.Prompt == nil && p.ScheduledTime == nil &&
		p.Approved == nil && p.Platform == nil
}

// UpdateEventResult is the update_scheduled_event response.
type UpdateEventResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ScheduledTime string `json:"scheduledTime"`
	Approved      bool   `json:"approved"`
	Platform      string `json:"platform"`
}

// RemoveEventResult is the remove_scheduled_event response.
type RemoveEventResult struct {
	Message string `json:"message"`
}

// AddEvent validates the input, resolves the owning track (creating it if
// needed), derives generation time and media path, and inserts the event.
// Sidecar writes afterwards are best-effort.
func (c *Calendar) AddEvent(ctx context.Context, params AddEventParams) (*AddEventResult, error) {
	trackName := strings.TrimSpace(params.TrackName)
	eventName := strings.TrimSpace(params.EventName)
	now := c.now()

	verr := &core.ValidationError{}
	if trackName == "" {
		verr.Add("trackName", "must not be empty")
	}
	if eventName == "" {
		verr.Add("eventName", "must not be empty")
	} else if utf8.RuneCountInString(eventName) > core.MaxEventNameLen {
		verr.Add("eventName", fmt.Sprintf("must be at most %d characters", core.MaxEventNameLen))
	}
	if params.Prompt == "" {
		verr.Add("prompt", "must not be empty")
	} else if utf8.RuneCountInString(params.Prompt) > core.MaxPromptLen {
		verr.Add("prompt", fmt.Sprintf("must be at most %d characters", core.MaxPromptLen))
	}
	scheduled, err := time.Parse(time.RFC3339, params.ScheduledTime)
	if err != nil {
		verr.Add("scheduledTime", "must be a valid ISO-8601 timestamp")
	} else if !scheduled.After(now) {
		verr.Add("scheduledTime", "must be in the future")
	}
	platform := core.PlatformX
	if params.Platform != "" {
		platform = core.Platform(params.Platform)
		if !core.ValidPlatform(platform) {
			verr.Add("platform", fmt.Sprintf("unsupported platform %q", params.Platform))
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	track, err := c.findOrCreateTrack(ctx, trackName)
	if err != nil {
		return nil, err
	}

	agent := params.Agent
	if agent == "" {
		agent = c.defaultAgent()
	}

	event := &core.Event{
		ID:             core.NewID(),
		TrackID:        track.ID,
		Name:           eventName,
		Platform:       platform,
		Prompt:         params.Prompt,
		ScheduledTime:  scheduled,
		GenerationTime: core.GenerationTimeFor(scheduled),
		Agent:          agent,
		MediaPath:      core.MediaPathFor(track.Name, eventName, now.UTC().Format("2006-01-02")),
		Metadata:       params.Metadata,
		Type:           core.EventTypeScheduled,
	}
	if err := c.store.InsertEvent(ctx, event); err != nil {
		return nil, err
	}

	if err := c.sidecar.WriteEventInfo(ctx, track, event); err != nil {
		c.logger.Warn("event sidecar write failed", "event_id", event.ID, "err", err)
	}
	c.logger.Info("event scheduled", "event_id", event.ID, "track_id", track.ID, "scheduled_time", params.ScheduledTime)

	return &AddEventResult{
		ID:             event.ID,
		TrackID:        event.TrackID,
		Name:           event.Name,
		ScheduledTime:  params.ScheduledTime,
		GenerationTime: event.GenerationTime.UTC().Format(time.RFC3339),
		MediaPath:      event.MediaPath,
		Platform:       string(event.Platform),
	}, nil
}

// ListEvents queries scheduled events with the equality filters pushed to
// the store, applies derived status and inclusive date bounds in memory,
// then paginates; total reflects the filtered count.
func (c *Calendar) ListEvents(ctx context.Context, params ListEventsParams) (*ListEventsResult, error) {
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
	var status core.EventStatus
	if params.Status != "" {
		status = core.EventStatus(params.Status)
		if !core.ValidEventStatus(status) {
			verr.Add("status", fmt.Sprintf("unsupported status %q", params.Status))
		}
	}
	var platform core.Platform
	if params.Platform != "" {
		platform = core.Platform(params.Platform)
		if !core.ValidPlatform(platform) {
			verr.Add("platform", fmt.Sprintf("unsupported platform %q", params.Platform))
		}
	}
	var start, end time.Time
	var hasStart, hasEnd bool
	if params.StartDate != "" {
		t, err := parseDateBound(params.StartDate, false)
		if err != nil {
			verr.Add("startDate", "must be a valid ISO-8601 timestamp or date")
		} else {
			start, hasStart = t, true
		}
	}
	if params.EndDate != "" {
		t, err := parseDateBound(params.EndDate, true)
		if err != nil {
			verr.Add("endDate", "must be a valid ISO-8601 timestamp or date")
		} else {
			end, hasEnd = t, true
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	events, err := c.store.ListEvents(ctx, store.EventFilter{
		TrackID:   params.TrackID,
		Platform:  platform,
		EventType: core.EventTypeScheduled,
	})
	if err != nil {
		return nil, err
	}

	filtered := events[:0:0]
	for _, event := range events {
		if status != "" && event.Status() != status {
			continue
		}
		if hasStart && event.ScheduledTime.Before(start) {
			continue
		}
		if hasEnd && event.ScheduledTime.After(end) {
			continue
		}
		if event.Posted && !event.ContentGenerated {
			c.logger.Debug("event flags inconsistent", "event_id", event.ID,
				"posted", event.Posted, "content_generated", event.ContentGenerated)
		}
		filtered = append(filtered, event)
	}

	from, to := pageWindow(len(filtered), limit, params.Offset)
	result := &ListEventsResult{
		Events:     make([]EventResult, 0, to-from),
		Pagination: Pagination{Total: len(filtered), Limit: limit, Offset: params.Offset},
	}
	for _, event := range filtered[from:to] {
		result.Events = append(result.Events, *eventToResult(event))
	}
	return result, nil
}

// UpdateEvent applies a partial patch. A changed prompt invalidates any
// previously generated content; a changed scheduled time must still be in
// the future and moves the generation deadline with it.
func (c *Calendar) UpdateEvent(ctx context.Context, eventID string, patch EventPatch) (*UpdateEventResult, error) {
	verr := &core.ValidationError{}
	if strings.TrimSpace(eventID) == "" {
		verr.Add("eventId", "must not be empty")
	}
	if patch.Empty() {
		verr.Add("updates", "at least one field must be provided")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	event, err := c.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			verr.Add("name", "must not be empty")
		} else if utf8.RuneCountInString(name) > core.MaxEventNameLen {
			verr.Add("name", fmt.Sprintf("must be at most %d characters", core.MaxEventNameLen))
		} else {
			event.Name = name
		}
	}
	if patch.Prompt != nil {
		switch {
		case *patch.Prompt == "":
			verr.Add("prompt", "must not be empty")
		case utf8.RuneCountInString(*patch.Prompt) > core.MaxPromptLen:
			verr.Add("prompt", fmt.Sprintf("must be at most %d characters", core.MaxPromptLen))
		default:
			if *patch.Prompt != event.Prompt {
				event.ContentGenerated = false
			}
			event.Prompt = *patch.Prompt
		}
	}
	if patch.ScheduledTime != nil {
		scheduled, err := time.Parse(time.RFC3339, *patch.ScheduledTime)
		switch {
		case err != nil:
			verr.Add("scheduledTime", "must be a valid ISO-8601 timestamp")
		case !scheduled.After(c.now()):
			verr.Add("scheduledTime", "must be in the future")
		default:
			event.ScheduledTime = scheduled
			event.GenerationTime = core.GenerationTimeFor(scheduled)
		}
	}
	if patch.Platform != nil {
		platform := core.Platform(*patch.Platform)
		if !core.ValidPlatform(platform) {
			verr.Add("platform", fmt.Sprintf("unsupported platform %q", *patch.Platform))
		} else {
			event.Platform = platform
		}
	}
	if patch.Approved != nil {
		event.Approved = *patch.Approved
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := c.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	c.logger.Info("event updated", "event_id", event.ID)

	return &UpdateEventResult{
		ID:            event.ID,
		Name:          event.Name,
		ScheduledTime: event.ScheduledTime.UTC().Format(time.RFC3339),
		Approved:      event.Approved,
		Platform:      string(event.Platform),
	}, nil
}

// RemoveEvent deletes the event if it exists. Deleting a missing id is a
// successful no-op.
func (c *Calendar) RemoveEvent(ctx context.Context, eventID string) (*RemoveEventResult, error) {
	if strings.TrimSpace(eventID) == "" {
		verr := &core.ValidationError{}
		verr.Add("eventId", "must not be empty")
		return nil, verr
	}
	existed, err := c.store.DeleteEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !existed {
		return &RemoveEventResult{Message: fmt.Sprintf("event %s already absent", eventID)}, nil
	}
	return &RemoveEventResult{Message: fmt.Sprintf("event %s deleted", eventID)}, nil
}

func (c *Calendar) defaultAgent() string {
	if c.agent != "" {
		return c.agent
	}
	return core.DefaultAgent
}

// parseDateBound accepts a full timestamp or a bare date. A bare end date
// covers the whole day, keeping both bounds inclusive.
func parseDateBound(value string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		return t.Add(24*time.Hour - time.Nanosecond), nil
	}
	return t, nil
}

func eventToResult(event *core.Event) *EventResult {
	return &EventResult{
		ID:               event.ID,
		TrackID:          event.TrackID,
		Name:             event.Name,
		Platform:         string(event.Platform),
		Prompt:           event.Prompt,
		ScheduledTime:    event.ScheduledTime.UTC().Format(time.RFC3339),
		GenerationTime:   event.GenerationTime.UTC().Format(time.RFC3339),
		Agent:            event.Agent,
		ContentGenerated: event.ContentGenerated,
		Approved:         event.Approved,
		Posted:           event.Posted,
		Status:           string(event.Status()),
		MediaPath:        event.MediaPath,
		Metadata:         event.Metadata,
		EventType:        string(event.Type),
		CreatedAt:        event.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        event.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
