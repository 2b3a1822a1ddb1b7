package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"postcal/internal/core"
)

var ErrEventNotFound = errors.New("event not found")

// EventFilter narrows ListEvents. Zero values mean "no filter". Status and
// date-range filtering happen above the store because status is derived
// from flags, not stored.
type EventFilter struct {
	TrackID   string
	Platform  core.Platform
	EventType core.EventType
}

func (s *Store) InsertEvent(ctx context.Context, event *core.Event) error {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO events (id, track_id, name, platform, prompt, scheduled_time, generation_time,
			agent, content_generated, approved, posted, media_path, metadata, event_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.TrackID, event.Name, event.Platform, event.Prompt,
		event.ScheduledTime.UTC().Format(time.RFC3339Nano),
		event.GenerationTime.UTC().Format(time.RFC3339Nano),
		event.Agent, boolToInt(event.ContentGenerated), boolToInt(event.Approved), boolToInt(event.Posted),
		event.MediaPath, metadata, event.Type,
		event.CreatedAt.Format(time.RFC3339Nano), event.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*core.Event, error) {
	row := s.DB.QueryRowContext(ctx, eventSelect+` WHERE id = ?`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (s *Store) UpdateEvent(ctx context.Context, event *core.Event) error {
	event.UpdatedAt = time.Now().UTC()
	metadata, err := encodeMetadata(event.Metadata)
	if err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE events
		SET name = ?, platform = ?, prompt = ?, scheduled_time = ?, generation_time = ?,
			agent = ?, content_generated = ?, approved = ?, posted = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`, event.Name, event.Platform, event.Prompt,
		event.ScheduledTime.UTC().Format(time.RFC3339Nano),
		event.GenerationTime.UTC().Format(time.RFC3339Nano),
		event.Agent, boolToInt(event.ContentGenerated), boolToInt(event.Approved), boolToInt(event.Posted),
		metadata, event.UpdatedAt.Format(time.RFC3339Nano), event.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows: %w", err)
	}
	if rows == 0 {
		return ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes the event if present and reports whether a row was
// deleted. A missing id is not an error.
func (s *Store) DeleteEvent(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListEvents returns events matching the filter ordered by scheduled_time
// ascending. Pagination is deliberately absent here: the caller filters by
// derived status and date range first, then paginates the result.
func (s *Store) ListEvents(ctx context.Context, filter EventFilter) ([]*core.Event, error) {
	query := eventSelect + ` WHERE 1=1`
	args := []any{}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.TrackID != "" {
		query += ` AND track_id = ?`
		args = append(args, filter.TrackID)
	}
	if filter.Platform != "" {
		query += ` AND platform = ?`
		args = append(args, filter.Platform)
	}
	query += ` ORDER BY scheduled_time ASC, rowid ASC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	var events []*core.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

const eventSelect = `
	SELECT id, track_id, name, platform, prompt, scheduled_time, generation_time,
		agent, content_generated, approved, posted, media_path, metadata, event_type, created_at, updated_at
	FROM events`

func scanEvent(scanner interface {
	Scan(dest ...any) error
}) (*core.Event, error) {
	var (
		id, trackID, name, platform, prompt string
		scheduledTime, generationTime       string
		agent                               string
		contentGenerated, approved, posted  int
		mediaPath                           string
		metadata                            sql.NullString
		eventType                           string
		createdAt, updatedAt                string
	)
	if err := scanner.Scan(&id, &trackID, &name, &platform, &prompt, &scheduledTime, &generationTime,
		&agent, &contentGenerated, &approved, &posted, &mediaPath, &metadata, &eventType, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	event := &core.Event{
		ID:               id,
		TrackID:          trackID,
		Name:             name,
		Platform:         core.Platform(platform),
		Prompt:           prompt,
		Agent:            agent,
		ContentGenerated: contentGenerated != 0,
		Approved:         approved != 0,
		Posted:           posted != 0,
		MediaPath:        mediaPath,
		Type:             core.EventType(eventType),
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
			return nil, fmt.Errorf("decode event metadata: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, scheduledTime); err == nil {
		event.ScheduledTime = t
	}
	if t, err := time.Parse(time.RFC3339Nano, generationTime); err == nil {
		event.GenerationTime = t
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		event.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		event.UpdatedAt = t
	}
	return event, nil
}

func encodeMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode event metadata: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
