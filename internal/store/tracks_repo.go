package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"postcal/internal/core"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	// ErrTrackExists reports a (name, type) unique-constraint violation.
	// Callers doing find-or-create treat it as "already existed" and
	// re-read.
	ErrTrackExists = errors.New("track already exists")
)

func (s *Store) InsertTrack(ctx context.Context, track *core.Track) error {
	now := time.Now().UTC()
	track.CreatedAt = now
	track.UpdatedAt = now
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO tracks (id, name, type, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, track.ID, track.Name, track.Type, track.Order,
		track.CreatedAt.Format(time.RFC3339Nano), track.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTrackExists
		}
		return fmt.Errorf("insert track: %w", err)
	}
	return nil
}

func (s *Store) GetTrack(ctx context.Context, id string) (*core.Track, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, type, sort_order, created_at, updated_at
		FROM tracks WHERE id = ?
	`, id)
	track, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrackNotFound
		}
		return nil, err
	}
	return track, nil
}

func (s *Store) GetTrackByName(ctx context.Context, name string, trackType core.TrackType) (*core.Track, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, type, sort_order, created_at, updated_at
		FROM tracks WHERE name = ? AND type = ?
	`, name, trackType)
	track, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrackNotFound
		}
		return nil, err
	}
	return track, nil
}

// ListTracks returns tracks of the given type ordered by sort_order, with
// insertion order breaking ties. total is the unpaginated count.
func (s *Store) ListTracks(ctx context.Context, trackType core.TrackType, limit, offset int) ([]*core.Track, int, error) {
	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM tracks WHERE type = ?`, trackType).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tracks: %w", err)
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, type, sort_order, created_at, updated_at
		FROM tracks
		WHERE type = ?
		ORDER BY sort_order ASC, rowid ASC
		LIMIT ? OFFSET ?
	`, trackType, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()
	var tracks []*core.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, 0, err
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}

// MaxTrackOrder returns the highest sort_order across all tracks, or -1
// when no tracks exist so the first track gets order 0.
func (s *Store) MaxTrackOrder(ctx context.Context) (int, error) {
	var max sql.NullInt64
	if err := s.DB.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM tracks`).Scan(&max); err != nil {
		return 0, fmt.Errorf("max track order: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

// DeleteTrack removes the track and, through the foreign-key cascade, all
// of its events. It returns the track and the number of events removed.
func (s *Store) DeleteTrack(ctx context.Context, id string) (*core.Track, int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin delete track: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, name, type, sort_order, created_at, updated_at
		FROM tracks WHERE id = ?
	`, id)
	track, err := scanTrack(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrTrackNotFound
		}
		return nil, 0, err
	}

	var owned int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM events WHERE track_id = ?`, id).Scan(&owned); err != nil {
		return nil, 0, fmt.Errorf("count owned events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return nil, 0, fmt.Errorf("delete track: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit delete track: %w", err)
	}
	return track, owned, nil
}

func scanTrack(scanner interface {
	Scan(dest ...any) error
}) (*core.Track, error) {
	var (
		id        string
		name      string
		trackType string
		order     int
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&id, &name, &trackType, &order, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan track: %w", err)
	}
	track := &core.Track{
		ID:    id,
		Name:  name,
		Type:  core.TrackType(trackType),
		Order: order,
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		track.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		track.UpdatedAt = t
	}
	return track, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
