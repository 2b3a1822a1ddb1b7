package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postcal/internal/core"
)

var ErrAutomationNotFound = errors.New("automation not found")

func (s *Store) InsertAutomation(ctx context.Context, automation *core.Automation) error {
	now := time.Now().UTC()
	automation.CreatedAt = now
	automation.UpdatedAt = now
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO automations (id, name, trigger_cron, action, enabled, last_run_at, next_run_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, automation.ID, automation.Name, automation.Trigger, automation.Action, boolToInt(automation.Enabled),
		nullableTime(automation.LastRunAt), nullableTime(automation.NextRunAt),
		automation.CreatedAt.Format(time.RFC3339Nano), automation.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert automation: %w", err)
	}
	return nil
}

func (s *Store) UpdateAutomation(ctx context.Context, automation *core.Automation) error {
	automation.UpdatedAt = time.Now().UTC()
	res, err := s.DB.ExecContext(ctx, `
		UPDATE automations
		SET name = ?, trigger_cron = ?, action = ?, enabled = ?, last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE id = ?
	`, automation.Name, automation.Trigger, automation.Action, boolToInt(automation.Enabled),
		nullableTime(automation.LastRunAt), nullableTime(automation.NextRunAt),
		automation.UpdatedAt.Format(time.RFC3339Nano), automation.ID)
	if err != nil {
		return fmt.Errorf("update automation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update automation rows: %w", err)
	}
	if rows == 0 {
		return ErrAutomationNotFound
	}
	return nil
}

func (s *Store) GetAutomation(ctx context.Context, id string) (*core.Automation, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, trigger_cron, action, enabled, last_run_at, next_run_at, created_at, updated_at
		FROM automations WHERE id = ?
	`, id)
	automation, err := scanAutomation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAutomationNotFound
		}
		return nil, err
	}
	return automation, nil
}

func (s *Store) ListAutomations(ctx context.Context) ([]*core.Automation, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, trigger_cron, action, enabled, last_run_at, next_run_at, created_at, updated_at
		FROM automations
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query automations: %w", err)
	}
	defer rows.Close()
	var automations []*core.Automation
	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		automations = append(automations, automation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return automations, nil
}

func (s *Store) DeleteAutomation(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM automations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete automation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAutomationNotFound
	}
	return nil
}

func scanAutomation(scanner interface {
	Scan(dest ...any) error
}) (*core.Automation, error) {
	var (
		id, name, trigger, action string
		enabled                   int
		lastRun, nextRun          sql.NullString
		createdAt, updatedAt      string
	)
	if err := scanner.Scan(&id, &name, &trigger, &action, &enabled, &lastRun, &nextRun, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan automation: %w", err)
	}
	automation := &core.Automation{
		ID:      id,
		Name:    name,
		Trigger: trigger,
		Action:  action,
		Enabled: enabled != 0,
	}
	if lastRun.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastRun.String); err == nil {
			automation.LastRunAt = &t
		}
	}
	if nextRun.Valid {
		if t, err := time.Parse(time.RFC3339Nano, nextRun.String); err == nil {
			automation.NextRunAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		automation.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		automation.UpdatedAt = t
	}
	return automation, nil
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}
