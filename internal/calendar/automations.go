package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"postcal/internal/core"
)

// AddAutomationParams creates an automation configuration row. No executor
// runs in this process; enabled automations only get their next_run_at
// bookkeeping computed from the trigger.
type AddAutomationParams struct {
	Name    string
	Trigger string
	Action  string
	Enabled *bool
}

// AutomationPatch is the typed partial update for an automation config.
type AutomationPatch struct {
	Name    *string
	Trigger *string
	Action  *string
	Enabled *bool
}

// AutomationResult is the boundary representation of an automation.
type AutomationResult struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Trigger   string  `json:"trigger"`
	Action    string  `json:"action"`
	Enabled   bool    `json:"enabled"`
	LastRunAt *string `json:"lastRunAt,omitempty"`
	NextRunAt *string `json:"nextRunAt,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// AddAutomation validates the trigger expression and persists the config.
func (c *Calendar) AddAutomation(ctx context.Context, params AddAutomationParams) (*AutomationResult, error) {
	name := strings.TrimSpace(params.Name)
	trigger := strings.TrimSpace(params.Trigger)

	verr := &core.ValidationError{}
	if name == "" {
		verr.Add("name", "must not be empty")
	}
	var parsed cron.Schedule
	if trigger == "" {
		verr.Add("trigger", "must not be empty")
	} else {
		var perr error
		parsed, perr = core.ParseTrigger(trigger)
		if perr != nil {
			verr.Add("trigger", perr.Error())
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	enabled := true
	if params.Enabled != nil {
		enabled = *params.Enabled
	}
	automation := &core.Automation{
		ID:      core.NewID(),
		Name:    name,
		Trigger: trigger,
		Action:  params.Action,
		Enabled: enabled,
	}
	if enabled {
		next := core.NextTrigger(parsed, c.now()).UTC()
		automation.NextRunAt = &next
	}
	if err := c.store.InsertAutomation(ctx, automation); err != nil {
		return nil, err
	}
	c.logger.Info("automation created", "automation_id", automation.ID, "trigger", trigger)
	return automationToResult(automation), nil
}

// ListAutomations returns every automation config row.
func (c *Calendar) ListAutomations(ctx context.Context) ([]AutomationResult, error) {
	automations, err := c.store.ListAutomations(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]AutomationResult, 0, len(automations))
	for _, automation := range automations {
		results = append(results, *automationToResult(automation))
	}
	return results, nil
}

// UpdateAutomation applies a partial patch, re-validating the trigger and
// refreshing next_run_at when it or the enabled flag changes.
func (c *Calendar) UpdateAutomation(ctx context.Context, id string, patch AutomationPatch) (*AutomationResult, error) {
	automation, err := c.store.GetAutomation(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &core.ValidationError{}
	recompute := false
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			verr.Add("name", "must not be empty")
		} else {
			automation.Name = name
		}
	}
	if patch.Trigger != nil {
		trigger := strings.TrimSpace(*patch.Trigger)
		if _, perr := core.ParseTrigger(trigger); perr != nil {
			verr.Add("trigger", perr.Error())
		} else {
			automation.Trigger = trigger
			recompute = true
		}
	}
	if patch.Action != nil {
		automation.Action = *patch.Action
	}
	if patch.Enabled != nil {
		automation.Enabled = *patch.Enabled
		recompute = true
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if recompute {
		if automation.Enabled {
			parsed, perr := core.ParseTrigger(automation.Trigger)
			if perr != nil {
				return nil, fmt.Errorf("stored trigger invalid: %w", perr)
			}
			next := core.NextTrigger(parsed, c.now()).UTC()
			automation.NextRunAt = &next
		} else {
			automation.NextRunAt = nil
		}
	}

	if err := c.store.UpdateAutomation(ctx, automation); err != nil {
		return nil, err
	}
	return automationToResult(automation), nil
}

// RemoveAutomation deletes an automation config.
func (c *Calendar) RemoveAutomation(ctx context.Context, id string) error {
	return c.store.DeleteAutomation(ctx, id)
}

func automationToResult(automation *core.Automation) *AutomationResult {
	result := &AutomationResult{
		ID:        automation.ID,
		Name:      automation.Name,
		Trigger:   automation.Trigger,
		Action:    automation.Action,
		Enabled:   automation.Enabled,
		CreatedAt: automation.CreatedAt.UTC().Format(time.RFC3339),
	}
	if automation.LastRunAt != nil {
		formatted := automation.LastRunAt.UTC().Format(time.RFC3339)
		result.LastRunAt = &formatted
	}
	if automation.NextRunAt != nil {
		formatted := automation.NextRunAt.UTC().Format(time.RFC3339)
		result.NextRunAt = &formatted
	}
	return result
}
