package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseTrigger ensures an automation trigger is a valid 5-field cron
// expression and returns the underlying schedule.
func ParseTrigger(expr string) (cron.Schedule, error) {
	if strings.HasPrefix(strings.TrimSpace(expr), "@") {
		return nil, fmt.Errorf("only 5-field cron expressions are supported")
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// NextTrigger returns the first firing time after base. This is pure
// bookkeeping for the next_run_at column; no scheduler runs in this
// process.
func NextTrigger(schedule cron.Schedule, base time.Time) time.Time {
	return schedule.Next(base)
}
