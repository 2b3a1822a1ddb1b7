// Package calendar implements the track/event operations exposed to the
// host: validation, derivation rules and find-or-create semantics over the
// SQLite store, with best-effort sidecar writes.
package calendar

import (
	"log/slog"
	"time"

	"postcal/internal/sidecar"
	"postcal/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Calendar is the operation layer. It owns the storage handle and the
// sidecar writer; each method is a single host-visible operation.
type Calendar struct {
	store   *store.Store
	sidecar sidecar.Writer
	logger  *slog.Logger
	agent   string

	// now is swapped in tests to pin "strictly in the future" checks.
	now func() time.Time
}

// New constructs the operation layer. defaultAgent may be empty, in which
// case the built-in default is used.
func New(st *store.Store, sc sidecar.Writer, logger *slog.Logger, defaultAgent string) *Calendar {
	if sc == nil {
		sc = sidecar.NoOpWriter{}
	}
	c := &Calendar{
		store:   st,
		sidecar: sc,
		logger:  logger,
		agent:   defaultAgent,
		now:     time.Now,
	}
	return c
}

// Pagination describes a window over a filtered result set. Total counts
// the rows after filtering, not the raw query.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func pageWindow(total, limit, offset int) (int, int) {
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return offset, end
}
