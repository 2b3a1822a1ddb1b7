package core

import (
	"time"
)

// TrackType distinguishes hand-planned tracks from automation-owned ones.
type TrackType string

const (
	TrackTypePlanned    TrackType = "planned"
	TrackTypeAutomation TrackType = "automation"
)

// ValidTrackType reports whether t is one of the known track types.
func ValidTrackType(t TrackType) bool {
	return t == TrackTypePlanned || t == TrackTypeAutomation
}

// Platform identifies the social network an event targets.
type Platform string

const (
	PlatformX         Platform = "x"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformInstagram Platform = "instagram"
	PlatformThreads   Platform = "threads"
	PlatformBluesky   Platform = "bluesky"
	PlatformReddit    Platform = "reddit"
)

// Platforms lists every supported platform.
var Platforms = []Platform{
	PlatformX, PlatformLinkedIn, PlatformInstagram,
	PlatformThreads, PlatformBluesky, PlatformReddit,
}

// ValidPlatform reports whether p is a supported platform.
func ValidPlatform(p Platform) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// EventType describes how an event row came to exist.
type EventType string

const (
	EventTypeScheduled EventType = "scheduled"
	// EventTypeAutomationGenerated marks rows produced by an automation
	// engine; nothing in this process writes it.
	EventTypeAutomationGenerated EventType = "automation_generated"
)

// EventStatus is the derived lifecycle state exposed to callers.
type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusGenerated EventStatus = "generated"
	EventStatusPosted    EventStatus = "posted"
)

// ValidEventStatus reports whether s is a derivable status value.
func ValidEventStatus(s EventStatus) bool {
	return s == EventStatusPending || s == EventStatusGenerated || s == EventStatusPosted
}

const (
	// GenerationLead is how far ahead of the scheduled post time content
	// generation is expected to begin.
	GenerationLead = 30 * time.Minute

	// DefaultAgent names the generation agent used when the caller does
	// not pick one.
	DefaultAgent = "claude"

	MaxEventNameLen = 200
	MaxPromptLen    = 5000
)

// Track is a named, ordered grouping of events.
type Track struct {
	ID        string
	Name      string
	Type      TrackType
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event is a single scheduled content item owned by a track.
type Event struct {
	ID               string
	TrackID          string
	Name             string
	Platform         Platform
	Prompt           string
	ScheduledTime    time.Time
	GenerationTime   time.Time
	Agent            string
	ContentGenerated bool
	Approved         bool
	Posted           bool
	MediaPath        string
	Metadata         map[string]any
	Type             EventType
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Status derives the lifecycle state from the boolean flags, checking
// posted first so a stale contentGenerated flag cannot mask a posted event.
func (e *Event) Status() EventStatus {
	switch {
	case e.Posted:
		return EventStatusPosted
	case e.ContentGenerated:
		return EventStatusGenerated
	default:
		return EventStatusPending
	}
}

// GenerationTimeFor returns the generation deadline for a scheduled time.
func GenerationTimeFor(scheduled time.Time) time.Time {
	return scheduled.Add(-GenerationLead)
}

// Automation is a trigger/action configuration row. The executor that
// would act on these rows lives outside this process; only the
// configuration shape and its bookkeeping fields are managed here.
type Automation struct {
	ID        string
	Name      string
	Trigger   string
	Action    string
	Enabled   bool
	LastRunAt *time.Time
	NextRunAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
