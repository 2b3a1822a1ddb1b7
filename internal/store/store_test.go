package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcal/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.DB.Close() })
	return st
}

func insertTrack(t *testing.T, st *Store, name string, trackType core.TrackType, order int) *core.Track {
	t.Helper()
	track := &core.Track{ID: core.NewID(), Name: name, Type: trackType, Order: order}
	require.NoError(t, st.InsertTrack(context.Background(), track))
	return track
}

func insertEvent(t *testing.T, st *Store, trackID, name string, scheduled time.Time) *core.Event {
	t.Helper()
	event := &core.Event{
		ID:             core.NewID(),
		TrackID:        trackID,
		Name:           name,
		Platform:       core.PlatformX,
		Prompt:         "p",
		ScheduledTime:  scheduled,
		GenerationTime: core.GenerationTimeFor(scheduled),
		Agent:          core.DefaultAgent,
		MediaPath:      "tracks/t/e",
		Type:           core.EventTypeScheduled,
	}
	require.NoError(t, st.InsertEvent(context.Background(), event))
	return event
}

func TestInsertTrack_UniqueNameTypeEnforced(t *testing.T) {
	st := newTestStore(t)
	insertTrack(t, st, "Launch", core.TrackTypePlanned, 0)

	dup := &core.Track{ID: core.NewID(), Name: "Launch", Type: core.TrackTypePlanned, Order: 1}
	err := st.InsertTrack(context.Background(), dup)
	assert.ErrorIs(t, err, ErrTrackExists)

	// Different type is a different key.
	other := &core.Track{ID: core.NewID(), Name: "Launch", Type: core.TrackTypeAutomation, Order: 1}
	assert.NoError(t, st.InsertTrack(context.Background(), other))
}

func TestDeleteTrack_CascadeRemovesEvents(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	track := insertTrack(t, st, "Launch", core.TrackTypePlanned, 0)
	scheduled := time.Now().Add(time.Hour)
	first := insertEvent(t, st, track.ID, "one", scheduled)
	insertEvent(t, st, track.ID, "two", scheduled.Add(time.Hour))

	deleted, count, err := st.DeleteTrack(ctx, track.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, "Launch", deleted.Name)

	_, err = st.GetEvent(ctx, first.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteTrack_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, _, err := st.DeleteTrack(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTrackNotFound)
}

func TestDeleteEvent_ReportsExistence(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	track := insertTrack(t, st, "Launch", core.TrackTypePlanned, 0)
	event := insertEvent(t, st, track.ID, "one", time.Now().Add(time.Hour))

	existed, err := st.DeleteEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = st.DeleteEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestMaxTrackOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	max, err := st.MaxTrackOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, max)

	insertTrack(t, st, "A", core.TrackTypePlanned, 3)
	insertTrack(t, st, "B", core.TrackTypePlanned, 1)

	max, err = st.MaxTrackOrder(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, max)
}

func TestListTracks_StableOrdering(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	insertTrack(t, st, "B", core.TrackTypePlanned, 1)
	insertTrack(t, st, "A", core.TrackTypePlanned, 0)
	insertTrack(t, st, "C", core.TrackTypePlanned, 1)

	tracks, total, err := st.ListTracks(ctx, core.TrackTypePlanned, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, tracks, 3)
	assert.Equal(t, "A", tracks[0].Name)
	// Equal order values keep insertion order.
	assert.Equal(t, "B", tracks[1].Name)
	assert.Equal(t, "C", tracks[2].Name)
}

func TestListEvents_FiltersAndOrder(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	track := insertTrack(t, st, "Launch", core.TrackTypePlanned, 0)
	other := insertTrack(t, st, "Other", core.TrackTypePlanned, 1)

	base := time.Now().Add(time.Hour)
	insertEvent(t, st, track.ID, "late", base.Add(2*time.Hour))
	insertEvent(t, st, track.ID, "early", base)
	insertEvent(t, st, other.ID, "elsewhere", base.Add(time.Hour))

	events, err := st.ListEvents(ctx, EventFilter{TrackID: track.ID, EventType: core.EventTypeScheduled})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "early", events[0].Name)
	assert.Equal(t, "late", events[1].Name)
}

func TestAutomations_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	next := time.Now().Add(time.Hour).UTC()
	automation := &core.Automation{
		ID:        core.NewID(),
		Name:      "daily",
		Trigger:   "0 9 * * *",
		Action:    `{"trackName":"Daily"}`,
		Enabled:   true,
		NextRunAt: &next,
	}
	require.NoError(t, st.InsertAutomation(ctx, automation))

	got, err := st.GetAutomation(ctx, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, "daily", got.Name)
	require.NotNil(t, got.NextRunAt)
	assert.WithinDuration(t, next, *got.NextRunAt, time.Second)

	got.Enabled = false
	got.NextRunAt = nil
	require.NoError(t, st.UpdateAutomation(ctx, got))

	got, err = st.GetAutomation(ctx, automation.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Nil(t, got.NextRunAt)

	require.NoError(t, st.DeleteAutomation(ctx, automation.ID))
	err = st.DeleteAutomation(ctx, automation.ID)
	assert.ErrorIs(t, err, ErrAutomationNotFound)
}

func TestMigrations_Idempotent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := Open(ctx, dir)
	require.NoError(t, err)
	insertTrack(t, st, "Keep", core.TrackTypePlanned, 0)
	require.NoError(t, st.DB.Close())

	// Reopening must not re-run migrations or lose rows.
	st, err = Open(ctx, dir)
	require.NoError(t, err)
	defer st.DB.Close()
	_, total, err := st.ListTracks(ctx, core.TrackTypePlanned, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
