package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"postcal/internal/calendar"
	"postcal/internal/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the calendar operations as MCP tools over stdio.
type MCPServer struct {
	calendar *calendar.Calendar
	logger   *slog.Logger
}

// NewMCPServer creates a new MCP server instance.
func NewMCPServer(cal *calendar.Calendar, logger *slog.Logger) *MCPServer {
	return &MCPServer{
		calendar: cal,
		logger:   logger,
	}
}

// Run starts the MCP server using stdio transport.
func (s *MCPServer) Run() error {
	mcpServer := server.NewMCPServer(
		"postcal",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.logger.Info("MCP server starting on stdio")

	return server.ServeStdio(mcpServer)
}

func platformEnum() []string {
	values := make([]string, 0, len(core.Platforms))
	for _, p := range core.Platforms {
		values = append(values, string(p))
	}
	return values
}

// registerTools registers all available MCP tools.
func (s *MCPServer) registerTools(mcpServer *server.MCPServer) {
	// add_track
	mcpServer.AddTool(mcp.NewTool("add_track",
		mcp.WithDescription("Create a content track (a named, ordered series of scheduled posts)"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Track name, unique per type"),
		),
		mcp.WithString("type",
			mcp.Description("Track type, defaults to planned"),
			mcp.Enum(string(core.TrackTypePlanned), string(core.TrackTypeAutomation)),
		),
		mcp.WithNumber("order",
			mcp.Description("Display order; defaults to appending after the last track"),
		),
	), s.handleAddTrack)

	// list_tracks
	mcpServer.AddTool(mcp.NewTool("list_tracks",
		mcp.WithDescription("List planned tracks in display order"),
		mcp.WithNumber("limit",
			mcp.Description("Page size, default 50"),
			mcp.Min(1),
			mcp.Max(100),
		),
		mcp.WithNumber("offset",
			mcp.Description("Rows to skip"),
			mcp.Min(0),
		),
	), s.handleListTracks)

	// remove_track
	mcpServer.AddTool(mcp.NewTool("remove_track",
		mcp.WithDescription("Delete a track and every event it owns"),
		mcp.WithString("trackId",
			mcp.Required(),
			mcp.Description("Track ID"),
		),
	), s.handleRemoveTrack)

	// add_scheduled_event
	mcpServer.AddTool(mcp.NewTool("add_scheduled_event",
		mcp.WithDescription("Schedule a content event; the track is created on first use"),
		mcp.WithString("trackName",
			mcp.Required(),
			mcp.Description("Owning track name; created if it does not exist"),
		),
		mcp.WithString("eventName",
			mcp.Required(),
			mcp.Description("Event name, at most 200 characters"),
		),
		mcp.WithString("prompt",
			mcp.Required(),
			mcp.Description("Instruction for the content-generation step, 1-5000 characters"),
		),
		mcp.WithString("scheduledTime",
			mcp.Required(),
			mcp.Description("ISO-8601 timestamp, strictly in the future"),
		),
		mcp.WithString("platform",
			mcp.Description("Target platform, defaults to x"),
			mcp.Enum(platformEnum()...),
		),
		mcp.WithString("agent",
			mcp.Description("Generation agent, defaults to the configured agent"),
		),
		mcp.WithObject("metadata",
			mcp.Description("Platform-specific extensions, e.g. target subreddit"),
		),
	), s.handleAddEvent)

	// list_scheduled_events
	mcpServer.AddTool(mcp.NewTool("list_scheduled_events",
		mcp.WithDescription("List scheduled events ordered by scheduled time"),
		mcp.WithString("trackId",
			mcp.Description("Filter by owning track"),
		),
		mcp.WithString("status",
			mcp.Description("Filter by derived status"),
			mcp.Enum(string(core.EventStatusPending), string(core.EventStatusGenerated), string(core.EventStatusPosted)),
		),
		mcp.WithString("platform",
			mcp.Description("Filter by platform"),
			mcp.Enum(platformEnum()...),
		),
		mcp.WithString("startDate",
			mcp.Description("Inclusive lower bound on scheduled time (timestamp or date)"),
		),
		mcp.WithString("endDate",
			mcp.Description("Inclusive upper bound on scheduled time (timestamp or date)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Page size, default 50"),
			mcp.Min(1),
			mcp.Max(100),
		),
		mcp.WithNumber("offset",
			mcp.Description("Rows to skip, applied after filtering"),
			mcp.Min(0),
		),
	), s.handleListEvents)

	// update_scheduled_event
	mcpServer.AddTool(mcp.NewTool("update_scheduled_event",
		mcp.WithDescription("Patch an event. Changing the prompt resets contentGenerated; changing scheduledTime moves the generation deadline"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("Event ID"),
		),
		mcp.WithObject("updates",
			mcp.Required(),
			mcp.Description("Fields to change: name, prompt, scheduledTime, approved, platform; at least one"),
		),
	), s.handleUpdateEvent)

	// remove_scheduled_event
	mcpServer.AddTool(mcp.NewTool("remove_scheduled_event",
		mcp.WithDescription("Delete an event; succeeds even if the id no longer exists"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("Event ID"),
		),
	), s.handleRemoveEvent)

	s.logger.Info("MCP tools registered", "count", 7)
}

// handleAddTrack handles the add_track tool call.
func (s *MCPServer) handleAddTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := calendar.AddTrackParams{
		Name: mcp.ParseString(request, "name", ""),
		Type: core.TrackType(mcp.ParseString(request, "type", "")),
	}
	params.Order = optionalIntArg(request, "order")

	result, err := s.calendar.AddTrack(ctx, params)
	if err != nil {
		return s.toolError(err), nil
	}
	return s.toolResult(result)
}

// handleListTracks handles the list_tracks tool call.
func (s *MCPServer) handleListTracks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.calendar.ListTracks(ctx, calendar.ListTracksParams{
		Limit:  int(mcp.ParseFloat64(request, "limit", 0)),
		Offset: int(mcp.ParseFloat64(request, "offset", 0)),
	})
	if err != nil {
		return s.toolError(err), nil
	}
	return s.toolResult(result)
}

// handleRemoveTrack handles the remove_track tool call.
func (s *MCPServer) handleRemoveTrack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.calendar.RemoveTrack(ctx, mcp.ParseString(request, "trackId", ""))
	if err != nil {
		return s.toolError(err), nil
	}
	return s.toolResult(result)
}

// handleAddEvent handles the add_scheduled_event tool call.
func (s *MCPServer) handleAddEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.calendar.AddEvent(ctx, calendar.AddEventParams{
		TrackName:     mcp.ParseString(request, "trackName", ""),
		EventName:     mcp.ParseString(request, "eventName", ""),
		Prompt:        mcp.ParseString(request, "prompt", ""),
		ScheduledTime: mcp.ParseString(request, "scheduledTime", ""),
		Platform:      mcp.ParseString(request, "platform", ""),
		Agent:         mcp.ParseString(request, "agent", ""),
		Metadata:      mcp.ParseStringMap(request, "metadata", nil),
	})
	if err != nil {
		return s.toolError(err), nil
	}
	return s.toolResult(result)
}

// handleListEvents handles the list_scheduled_events tool call.
func (s *MCPServer) handleListEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.calendar.ListEvents(ctx, calendar.ListEventsParams{
		TrackID:   mcp.ParseString(request, "trackId", ""),
		Status:    mcp.ParseString(request, "status", ""),
		Platform:  mcp.ParseString(request, "platform", ""),
		StartDate: mcp.ParseString(request, "startDate", ""),
		EndDate:   mcp.ParseString(request, "endDate", ""),
		Limit:     int(mcp.ParseFloat64(request, "limit", 0)),
		Offset:    int(mcp.ParseFloat64(request, "offset", 0)),
	})
	if err != nil {
		return s.toolError(err), nil
	}
	return s.toolResult(result)
}

// handleUpdateEvent handles the update_scheduled_event tool call.
func (s *MCPServer) handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eventID := mcp.ParseString(request, "eventId", "")
	updates := mcp.ParseStringMap(request, "updates", nil)

	patch, err := patchFromUpdates(updates)
	if err != nil {
		return s.toolError(err), nil
	}

	result, err := s.calendar.UpdateEvent(ctx, eventID, patch)
	if err != nil {
		return s.toolError(err), nil
	}
	return s.toolResult(result)
}

// handleRemoveEvent handles the remove_scheduled_event tool call.
func (s *MCPServer) handleRemoveEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.calendar.RemoveEvent(ctx, mcp.ParseString(request, "eventId", ""))
	if err != nil {
		return s.toolError(err), nil
	}
	return s.toolResult(result)
}

// optionalIntArg distinguishes an absent numeric argument from any value
// the caller actually sent, negative included.
func optionalIntArg(request mcp.CallToolRequest, key string) *int {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	value := int(mcp.ParseFloat64(request, key, 0))
	return &value
}

// patchFromUpdates converts the loose updates object into the typed patch,
// rejecting wrong-typed or unknown fields before anything touches the
// store.
func patchFromUpdates(updates map[string]any) (calendar.EventPatch, error) {
	patch := calendar.EventPatch{}
	verr := &core.ValidationError{}
	for key, raw := range updates {
		switch key {
		case "name", "prompt", "scheduledTime", "platform":
			value, ok := raw.(string)
			if !ok {
				verr.Add("updates."+key, "must be a string")
				continue
			}
			switch key {
			case "name":
				patch.Name = &value
			case "prompt":
				patch.Prompt = &value
			case "scheduledTime":
				patch.ScheduledTime = &value
			case "platform":
				patch.Platform = &value
			}
		case "approved":
			value, ok := raw.(bool)
			if !ok {
				verr.Add("updates.approved", "must be a boolean")
				continue
			}
			patch.Approved = &value
		default:
			verr.Add("updates."+key, "unknown field")
		}
	}
	if err := verr.OrNil(); err != nil {
		return calendar.EventPatch{}, err
	}
	return patch, nil
}

// toolResult marshals a success payload so the host always receives a
// self-describing object.
func (s *MCPServer) toolResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError renders the stable error taxonomy as JSON inside an MCP error
// result.
func (s *MCPServer) toolError(err error) *mcp.CallToolResult {
	if calendar.ErrorKind(err) == calendar.KindInternal {
		s.logger.Error("operation failed", "err", err)
	}
	data, merr := json.Marshal(calendar.ErrorPayload(err))
	if merr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(data))
}
