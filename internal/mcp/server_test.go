package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcal/internal/core"
)

func TestOptionalIntArg_AbsentVersusSupplied(t *testing.T) {
	var absent mcp.CallToolRequest
	absent.Params.Arguments = map[string]any{}
	assert.Nil(t, optionalIntArg(absent, "order"))

	var negative mcp.CallToolRequest
	negative.Params.Arguments = map[string]any{"order": float64(-2)}
	got := optionalIntArg(negative, "order")
	require.NotNil(t, got)
	assert.Equal(t, -2, *got)
}

func TestPatchFromUpdates_TypedFields(t *testing.T) {
	patch, err := patchFromUpdates(map[string]any{
		"name":          "New name",
		"prompt":        "new prompt",
		"scheduledTime": "2026-09-01T14:00:00Z",
		"approved":      true,
		"platform":      "bluesky",
	})
	require.NoError(t, err)
	require.NotNil(t, patch.Name)
	assert.Equal(t, "New name", *patch.Name)
	require.NotNil(t, patch.Approved)
	assert.True(t, *patch.Approved)
	require.NotNil(t, patch.Platform)
	assert.Equal(t, "bluesky", *patch.Platform)
}

func TestPatchFromUpdates_EmptyMapMeansEmptyPatch(t *testing.T) {
	patch, err := patchFromUpdates(nil)
	require.NoError(t, err)
	assert.True(t, patch.Empty())
}

func TestPatchFromUpdates_RejectsWrongTypes(t *testing.T) {
	_, err := patchFromUpdates(map[string]any{"approved": "yes"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "updates.approved", verr.Fields[0].Field)
}

func TestPatchFromUpdates_RejectsUnknownFields(t *testing.T) {
	_, err := patchFromUpdates(map[string]any{"posted": true})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "updates.posted", verr.Fields[0].Field)
}
