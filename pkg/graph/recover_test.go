package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

func stateWithError(errType proto.ErrorType) *state.TaskState {
	st := state.NewTaskState("buy the blue widget")
	st.ErrorType = errType
	st.ErrorMessage = "Error: something failed"
	return st
}

func TestRecoverInjectsRemediationAndClearsError(t *testing.T) {
	node := NewRecoverNode()
	st := stateWithError(proto.ErrorElementNotFound)
	before := len(st.Turns)

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, proto.NodeReason, cmd.Goto)
	require.Len(t, st.Turns, before+1)
	last := st.Turns[len(st.Turns)-1]
	assert.Equal(t, proto.RoleGuidance, last.Role)
	assert.Contains(t, last.Content, "selector")
	assert.Equal(t, proto.ErrorNone, st.ErrorType)
	assert.Empty(t, st.ErrorMessage)
}

func TestRecoverViewportEscalatesToJSClick(t *testing.T) {
	node := NewRecoverNode()
	st := stateWithError(proto.ErrorViewport)

	// First occurrence: standard remediation, scroll first.
	_, err := node.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ViewportErrorCount)
	first := st.Turns[len(st.Turns)-1].Content
	assert.Contains(t, strings.ToLower(first), "scroll")
	assert.NotContains(t, first, `"js"`)

	// Second occurrence: escalate to the JS click fallback.
	st.ErrorType = proto.ErrorViewport
	st.ErrorMessage = "Error: still outside of the viewport"
	_, err = node.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 2, st.ViewportErrorCount)
	second := st.Turns[len(st.Turns)-1].Content
	assert.Contains(t, second, `"js"`)
}

func TestRecoverNetworkIdleTimeoutEscalates(t *testing.T) {
	node := NewRecoverNode()
	st := stateWithError(proto.ErrorTimeout)

	_, err := node.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TimeoutErrorCount)

	st.ErrorType = proto.ErrorTimeout
	_, err = node.Run(context.Background(), st)
	require.NoError(t, err)
	escalated := st.Turns[len(st.Turns)-1].Content
	assert.Contains(t, escalated, "Stop waiting for network idle")
}

func TestRecoverUnknownCategoryFallsThrough(t *testing.T) {
	node := NewRecoverNode()
	st := stateWithError(proto.ErrorNone)
	before := len(st.Turns)

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	// No remediation turn; the reasoning engine improvises.
	assert.Equal(t, proto.NodeReason, cmd.Goto)
	assert.Len(t, st.Turns, before)
	assert.Equal(t, proto.ErrorNone, st.ErrorType)
}
