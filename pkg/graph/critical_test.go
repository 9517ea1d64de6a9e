package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserpilot/pkg/llm"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

func pendingCriticalState() *state.TaskState {
	st := state.NewTaskState("remove the obsolete entry")
	st.NeedsValidation = true
	st.PendingAction = "delete_element"
	return st
}

func TestValidateActionApproves(t *testing.T) {
	client := llm.NewMockClient(textResponse("APPROVE"))
	node := NewValidateActionNode(client)
	st := pendingCriticalState()

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, proto.NodeExecute, cmd.Goto)
	assert.True(t, st.ValidationPassed)
	assert.False(t, st.NeedsValidation)
	assert.Empty(t, st.PendingAction)
}

func TestValidateActionEscalatesToHumanGate(t *testing.T) {
	client := llm.NewMockClient(textResponse("NEEDS_CONFIRMATION\nDelete the entry permanently?"))
	node := NewValidateActionNode(client)
	st := pendingCriticalState()

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, proto.NodeHumanGate, cmd.Goto)
	assert.True(t, st.RequiresHumanApproval)
	assert.Equal(t, "delete_element: Delete the entry permanently? (y=proceed, n=cancel)", st.PendingAction)
	assert.False(t, st.ValidationPassed)
}

func TestValidateActionConfirmationNamesAction(t *testing.T) {
	client := llm.NewMockClient(textResponse("NEEDS_CONFIRMATION\nAre you sure you want to remove this item permanently?"))
	node := NewValidateActionNode(client)
	st := state.NewTaskState("clean up the inbox")
	st.NeedsValidation = true
	st.PendingAction = "delete_message"

	_, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	// The engine's question alone does not say which action is gated; the
	// stored confirmation text must carry the action name.
	assert.Contains(t, st.PendingAction, "delete_message")
	assert.Contains(t, st.PendingAction, "Are you sure you want to remove this item permanently?")
}

func TestValidateActionUnparseableFailsSafe(t *testing.T) {
	client := llm.NewMockClient(textResponse("sure, go ahead I guess"))
	node := NewValidateActionNode(client)
	st := pendingCriticalState()

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, proto.NodeHumanGate, cmd.Goto)
}

func TestValidateActionRejectsNestedCheckpoint(t *testing.T) {
	client := llm.NewMockClient()
	node := NewValidateActionNode(client)
	st := pendingCriticalState()
	st.NeedsValidation = false
	st.RequiresHumanApproval = true
	st.PendingAction = "Delete the entry permanently?"

	_, err := node.Run(context.Background(), st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested checkpoint")
}

func TestHumanGateRequiresOutstandingConfirmation(t *testing.T) {
	node := NewHumanGateNode()
	st := state.NewTaskState("task")

	_, err := node.Run(context.Background(), st)
	require.Error(t, err)
}

func TestApplyResume(t *testing.T) {
	st := state.NewTaskState("task")
	st.RequiresHumanApproval = true
	st.PendingAction = "Proceed with the deletion?"

	applyResume(st, "y")

	assert.True(t, st.ValidationPassed)
	assert.False(t, st.RequiresHumanApproval)
	assert.Empty(t, st.PendingAction)
	assert.NoError(t, st.Validate())
	last := st.Turns[len(st.Turns)-1]
	assert.Equal(t, proto.RoleUser, last.Role)
	assert.Contains(t, last.Content, "yes")
}

func TestApplyResumeDecline(t *testing.T) {
	st := state.NewTaskState("task")
	st.RequiresHumanApproval = true
	st.PendingAction = "Proceed?"

	applyResume(st, "n")

	assert.False(t, st.ValidationPassed)
	assert.False(t, st.RequiresHumanApproval)
	assert.Contains(t, st.Turns[len(st.Turns)-1].Content, "Declined")
}
