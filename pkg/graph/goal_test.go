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

func goalReply(taskType, status, verified, integrity, summary string) llm.CompletionResponse {
	return textResponse("TASK_TYPE: " + taskType + "\nSTATUS: " + status +
		"\nVERIFICATION_DONE: " + verified + "\nDATA_INTEGRITY: " + integrity +
		"\nSUMMARY: " + summary)
}

func TestGoalAchievedTerminates(t *testing.T) {
	client := llm.NewMockClient(goalReply("ACTION", "ACHIEVED", "true", "ok", "Widget purchased and order confirmed."))
	node := NewValidateGoalNode(client)
	st := state.NewTaskState("buy the widget")
	st.AppendTurn(proto.NewAssistantTurn("I verified the order page shows the purchase.", nil))

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, proto.NodeTerminal, cmd.Goto)
	assert.True(t, st.GoalAchieved)
	assert.Equal(t, "Widget purchased and order confirmed.", st.Turns[len(st.Turns)-1].Content)
}

func TestGoalActionWithoutVerificationRejected(t *testing.T) {
	client := llm.NewMockClient(goalReply("ACTION", "ACHIEVED", "false", "ok", "Done."))
	node := NewValidateGoalNode(client)
	st := state.NewTaskState("submit the form")
	st.AppendTurn(proto.NewAssistantTurn("I submitted the form.", nil))

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	// Claiming success without checking the resulting state never passes.
	assert.Equal(t, proto.NodeReason, cmd.Goto)
	assert.False(t, st.GoalAchieved)
	assert.Contains(t, st.Turns[len(st.Turns)-1].Content, "Verify the result")
}

func TestGoalDataIntegrityIssueBeatsClaimedStatus(t *testing.T) {
	client := llm.NewMockClient(goalReply("RESEARCH", "ACHIEVED", "true", "issue", "Found the price."))
	node := NewValidateGoalNode(client)
	st := state.NewTaskState("find the price")

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, proto.NodeReason, cmd.Goto)
	assert.False(t, st.GoalAchieved)
}

func TestGoalPartiallyAchievedRoutesToQuality(t *testing.T) {
	client := llm.NewMockClient(goalReply("RESEARCH", "PARTIALLY_ACHIEVED", "true", "ok", ""))
	node := NewValidateGoalNode(client)
	st := state.NewTaskState("collect all prices")

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, proto.NodeQuality, cmd.Goto)
}

func TestGoalNotAchievedInjectsFeedback(t *testing.T) {
	client := llm.NewMockClient(goalReply("ACTION", "NOT_ACHIEVED", "false", "ok", ""))
	node := NewValidateGoalNode(client)
	st := state.NewTaskState("task")
	before := len(st.Turns)

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, proto.NodeReason, cmd.Goto)
	assert.Len(t, st.Turns, before+1)
	assert.Equal(t, proto.RoleGuidance, st.Turns[len(st.Turns)-1].Role)
}

func TestGoalEvidenceHeuristicCatchesActionOnlyClaims(t *testing.T) {
	client := llm.NewMockClient(goalReply("ACTION", "ACHIEVED", "true", "ok", "Done."))
	node := NewValidateGoalNode(client)
	st := state.NewTaskState("delete the message")
	// Action verbs but no verification language at all.
	st.AppendTurn(proto.NewAssistantTurn("I clicked the delete button and submitted the dialog.", nil))

	cmd, err := node.Run(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, proto.NodeReason, cmd.Goto)
	assert.False(t, st.GoalAchieved)
}

func TestParseGoalVerdictDefaultsStrict(t *testing.T) {
	v := parseGoalVerdict("gibberish with no protocol lines")
	assert.Equal(t, "NOT_ACHIEVED", v.Status)
	assert.False(t, v.VerificationDone)
	assert.True(t, v.DataIntegrityOK)
}
