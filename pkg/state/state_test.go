package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserpilot/pkg/proto"
)

func TestNewTaskStateSeedsConversation(t *testing.T) {
	st := NewTaskState("book a table for two")

	assert.NotEmpty(t, st.SessionID)
	assert.Equal(t, "book a table for two", st.OriginalTask)
	require.Len(t, st.Turns, 1)
	assert.Equal(t, proto.RoleUser, st.Turns[0].Role)
	assert.Equal(t, "book a table for two", st.Turns[0].Content)
	assert.Equal(t, proto.ErrorNone, st.ErrorType)
	require.NoError(t, st.Validate())
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := NewTaskState("task")
	b := NewTaskState("task")
	assert.NotEqual(t, a.SessionID, b.SessionID)
}

func TestActionStats(t *testing.T) {
	st := NewTaskState("task")
	st.AppendTurn(proto.NewActionTurn("click", "c1", "Clicked #a"))
	st.AppendTurn(proto.NewActionTurn("type_text", "c2", "Error: type_text failed: element not found"))
	st.AppendTurn(proto.NewActionTurn("extract_text", "c3", "Some page text"))
	st.AppendTurn(proto.NewAssistantTurn("thinking", nil))

	successful, total := st.ActionStats()
	assert.Equal(t, 2, successful)
	assert.Equal(t, 3, total)
}

func TestValidatePendingActionInvariant(t *testing.T) {
	st := NewTaskState("task")

	// Pending action with no gating flag set.
	st.PendingAction = "delete_element"
	assert.Error(t, st.Validate())

	st.NeedsValidation = true
	assert.NoError(t, st.Validate())

	// Gating flag with no pending action.
	st.PendingAction = ""
	assert.Error(t, st.Validate())

	st.NeedsValidation = false
	st.RequiresHumanApproval = true
	assert.Error(t, st.Validate())

	st.PendingAction = "Proceed with the deletion?"
	assert.NoError(t, st.Validate())
}

func TestClearError(t *testing.T) {
	st := NewTaskState("task")
	st.ErrorType = proto.ErrorViewport
	st.ErrorMessage = "element is outside of the viewport"
	st.ErrorCount = 2

	st.ClearError()

	assert.Equal(t, proto.ErrorNone, st.ErrorType)
	assert.Empty(t, st.ErrorMessage)
	// The cumulative count survives for progress scoring.
	assert.Equal(t, 2, st.ErrorCount)
}

func TestIsErrorResult(t *testing.T) {
	assert.True(t, IsErrorResult("Error: click failed: timeout"))
	assert.False(t, IsErrorResult("Clicked #a"))
	assert.False(t, IsErrorResult("An Error: occurred")) // marker must lead
	assert.False(t, IsErrorResult(""))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	st := NewTaskState("task")
	st.ProgressScore = 0.6
	st.Compaction.Summary = "- clicked around"

	require.NoError(t, store.Save(st))

	loaded, err := store.Load(st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, st.SessionID, loaded.SessionID)
	assert.Equal(t, 0.6, loaded.ProgressScore)
	assert.Equal(t, "- clicked around", loaded.Compaction.Summary)

	// Checkpoints are snapshots: later mutations do not leak in.
	st.ProgressScore = 0.9
	loaded, err = store.Load(st.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0.6, loaded.ProgressScore)
}

func TestMemoryStoreLoadUnknownSession(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load("task-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRejectsInvalidState(t *testing.T) {
	store := NewMemoryStore()
	st := NewTaskState("task")
	st.PendingAction = "orphaned"

	assert.Error(t, store.Save(st))
}

func TestMemoryStoreDeleteAndSessions(t *testing.T) {
	store := NewMemoryStore()
	a := NewTaskState("task a")
	b := NewTaskState("task b")
	require.NoError(t, store.Save(a))
	require.NoError(t, store.Save(b))

	ids, err := store.Sessions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.SessionID, b.SessionID}, ids)

	require.NoError(t, store.Delete(a.SessionID))
	_, err = store.Load(a.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
}
