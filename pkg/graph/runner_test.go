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

func compileTestRunner(t *testing.T, client llm.Client, store state.Store, results map[string]string) *Runner {
	t.Helper()
	g, err := Build(Deps{
		Client:   client,
		Registry: newTestRegistry(results),
		Agent:    testAgentConfig(),
		LLM:      testLLMConfig(),
	})
	require.NoError(t, err)
	runner, err := g.Compile(store, WithMaxSteps(100))
	require.NoError(t, err)
	return runner
}

func collect(events <-chan Event) []Event {
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func lastEvent(t *testing.T, events []Event) Event {
	t.Helper()
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

func TestRunnerResearchTaskRunsToCompletion(t *testing.T) {
	client := llm.NewMockClient(
		toolCallResponse("extract_text", nil),
		textResponse("The page shows the price is $42."),
		goalReply("RESEARCH", "ACHIEVED", "true", "ok", "The price is $42."),
	)
	store := state.NewMemoryStore()
	runner := compileTestRunner(t, client, store, map[string]string{"extract_text": "Price: $42"})

	st := state.NewTaskState("find the price")
	events := collect(runner.Run(context.Background(), st))

	done := lastEvent(t, events)
	assert.Equal(t, EventDone, done.Type)
	assert.Equal(t, "The price is $42.", done.Result)
	assert.True(t, st.GoalAchieved)

	// Every transition left a loadable checkpoint.
	loaded, err := store.Load(st.SessionID)
	require.NoError(t, err)
	assert.True(t, loaded.GoalAchieved)
}

func TestRunnerSuspendsAndResumesThroughHumanGate(t *testing.T) {
	client := llm.NewMockClient(
		toolCallResponse("delete_element", map[string]any{"selector": ".row"}),
		textResponse("NEEDS_CONFIRMATION\nPermanently delete the row?"),
		// After approval the engine re-issues the action, now pre-approved.
		toolCallResponse("delete_element", map[string]any{"selector": ".row"}),
		textResponse("I verified the table no longer shows the row."),
		goalReply("ACTION", "ACHIEVED", "true", "ok", "Row deleted and verified."),
	)
	store := state.NewMemoryStore()
	runner := compileTestRunner(t, client, store,
		map[string]string{"delete_element": "Removed 1 element(s) matching .row"})

	st := state.NewTaskState("delete the obsolete row")
	events := collect(runner.Run(context.Background(), st))

	cp := lastEvent(t, events)
	require.Equal(t, EventCheckpoint, cp.Type)
	require.NotNil(t, cp.Payload)
	assert.Equal(t, "confirmation", cp.Payload.Type)
	assert.Contains(t, cp.Payload.Message, "delete_element")
	assert.Contains(t, cp.Payload.Message, "Permanently delete the row?")
	assert.Equal(t, []string{"y", "n"}, cp.Payload.Options)

	// The suspended state is persisted and consistent.
	suspended, err := store.Load(st.SessionID)
	require.NoError(t, err)
	assert.True(t, suspended.RequiresHumanApproval)
	require.NoError(t, suspended.Validate())

	resumeEvents := collect(runner.Resume(context.Background(), st.SessionID, "y"))
	done := lastEvent(t, resumeEvents)
	assert.Equal(t, EventDone, done.Type)
	assert.Equal(t, "Row deleted and verified.", done.Result)
}

func TestRunnerResumeIsIdempotent(t *testing.T) {
	client := llm.NewMockClient(
		textResponse("Nothing to do."),
		goalReply("RESEARCH", "ACHIEVED", "true", "ok", "Done."),
	)
	store := state.NewMemoryStore()
	runner := compileTestRunner(t, client, store, nil)

	st := state.NewTaskState("trivial task")
	collect(runner.Run(context.Background(), st))

	// No checkpoint is outstanding: resume is a no-op, not an error.
	events := collect(runner.Resume(context.Background(), st.SessionID, "y"))
	assert.Empty(t, events)
}

func TestRunnerResumeUnknownSessionErrors(t *testing.T) {
	client := llm.NewMockClient()
	runner := compileTestRunner(t, client, state.NewMemoryStore(), nil)

	events := collect(runner.Resume(context.Background(), "task-missing", "y"))
	done := lastEvent(t, events)
	assert.Equal(t, EventError, done.Type)
	assert.ErrorIs(t, done.Err, state.ErrNotFound)
}

func TestRunnerDeclineKeepsActionUnexecuted(t *testing.T) {
	executed := false
	registry := newTestRegistry(nil)
	registry.Register(&fakeTool{name: "delete_element", exec: func(map[string]any) string {
		executed = true
		return "Removed 1 element(s)"
	}})

	client := llm.NewMockClient(
		toolCallResponse("delete_element", map[string]any{"selector": ".row"}),
		textResponse("NEEDS_CONFIRMATION\nDelete it?"),
		// After decline the engine gives up gracefully.
		textResponse("Stopping: the deletion was declined."),
		goalReply("ACTION", "NOT_ACHIEVED", "false", "ok", ""),
		textResponse("The task cannot proceed without the deletion."),
		goalReply("ACTION", "PARTIALLY_ACHIEVED", "true", "ok", ""),
		textResponse("ACCEPTABLE"),
		goalReply("ACTION", "ACHIEVED", "true", "ok", "Stopped at user request; nothing deleted."),
	)
	store := state.NewMemoryStore()
	g, err := Build(Deps{Client: client, Registry: registry, Agent: testAgentConfig(), LLM: testLLMConfig()})
	require.NoError(t, err)
	runner, err := g.Compile(store, WithMaxSteps(100))
	require.NoError(t, err)

	st := state.NewTaskState("delete the row")
	events := collect(runner.Run(context.Background(), st))
	require.Equal(t, EventCheckpoint, lastEvent(t, events).Type)

	resumeEvents := collect(runner.Resume(context.Background(), st.SessionID, "n"))
	done := lastEvent(t, resumeEvents)
	assert.Equal(t, EventDone, done.Type)
	assert.False(t, executed)
}

func TestRunnerStepLimit(t *testing.T) {
	// An engine that loops forever trips the step limit instead of hanging.
	client := llm.NewMockClient()
	for i := 0; i < 50; i++ {
		client.Enqueue(toolCallResponse("extract_text", nil))
	}
	store := state.NewMemoryStore()
	g, err := Build(Deps{
		Client:   client,
		Registry: newTestRegistry(map[string]string{"extract_text": "same page again"}),
		Agent:    testAgentConfig(),
		LLM:      testLLMConfig(),
	})
	require.NoError(t, err)
	runner, err := g.Compile(store, WithMaxSteps(10))
	require.NoError(t, err)

	events := collect(runner.Run(context.Background(), state.NewTaskState("loop forever")))
	done := lastEvent(t, events)
	assert.Equal(t, EventError, done.Type)
	assert.Contains(t, done.Err.Error(), "step limit")
}

func TestGraphRejectsDuplicateAndMissingNodes(t *testing.T) {
	g := New()
	require.NoError(t, g.RegisterNode(NewRecoverNode()))
	assert.Error(t, g.RegisterNode(NewRecoverNode()))
	assert.Error(t, g.SetEntry(proto.NodeReason))

	_, err := g.Compile(state.NewMemoryStore())
	assert.Error(t, err)
}
