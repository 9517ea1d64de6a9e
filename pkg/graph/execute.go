package graph

import (
	"context"
	"fmt"

	"browserpilot/pkg/config"
	"browserpilot/pkg/logx"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
	"browserpilot/pkg/tools"
	"browserpilot/pkg/utils"
)

// ExecuteNode runs the pending action invocations from the latest reasoning
// turn, classifies failures, and decides the post-execution routing.
type ExecuteNode struct {
	registry *tools.Registry
	recorder *metrics.Recorder
	logger   *logx.Logger
	agent    config.AgentConfig
}

// NewExecuteNode creates the action execution node.
func NewExecuteNode(registry *tools.Registry, recorder *metrics.Recorder, agent config.AgentConfig) *ExecuteNode {
	return &ExecuteNode{
		registry: registry,
		recorder: recorder,
		logger:   logx.NewLogger("execute"),
		agent:    agent,
	}
}

// Name implements Node.
func (n *ExecuteNode) Name() proto.NodeName { return proto.NodeExecute }

// Run implements Node.
func (n *ExecuteNode) Run(ctx context.Context, st *state.TaskState) (Command, error) {
	last := st.LastAssistantTurn()
	if last == nil || !last.HasCalls() {
		return goTo(proto.NodeReason), nil
	}

	taskComplete := false
	results := make([]string, 0, len(last.Calls))
	for i := range last.Calls {
		call := last.Calls[i]
		n.logger.Debug("executing %s", call.Name)

		result, err := n.registry.Exec(ctx, call.Name, call.Args)
		if err != nil {
			return Command{}, fmt.Errorf("action %s failed to run: %w", call.Name, err)
		}

		st.AppendTurn(proto.NewActionTurn(call.Name, call.ID, result))
		results = append(results, result)
		if n.recorder != nil {
			n.recorder.ObserveAction(call.Name, !state.IsErrorResult(result))
		}
		if call.Name == tools.ToolTaskComplete {
			taskComplete = true
		}
	}

	// Classify every new result, not only the last one: an early failure
	// followed by a harmless success must still reach the recovery node.
	for i, result := range results {
		if errType := Classify(result); errType.Recoverable() {
			st.ErrorType = errType
			st.ErrorMessage = result
			st.ErrorCount++
			if n.recorder != nil {
				n.recorder.ObserveError(errType.String())
			}
			n.logger.Info("classified %s on action %s", errType, last.Calls[i].Name)
			return goTo(proto.NodeRecover), nil
		}
	}

	if taskComplete {
		return goTo(proto.NodeValidateGoal), nil
	}

	// Tab-creation trap: a freshly opened tab is not the active one until
	// explicitly selected, and listing indexes differ from selection ids.
	if newTabWithoutSelect(last.Calls) {
		st.AppendTurn(proto.NewGuidanceTurn(tabGuidance))
	}

	// Reflection watermarks: deep progress analysis at the coarse watermark,
	// a progress report at the fine one, otherwise just bound context size.
	// The watermarks are tracked separately; the reporter advancing its own
	// keeps reports periodic without starving the analyzer.
	sinceCheck := len(st.Turns) - st.MessageCountAtLastCheck
	sinceReport := len(st.Turns) - st.MessageCountAtLastReport
	switch {
	case sinceCheck >= n.agent.AnalyzeEvery:
		return goTo(proto.NodeProgress), nil
	case sinceReport >= n.agent.ReportEvery:
		return goTo(proto.NodeReport), nil
	default:
		return goTo(proto.NodeCompact), nil
	}
}

// newTabWithoutSelect reports whether a tab-creation action was issued with
// no select following it in the same batch.
func newTabWithoutSelect(calls []proto.ActionInvocation) bool {
	for i := range calls {
		if calls[i].Name != tools.ToolBrowserTabs {
			continue
		}
		if utils.GetMapFieldOr(calls[i].Args, "action", "") != "new" {
			continue
		}
		selected := false
		for j := i + 1; j < len(calls); j++ {
			if calls[j].Name == tools.ToolBrowserTabs &&
				utils.GetMapFieldOr(calls[j].Args, "action", "") == "select" {
				selected = true
				break
			}
		}
		if !selected {
			return true
		}
	}
	return false
}
