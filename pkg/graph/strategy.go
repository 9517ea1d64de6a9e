package graph

import (
	"context"
	"fmt"

	"browserpilot/pkg/llm"
	"browserpilot/pkg/logx"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// StrategyNode asks the reasoning engine to diagnose why the current
// approach keeps failing and to propose an alternative, injected as a
// guidance turn.
type StrategyNode struct {
	client   llm.Client
	recorder *metrics.Recorder
	logger   *logx.Logger
}

// NewStrategyNode creates the strategy adapter.
func NewStrategyNode(client llm.Client, recorder *metrics.Recorder) *StrategyNode {
	return &StrategyNode{client: client, recorder: recorder, logger: logx.NewLogger("strategy")}
}

// Name implements Node.
func (n *StrategyNode) Name() proto.NodeName { return proto.NodeStrategy }

// Run implements Node.
func (n *StrategyNode) Run(ctx context.Context, st *state.TaskState) (Command, error) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewUserMessage(strategyPrompt(st)),
	})
	resp, err := llm.CompleteWithRetry(ctx, n.client, req)
	if err != nil {
		return Command{}, fmt.Errorf("strategy call failed: %w", err)
	}

	st.AppendTurn(proto.NewGuidanceTurn(fmt.Sprintf("Strategy change:\n%s", resp.Content)))
	st.StrategyChanges++
	st.StuckCounter = 0
	if n.recorder != nil {
		n.recorder.ObserveStrategyChange()
	}
	n.logger.Info("strategy change #%d", st.StrategyChanges)
	return goTo(proto.NodeReason), nil
}
