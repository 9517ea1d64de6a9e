package graph

import (
	"context"
	"fmt"

	"browserpilot/pkg/logx"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// HumanGateNode suspends execution while a confirmation question is
// outstanding. The runner persists the state and stops the loop; control
// returns through Runner.Resume with the human's answer.
type HumanGateNode struct {
	logger *logx.Logger
}

// NewHumanGateNode creates the checkpoint node.
func NewHumanGateNode() *HumanGateNode {
	return &HumanGateNode{logger: logx.NewLogger("human_gate")}
}

// Name implements Node.
func (n *HumanGateNode) Name() proto.NodeName { return proto.NodeHumanGate }

// Run implements Node.
func (n *HumanGateNode) Run(_ context.Context, st *state.TaskState) (Command, error) {
	if !st.RequiresHumanApproval || st.PendingAction == "" {
		return Command{}, fmt.Errorf("human gate entered with no outstanding confirmation")
	}
	n.logger.Info("suspending for confirmation: %s", st.PendingAction)
	return Command{Suspend: true}, nil
}

// applyResume applies the human's answer to a suspended state: "y" approves
// the pending action for exactly one cycle, anything else declines it. The
// answer is recorded in the conversation so the reasoning engine sees it.
func applyResume(st *state.TaskState, value string) {
	approved := value == "y"
	st.ValidationPassed = approved
	st.RequiresHumanApproval = false
	st.NeedsValidation = false
	question := st.PendingAction
	st.PendingAction = ""

	if approved {
		st.AppendTurn(proto.NewUserTurn(fmt.Sprintf("Confirmed: %s -> yes, proceed.", question)))
	} else {
		st.AppendTurn(proto.NewUserTurn(fmt.Sprintf("Declined: %s -> no. Do not perform this action; find another way or stop.", question)))
	}
}
