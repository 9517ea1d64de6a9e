package graph

import (
	"context"

	"browserpilot/pkg/logx"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// RecoverNode maps a classified error to a canned remediation turn. It is a
// pure lookup and never fails the task: an unclassified category falls
// through to the reasoning node unchanged and the engine improvises.
type RecoverNode struct {
	logger *logx.Logger
}

// NewRecoverNode creates the recovery node.
func NewRecoverNode() *RecoverNode {
	return &RecoverNode{logger: logx.NewLogger("recover")}
}

// Name implements Node.
func (n *RecoverNode) Name() proto.NodeName { return proto.NodeRecover }

// Run implements Node.
func (n *RecoverNode) Run(_ context.Context, st *state.TaskState) (Command, error) {
	errType := st.ErrorType
	text, known := remediation[errType]
	if !known {
		// Degrade to "let the reasoning engine improvise".
		st.ClearError()
		return goTo(proto.NodeReason), nil
	}

	// Repeated viewport and network-idle failures escalate to a different
	// technique instead of retrying the same remediation.
	switch errType {
	case proto.ErrorViewport:
		st.ViewportErrorCount++
		if st.ViewportErrorCount >= escalationThreshold {
			text = remediationEscalation[proto.ErrorViewport]
		}
	case proto.ErrorTimeout:
		st.TimeoutErrorCount++
		if st.TimeoutErrorCount >= escalationThreshold {
			text = remediationEscalation[proto.ErrorTimeout]
		}
	}

	n.logger.Info("remediating %s (viewport=%d timeout=%d)", errType, st.ViewportErrorCount, st.TimeoutErrorCount)
	st.AppendTurn(proto.NewGuidanceTurn(text))
	st.ClearError()
	return goTo(proto.NodeReason), nil
}
