package graph

import (
	"context"
	"fmt"
	"strings"

	"browserpilot/pkg/llm"
	"browserpilot/pkg/logx"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// ValidateActionNode gates critical, irreversible actions. The engine
// assesses reversibility and intent match; anything short of a confident
// approval escalates to a human checkpoint.
type ValidateActionNode struct {
	client llm.Client
	logger *logx.Logger
}

// NewValidateActionNode creates the critical-action validator.
func NewValidateActionNode(client llm.Client) *ValidateActionNode {
	return &ValidateActionNode{client: client, logger: logx.NewLogger("validate_action")}
}

// Name implements Node.
func (n *ValidateActionNode) Name() proto.NodeName { return proto.NodeValidateAction }

// Run implements Node.
func (n *ValidateActionNode) Run(ctx context.Context, st *state.TaskState) (Command, error) {
	if st.PendingAction == "" {
		return Command{}, fmt.Errorf("critical-action validator entered with no pending action")
	}
	if st.RequiresHumanApproval {
		// One checkpoint may be outstanding at a time; a second request
		// while suspended is a protocol violation, not a queueable event.
		return Command{}, fmt.Errorf("nested checkpoint: approval already outstanding for %q", st.PendingAction)
	}

	action := st.PendingAction
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewUserMessage(criticalActionPrompt(st)),
	})
	resp, err := llm.CompleteWithRetry(ctx, n.client, req)
	if err != nil {
		return Command{}, fmt.Errorf("critical-action assessment failed: %w", err)
	}

	verdict, question := parseValidationVerdict(resp.Content)
	if verdict == "APPROVE" {
		n.logger.Info("action %s approved without confirmation", action)
		st.ValidationPassed = true
		st.NeedsValidation = false
		st.PendingAction = ""
		return goTo(proto.NodeExecute), nil
	}

	if question == "" {
		question = "This action may be irreversible. Proceed?"
	}
	n.logger.Info("action %s needs human confirmation", action)
	st.NeedsValidation = false
	st.RequiresHumanApproval = true
	// The checkpoint message always names the gated action so the human
	// knows what they are approving, whatever the engine asked.
	st.PendingAction = fmt.Sprintf("%s: %s (y=proceed, n=cancel)", action, question)
	return goTo(proto.NodeHumanGate), nil
}

// parseValidationVerdict extracts the APPROVE / NEEDS_CONFIRMATION verdict
// and the confirmation question, if any. Unparseable replies default to
// requiring confirmation: the gate fails safe.
func parseValidationVerdict(reply string) (verdict, question string) {
	lines := strings.SplitN(strings.TrimSpace(reply), "\n", 2)
	head := strings.ToUpper(strings.TrimSpace(lines[0]))
	if len(lines) > 1 {
		question = strings.TrimSpace(lines[1])
	}
	if strings.HasPrefix(head, "APPROVE") {
		return "APPROVE", question
	}
	return "NEEDS_CONFIRMATION", question
}
