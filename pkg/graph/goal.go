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

// goalVerdict is the parsed reply of the goal-validation protocol.
type goalVerdict struct {
	TaskType         string // ACTION or RESEARCH
	Status           string // ACHIEVED, PARTIALLY_ACHIEVED, NOT_ACHIEVED
	VerificationDone bool
	DataIntegrityOK  bool
	Summary          string
}

// ValidateGoalNode is the terminal gate. It never accepts a completion claim
// at face value: action tasks must show verification of the final state, and
// facts in the final answer must trace back to action results.
type ValidateGoalNode struct {
	client llm.Client
	logger *logx.Logger
}

// NewValidateGoalNode creates the goal validator.
func NewValidateGoalNode(client llm.Client) *ValidateGoalNode {
	return &ValidateGoalNode{client: client, logger: logx.NewLogger("validate_goal")}
}

// Name implements Node.
func (n *ValidateGoalNode) Name() proto.NodeName { return proto.NodeValidateGoal }

// Run implements Node.
func (n *ValidateGoalNode) Run(ctx context.Context, st *state.TaskState) (Command, error) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewUserMessage(goalValidationPrompt(st)),
	})
	resp, err := llm.CompleteWithRetry(ctx, n.client, req)
	if err != nil {
		return Command{}, fmt.Errorf("goal validation call failed: %w", err)
	}

	verdict := parseGoalVerdict(resp.Content)
	n.logger.Info("goal verdict: type=%s status=%s verified=%t integrity=%t",
		verdict.TaskType, verdict.Status, verdict.VerificationDone, verdict.DataIntegrityOK)

	// A mismatch between asserted facts and observed action results beats
	// any claimed status.
	if !verdict.DataIntegrityOK {
		st.AppendTurn(proto.NewGuidanceTurn(
			"The final answer states facts that do not appear in any action result. Re-check the actual page data and correct the answer."))
		return goTo(proto.NodeReason), nil
	}

	// Action tasks must verify the resulting state, not just report that
	// the action ran.
	if verdict.TaskType == "ACTION" && verdict.Status == "ACHIEVED" && !verdict.VerificationDone {
		st.AppendTurn(proto.NewGuidanceTurn(
			"Success was claimed but the final state was never checked. Verify the result with a read action (extract the relevant page content) before declaring completion."))
		return goTo(proto.NodeReason), nil
	}

	switch verdict.Status {
	case "ACHIEVED":
		if verdict.TaskType == "ACTION" && claimsActionWithoutEvidence(st) {
			st.AppendTurn(proto.NewGuidanceTurn(
				"The completion claim describes actions performed but shows no verification of the outcome. Confirm the final state before finishing."))
			return goTo(proto.NodeReason), nil
		}
		summary := verdict.Summary
		if summary == "" {
			summary = "Task completed."
		}
		st.AppendTurn(proto.NewAssistantTurn(summary, nil))
		st.GoalAchieved = true
		return goTo(proto.NodeTerminal), nil
	case "PARTIALLY_ACHIEVED":
		return goTo(proto.NodeQuality), nil
	default:
		st.AppendTurn(proto.NewGuidanceTurn(
			"The goal is not achieved yet. Continue working toward it, adjusting the approach as needed."))
		return goTo(proto.NodeReason), nil
	}
}

// parseGoalVerdict parses the line-oriented validation protocol. Missing
// fields fail toward the strict side.
func parseGoalVerdict(reply string) goalVerdict {
	v := goalVerdict{TaskType: "ACTION", Status: "NOT_ACHIEVED", DataIntegrityOK: true}
	for _, line := range strings.Split(reply, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "TASK_TYPE":
			if upper := strings.ToUpper(value); upper == "RESEARCH" || upper == "ACTION" {
				v.TaskType = upper
			}
		case "STATUS":
			switch upper := strings.ToUpper(value); upper {
			case "ACHIEVED", "PARTIALLY_ACHIEVED", "NOT_ACHIEVED":
				v.Status = upper
			}
		case "VERIFICATION_DONE":
			v.VerificationDone = strings.EqualFold(value, "true")
		case "DATA_INTEGRITY":
			v.DataIntegrityOK = strings.EqualFold(value, "ok")
		case "SUMMARY":
			v.Summary = value
		}
	}
	return v
}

// Markers used by the completion-evidence heuristic.
var (
	actionOnlyMarkers   = []string{"clicked", "submitted", "filled", "navigated", "typed", "deleted", "pressed", "selected"}
	verificationMarkers = []string{"verified", "confirmed", "shows", "displays", "i checked", "now contains", "page states", "appears as"}
)

// claimsActionWithoutEvidence reports whether the final assistant message
// describes performing actions with no verification language at all. It is a
// cheap secondary guard behind the engine's own self-report.
func claimsActionWithoutEvidence(st *state.TaskState) bool {
	last := st.LastAssistantTurn()
	if last == nil || last.Content == "" {
		return false
	}
	lower := strings.ToLower(last.Content)

	hasAction := false
	for _, m := range actionOnlyMarkers {
		if strings.Contains(lower, m) {
			hasAction = true
			break
		}
	}
	if !hasAction {
		return false
	}
	for _, m := range verificationMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}
