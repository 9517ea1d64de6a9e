// Package proto defines the shared vocabulary of the orchestration graph:
// node names, conversation turns, error categories, and checkpoint payloads.
package proto

// NodeName identifies a decision node in the orchestration graph.
// Routing is fully dynamic: every node returns the NodeName of its successor.
type NodeName string

const (
	// NodeReason is the core reasoning node and the graph entry point.
	NodeReason NodeName = "reason"
	// NodeExecute runs pending action invocations sequentially.
	NodeExecute NodeName = "execute"
	// NodeRecover maps a classified error to a remediation turn.
	NodeRecover NodeName = "recover"
	// NodeProgress estimates proximity to goal completion.
	NodeProgress NodeName = "progress"
	// NodeStrategy re-plans when the agent is stuck.
	NodeStrategy NodeName = "strategy"
	// NodeQuality grades the latest result against the original task.
	NodeQuality NodeName = "quality"
	// NodeValidateAction gates critical, irreversible actions.
	NodeValidateAction NodeName = "validate_action"
	// NodeValidateGoal is the terminal gate verifying goal achievement.
	NodeValidateGoal NodeName = "validate_goal"
	// NodeHumanGate suspends execution awaiting a human resume value.
	NodeHumanGate NodeName = "human_gate"
	// NodeCompact bounds reasoning input via summarization.
	NodeCompact NodeName = "compact"
	// NodeReport emits progress to the observability sink.
	NodeReport NodeName = "report"
	// NodeTerminal marks the end of a task run. It is a routing target,
	// not a registered node.
	NodeTerminal NodeName = "__terminal__"
)

// String returns the node name as a string.
func (n NodeName) String() string {
	return string(n)
}

// ConfirmationPayload is the structured payload exposed to the caller while a
// human checkpoint is outstanding.
type ConfirmationPayload struct {
	Type    string   `json:"type"` // always "confirmation"
	Message string   `json:"message"`
	Options []string `json:"options"` // ["y", "n"]
}

// NewConfirmationPayload builds the y/n confirmation payload for a pending action.
func NewConfirmationPayload(message string) *ConfirmationPayload {
	return &ConfirmationPayload{
		Type:    "confirmation",
		Message: message,
		Options: []string{"y", "n"},
	}
}
