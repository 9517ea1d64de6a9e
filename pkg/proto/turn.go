package proto

import "time"

// TurnRole identifies who produced a conversation turn.
type TurnRole string

const (
	// RoleUser is the human request or a human approval/decline reply.
	RoleUser TurnRole = "user"
	// RoleAssistant is reasoning-engine output, possibly carrying action invocations.
	RoleAssistant TurnRole = "assistant"
	// RoleAction is the string result of an executed action.
	RoleAction TurnRole = "action"
	// RoleGuidance is a system-injected corrective or strategy turn.
	RoleGuidance TurnRole = "guidance"
	// RoleSystem is the system-instruction turn prepended before reasoning.
	RoleSystem TurnRole = "system"
)

// ActionInvocation is a single action requested by the reasoning engine.
type ActionInvocation struct {
	Args map[string]any `json:"args"`
	ID   string         `json:"id"`
	Name string         `json:"name"`
}

// Turn is one entry in the task conversation. Turns are append-only in
// execution order; only the context compactor may replace older turns.
type Turn struct {
	Timestamp  time.Time          `json:"timestamp"`
	Role       TurnRole           `json:"role"`
	Content    string             `json:"content"`
	Calls      []ActionInvocation `json:"calls,omitempty"`       // assistant turns only
	ActionName string             `json:"action_name,omitempty"` // action turns only
	CallID     string             `json:"call_id,omitempty"`     // links an action turn to its invocation
}

// NewUserTurn creates a user turn.
func NewUserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantTurn creates an assistant turn with optional action invocations.
func NewAssistantTurn(content string, calls []ActionInvocation) Turn {
	return Turn{Role: RoleAssistant, Content: content, Calls: calls, Timestamp: time.Now().UTC()}
}

// NewActionTurn creates an action result turn.
func NewActionTurn(name, callID, result string) Turn {
	return Turn{Role: RoleAction, Content: result, ActionName: name, CallID: callID, Timestamp: time.Now().UTC()}
}

// NewGuidanceTurn creates a system-injected guidance turn.
func NewGuidanceTurn(content string) Turn {
	return Turn{Role: RoleGuidance, Content: content, Timestamp: time.Now().UTC()}
}

// NewSystemTurn creates the system-instruction turn.
func NewSystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// HasCalls reports whether the turn carries action invocations.
func (t *Turn) HasCalls() bool {
	return len(t.Calls) > 0
}
