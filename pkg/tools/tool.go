// Package tools provides the browser action catalog exposed to the reasoning
// engine, plus the registry that resolves invocations to implementations.
package tools

import "context"

// Property describes a single parameter in a tool's input schema.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// InputSchema is a JSON Schema fragment describing a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// ToolDefinition is the provider-neutral declaration sent to the LLM.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Tool is a single executable browser action. Exec returns a human-readable
// result string; failures that the recovery node should classify are returned
// as the result text, not as an error. A non-nil error means the tool itself
// could not run at all.
type Tool interface {
	Name() string
	Definition() ToolDefinition
	Exec(ctx context.Context, args map[string]any) (string, error)
}

// Tool name constants for the browser action catalog.
const (
	ToolNavigate      = "navigate"
	ToolClick         = "click"
	ToolTypeText      = "type_text"
	ToolExtractText   = "extract_text"
	ToolScroll        = "scroll"
	ToolWaitForLoad   = "wait_for_load"
	ToolBrowserTabs   = "browser_tabs"
	ToolCloseModal    = "close_modal"
	ToolDeleteElement = "delete_element"
	ToolSubmitForm    = "submit_form"
	ToolTaskComplete  = "task_complete"
)

// CriticalActions is the set of irreversible actions that require human
// confirmation before execution.
var CriticalActions = map[string]bool{
	ToolDeleteElement: true,
	ToolSubmitForm:    true,
	"confirm_payment": true,
	"delete_message":  true,
	"remove_item":     true,
	"cancel_order":    true,
}

// IsCritical reports whether the named action is irreversible and must be
// confirmed by a human before it runs.
func IsCritical(name string) bool {
	return CriticalActions[name]
}
