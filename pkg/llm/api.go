// Package llm provides the provider-neutral reasoning-engine interface and
// its Anthropic and OpenAI implementations.
package llm

import (
	"context"
	"fmt"

	"browserpilot/pkg/tools"
)

// CompletionRole represents the role of a message in a completion request.
type CompletionRole string

const (
	// RoleSystem indicates a system message providing instructions or context.
	RoleSystem CompletionRole = "system"
	// RoleUser indicates a message from the human user or an action result.
	RoleUser CompletionRole = "user"
	// RoleAssistant indicates a message from the model.
	RoleAssistant CompletionRole = "assistant"
)

// TemperatureDefault is the default sampling temperature for task reasoning.
// Slight randomness avoids getting stuck in repetitive action loops.
const TemperatureDefault = 0.3

// CompletionMessage represents a message in a completion request.
type CompletionMessage struct {
	Content string
	Role    CompletionRole
}

// ToolCall represents an action invocation requested by the model.
type ToolCall struct {
	Parameters map[string]any `json:"parameters"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Messages    []CompletionMessage
	Tools       []tools.ToolDefinition
	ToolChoice  string
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents a response from a completion request.
type CompletionResponse struct {
	ToolCalls  []ToolCall
	Content    string
	StopReason string
}

// Client defines the interface for reasoning-engine interactions.
type Client interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// ModelName returns the model identifier used by this client.
	ModelName() string
}

// NewCompletionRequest creates a completion request with default values.
func NewCompletionRequest(messages []CompletionMessage) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   4096,
		Temperature: TemperatureDefault,
	}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) CompletionMessage {
	return CompletionMessage{Role: RoleAssistant, Content: content}
}

// NewClient builds a provider client from configuration values. An empty
// baseURL keeps the provider's default endpoint.
func NewClient(provider, apiKey, model, baseURL string) (Client, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicClient(apiKey, model, baseURL), nil
	case "openai":
		return NewOpenAIClient(apiKey, model, baseURL), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
