package graph

import (
	"context"

	"browserpilot/pkg/config"
	"browserpilot/pkg/llm"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/tools"
)

// fakeTool is a scripted tool for graph tests.
type fakeTool struct {
	name string
	exec func(args map[string]any) string
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        f.name,
		Description: "test tool",
		InputSchema: tools.InputSchema{Type: "object"},
	}
}

func (f *fakeTool) Exec(_ context.Context, args map[string]any) (string, error) {
	return f.exec(args), nil
}

// newTestRegistry builds a registry of fake tools returning fixed results.
func newTestRegistry(results map[string]string) *tools.Registry {
	r := tools.NewRegistry()
	for name, result := range results {
		result := result
		r.Register(&fakeTool{name: name, exec: func(map[string]any) string { return result }})
	}
	return r
}

// call builds an action invocation for scripted assistant turns.
func call(name string, args map[string]any) proto.ActionInvocation {
	if args == nil {
		args = map[string]any{}
	}
	return proto.ActionInvocation{ID: "call-" + name, Name: name, Args: args}
}

// toolCallResponse scripts a mock engine reply carrying one action call.
func toolCallResponse(name string, args map[string]any) llm.CompletionResponse {
	if args == nil {
		args = map[string]any{}
	}
	return llm.CompletionResponse{
		ToolCalls:  []llm.ToolCall{{ID: "call-" + name, Name: name, Parameters: args}},
		StopReason: "tool_use",
	}
}

// textResponse scripts a plain-text mock engine reply.
func textResponse(content string) llm.CompletionResponse {
	return llm.CompletionResponse{Content: content, StopReason: "end_turn"}
}

func testAgentConfig() config.AgentConfig {
	return config.AgentConfig{
		MaxSteps:        100,
		FullPromptSteps: config.DefaultFullPromptSteps,
		AnalyzeEvery:    config.DefaultAnalyzeEvery,
		ReportEvery:     config.DefaultReportEvery,
	}
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{Provider: "openai", Model: "test", MaxTokens: 1024, Temperature: 0.3, APIKey: "test"}
}
