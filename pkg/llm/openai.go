package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"browserpilot/pkg/tools"
)

// OpenAIClient wraps the official OpenAI Go SDK to implement the Client interface.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed client. A non-empty baseURL
// redirects requests to an OpenAI-compatible endpoint.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// convertPropertyToSchema recursively converts a Property to OpenAI schema format.
func convertPropertyToSchema(prop *tools.Property) map[string]any {
	schema := map[string]any{"type": prop.Type}
	if prop.Description != "" {
		schema["description"] = prop.Description
	}
	if len(prop.Enum) > 0 {
		schema["enum"] = prop.Enum
	}
	if prop.Type == "array" && prop.Items != nil {
		schema["items"] = convertPropertyToSchema(prop.Items)
	}
	return schema
}

// buildParams converts a request to Chat Completions parameters. Parallel
// tool calls are disabled at the provider: each reasoning turn may act on
// the page at most once, so later calls in a multi-call reply would only
// see a stale view.
func (o *OpenAIClient) buildParams(in CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(in.Messages))
	for i := range in.Messages {
		msg := &in.Messages[i]
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(in.MaxTokens)),
		Temperature: openai.Float(float64(in.Temperature)),
	}

	if len(in.Tools) > 0 {
		toolParams := make([]openai.ChatCompletionToolParam, len(in.Tools))
		for i := range in.Tools {
			tool := &in.Tools[i]
			properties := make(map[string]any, len(tool.InputSchema.Properties))
			for name := range tool.InputSchema.Properties {
				prop := tool.InputSchema.Properties[name]
				properties[name] = convertPropertyToSchema(&prop)
			}
			toolParams[i] = openai.ChatCompletionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters: openai.FunctionParameters(map[string]any{
						"type":       "object",
						"properties": properties,
						"required":   tool.InputSchema.Required,
					}),
				},
			}
		}
		params.Tools = toolParams
		params.ParallelToolCalls = openai.Bool(false)
	}
	return params
}

// Complete implements the Client interface via the Chat Completions API.
func (o *OpenAIClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	params := o.buildParams(in)
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, classifyError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return CompletionResponse{}, NewError(ErrorTypeEmptyResponse, "received empty response from OpenAI API")
	}

	choice := &resp.Choices[0]
	var toolCalls []ToolCall
	for i := range choice.Message.ToolCalls {
		call := &choice.Message.ToolCalls[i]
		var args map[string]any
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return CompletionResponse{}, fmt.Errorf("failed to parse tool arguments: %w", err)
			}
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:         call.ID,
			Name:       call.Function.Name,
			Parameters: args,
		})
	}

	return CompletionResponse{
		Content:    choice.Message.Content,
		ToolCalls:  toolCalls,
		StopReason: string(choice.FinishReason),
	}, nil
}

// ModelName returns the model identifier used by this client.
func (o *OpenAIClient) ModelName() string {
	return o.model
}
