package graph

import (
	"context"
	"fmt"

	"browserpilot/pkg/config"
	"browserpilot/pkg/llm"
	"browserpilot/pkg/logx"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
	"browserpilot/pkg/tools"
)

// ReasonNode is the graph entry point: it invokes the reasoning engine with
// the action catalog and decides the initial routing for the cycle.
type ReasonNode struct {
	client   llm.Client
	registry *tools.Registry
	logger   *logx.Logger
	agent    config.AgentConfig
	llmCfg   config.LLMConfig
}

// NewReasonNode creates the reasoning node.
func NewReasonNode(client llm.Client, registry *tools.Registry, agent config.AgentConfig, llmCfg config.LLMConfig) *ReasonNode {
	return &ReasonNode{
		client:   client,
		registry: registry,
		logger:   logx.NewLogger("reason"),
		agent:    agent,
		llmCfg:   llmCfg,
	}
}

// Name implements Node.
func (n *ReasonNode) Name() proto.NodeName { return proto.NodeReason }

// Run implements Node.
func (n *ReasonNode) Run(ctx context.Context, st *state.TaskState) (Command, error) {
	st.CurrentStep++

	// Full instructions early, token-saving variant once the task is warm.
	prompt := fullSystemPrompt
	if st.CurrentStep > n.agent.FullPromptSteps {
		prompt = minimalSystemPrompt
	}

	req := llm.CompletionRequest{
		Messages:    turnsToMessages(prompt, st.Turns),
		Tools:       n.registry.Definitions(),
		ToolChoice:  "auto",
		MaxTokens:   n.llmCfg.MaxTokens,
		Temperature: n.llmCfg.Temperature,
	}

	resp, err := llm.CompleteWithRetry(ctx, n.client, req)
	if err != nil {
		return Command{}, fmt.Errorf("reasoning engine call failed: %w", err)
	}

	// Invocations must be strictly sequential: two actions issued against
	// different, stale views of the browser (a tab switch racing a read) are
	// unsound. Providers can still return several calls, so keep only the
	// first and let the next cycle re-derive the rest from fresh state.
	calls := toInvocations(resp.ToolCalls)
	if len(calls) > 1 {
		n.logger.Warn("engine returned %d parallel calls; keeping only %s", len(calls), calls[0].Name)
		calls = calls[:1]
	}

	st.AppendTurn(proto.NewAssistantTurn(resp.Content, calls))

	// No action requested: the engine believes the task is complete. That
	// claim must pass the goal gate before it is accepted.
	if len(calls) == 0 {
		return goTo(proto.NodeValidateGoal), nil
	}

	if tools.IsCritical(calls[0].Name) && !st.ValidationPassed {
		st.NeedsValidation = true
		st.PendingAction = calls[0].Name
		return goTo(proto.NodeValidateAction), nil
	}

	// One-shot flag: an earlier approval covers exactly this cycle.
	st.ValidationPassed = false
	return goTo(proto.NodeExecute), nil
}

// turnsToMessages converts the conversation into provider-neutral messages.
// Action results and guidance become user messages; a system-instruction
// message is prepended when the conversation does not already carry one.
func turnsToMessages(systemPrompt string, turns []proto.Turn) []llm.CompletionMessage {
	messages := make([]llm.CompletionMessage, 0, len(turns)+1)

	hasSystem := len(turns) > 0 && turns[0].Role == proto.RoleSystem
	if !hasSystem {
		messages = append(messages, llm.NewSystemMessage(systemPrompt))
	}

	for i := range turns {
		t := &turns[i]
		switch t.Role {
		case proto.RoleSystem:
			messages = append(messages, llm.NewSystemMessage(t.Content))
		case proto.RoleAssistant:
			content := t.Content
			for j := range t.Calls {
				content += fmt.Sprintf("\n[action: %s %v]", t.Calls[j].Name, t.Calls[j].Args)
			}
			messages = append(messages, llm.NewAssistantMessage(content))
		case proto.RoleAction:
			messages = append(messages, llm.NewUserMessage(
				fmt.Sprintf("Result of %s:\n%s", t.ActionName, t.Content)))
		case proto.RoleGuidance:
			messages = append(messages, llm.NewUserMessage(t.Content))
		default:
			messages = append(messages, llm.NewUserMessage(t.Content))
		}
	}
	return messages
}

func toInvocations(calls []llm.ToolCall) []proto.ActionInvocation {
	if len(calls) == 0 {
		return nil
	}
	out := make([]proto.ActionInvocation, len(calls))
	for i, c := range calls {
		out[i] = proto.ActionInvocation{ID: c.ID, Name: c.Name, Args: c.Parameters}
	}
	return out
}
