package graph

import (
	"fmt"

	"browserpilot/pkg/config"
	"browserpilot/pkg/contextmgr"
	"browserpilot/pkg/llm"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/tools"
)

// Deps holds everything the standard node set needs.
type Deps struct {
	Client    llm.Client
	Registry  *tools.Registry
	Compactor *contextmgr.Compactor
	Recorder  *metrics.Recorder // optional
	Agent     config.AgentConfig
	LLM       config.LLMConfig
}

// Build assembles the standard task graph: all decision nodes registered,
// entry at the reasoning node.
func Build(deps Deps) (*Graph, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("graph requires an llm client")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("graph requires a tool registry")
	}
	if deps.Compactor == nil {
		deps.Compactor = contextmgr.NewCompactor(config.CompactionConfig{})
	}
	if deps.Agent.FullPromptSteps == 0 {
		deps.Agent.FullPromptSteps = config.DefaultFullPromptSteps
	}
	if deps.Agent.AnalyzeEvery == 0 {
		deps.Agent.AnalyzeEvery = config.DefaultAnalyzeEvery
	}
	if deps.Agent.ReportEvery == 0 {
		deps.Agent.ReportEvery = config.DefaultReportEvery
	}
	if deps.LLM.MaxTokens == 0 {
		deps.LLM.MaxTokens = 4096
	}
	if deps.LLM.Temperature == 0 {
		deps.LLM.Temperature = llm.TemperatureDefault
	}

	g := New()
	nodes := []Node{
		NewReasonNode(deps.Client, deps.Registry, deps.Agent, deps.LLM),
		NewExecuteNode(deps.Registry, deps.Recorder, deps.Agent),
		NewRecoverNode(),
		NewProgressNode(deps.Recorder),
		NewStrategyNode(deps.Client, deps.Recorder),
		NewQualityNode(deps.Client),
		NewValidateActionNode(deps.Client),
		NewValidateGoalNode(deps.Client),
		NewHumanGateNode(),
		NewCompactNode(deps.Compactor, deps.Recorder),
		NewReportNode(deps.Recorder),
	}
	for _, n := range nodes {
		if err := g.RegisterNode(n); err != nil {
			return nil, err
		}
	}
	if err := g.SetEntry(proto.NodeReason); err != nil {
		return nil, err
	}
	return g, nil
}
