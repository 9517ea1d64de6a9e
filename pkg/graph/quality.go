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

// Quality grades on the three-level scale.
const (
	qualityGood       = 1.0
	qualityAcceptable = 0.7
	qualityNeedsWork  = 0.5
)

// QualityNode grades the latest produced result against the original task.
type QualityNode struct {
	client llm.Client
	logger *logx.Logger
}

// NewQualityNode creates the quality evaluator.
func NewQualityNode(client llm.Client) *QualityNode {
	return &QualityNode{client: client, logger: logx.NewLogger("quality")}
}

// Name implements Node.
func (n *QualityNode) Name() proto.NodeName { return proto.NodeQuality }

// Run implements Node.
func (n *QualityNode) Run(ctx context.Context, st *state.TaskState) (Command, error) {
	req := llm.NewCompletionRequest([]llm.CompletionMessage{
		llm.NewUserMessage(qualityPrompt(st)),
	})
	resp, err := llm.CompleteWithRetry(ctx, n.client, req)
	if err != nil {
		return Command{}, fmt.Errorf("quality call failed: %w", err)
	}

	score, feedback := parseQualityGrade(resp.Content)
	st.QualityScore = &score
	n.logger.Info("quality score %.1f", score)

	if score < qualityAcceptable {
		if feedback == "" {
			feedback = "The result does not fully satisfy the task yet. Address the gaps and improve it."
		}
		st.AppendTurn(proto.NewGuidanceTurn(fmt.Sprintf("Quality feedback: %s", feedback)))
		return goTo(proto.NodeReason), nil
	}
	return goTo(proto.NodeValidateGoal), nil
}

// parseQualityGrade maps the graded reply to a score plus any feedback text.
// Unparseable replies grade as needs-improvement.
func parseQualityGrade(reply string) (float64, string) {
	lines := strings.SplitN(strings.TrimSpace(reply), "\n", 2)
	grade := strings.ToUpper(strings.TrimSpace(lines[0]))
	feedback := ""
	if len(lines) > 1 {
		feedback = strings.TrimSpace(lines[1])
	}

	switch {
	case strings.HasPrefix(grade, "GOOD"):
		return qualityGood, feedback
	case strings.HasPrefix(grade, "ACCEPTABLE"):
		return qualityAcceptable, feedback
	default:
		return qualityNeedsWork, feedback
	}
}
