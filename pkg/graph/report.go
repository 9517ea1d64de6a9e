package graph

import (
	"context"
	"fmt"

	"browserpilot/pkg/logx"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// ReportNode emits a progress status line to the event stream and metrics,
// then advances the report watermark. It never mutates the conversation.
type ReportNode struct {
	recorder *metrics.Recorder
	logger   *logx.Logger
}

// NewReportNode creates the progress reporter.
func NewReportNode(recorder *metrics.Recorder) *ReportNode {
	return &ReportNode{recorder: recorder, logger: logx.NewLogger("report")}
}

// Name implements Node.
func (n *ReportNode) Name() proto.NodeName { return proto.NodeReport }

// Run implements Node.
func (n *ReportNode) Run(_ context.Context, st *state.TaskState) (Command, error) {
	line := ProgressLine(st)
	n.logger.Info("%s", line)
	st.MessageCountAtLastReport = len(st.Turns)
	if n.recorder != nil {
		n.recorder.ObserveProgress(st.SessionID, st.ProgressScore)
	}
	return goTo(proto.NodeCompact), nil
}

// ProgressLine renders the four-tier status line for a task.
func ProgressLine(st *state.TaskState) string {
	return fmt.Sprintf("[%s] %d%% - %d exchanges, %d errors",
		statusBand(st.ProgressScore), int(st.ProgressScore*100), len(st.Turns), st.ErrorCount)
}

// statusBand maps a progress score to its reporting tier.
func statusBand(score float64) string {
	switch {
	case score >= 0.75:
		return "on track"
	case score >= 0.5:
		return "progressing"
	case score >= 0.25:
		return "slow going"
	default:
		return "struggling"
	}
}
