package graph

import (
	"context"

	"browserpilot/pkg/logx"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// ProgressNode estimates proximity to goal completion and routes into
// strategy re-planning, quality grading, or back to reasoning.
type ProgressNode struct {
	recorder *metrics.Recorder
	logger   *logx.Logger
}

// NewProgressNode creates the progress analyzer.
func NewProgressNode(recorder *metrics.Recorder) *ProgressNode {
	return &ProgressNode{recorder: recorder, logger: logx.NewLogger("progress")}
}

// Name implements Node.
func (n *ProgressNode) Name() proto.NodeName { return proto.NodeProgress }

// Run implements Node.
func (n *ProgressNode) Run(_ context.Context, st *state.TaskState) (Command, error) {
	st.ProgressScore = ComputeProgressScore(st)
	// Deep analysis subsumes a report, so both watermarks advance.
	st.MessageCountAtLastCheck = len(st.Turns)
	st.MessageCountAtLastReport = len(st.Turns)
	if n.recorder != nil {
		n.recorder.ObserveProgress(st.SessionID, st.ProgressScore)
	}
	n.logger.Info("progress score %.2f (errors=%d stuck=%d)", st.ProgressScore, st.ErrorCount, st.StuckCounter)

	if st.ErrorCount > 3 || st.StuckCounter > 2 {
		st.StuckCounter++
		return goTo(proto.NodeStrategy), nil
	}
	if st.ProgressScore > 0.9 {
		return goTo(proto.NodeQuality), nil
	}
	st.StuckCounter = 0
	return goTo(proto.NodeReason), nil
}

// ComputeProgressScore scores proximity to completion in [0, 1]: a recent
// action success ratio and a saturating depth term contribute up to 0.5
// each, errors subtract 0.1 apiece up to 0.4, and the last quality grade
// (0.5 before any grading) contributes up to 0.2.
func ComputeProgressScore(st *state.TaskState) float64 {
	successful, total := st.ActionStats()
	successPart := 0.0
	if total > 0 {
		successPart = float64(successful) / float64(total) * 0.5
	}

	depthPart := float64(len(st.Turns)) / 40.0
	if depthPart > 0.5 {
		depthPart = 0.5
	}

	penalty := 0.1 * float64(st.ErrorCount)
	if penalty > 0.4 {
		penalty = 0.4
	}

	quality := 0.5
	if st.QualityScore != nil {
		quality = *st.QualityScore
	}

	score := successPart + depthPart - penalty + 0.2*quality
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
