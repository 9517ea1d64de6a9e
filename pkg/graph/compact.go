package graph

import (
	"context"

	"browserpilot/pkg/contextmgr"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// CompactNode bounds reasoning-engine input size. Under the low-water mark
// it is a cheap no-op; over the high-water mark older turns fold into the
// progressive summary.
type CompactNode struct {
	compactor *contextmgr.Compactor
	recorder  *metrics.Recorder
}

// NewCompactNode creates the context compaction node.
func NewCompactNode(compactor *contextmgr.Compactor, recorder *metrics.Recorder) *CompactNode {
	return &CompactNode{compactor: compactor, recorder: recorder}
}

// Name implements Node.
func (n *CompactNode) Name() proto.NodeName { return proto.NodeCompact }

// Run implements Node.
func (n *CompactNode) Run(_ context.Context, st *state.TaskState) (Command, error) {
	compacted, err := n.compactor.CompactIfNeeded(st)
	if err != nil {
		return Command{}, err
	}
	if compacted && n.recorder != nil {
		n.recorder.ObserveCompaction()
	}
	return goTo(proto.NodeReason), nil
}
