// Package graph implements the dynamic-routing orchestration machine: nodes
// operating on shared task state, each returning the name of its successor.
// There are no static edges besides the entry edge into the reasoning node.
package graph

import (
	"context"

	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// Command is a node's routing decision. Goto names the next node to run, or
// proto.NodeTerminal to finish the task. Suspend pauses the loop awaiting an
// external resume value (human checkpoint).
type Command struct {
	Goto    proto.NodeName
	Suspend bool
}

// Node is a single decision node. Run mutates the task state in place and
// returns where control flows next. Nodes never call each other directly;
// all data moves through the shared state record.
type Node interface {
	Name() proto.NodeName
	Run(ctx context.Context, st *state.TaskState) (Command, error)
}

// goTo is shorthand for a plain routing command.
func goTo(next proto.NodeName) Command {
	return Command{Goto: next}
}
