package graph

import (
	"context"
	"fmt"
	"time"

	"browserpilot/pkg/logx"
	"browserpilot/pkg/metrics"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// Graph holds the registered nodes and the entry point. Build it once, then
// Compile against a checkpoint store to get a Runner.
type Graph struct {
	nodes map[proto.NodeName]Node
	entry proto.NodeName
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[proto.NodeName]Node)}
}

// RegisterNode adds a node. Duplicate names are rejected.
func (g *Graph) RegisterNode(n Node) error {
	if _, exists := g.nodes[n.Name()]; exists {
		return fmt.Errorf("node %s already registered", n.Name())
	}
	g.nodes[n.Name()] = n
	return nil
}

// SetEntry declares the node every task starts at.
func (g *Graph) SetEntry(name proto.NodeName) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("entry node %s not registered", name)
	}
	g.entry = name
	return nil
}

// Compile validates the graph and binds it to a checkpoint store.
func (g *Graph) Compile(store state.Store, opts ...RunnerOption) (*Runner, error) {
	if g.entry == "" {
		return nil, fmt.Errorf("graph has no entry node")
	}
	if len(g.nodes) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}
	r := &Runner{
		nodes:    g.nodes,
		entry:    g.entry,
		store:    store,
		logger:   logx.NewLogger("graph"),
		maxSteps: 1000,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunnerOption customizes a compiled Runner.
type RunnerOption func(*Runner)

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec *metrics.Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithMaxSteps caps the number of node executions per Run/Resume call.
func WithMaxSteps(n int) RunnerOption {
	return func(r *Runner) { r.maxSteps = n }
}

// Runner drives one task at a time through the graph. Execution is
// single-threaded per task; the state record is checkpointed after every
// node transition.
type Runner struct {
	nodes    map[proto.NodeName]Node
	entry    proto.NodeName
	store    state.Store
	logger   *logx.Logger
	recorder *metrics.Recorder
	maxSteps int
}

// Run starts a new task and streams events until the task finishes, fails,
// or suspends at a human checkpoint. The returned channel is closed when the
// run stops.
func (r *Runner) Run(ctx context.Context, st *state.TaskState) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		r.loop(ctx, st, r.entry, events)
	}()
	return events
}

// Resume continues a suspended task with the human's answer. Resuming a
// session with no outstanding checkpoint is a no-op: the channel closes
// without events, so duplicate resume deliveries are harmless.
func (r *Runner) Resume(ctx context.Context, sessionID, value string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)

		st, err := r.store.Load(sessionID)
		if err != nil {
			events <- Event{Type: EventError, SessionID: sessionID, Err: fmt.Errorf("resume: %w", err)}
			return
		}
		if !st.RequiresHumanApproval {
			r.logger.Info("resume for %s ignored: no outstanding checkpoint", sessionID)
			return
		}

		applyResume(st, value)
		if err := r.checkpoint(st); err != nil {
			events <- Event{Type: EventError, SessionID: sessionID, Err: err}
			return
		}
		r.loop(ctx, st, r.entry, events)
	}()
	return events
}

// loop executes nodes from start until a terminal, suspend, error, or caller
// abort. Exactly one of those four ends the loop.
func (r *Runner) loop(ctx context.Context, st *state.TaskState, start proto.NodeName, events chan<- Event) {
	current := start
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			events <- Event{Type: EventError, SessionID: st.SessionID, Node: current, Err: err}
			return
		}
		if steps >= r.maxSteps {
			events <- Event{
				Type: EventError, SessionID: st.SessionID, Node: current,
				Err: fmt.Errorf("step limit reached (%d node executions)", r.maxSteps),
			}
			return
		}

		node, ok := r.nodes[current]
		if !ok {
			events <- Event{
				Type: EventError, SessionID: st.SessionID, Node: current,
				Err: fmt.Errorf("route to unregistered node %s", current),
			}
			return
		}

		started := time.Now()
		cmd, err := node.Run(ctx, st)
		if r.recorder != nil {
			r.recorder.ObserveNodeDuration(current.String(), time.Since(started))
		}
		if err != nil {
			events <- Event{Type: EventError, SessionID: st.SessionID, Node: current, Err: err}
			return
		}

		if cpErr := r.checkpoint(st); cpErr != nil {
			events <- Event{Type: EventError, SessionID: st.SessionID, Node: current, Err: cpErr}
			return
		}

		if cmd.Suspend {
			if r.recorder != nil {
				r.recorder.ObserveCheckpoint()
			}
			events <- Event{
				Type:      EventCheckpoint,
				SessionID: st.SessionID,
				Node:      current,
				Payload:   proto.NewConfirmationPayload(st.PendingAction),
			}
			return
		}

		if cmd.Goto == proto.NodeTerminal {
			events <- Event{
				Type:      EventDone,
				SessionID: st.SessionID,
				Node:      current,
				Result:    finalResult(st),
			}
			return
		}

		r.logger.Debug("%s -> %s", current, cmd.Goto)
		if r.recorder != nil {
			r.recorder.ObserveTransition(current.String(), cmd.Goto.String())
		}
		events <- Event{Type: EventTransition, SessionID: st.SessionID, Node: current, Next: cmd.Goto}

		if current == proto.NodeReport {
			events <- Event{Type: EventProgress, SessionID: st.SessionID, Node: current, Message: ProgressLine(st)}
		}

		current = cmd.Goto
	}
}

func (r *Runner) checkpoint(st *state.TaskState) error {
	if err := r.store.Save(st); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// finalResult extracts the user-facing result: the last assistant turn.
func finalResult(st *state.TaskState) string {
	if t := st.LastAssistantTurn(); t != nil {
		return t.Content
	}
	return ""
}
