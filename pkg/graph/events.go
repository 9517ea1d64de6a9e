package graph

import (
	"browserpilot/pkg/proto"
)

// EventType identifies the kind of event emitted by a Runner.
type EventType string

const (
	// EventTransition reports a completed node execution and its routing.
	EventTransition EventType = "transition"
	// EventProgress reports a progress status line.
	EventProgress EventType = "progress"
	// EventCheckpoint reports a suspended run awaiting human input.
	EventCheckpoint EventType = "checkpoint"
	// EventDone reports a finished task with its final result.
	EventDone EventType = "done"
	// EventError reports an abnormal termination.
	EventError EventType = "error"
)

// Event is one item in a Runner's event stream. The channel is closed after
// a done, error, or checkpoint event.
type Event struct {
	Type      EventType
	SessionID string
	Node      proto.NodeName
	Next      proto.NodeName
	Message   string
	Payload   *proto.ConfirmationPayload
	Result    string
	Err       error
}
