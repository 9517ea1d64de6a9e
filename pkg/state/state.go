// Package state defines the shared task record threaded through every
// orchestration node, and the checkpoint store abstraction.
package state

import (
	"fmt"
	"time"

	"browserpilot/pkg/proto"
	"browserpilot/pkg/utils"
)

// CompactionContext is the compactor's carry-over state: the running summary
// of turns that have been folded away and how many times folding happened.
type CompactionContext struct {
	Summary     string `json:"summary,omitempty"`
	Compactions int    `json:"compactions"`
}

// TaskState is the single mutable record for one task. One instance exists
// per task; it is checkpointed after every node transition under SessionID.
// Nodes communicate exclusively through this record.
type TaskState struct {
	SessionID    string       `json:"session_id"`
	OriginalTask string       `json:"original_task"`
	CreatedAt    time.Time    `json:"created_at"`
	Turns        []proto.Turn `json:"turns"`

	// Critical-action gating. PendingAction holds the action name, and the
	// confirmation question text while a human checkpoint is outstanding.
	NeedsValidation       bool   `json:"needs_validation"`
	ValidationPassed      bool   `json:"validation_passed"`
	RequiresHumanApproval bool   `json:"requires_human_approval"`
	PendingAction         string `json:"pending_action,omitempty"`

	// Reflection and recovery bookkeeping.
	ProgressScore            float64         `json:"progress_score"`
	StuckCounter             int             `json:"stuck_counter"`
	StrategyChanges          int             `json:"strategy_changes"`
	ErrorCount               int             `json:"error_count"`
	ErrorType                proto.ErrorType `json:"error_type"`
	ErrorMessage             string          `json:"error_message,omitempty"`
	ViewportErrorCount       int             `json:"viewport_error_count"`
	TimeoutErrorCount        int             `json:"timeout_error_count"`
	QualityScore             *float64        `json:"quality_score,omitempty"`
	GoalAchieved             bool            `json:"goal_achieved"`
	MessageCountAtLastCheck  int             `json:"message_count_at_last_check"`
	MessageCountAtLastReport int             `json:"message_count_at_last_report"`
	CurrentStep              int             `json:"current_step"`

	Compaction CompactionContext `json:"compaction"`
}

// NewTaskState creates a task record seeded with the user request as the
// first turn.
func NewTaskState(task string) *TaskState {
	return &TaskState{
		SessionID:    utils.NewSessionID(),
		OriginalTask: task,
		CreatedAt:    time.Now().UTC(),
		Turns:        []proto.Turn{proto.NewUserTurn(task)},
		ErrorType:    proto.ErrorNone,
	}
}

// AppendTurn appends a turn to the conversation.
func (s *TaskState) AppendTurn(t proto.Turn) {
	s.Turns = append(s.Turns, t)
}

// LastAssistantTurn returns the most recent assistant turn, or nil.
func (s *TaskState) LastAssistantTurn() *proto.Turn {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == proto.RoleAssistant {
			return &s.Turns[i]
		}
	}
	return nil
}

// ActionStats counts action result turns and how many of them succeeded.
// A result turn counts as failed when its text carries an error marker.
func (s *TaskState) ActionStats() (successful, total int) {
	for i := range s.Turns {
		if s.Turns[i].Role != proto.RoleAction {
			continue
		}
		total++
		if !IsErrorResult(s.Turns[i].Content) {
			successful++
		}
	}
	return successful, total
}

// ClearError resets the classified error after the recovery node has
// addressed it.
func (s *TaskState) ClearError() {
	s.ErrorType = proto.ErrorNone
	s.ErrorMessage = ""
}

// Validate checks the record's structural invariants. Called by the
// orchestrator before each checkpoint.
func (s *TaskState) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("task state missing session id")
	}
	if s.OriginalTask == "" {
		return fmt.Errorf("task state missing original task")
	}
	gated := s.NeedsValidation || s.RequiresHumanApproval
	if (s.PendingAction != "") != gated {
		return fmt.Errorf("pending action %q inconsistent with validation flags", s.PendingAction)
	}
	return nil
}

// IsErrorResult reports whether an action result text represents a failure.
func IsErrorResult(result string) bool {
	return len(result) >= 6 && result[:6] == "Error:"
}
