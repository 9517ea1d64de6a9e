// Package contextmgr bounds the reasoning engine's input size. When the
// conversation crosses a token high-water mark, older turns are folded into a
// progressive summary while the most recent turns stay verbatim.
package contextmgr

import (
	"fmt"
	"strings"

	"browserpilot/pkg/config"
	"browserpilot/pkg/logx"
	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
	"browserpilot/pkg/utils"
)

// Compactor folds conversation history into a running summary.
type Compactor struct {
	counter *utils.TokenCounter
	logger  *logx.Logger
	cfg     config.CompactionConfig
}

// NewCompactor creates a compactor with the given budgets.
func NewCompactor(cfg config.CompactionConfig) *Compactor {
	if cfg.HighWaterTokens == 0 {
		cfg.HighWaterTokens = config.DefaultHighWaterTokens
	}
	if cfg.LowWaterTokens == 0 {
		cfg.LowWaterTokens = config.DefaultLowWaterTokens
	}
	if cfg.SummaryMaxTokens == 0 {
		cfg.SummaryMaxTokens = config.DefaultSummaryMaxTokens
	}
	if cfg.KeepRecentTurns == 0 {
		cfg.KeepRecentTurns = config.DefaultKeepRecentTurns
	}
	return &Compactor{
		counter: utils.NewTokenCounter(),
		logger:  logx.NewLogger("contextmgr"),
		cfg:     cfg,
	}
}

// CountTurnTokens returns the token count of the whole conversation.
func (c *Compactor) CountTurnTokens(turns []proto.Turn) int {
	total := 0
	for i := range turns {
		total += c.counter.CountTokens(string(turns[i].Role)) + c.counter.CountTokens(turns[i].Content)
	}
	return total
}

// NeedsCompaction reports whether the conversation has crossed the
// high-water mark. Under the low-water mark this is a cheap no-op check.
func (c *Compactor) NeedsCompaction(turns []proto.Turn) bool {
	return c.CountTurnTokens(turns) > c.cfg.HighWaterTokens
}

// CompactIfNeeded folds older turns into the progressive summary when over
// budget. The user's original request, any leading system turn, and the most
// recent KeepRecentTurns turns are always preserved verbatim. Returns whether
// compaction happened.
func (c *Compactor) CompactIfNeeded(st *state.TaskState) (bool, error) {
	if !c.NeedsCompaction(st.Turns) {
		return false, nil
	}

	// Leading system turn and the original user request are pinned.
	pinned := 0
	if len(st.Turns) > 0 && st.Turns[0].Role == proto.RoleSystem {
		pinned++
	}
	if pinned < len(st.Turns) && st.Turns[pinned].Role == proto.RoleUser {
		pinned++
	}

	keep := c.cfg.KeepRecentTurns
	if len(st.Turns)-pinned <= keep {
		// Nothing foldable; the recent window alone is over budget.
		c.logger.Warn("conversation over token budget but too few turns to compact (%d turns)", len(st.Turns))
		return false, nil
	}

	foldable := st.Turns[pinned : len(st.Turns)-keep]
	summary := c.extendSummary(st.Compaction.Summary, foldable)
	summary = c.counter.TruncateToTokenLimit(summary, c.cfg.SummaryMaxTokens)

	summaryTurn := proto.NewGuidanceTurn(fmt.Sprintf(
		"Summary of earlier progress (%d turns condensed):\n%s", len(foldable), summary))

	rebuilt := make([]proto.Turn, 0, pinned+1+keep)
	rebuilt = append(rebuilt, st.Turns[:pinned]...)
	rebuilt = append(rebuilt, summaryTurn)
	rebuilt = append(rebuilt, st.Turns[len(st.Turns)-keep:]...)

	before := len(st.Turns)
	st.Turns = rebuilt
	st.Compaction.Summary = summary
	st.Compaction.Compactions++

	c.logger.Info("compacted conversation: %d -> %d turns (%d tokens)",
		before, len(st.Turns), c.CountTurnTokens(st.Turns))
	return true, nil
}

// extendSummary appends a digest of the folded turns to the running summary.
// The digest is mechanical: one line per action outcome or assistant decision,
// so it stays deterministic and costs no engine call.
func (c *Compactor) extendSummary(prev string, folded []proto.Turn) string {
	var lines []string
	if prev != "" {
		lines = append(lines, prev)
	}
	for i := range folded {
		t := &folded[i]
		switch t.Role {
		case proto.RoleAssistant:
			for j := range t.Calls {
				lines = append(lines, fmt.Sprintf("- requested %s", t.Calls[j].Name))
			}
			if len(t.Calls) == 0 && t.Content != "" {
				lines = append(lines, fmt.Sprintf("- noted: %s", firstLine(t.Content, 120)))
			}
		case proto.RoleAction:
			outcome := "ok"
			if state.IsErrorResult(t.Content) {
				outcome = "FAILED"
			}
			lines = append(lines, fmt.Sprintf("- %s -> %s: %s", t.ActionName, outcome, firstLine(t.Content, 120)))
		case proto.RoleGuidance:
			lines = append(lines, fmt.Sprintf("- guidance: %s", firstLine(t.Content, 120)))
		}
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string, max int) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > max {
		s = s[:max] + "..."
	}
	return strings.TrimSpace(s)
}
