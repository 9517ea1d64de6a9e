package graph

import (
	"fmt"
	"strings"

	"browserpilot/pkg/proto"
	"browserpilot/pkg/state"
)

// fullSystemPrompt is the extended instruction variant used for the first
// steps of a task, while the reasoning engine still needs full guidance.
const fullSystemPrompt = `You are an autonomous browser agent. You complete web tasks by calling the available browser actions one at a time.

Rules:
- Issue exactly one action per turn and wait for its result before deciding the next step.
- Element selectors must be valid CSS. Re-read the page after navigation or any change before reusing a selector.
- When a page changes under you, extract fresh state before interacting again.
- Tab handling: 'browser_tabs list' shows tabs with their ids; after opening a tab you must explicitly select it before interacting with its content.
- Before declaring success on a task that changes state (submitting, deleting, purchasing), verify the resulting state with a read action. Claiming success without verification is the single most common failure mode.
- If an action fails, read the error carefully and correct the approach rather than repeating the identical call.
- When the task goal is fully achieved and verified, reply without any action call and state the final result.`

// minimalSystemPrompt is the token-saving variant used after the step
// threshold.
const minimalSystemPrompt = `You are an autonomous browser agent. One action per turn; wait for each result. Use valid CSS selectors, re-read pages after changes, verify state-changing work before declaring success. When done, reply without an action call and state the result.`

// tabGuidance is injected after a tab-creation action with no follow-up, a
// known trap: listing and selecting use different index bases.
const tabGuidance = `Reminder: after opening a new tab you must (1) run browser_tabs with action "list" to see the tab ids, then (2) run browser_tabs with action "select" and the id of the tab you want before interacting with it. The list output numbers tabs from 0, but selection is by tab id, not position.`

// remediation maps an error category to a corrective instruction. These are
// instructions to change approach, never a retry of the same call.
var remediation = map[proto.ErrorType]string{
	proto.ErrorSyntax: `The last action used an invalid selector or malformed arguments. Do not repeat the same call. Write a simpler, valid CSS selector (prefer id or stable attribute selectors) and try again.`,
	proto.ErrorViewport: `The target element is outside of the viewport. Scroll toward the element first, then interact with it.`,
	proto.ErrorTimeout: `The page load wait timed out waiting for the network to go idle. The page is likely usable anyway: wait for the document to load instead of network idle, then continue.`,
	proto.ErrorTimeoutOther: `The last action timed out. The page may be slow or the element may not exist. Wait for the page to load, re-extract the page content, and re-check your selector before retrying.`,
	proto.ErrorStaleRef: `The element reference went stale because the page changed. Never reuse old references: re-extract the page content and resolve the element again before interacting.`,
	proto.ErrorElementNotFound: `No element matched your selector. Extract the current page text to see what is actually there, then build a new selector from the real structure.`,
}

// remediationEscalation holds the stronger fallback used after repeated
// occurrences of the same category.
var remediationEscalation = map[proto.ErrorType]string{
	proto.ErrorViewport: `The element is still outside of the viewport after scrolling. Switch technique: use the click action with method "js", which dispatches the click directly and bypasses viewport hit-testing.`,
	proto.ErrorTimeout: `Network-idle waits keep timing out on this site. Stop waiting for network idle entirely: navigate and then proceed as soon as the document is ready, using extract_text to confirm the content you need is present.`,
}

// escalationThreshold is the occurrence count at which remediation switches
// to the fallback technique.
const escalationThreshold = 2

// strategyPrompt builds the meta-prompt asking the engine to re-plan.
func strategyPrompt(st *state.TaskState) string {
	return fmt.Sprintf(`The current approach is not working.

Task: %s
Errors so far: %d
Recent history:
%s

Diagnose in one or two sentences why the current approach keeps failing, then propose a concretely different approach to reach the goal. Reply with the diagnosis and the new plan only.`,
		st.OriginalTask, st.ErrorCount, recentDigest(st, 5))
}

// qualityPrompt builds the self-grading prompt for the latest result.
func qualityPrompt(st *state.TaskState) string {
	last := ""
	if t := st.LastAssistantTurn(); t != nil {
		last = t.Content
	}
	return fmt.Sprintf(`Grade the result below against the original task.

Task: %s
Result: %s

Reply with exactly one word on the first line: GOOD, ACCEPTABLE, or NEEDS_IMPROVEMENT.
If NEEDS_IMPROVEMENT, add one sentence explaining what is missing.`,
		st.OriginalTask, last)
}

// criticalActionPrompt asks the engine to assess a pending irreversible action.
func criticalActionPrompt(st *state.TaskState) string {
	return fmt.Sprintf(`The agent wants to perform the irreversible action '%s'.

Task: %s
Recent history:
%s

Assess: does this action match the user's intent, and is the risk acceptable?
Reply with exactly one word on the first line: APPROVE or NEEDS_CONFIRMATION.
If NEEDS_CONFIRMATION, add a single short yes/no question to ask the user.`,
		st.PendingAction, st.OriginalTask, recentDigest(st, 4))
}

// goalValidationPrompt asks the engine to verify goal achievement with the
// structured reply protocol the goal gate parses.
func goalValidationPrompt(st *state.TaskState) string {
	last := ""
	if t := st.LastAssistantTurn(); t != nil {
		last = t.Content
	}
	return fmt.Sprintf(`Verify whether the task goal has been achieved.

Task: %s
Claimed result: %s
Recent history:
%s

Reply using exactly this format:
TASK_TYPE: ACTION or RESEARCH
STATUS: ACHIEVED, PARTIALLY_ACHIEVED, or NOT_ACHIEVED
VERIFICATION_DONE: true or false (was the final state actually checked with a read action?)
DATA_INTEGRITY: ok or issue (does every fact in the claimed result appear in the action results?)
SUMMARY: one-sentence user-facing summary of the outcome`,
		st.OriginalTask, last, recentDigest(st, 6))
}

// recentDigest renders the last n non-system turns as short lines.
func recentDigest(st *state.TaskState, n int) string {
	var lines []string
	for i := len(st.Turns) - 1; i >= 0 && len(lines) < n; i-- {
		t := &st.Turns[i]
		if t.Role == proto.RoleSystem {
			continue
		}
		content := t.Content
		if idx := strings.IndexByte(content, '\n'); idx >= 0 {
			content = content[:idx]
		}
		if len(content) > 160 {
			content = content[:160] + "..."
		}
		label := string(t.Role)
		if t.Role == proto.RoleAction {
			label = t.ActionName
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, content))
	}
	// Restore chronological order.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n")
}
