package graph

import (
	"strings"

	"browserpilot/pkg/proto"
)

// Classify assigns an error category to an action result by pattern-matching
// its text. Matching is case-insensitive; the first matching category wins in
// taxonomy order.
func Classify(result string) proto.ErrorType {
	lower := strings.ToLower(result)

	switch {
	case strings.Contains(lower, "invalidselectorerror"),
		strings.Contains(lower, "invalid selector"),
		strings.Contains(lower, "unexpected symbol"),
		strings.Contains(lower, "is not a function"):
		return proto.ErrorSyntax

	case strings.Contains(lower, "outside of the viewport"),
		strings.Contains(lower, "outside of viewport"):
		return proto.ErrorViewport

	case strings.Contains(lower, "timeout") && strings.Contains(lower, "networkidle"):
		return proto.ErrorTimeout

	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"):
		return proto.ErrorTimeoutOther

	case strings.Contains(lower, "stale"),
		strings.Contains(lower, "not attached to the dom"),
		strings.Contains(lower, "detached from the dom"):
		return proto.ErrorStaleRef

	case strings.Contains(lower, "element not found"),
		strings.Contains(lower, "no element matches"),
		strings.Contains(lower, "could not find node"),
		strings.Contains(lower, "no node found"):
		return proto.ErrorElementNotFound
	}
	return proto.ErrorNone
}
