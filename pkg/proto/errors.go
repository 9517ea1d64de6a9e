package proto

// ErrorType categorizes a failed action result for the recovery node.
// Categories are assigned by pattern-matching the action's result text.
type ErrorType string

const (
	// ErrorNone means no error was detected.
	ErrorNone ErrorType = "none"
	// ErrorSyntax means malformed action arguments (e.g. an invalid selector).
	// Never retried verbatim; the invocation must be rewritten.
	ErrorSyntax ErrorType = "syntax_error"
	// ErrorViewport means the target element was not interactable on screen.
	ErrorViewport ErrorType = "viewport_error"
	// ErrorTimeout means a navigation wait on network idle timed out.
	ErrorTimeout ErrorType = "timeout"
	// ErrorTimeoutOther means any other action timeout.
	ErrorTimeoutOther ErrorType = "timeout_other"
	// ErrorStaleRef means the underlying view changed since the target was
	// resolved; the reference must be re-resolved, never reused.
	ErrorStaleRef ErrorType = "stale_ref"
	// ErrorElementNotFound means no element matched the target.
	ErrorElementNotFound ErrorType = "element_not_found"
)

// Recoverable reports whether the category is handled by the recovery node.
func (e ErrorType) Recoverable() bool {
	switch e {
	case ErrorSyntax, ErrorViewport, ErrorTimeout, ErrorTimeoutOther, ErrorStaleRef, ErrorElementNotFound:
		return true
	case ErrorNone:
		return false
	}
	return false
}

// String returns the error type as a string.
func (e ErrorType) String() string {
	return string(e)
}
