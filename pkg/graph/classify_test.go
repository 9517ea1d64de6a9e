package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"browserpilot/pkg/proto"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		result string
		want   proto.ErrorType
	}{
		{"invalid selector", "Error: click failed: InvalidSelectorError: 'div[' is not valid", proto.ErrorSyntax},
		{"unexpected symbol", "Error: evaluate failed: unexpected symbol at line 1", proto.ErrorSyntax},
		{"not a function", "Error: document.querySelectorr is not a function", proto.ErrorSyntax},
		{"viewport", "Error: click failed: element is outside of the viewport", proto.ErrorViewport},
		{"networkidle timeout", "Error: navigate failed: timeout waiting for networkidle", proto.ErrorTimeout},
		{"other timeout", "Error: click failed: action timed out after 30s", proto.ErrorTimeoutOther},
		{"stale", "Error: click failed: element reference is stale", proto.ErrorStaleRef},
		{"detached", "Error: element is not attached to the DOM", proto.ErrorStaleRef},
		{"not found", "Error: element not found for selector '.missing'", proto.ErrorElementNotFound},
		{"chromedp node", "Error: click failed: could not find node for selector", proto.ErrorElementNotFound},
		{"success text", "Clicked .submit-button", proto.ErrorNone},
		{"extracted content", "Order history: 3 items", proto.ErrorNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.result))
		})
	}
}

func TestClassifySyntaxBeforeTimeout(t *testing.T) {
	// A result carrying both markers classifies by taxonomy order.
	got := Classify("Error: InvalidSelectorError after timeout")
	assert.Equal(t, proto.ErrorSyntax, got)
}
