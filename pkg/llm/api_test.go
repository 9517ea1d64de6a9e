package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompletionRequestDefaults(t *testing.T) {
	req := NewCompletionRequest([]CompletionMessage{NewUserMessage("hi")})
	assert.Equal(t, 4096, req.MaxTokens)
	assert.Equal(t, float32(TemperatureDefault), req.Temperature)
	assert.Empty(t, req.ToolChoice)
}

func TestNewClientProviderSwitch(t *testing.T) {
	c, err := NewClient("anthropic", "key", "claude-sonnet-4-20250514", "")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", c.ModelName())

	c, err = NewClient("openai", "key", "gpt-4o", "https://proxy.internal/v1")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.ModelName())

	_, err = NewClient("llama", "key", "m", "")
	assert.Error(t, err)
}
