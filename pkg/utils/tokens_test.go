package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	tc := NewTokenCounter()

	assert.Equal(t, 0, tc.CountTokens(""))
	assert.Greater(t, tc.CountTokens("hello world"), 0)

	short := tc.CountTokens("hello")
	long := tc.CountTokens(strings.Repeat("hello world ", 50))
	assert.Greater(t, long, short)
}

func TestCountTokensNilFallback(t *testing.T) {
	var tc *TokenCounter
	assert.Equal(t, 5, tc.CountTokens(strings.Repeat("a", 20)))
}

func TestValidateTokenLimit(t *testing.T) {
	tc := NewTokenCounter()
	assert.True(t, tc.ValidateTokenLimit("short", 100))
	assert.False(t, tc.ValidateTokenLimit(strings.Repeat("word ", 500), 10))
}

func TestTruncateToTokenLimit(t *testing.T) {
	tc := NewTokenCounter()

	short := "already fits"
	assert.Equal(t, short, tc.TruncateToTokenLimit(short, 100))

	long := strings.Repeat("conversation history line\n", 200)
	truncated := tc.TruncateToTokenLimit(long, 50)
	assert.Less(t, len(truncated), len(long))
	assert.True(t, strings.HasSuffix(truncated, "..."))
	assert.LessOrEqual(t, tc.CountTokens(truncated), 60) // rough cut, small overshoot allowed
}

func TestNewSessionIDUnique(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	assert.True(t, strings.HasPrefix(a, "task-"))
	assert.NotEqual(t, a, b)
}

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "a-b-c-d-e", SanitizeIdentifier("a:b c/d\\e"))
	assert.Equal(t, "plain", SanitizeIdentifier("plain"))
}

func TestSafeAssert(t *testing.T) {
	s, ok := SafeAssert[string](any("hello"))
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	n, ok := SafeAssert[int](any("not an int"))
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestGetMapField(t *testing.T) {
	m := map[string]any{"selector": "#buy", "count": 3}

	s, err := GetMapField[string](m, "selector")
	assert.NoError(t, err)
	assert.Equal(t, "#buy", s)

	_, err = GetMapField[string](m, "count")
	assert.Error(t, err)

	_, err = GetMapField[string](m, "missing")
	assert.Error(t, err)

	assert.Equal(t, "fallback", GetMapFieldOr(m, "missing", "fallback"))
	assert.Equal(t, 3, GetMapFieldOr(m, "count", 0))
}
