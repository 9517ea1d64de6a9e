package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		cmd  promptCommand
		task string
	}{
		{"", cmdEmpty, ""},
		{"   ", cmdEmpty, ""},
		{"exit", cmdExit, ""},
		{"QUIT", cmdExit, ""},
		{"help", cmdHelp, ""},
		{"  Help  ", cmdHelp, ""},
		{"find the cheapest flight", cmdTask, "find the cheapest flight"},
		{"  buy the blue widget  ", cmdTask, "buy the blue widget"},
	}

	for _, tt := range tests {
		cmd, task := parseCommand(tt.line)
		assert.Equal(t, tt.cmd, cmd, "line %q", tt.line)
		assert.Equal(t, tt.task, task, "line %q", tt.line)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, "y", normalizeAnswer("y"))
	assert.Equal(t, "y", normalizeAnswer(" Yes "))
	assert.Equal(t, "n", normalizeAnswer("n"))
	assert.Equal(t, "n", normalizeAnswer("maybe"))
	assert.Equal(t, "n", normalizeAnswer(""))
}
