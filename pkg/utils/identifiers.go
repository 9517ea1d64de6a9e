package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewSessionID generates a unique identifier for a task run.
// A fresh UUID per invocation avoids checkpoint-key collisions when the same
// request text is submitted twice.
func NewSessionID() string {
	return fmt.Sprintf("task-%s", uuid.New().String())
}

// SanitizeIdentifier makes an identifier safe for filesystem paths and metric labels.
func SanitizeIdentifier(id string) string {
	sanitized := strings.ReplaceAll(id, ":", "-")
	sanitized = strings.ReplaceAll(sanitized, " ", "-")
	sanitized = strings.ReplaceAll(sanitized, "/", "-")
	sanitized = strings.ReplaceAll(sanitized, "\\", "-")
	return sanitized
}
