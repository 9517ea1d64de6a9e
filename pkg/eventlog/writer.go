// Package eventlog persists a per-session transcript of orchestration events
// as JSON lines, for post-run inspection of what the agent did and why.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"browserpilot/pkg/utils"
)

// Record is one logged orchestration event.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Node      string    `json:"node,omitempty"`
	Next      string    `json:"next,omitempty"`
	Message   string    `json:"message,omitempty"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Writer appends records to one transcript file per session.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	path string
}

// NewWriter opens (or creates) the transcript file for a session under dir.
func NewWriter(dir, sessionID string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	path := filepath.Join(dir, utils.SanitizeIdentifier(sessionID)+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}
	return &Writer{file: file, enc: json.NewEncoder(file), path: path}, nil
}

// Write appends one record. The timestamp is filled in when unset.
func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if err := w.enc.Encode(&rec); err != nil {
		return fmt.Errorf("failed to write transcript record: %w", err)
	}
	return nil
}

// Path returns the transcript file path.
func (w *Writer) Path() string { return w.path }

// Close flushes and closes the transcript file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// ReadRecords loads every record from a transcript file, in order.
func ReadRecords(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("malformed transcript line: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return records, nil
}
