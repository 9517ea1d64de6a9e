package state

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Store persists task checkpoints under their session ID. Implementations
// must be safe for concurrent use.
type Store interface {
	// Save checkpoints the task state, replacing any prior checkpoint for
	// the same session.
	Save(st *TaskState) error

	// Load returns the latest checkpoint for the session.
	Load(sessionID string) (*TaskState, error)

	// Delete removes the checkpoint for a finished session.
	Delete(sessionID string) error

	// Sessions lists session IDs with an outstanding checkpoint.
	Sessions() ([]string, error)
}

// ErrNotFound is returned by Load for unknown sessions.
var ErrNotFound = fmt.Errorf("session not found")

// Marshal serializes a task state checkpoint.
func Marshal(st *TaskState) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task state: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes a task state checkpoint.
func Unmarshal(data []byte) (*TaskState, error) {
	var st TaskState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to deserialize task state: %w", err)
	}
	return &st, nil
}

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string][]byte
}

// NewMemoryStore creates an empty in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string][]byte)}
}

// Save implements Store. State is serialized so later mutations of the live
// record cannot leak into the checkpoint.
func (m *MemoryStore) Save(st *TaskState) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("refusing to checkpoint invalid state: %w", err)
	}
	data, err := Marshal(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[st.SessionID] = data
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(sessionID string) (*TaskState, error) {
	m.mu.RLock()
	data, ok := m.tasks[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("load %s: %w", sessionID, ErrNotFound)
	}
	return Unmarshal(data)
}

// Delete implements Store.
func (m *MemoryStore) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, sessionID)
	return nil
}

// Sessions implements Store.
func (m *MemoryStore) Sessions() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	return ids, nil
}
