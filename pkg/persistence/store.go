// Package persistence provides the SQLite-backed checkpoint store.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"browserpilot/pkg/logx"
	"browserpilot/pkg/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	session_id  TEXT PRIMARY KEY,
	state       TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// SQLiteStore persists task checkpoints in a SQLite database. One row per
// session; Save overwrites the previous checkpoint.
type SQLiteStore struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open creates (or opens) the checkpoint database at dbPath.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("persistence")
	logger.Info("checkpoint database initialized: %s", dbPath)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save implements state.Store.
func (s *SQLiteStore) Save(st *state.TaskState) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("refusing to checkpoint invalid state: %w", err)
	}
	data, err := state.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO checkpoints (session_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		st.SessionID, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint %s: %w", st.SessionID, err)
	}
	return nil
}

// Load implements state.Store.
func (s *SQLiteStore) Load(sessionID string) (*state.TaskState, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT state FROM checkpoints WHERE session_id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", sessionID, state.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %s: %w", sessionID, err)
	}
	return state.Unmarshal([]byte(data))
}

// Delete implements state.Store.
func (s *SQLiteStore) Delete(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM checkpoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete checkpoint %s: %w", sessionID, err)
	}
	return nil
}

// Sessions implements state.Store.
func (s *SQLiteStore) Sessions() ([]string, error) {
	rows, err := s.db.Query(`SELECT session_id FROM checkpoints ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
