package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs the
// schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open request db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate request db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS requests (
			id            TEXT PRIMARY KEY,
			session_id    TEXT NOT NULL,
			status        TEXT NOT NULL,
			error_message TEXT NOT NULL DEFAULT '',
			payload       TEXT NOT NULL DEFAULT '{}',
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS transitions (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state   TEXT NOT NULL,
			agent_id   TEXT NOT NULL,
			ts         TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_transitions_request ON transitions(request_id);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// InsertRequest persists a new request with status "pending".
func (s *SQLiteStore) InsertRequest(ctx context.Context, sessionID string, payload map[string]any) (string, error) {
	id := NewRequestID()
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request payload: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO requests (id, session_id, status, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, sessionID, "pending", string(payloadJSON), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert request: %w", err)
	}
	return id, nil
}

// RecordTransition appends one workflow transition row.
func (s *SQLiteStore) RecordTransition(ctx context.Context, t Transition) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transitions (request_id, from_state, to_state, agent_id, ts) VALUES (?, ?, ?, ?, ?)",
		t.RequestID, t.FromState, t.ToState, t.AgentID, t.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// UpdateRequestStatus sets the request status and error message.
func (s *SQLiteStore) UpdateRequestStatus(ctx context.Context, requestID, status, errorMessage string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		"UPDATE requests SET status = ?, error_message = ?, updated_at = ? WHERE id = ?",
		status, errorMessage, now, requestID,
	)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update request %s: %w", requestID, ErrRequestNotFound)
	}
	return nil
}

// GetRequest returns the request record or ErrRequestNotFound.
func (s *SQLiteStore) GetRequest(ctx context.Context, requestID string) (*Request, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, session_id, status, error_message, payload, created_at, updated_at FROM requests WHERE id = ?",
		requestID,
	)
	var r Request
	var payloadJSON, createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.SessionID, &r.Status, &r.ErrorMessage, &payloadJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get request %s: %w", requestID, ErrRequestNotFound)
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	if err := json.Unmarshal([]byte(payloadJSON), &r.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal request payload: %w", err)
	}
	var err error
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &r, nil
}

// ListTransitions returns the transitions for a request in insertion order.
func (s *SQLiteStore) ListTransitions(ctx context.Context, requestID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT request_id, from_state, to_state, agent_id, ts FROM transitions WHERE request_id = ? ORDER BY seq",
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var ts string
		if err := rows.Scan(&t.RequestID, &t.FromState, &t.ToState, &t.AgentID, &ts); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		if t.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("parse transition timestamp: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
