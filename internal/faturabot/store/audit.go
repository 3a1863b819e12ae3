package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ActionEntry is one dispatched billing action as recorded in the audit log.
type ActionEntry struct {
	ID         int64
	Timestamp  time.Time
	SessionID  string
	Intent     string
	ParamsJSON sql.NullString
	StatusCode int
	Result     string
}

// RecordSessionOpen inserts a row for a freshly accepted session.
func (s *Store) RecordSessionOpen(ctx context.Context, sessionID, remoteAddr string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, remote_addr, opened_at) VALUES (?, ?, ?)
	`, sessionID, remoteAddr, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: record session open: %w", err)
	}
	return nil
}

// RecordSessionClose stamps the session's close time.
func (s *Store) RecordSessionClose(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET closed_at = ? WHERE id = ?
	`, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("store: record session close: %w", err)
	}
	return nil
}

// OpenSessionCount returns the number of sessions without a close stamp.
func (s *Store) OpenSessionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE closed_at IS NULL",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count open sessions: %w", err)
	}
	return n, nil
}

// WriteActionLog records one dispatched action and its outcome. params may
// be nil; result is the short outcome label ("ok", "failed", "skipped").
func (s *Store) WriteActionLog(ctx context.Context, sessionID, intent string, params map[string]any, statusCode int, result string) error {
	var paramsJSON sql.NullString
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("store: marshal action params: %w", err)
		}
		paramsJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO action_log (ts, session_id, intent, params_json, status_code, result)
		VALUES (?, ?, ?, ?, ?, ?)
	`, time.Now().UTC(), sessionID, intent, paramsJSON, statusCode, result)
	if err != nil {
		return fmt.Errorf("store: write action log: %w", err)
	}
	return nil
}

// RecentActions returns the newest audit entries, newest first.
func (s *Store) RecentActions(ctx context.Context, limit int) ([]*ActionEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, session_id, intent, params_json, status_code, result
		FROM action_log
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query action log: %w", err)
	}
	defer rows.Close()

	var entries []*ActionEntry
	for rows.Next() {
		entry := &ActionEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.Timestamp, &entry.SessionID, &entry.Intent,
			&entry.ParamsJSON, &entry.StatusCode, &entry.Result,
		); err != nil {
			return nil, fmt.Errorf("store: scan action entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
