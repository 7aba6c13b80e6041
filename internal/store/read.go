package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadSession returns the session with the given id or ErrNotFound.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, modulus, state, toolkit_version, term_format
		FROM sessions
		WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Modulus, &sess.State, &sess.ToolkitVersion, &sess.TermFormat)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by id.
// Session ids are UUIDv7, so this is creation order.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	return s.querySessions(ctx, `
		SELECT id, modulus, state, toolkit_version, term_format
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
}

// FindOpenSessions returns sessions that were never closed, typically
// because the process died before cleanup.
func (s *Store) FindOpenSessions(ctx context.Context) ([]Session, error) {
	return s.querySessions(ctx, `
		SELECT id, modulus, state, toolkit_version, term_format
		FROM sessions
		WHERE state = ?
		ORDER BY id COLLATE BINARY ASC
	`, StateActive)
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Modulus, &sess.State, &sess.ToolkitVersion, &sess.TermFormat); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadCalls returns all calls of a session ordered by seq.
//
// Returns an empty slice (not nil) if the session made no calls.
func (s *Store) ReadCalls(ctx context.Context, sessionID string) ([]Call, error) {
	return s.queryCalls(ctx, `
		SELECT session_id, seq, op, function, input_hash, input, output, error
		FROM calls
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
}

// FindCallsByInputHash returns every call, across sessions, that received
// input with the given hash.
func (s *Store) FindCallsByInputHash(ctx context.Context, hash string) ([]Call, error) {
	return s.queryCalls(ctx, `
		SELECT session_id, seq, op, function, input_hash, input, output, error
		FROM calls
		WHERE input_hash = ?
		ORDER BY session_id COLLATE BINARY ASC, seq ASC
	`, hash)
}

func (s *Store) queryCalls(ctx context.Context, query string, args ...any) ([]Call, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		var c Call
		var op string
		if err := rows.Scan(&c.SessionID, &c.Seq, &op, &c.Function, &c.InputHash, &c.Input, &c.Output, &c.Error); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		c.Op = Op(op)
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// GetLastSeq returns the highest seq recorded for a session, or 0 if the
// session has no calls.
func (s *Store) GetLastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM calls WHERE session_id = ?`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return seq.Int64, nil
}
