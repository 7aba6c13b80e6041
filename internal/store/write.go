package store

import (
	"context"
	"errors"
	"fmt"
)

// Op is the kind of backend call a journal entry records.
type Op string

const (
	OpInit    Op = "init"
	OpCompile Op = "compile"
	OpProve   Op = "prove"
	OpVerify  Op = "verify"
	OpCleanup Op = "cleanup"
)

// Session states.
const (
	StateActive = "active"
	StateClosed = "closed"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// Session is one journal session row.
type Session struct {
	ID             string `json:"id"`
	Modulus        string `json:"modulus"`
	State          string `json:"state"`
	ToolkitVersion string `json:"toolkit_version"`
	TermFormat     string `json:"term_format"`
}

// Call is one backend call made within a session.
// Input is the compile source or the encoded term block; InputHash is its
// domain-separated content hash.
type Call struct {
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
	Op        Op     `json:"op"`
	Function  string `json:"function,omitempty"`
	InputHash string `json:"input_hash,omitempty"`
	Input     string `json:"input,omitempty"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// WriteSession inserts a session record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency. A new session is always
// written as active regardless of sess.State.
func (s *Store) WriteSession(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, modulus, state, toolkit_version, term_format)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Modulus,
		StateActive,
		sess.ToolkitVersion,
		sess.TermFormat,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// CloseSession marks a session closed. Closing a closed session is a no-op.
func (s *Store) CloseSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET state = ? WHERE id = ?`, StateClosed, id)
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("close session %s: %w", id, ErrNotFound)
	}
	return nil
}

// WriteCall inserts a call record.
// Uses ON CONFLICT DO NOTHING: a second call with the same (session_id, seq)
// is silently ignored.
//
// Note: The session referenced by SessionID must exist (foreign key constraint).
func (s *Store) WriteCall(ctx context.Context, c Call) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calls
		(session_id, seq, op, function, input_hash, input, output, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		c.SessionID,
		c.Seq,
		string(c.Op),
		c.Function,
		c.InputHash,
		c.Input,
		c.Output,
		c.Error,
	)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}
	return nil
}
