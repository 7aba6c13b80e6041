package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// writeTestSession writes an active session with fixed metadata.
func writeTestSession(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.WriteSession(context.Background(), Session{
		ID:             id,
		Modulus:        "97",
		ToolkitVersion: "0.1.0",
		TermFormat:     "1",
	})
	if err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
}

// createTestCall creates a call with minimal required fields.
func createTestCall(sessionID string, seq int64, op Op) Call {
	return Call{
		SessionID: sessionID,
		Seq:       seq,
		Op:        op,
	}
}
