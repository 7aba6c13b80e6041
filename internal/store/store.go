package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions, stored in PRAGMA user_version:
//
//	0 - initial sessions and calls tables
//	1 - index on calls.input_hash for lookups across sessions
//	2 - index on sessions.state for open-session listing
const currentSchemaVersion = 2

var (
	// ErrJournalNotFound is returned by OpenReadOnly for a missing file.
	ErrJournalNotFound = errors.New("journal not found")

	// ErrSchemaTooNew is returned when a journal was written by a newer
	// toolkit than this one.
	ErrSchemaTooNew = errors.New("journal schema is newer than this toolkit")
)

// Store is the session journal.
type Store struct {
	db       *sql.DB
	readOnly bool
}

// Open creates or opens the journal at path and migrates it to the current
// schema. Connection settings are passed in the DSN so every pooled
// connection gets them:
//   - WAL journal, so history can read while a session writes
//   - synchronous=NORMAL
//   - 5 second busy timeout
//   - foreign keys on; calls must reference a session
func Open(path string) (*Store, error) {
	s, err := open(dsn(path, url.Values{
		"_journal_mode": {"WAL"},
		"_synchronous":  {"NORMAL"},
	}))
	if err != nil {
		return nil, err
	}
	if err := applySchema(s.db); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return s, nil
}

// OpenReadOnly opens an existing journal for reading. Unlike Open it
// neither creates the file nor migrates it.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrJournalNotFound, path)
	}
	s, err := open(dsn(path, url.Values{"mode": {"ro"}}))
	if err != nil {
		return nil, err
	}
	s.readOnly = true

	version, err := schemaVersion(s.db)
	if err != nil {
		s.db.Close()
		return nil, err
	}
	if version > currentSchemaVersion {
		s.db.Close()
		return nil, fmt.Errorf("%w: v%d > v%d", ErrSchemaTooNew, version, currentSchemaVersion)
	}
	return s, nil
}

func dsn(path string, params url.Values) string {
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	return "file:" + path + "?" + params.Encode()
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One session writes at a time; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Store{db: db}, nil
}

// ReadOnly reports whether the store was opened with OpenReadOnly.
func (s *Store) ReadOnly() bool { return s.readOnly }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applySchema creates the tables if needed and runs pending migrations.
func applySchema(db *sql.DB) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("%w: v%d > v%d", ErrSchemaTooNew, version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	migrations := []struct {
		version int
		stmt    string
	}{
		{1, `CREATE INDEX IF NOT EXISTS idx_calls_input_hash ON calls(input_hash, session_id, seq)`},
		{2, `CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state, id)`},
	}
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
