package session

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator generates session ids.
// Implemented by UUIDv7Generator (production) and testutil.FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session ids, so journal
// sessions listed by id appear in creation order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// clock is the monotonic logical clock stamping journal calls.
// Journal entries are ordered by seq, never by wall time.
type clock struct {
	seq atomic.Int64
}

// next returns the next sequence number, starting at 1.
func (c *clock) next() int64 {
	return c.seq.Add(1)
}
