// Package store provides a SQLite journal of proof sessions.
//
// The journal is append-only:
//   - Sessions: one row per session with its modulus and lifecycle state
//   - Calls: every backend call a session made, with the encoded input,
//     its content hash, and the output or error
//
// # Logical Time
//
// Calls are ordered by a per-session seq INTEGER, never by timestamps.
// All queries order by seq ASC (and id COLLATE BINARY where several
// sessions are involved) so reads are identical across runs.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING: writing the same session or the same
// (session_id, seq) call twice is a no-op.
//
// # Opening
//
// Open creates and migrates a journal for a session to write. OpenReadOnly
// is for inspection: it refuses missing files and journals whose schema
// version is newer than the toolkit's, and never writes.
//
// Input hashes are computed with ir.BlockHash so a call can be matched with
// other calls that received byte-identical term text.
package store
