// Package store provides the SQLite-backed build ledger for hpp.
//
// The ledger is an append-only record of assembly runs:
//   - Runs: one row per run, successful or failed, keyed by a UUIDv7 run ID
//   - Loads: the files each run actually read, in read order, with their
//     depth, size and SHA-256 digest
//
// Failed runs are recorded with their error code so that a history query
// shows why nothing was written.
//
// # Ordering
//
// All queries order by the seq column (insertion order), never by
// wall-clock time.
//
// # Ledger File
//
// Open creates the tables on first use and stamps PRAGMA user_version.
// A ledger stamped by a newer build is refused with ErrNewerLedger.
// Connections run in WAL mode with a 5 second busy timeout and foreign
// keys enforced, so a load row cannot name a missing run.
package store
