// Package store provides SQLite-backed storage for saved snapshots.
//
// Each row holds one snapshot in its binary wire form together with the
// metadata a listing needs, so List never decodes blobs.
//
// # Critical Patterns
//
// Content-addressed idempotency
//   - UNIQUE(owner, fingerprint) constraint
//   - Saving the same bytes twice for one owner returns the first row's id
//
// Logical ordering
//   - All listings use ORDER BY seq ASC, id ASC COLLATE BINARY
//   - seq is assigned by the store, never derived from wall time
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Fingerprints come from codec.Fingerprint (SHA-256 with domain separation).
package store
