// Package capture turns live objects into a snapshot.
//
// FindAttached flood-fills the attachment graph from a seed object;
// FindInBox selects by area instead. Capture then converts a selection into
// origin-relative records, keeping only object types that take part in
// duplication, and classifies each joint into a snapshot kind.
package capture
