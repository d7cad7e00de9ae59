// Package codec encodes snapshots to the portable binary format and to a
// human-readable text dump.
//
// # Binary format
//
// All integers and floats are little-endian.
//
//	magic    uint32  0x45505544 ("DUPE")
//	version  uint8   0
//	name, author, date          string
//	object count      uint32, then that many objects
//	constraint count  uint32, then that many constraints
//
//	string     uint32 length + raw ASCII bytes (no terminator)
//	vector     3 × float32
//	rotation   4 × float32 (x, y, z, w)
//	transform  vector + rotation + float32 scale
//	bool       uint8, non-zero is true
//
//	object      int32 index, string class, string model, vector position,
//	            rotation, bool frozen, uint32 extension count, entries
//	entry       uint8 tag (1 string, 2 vector, 3 rotation, 4 object ref
//	            as int32) + payload
//	constraint  uint8 kind, int32 object1, int32 object2, int32 bone1,
//	            int32 bone2, transform anchor1, transform anchor2,
//	            bool collision, bool angular, bool linear, kind tail
//
// Kind tails: spring = min length, max length, frequency, damping; axis =
// min angle, max angle; slider = min length, max length. Other kinds have no
// tail.
//
// # Untrusted input
//
// Decoding clamps every count to a hard maximum (MaxObjects,
// MaxConstraints, MaxExtension) and never allocates for the claimed count.
// Oversized counts are truncated silently. A bad magic, unknown version,
// unknown tag or a stream that ends early fails the whole decode with a
// *FormatError and no partial snapshot. A constraint that references a
// missing object is dropped on its own.
//
// # Compatibility
//
// Version 0 parsing never changes. A new layout gets a new version byte and
// its own decoder next to decodeV0.
package codec
