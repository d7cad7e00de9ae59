// Package snapshot defines the engine-independent model of a captured
// contraption.
//
// This package contains types only. Capture, the codec and replay all
// import snapshot; snapshot imports nothing internal except geom. This keeps
// the model the foundational layer with no circular dependencies.
//
// Key constraints:
//   - Object indices are only meaningful within one snapshot; constraints
//     reference objects by index, never by live handle.
//   - Poses are relative to the capture origin, anchors are relative to
//     their endpoint object. Nothing here is in world space.
//   - A Snapshot is never mutated after capture. Prune and Clone return
//     new values.
//   - Strings are ASCII on the wire; see ASCII.
package snapshot
