// Package geom provides the rigid transform math used by capture and replay.
//
// Poses are mgl32 vectors and quaternions. A Transform is position + rotation
// + uniform scale; the same shape is written to the wire for constraint
// anchors. Captured poses are stored relative to a capture origin and
// resolved against a destination origin at replay time, so every conversion
// in the module goes through ToLocal / ToWorld here.
package geom
