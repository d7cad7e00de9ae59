package snapshot

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Value is a sealed interface for the opaque extension data an object type
// attaches at capture and consumes at paste. Only String, Vector, Rotation
// and ObjectRef implement it; the engine round-trips these without
// interpreting them.
type Value interface {
	// Tag is the wire tag written before the value's payload.
	Tag() ValueTag
	value()
}

// ValueTag identifies a Value variant on the wire.
type ValueTag byte

const (
	TagString    ValueTag = 1
	TagVector    ValueTag = 2
	TagRotation  ValueTag = 3
	TagObjectRef ValueTag = 4
)

func (t ValueTag) String() string {
	switch t {
	case TagString:
		return "string"
	case TagVector:
		return "vector"
	case TagRotation:
		return "rotation"
	case TagObjectRef:
		return "object"
	default:
		return fmt.Sprintf("tag(%d)", byte(t))
	}
}

// ParseValueTag maps a tag name from the text encoding back to its tag.
func ParseValueTag(name string) (ValueTag, bool) {
	for _, t := range []ValueTag{TagString, TagVector, TagRotation, TagObjectRef} {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// String is a text extension value.
type String string

func (String) Tag() ValueTag { return TagString }
func (String) value()        {}

// Vector is a 3-component extension value.
type Vector mgl32.Vec3

func (Vector) Tag() ValueTag { return TagVector }
func (Vector) value()        {}

// Rotation is a quaternion extension value.
type Rotation mgl32.Quat

func (Rotation) Tag() ValueTag { return TagRotation }
func (Rotation) value()        {}

// ObjectRef refers to another captured object by snapshot index. At paste
// time the index is resolved through the map handed to the post-paste-all
// hook; the engine never rewrites it.
type ObjectRef int32

func (ObjectRef) Tag() ValueTag { return TagObjectRef }
func (ObjectRef) value()        {}

// CloneValues returns a copy of vals. Values are immutable, so a shallow
// copy of the slice is enough.
func CloneValues(vals []Value) []Value {
	if vals == nil {
		return nil
	}
	out := make([]Value, len(vals))
	copy(out, vals)
	return out
}
