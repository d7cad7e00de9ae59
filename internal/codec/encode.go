package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/snapshot"
)

// Magic is the file type marker, "DUPE" when read as little-endian bytes.
const Magic uint32 = 0x45505544

// CurrentVersion is the version byte written by Encode.
const CurrentVersion byte = 0

// Encode serializes s in the current binary format.
//
// Strings are folded to ASCII. Encode fails only on a snapshot it cannot
// represent: a list longer than its format maximum, an unknown constraint
// kind or an extension value of a foreign type.
func Encode(s *snapshot.Snapshot) ([]byte, error) {
	e := &encoder{buf: make([]byte, 0, estimateSize(s))}
	if err := e.snapshot(s); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Encoder writes snapshots to an io.Writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the binary form of s.
func (enc *Encoder) Encode(s *snapshot.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if _, err := enc.w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// estimateSize is a rough pre-allocation hint, not a bound.
func estimateSize(s *snapshot.Snapshot) int {
	return 64 + len(s.Name) + len(s.Author) + len(s.Date) +
		len(s.Objects)*96 + len(s.Constraints)*96
}

type encoder struct {
	buf []byte
}

func (e *encoder) snapshot(s *snapshot.Snapshot) error {
	e.u32(Magic)
	e.u8(CurrentVersion)
	e.str(s.Name)
	e.str(s.Author)
	e.str(s.Date)

	if err := checkCount("objects", len(s.Objects), MaxObjects); err != nil {
		return err
	}
	if err := checkCount("constraints", len(s.Constraints), MaxConstraints); err != nil {
		return err
	}

	e.u32(uint32(len(s.Objects)))
	for i, o := range s.Objects {
		if err := e.object(o); err != nil {
			return fmt.Errorf("encode object %d: %w", i, err)
		}
	}

	e.u32(uint32(len(s.Constraints)))
	for i, c := range s.Constraints {
		if err := e.constraint(c); err != nil {
			return fmt.Errorf("encode constraint %d: %w", i, err)
		}
	}
	return nil
}

func (e *encoder) object(o snapshot.ObjectRecord) error {
	e.i32(o.Index)
	e.str(o.ClassName)
	e.str(o.Model)
	e.vec(o.Position)
	e.quat(o.Rotation)
	e.boolean(o.Frozen)
	if err := checkCount("extension", len(o.Extension), MaxExtension); err != nil {
		return err
	}
	e.u32(uint32(len(o.Extension)))
	for i, v := range o.Extension {
		if err := e.value(v); err != nil {
			return fmt.Errorf("extension %d: %w", i, err)
		}
	}
	return nil
}

// checkCount refuses lists a decoder would clamp, since the clamped stream
// no longer parses.
func checkCount(what string, n, max int) error {
	if n > max {
		return fmt.Errorf("%w: %d %s, limit %d", ErrTooManyRecords, n, what, max)
	}
	return nil
}

func (e *encoder) value(v snapshot.Value) error {
	switch val := v.(type) {
	case snapshot.String:
		e.u8(byte(snapshot.TagString))
		e.str(string(val))
	case snapshot.Vector:
		e.u8(byte(snapshot.TagVector))
		e.vec(mgl32.Vec3(val))
	case snapshot.Rotation:
		e.u8(byte(snapshot.TagRotation))
		e.quat(mgl32.Quat(val))
	case snapshot.ObjectRef:
		e.u8(byte(snapshot.TagObjectRef))
		e.i32(int32(val))
	default:
		return fmt.Errorf("unsupported extension value %T", v)
	}
	return nil
}

func (e *encoder) constraint(c snapshot.ConstraintRecord) error {
	if !c.Kind.Valid() {
		return fmt.Errorf("unknown constraint kind %d", byte(c.Kind))
	}
	e.u8(byte(c.Kind))
	e.i32(c.Object1)
	e.i32(c.Object2)
	e.i32(c.Bone1)
	e.i32(c.Bone2)
	e.transform(c.Anchor1)
	e.transform(c.Anchor2)
	e.boolean(c.CollisionEnabled)
	e.boolean(c.AngularEnabled)
	e.boolean(c.LinearEnabled)

	switch c.Kind {
	case snapshot.KindSpring:
		p := c.Spring()
		e.f32(p.MinLength)
		e.f32(p.MaxLength)
		e.f32(p.Frequency)
		e.f32(p.Damping)
	case snapshot.KindAxis:
		p := c.Axis()
		e.f32(p.MinAngle)
		e.f32(p.MaxAngle)
	case snapshot.KindSlider:
		p := c.Slider()
		e.f32(p.MinLength)
		e.f32(p.MaxLength)
	}
	return nil
}

func (e *encoder) u8(v byte) {
	e.buf = append(e.buf, v)
}

func (e *encoder) u32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *encoder) i32(v int32) {
	e.u32(uint32(v))
}

func (e *encoder) f32(v float32) {
	e.u32(math.Float32bits(v))
}

func (e *encoder) boolean(v bool) {
	if v {
		e.u8(1)
		return
	}
	e.u8(0)
}

func (e *encoder) str(s string) {
	s = snapshot.ASCII(s)
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) vec(v mgl32.Vec3) {
	e.f32(v[0])
	e.f32(v[1])
	e.f32(v[2])
}

func (e *encoder) quat(q mgl32.Quat) {
	e.f32(q.V[0])
	e.f32(q.V[1])
	e.f32(q.V[2])
	e.f32(q.W)
}

func (e *encoder) transform(t geom.Transform) {
	e.vec(t.Position)
	e.quat(t.Rotation)
	e.f32(t.Scale)
}
