package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/snapshot"
)

// Hard caps applied to every count read from an untrusted stream.
const (
	MaxObjects     = 2048
	MaxConstraints = 2048
	MaxExtension   = 1024

	// MaxStringLen bounds a single string. Longer strings fail the decode.
	MaxStringLen = 1 << 20
)

// Limits lowers the decode caps. Zero fields use the hard maximum, and
// values above the hard maximum are clamped to it.
type Limits struct {
	Objects     int
	Constraints int
	Extension   int
}

// DefaultLimits returns the hard caps.
func DefaultLimits() Limits {
	return Limits{Objects: MaxObjects, Constraints: MaxConstraints, Extension: MaxExtension}
}

func (l Limits) clamp() Limits {
	fix := func(v, max int) int {
		if v <= 0 || v > max {
			return max
		}
		return v
	}
	return Limits{
		Objects:     fix(l.Objects, MaxObjects),
		Constraints: fix(l.Constraints, MaxConstraints),
		Extension:   fix(l.Extension, MaxExtension),
	}
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLimits lowers the decode caps.
func WithLimits(l Limits) Option {
	return func(d *Decoder) {
		d.limits = l.clamp()
	}
}

// WithLogger sets the logger used for dropped records.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		d.log = l
	}
}

// Decoder reads one snapshot from a stream.
type Decoder struct {
	r       io.Reader
	off     int64
	scratch [16]byte
	limits  Limits
	log     *slog.Logger
	dropped []error
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		r:      r,
		limits: DefaultLimits(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses data as a binary snapshot.
func Decode(data []byte, opts ...Option) (*snapshot.Snapshot, error) {
	return NewDecoder(bytes.NewReader(data), opts...).Decode()
}

// Decode reads the header and dispatches to the decoder for its version.
func (d *Decoder) Decode() (*snapshot.Snapshot, error) {
	d.dropped = nil

	magic, err := d.u32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, &FormatError{
			Code:    ErrCodeBadMagic,
			Message: "not a duplicator file",
			Offset:  0,
		}
	}

	version, err := d.u8()
	if err != nil {
		return nil, err
	}
	switch version {
	case 0:
		return d.decodeV0()
	default:
		return nil, &FormatError{
			Code:    ErrCodeUnknownVersion,
			Message: fmt.Sprintf("unsupported format version %d", version),
			Offset:  d.off - 1,
		}
	}
}

// Dropped returns the RecordErrors for constraints removed by the last
// Decode because an endpoint was missing.
func (d *Decoder) Dropped() []error {
	return d.dropped
}

func (d *Decoder) decodeV0() (*snapshot.Snapshot, error) {
	s := &snapshot.Snapshot{}
	var err error
	if s.Name, err = d.str(); err != nil {
		return nil, err
	}
	if s.Author, err = d.str(); err != nil {
		return nil, err
	}
	if s.Date, err = d.str(); err != nil {
		return nil, err
	}

	n, err := d.count(d.limits.Objects, "objects")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.Objects = make([]snapshot.ObjectRecord, 0, n)
	}
	for i := 0; i < n; i++ {
		o, err := d.object()
		if err != nil {
			return nil, err
		}
		s.Objects = append(s.Objects, o)
	}

	n, err = d.count(d.limits.Constraints, "constraints")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.Constraints = make([]snapshot.ConstraintRecord, 0, n)
	}
	for i := 0; i < n; i++ {
		c, err := d.constraint()
		if err != nil {
			return nil, err
		}
		s.Constraints = append(s.Constraints, c)
	}

	pruned, dropped := s.Prune()
	for _, e := range dropped {
		d.log.Warn("dropping constraint with dangling reference", "error", e)
	}
	d.dropped = dropped
	return pruned, nil
}

// count reads a uint32 count and clamps it to max. The claimed value is
// never used for allocation.
func (d *Decoder) count(max int, what string) (int, error) {
	claimed, err := d.u32()
	if err != nil {
		return 0, err
	}
	if uint64(claimed) > uint64(max) {
		d.log.Warn("clamping oversized count", "field", what, "claimed", claimed, "max", max)
		return max, nil
	}
	return int(claimed), nil
}

func (d *Decoder) object() (snapshot.ObjectRecord, error) {
	var o snapshot.ObjectRecord
	var err error
	if o.Index, err = d.i32(); err != nil {
		return o, err
	}
	if o.ClassName, err = d.str(); err != nil {
		return o, err
	}
	if o.Model, err = d.str(); err != nil {
		return o, err
	}
	if o.Position, err = d.vec(); err != nil {
		return o, err
	}
	if o.Rotation, err = d.quat(); err != nil {
		return o, err
	}
	if o.Frozen, err = d.boolean(); err != nil {
		return o, err
	}

	n, err := d.count(d.limits.Extension, "extension")
	if err != nil {
		return o, err
	}
	if n > 0 {
		o.Extension = make([]snapshot.Value, 0, n)
	}
	for i := 0; i < n; i++ {
		v, err := d.value()
		if err != nil {
			return o, err
		}
		o.Extension = append(o.Extension, v)
	}
	return o, nil
}

func (d *Decoder) value() (snapshot.Value, error) {
	tag, err := d.u8()
	if err != nil {
		return nil, err
	}
	switch snapshot.ValueTag(tag) {
	case snapshot.TagString:
		s, err := d.str()
		return snapshot.String(s), err
	case snapshot.TagVector:
		v, err := d.vec()
		return snapshot.Vector(v), err
	case snapshot.TagRotation:
		q, err := d.quat()
		return snapshot.Rotation(q), err
	case snapshot.TagObjectRef:
		id, err := d.i32()
		return snapshot.ObjectRef(id), err
	default:
		return nil, &FormatError{
			Code:    ErrCodeBadValueTag,
			Message: fmt.Sprintf("invalid extension value tag %d", tag),
			Offset:  d.off - 1,
		}
	}
}

func (d *Decoder) constraint() (snapshot.ConstraintRecord, error) {
	var c snapshot.ConstraintRecord
	tag, err := d.u8()
	if err != nil {
		return c, err
	}
	c.Kind = snapshot.Kind(tag)
	if !c.Kind.Valid() {
		return c, &FormatError{
			Code:    ErrCodeBadKind,
			Message: fmt.Sprintf("invalid constraint kind %d", tag),
			Offset:  d.off - 1,
		}
	}

	for _, dst := range []*int32{&c.Object1, &c.Object2, &c.Bone1, &c.Bone2} {
		if *dst, err = d.i32(); err != nil {
			return c, err
		}
	}
	if c.Anchor1, err = d.transform(); err != nil {
		return c, err
	}
	if c.Anchor2, err = d.transform(); err != nil {
		return c, err
	}
	for _, dst := range []*bool{&c.CollisionEnabled, &c.AngularEnabled, &c.LinearEnabled} {
		if *dst, err = d.boolean(); err != nil {
			return c, err
		}
	}

	switch c.Kind {
	case snapshot.KindSpring:
		f, err := d.floats(4)
		if err != nil {
			return c, err
		}
		c.Params = snapshot.SpringParams{MinLength: f[0], MaxLength: f[1], Frequency: f[2], Damping: f[3]}
	case snapshot.KindAxis:
		f, err := d.floats(2)
		if err != nil {
			return c, err
		}
		c.Params = snapshot.AxisParams{MinAngle: f[0], MaxAngle: f[1]}
	case snapshot.KindSlider:
		f, err := d.floats(2)
		if err != nil {
			return c, err
		}
		c.Params = snapshot.SliderParams{MinLength: f[0], MaxLength: f[1]}
	}
	return c, nil
}

// read fills the first n bytes of the scratch buffer.
func (d *Decoder) read(n int) ([]byte, error) {
	b := d.scratch[:n]
	got, err := io.ReadFull(d.r, b)
	d.off += int64(got)
	if err != nil {
		return nil, d.truncated(err)
	}
	return b, nil
}

func (d *Decoder) truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FormatError{Code: ErrCodeTruncated, Message: "unexpected end of stream", Offset: d.off}
	}
	return &FormatError{Code: ErrCodeTruncated, Message: "read failed", Offset: d.off, Err: err}
}

func (d *Decoder) u8() (byte, error) {
	b, err := d.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) u32() (uint32, error) {
	b, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) i32() (int32, error) {
	v, err := d.u32()
	return int32(v), err
}

func (d *Decoder) f32() (float32, error) {
	v, err := d.u32()
	return math.Float32frombits(v), err
}

func (d *Decoder) floats(n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		f, err := d.f32()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func (d *Decoder) boolean() (bool, error) {
	b, err := d.u8()
	return b != 0, err
}

// str reads a length-prefixed string without trusting the length for
// allocation: bytes are copied through a LimitReader, so a short stream
// fails as truncated instead of allocating the claimed size.
func (d *Decoder) str() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if n > MaxStringLen {
		return "", &FormatError{
			Code:    ErrCodeStringTooLong,
			Message: fmt.Sprintf("string length %d exceeds limit", n),
			Offset:  d.off - 4,
		}
	}
	var buf bytes.Buffer
	got, err := io.Copy(&buf, io.LimitReader(d.r, int64(n)))
	d.off += got
	if err != nil {
		return "", d.truncated(err)
	}
	if got != int64(n) {
		return "", d.truncated(io.ErrUnexpectedEOF)
	}
	return buf.String(), nil
}

func (d *Decoder) vec() (mgl32.Vec3, error) {
	f, err := d.floats(3)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{f[0], f[1], f[2]}, nil
}

func (d *Decoder) quat() (mgl32.Quat, error) {
	f, err := d.floats(4)
	if err != nil {
		return mgl32.Quat{}, err
	}
	return mgl32.Quat{W: f[3], V: mgl32.Vec3{f[0], f[1], f[2]}}, nil
}

func (d *Decoder) transform() (geom.Transform, error) {
	var t geom.Transform
	var err error
	if t.Position, err = d.vec(); err != nil {
		return t, err
	}
	if t.Rotation, err = d.quat(); err != nil {
		return t, err
	}
	if t.Scale, err = d.f32(); err != nil {
		return t, err
	}
	return t, nil
}
