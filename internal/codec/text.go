package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/snapshot"
)

// TextFormat identifies the text dump.
const TextFormat = "dupe-text"

// The text dump carries the same logical fields as the binary format. It is
// meant for inspection and tooling and makes no compatibility promise with
// the binary layout.
type textDoc struct {
	Format      string           `json:"format"`
	Name        string           `json:"name"`
	Author      string           `json:"author"`
	Date        string           `json:"date"`
	Objects     []textObject     `json:"objects"`
	Constraints []textConstraint `json:"constraints"`
}

type textObject struct {
	Index     int32       `json:"index"`
	Class     string      `json:"class"`
	Model     string      `json:"model"`
	Position  [3]float32  `json:"position"`
	Rotation  [4]float32  `json:"rotation"`
	Frozen    bool        `json:"frozen"`
	Extension []textValue `json:"extension,omitempty"`
}

type textValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type textTransform struct {
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"`
	Scale    float32    `json:"scale"`
}

type textConstraint struct {
	Kind      string        `json:"kind"`
	Object1   int32         `json:"object1"`
	Object2   int32         `json:"object2"`
	Bone1     int32         `json:"bone1"`
	Bone2     int32         `json:"bone2"`
	Anchor1   textTransform `json:"anchor1"`
	Anchor2   textTransform `json:"anchor2"`
	Collision bool          `json:"collision"`
	Angular   bool          `json:"angular"`
	Linear    bool          `json:"linear"`

	Spring *snapshot.SpringParams `json:"spring,omitempty"`
	Axis   *snapshot.AxisParams   `json:"axis,omitempty"`
	Slider *snapshot.SliderParams `json:"slider,omitempty"`
}

func vec3(v mgl32.Vec3) [3]float32 { return [3]float32(v) }

func quat4(q mgl32.Quat) [4]float32 { return [4]float32{q.V[0], q.V[1], q.V[2], q.W} }

func fromQuat4(f [4]float32) mgl32.Quat {
	return mgl32.Quat{W: f[3], V: mgl32.Vec3{f[0], f[1], f[2]}}
}

// EncodeText renders s as indented JSON.
func EncodeText(s *snapshot.Snapshot) ([]byte, error) {
	doc := textDoc{
		Format:      TextFormat,
		Name:        s.Name,
		Author:      s.Author,
		Date:        s.Date,
		Objects:     make([]textObject, 0, len(s.Objects)),
		Constraints: make([]textConstraint, 0, len(s.Constraints)),
	}

	for i, o := range s.Objects {
		to := textObject{
			Index:    o.Index,
			Class:    o.ClassName,
			Model:    o.Model,
			Position: vec3(o.Position),
			Rotation: quat4(o.Rotation),
			Frozen:   o.Frozen,
		}
		for j, v := range o.Extension {
			tv, err := toTextValue(v)
			if err != nil {
				return nil, fmt.Errorf("object %d extension %d: %w", i, j, err)
			}
			to.Extension = append(to.Extension, tv)
		}
		doc.Objects = append(doc.Objects, to)
	}

	for i, c := range s.Constraints {
		if !c.Kind.Valid() {
			return nil, fmt.Errorf("constraint %d: unknown kind %d", i, byte(c.Kind))
		}
		tc := textConstraint{
			Kind:      c.Kind.String(),
			Object1:   c.Object1,
			Object2:   c.Object2,
			Bone1:     c.Bone1,
			Bone2:     c.Bone2,
			Anchor1:   toTextTransform(c.Anchor1),
			Anchor2:   toTextTransform(c.Anchor2),
			Collision: c.CollisionEnabled,
			Angular:   c.AngularEnabled,
			Linear:    c.LinearEnabled,
		}
		switch c.Kind {
		case snapshot.KindSpring:
			p := c.Spring()
			tc.Spring = &p
		case snapshot.KindAxis:
			p := c.Axis()
			tc.Axis = &p
		case snapshot.KindSlider:
			p := c.Slider()
			tc.Slider = &p
		}
		doc.Constraints = append(doc.Constraints, tc)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode text: %w", err)
	}
	return buf.Bytes(), nil
}

func toTextTransform(t geom.Transform) textTransform {
	return textTransform{Position: vec3(t.Position), Rotation: quat4(t.Rotation), Scale: t.Scale}
}

func fromTextTransform(t textTransform) geom.Transform {
	return geom.Transform{Position: mgl32.Vec3(t.Position), Rotation: fromQuat4(t.Rotation), Scale: t.Scale}
}

func toTextValue(v snapshot.Value) (textValue, error) {
	var payload any
	switch val := v.(type) {
	case snapshot.String:
		payload = string(val)
	case snapshot.Vector:
		payload = [3]float32(val)
	case snapshot.Rotation:
		payload = quat4(mgl32.Quat(val))
	case snapshot.ObjectRef:
		payload = int32(val)
	default:
		return textValue{}, fmt.Errorf("unsupported extension value %T", v)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return textValue{}, err
	}
	return textValue{Type: v.Tag().String(), Value: raw}, nil
}

func fromTextValue(tv textValue) (snapshot.Value, error) {
	tag, ok := snapshot.ParseValueTag(tv.Type)
	if !ok {
		return nil, fmt.Errorf("unknown value type %q", tv.Type)
	}
	switch tag {
	case snapshot.TagString:
		var s string
		err := json.Unmarshal(tv.Value, &s)
		return snapshot.String(s), err
	case snapshot.TagVector:
		var f [3]float32
		err := json.Unmarshal(tv.Value, &f)
		return snapshot.Vector(f), err
	case snapshot.TagRotation:
		var f [4]float32
		err := json.Unmarshal(tv.Value, &f)
		return snapshot.Rotation(fromQuat4(f)), err
	default:
		var id int32
		err := json.Unmarshal(tv.Value, &id)
		return snapshot.ObjectRef(id), err
	}
}

// IsText reports whether data looks like a text dump rather than a binary
// file. Binary files start with the magic, never with '{'.
func IsText(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// DecodeText parses the output of EncodeText. The decode caps apply as in
// Decode: oversized lists are truncated, and constraints with dangling
// references are dropped.
func DecodeText(data []byte, opts ...Option) (*snapshot.Snapshot, error) {
	return NewDecoder(bytes.NewReader(data), opts...).DecodeText()
}

// DecodeText reads one text snapshot from the stream.
func (d *Decoder) DecodeText() (*snapshot.Snapshot, error) {
	d.dropped = nil

	dec := json.NewDecoder(d.r)
	dec.DisallowUnknownFields()

	var doc textDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, &FormatError{Code: ErrCodeBadText, Message: "malformed text snapshot", Offset: dec.InputOffset(), Err: err}
	}
	if doc.Format != TextFormat {
		return nil, &FormatError{Code: ErrCodeBadMagic, Message: fmt.Sprintf("format %q is not %q", doc.Format, TextFormat)}
	}

	doc.Objects = truncate(d, doc.Objects, d.limits.Objects, "objects")
	doc.Constraints = truncate(d, doc.Constraints, d.limits.Constraints, "constraints")

	s := &snapshot.Snapshot{Name: doc.Name, Author: doc.Author, Date: doc.Date}
	for i, to := range doc.Objects {
		o := snapshot.ObjectRecord{
			Index:     to.Index,
			ClassName: to.Class,
			Model:     to.Model,
			Position:  mgl32.Vec3(to.Position),
			Rotation:  fromQuat4(to.Rotation),
			Frozen:    to.Frozen,
		}
		for j, tv := range truncate(d, to.Extension, d.limits.Extension, "extension") {
			v, err := fromTextValue(tv)
			if err != nil {
				return nil, &FormatError{Code: ErrCodeBadText, Message: fmt.Sprintf("object %d extension %d", i, j), Err: err}
			}
			o.Extension = append(o.Extension, v)
		}
		s.Objects = append(s.Objects, o)
	}

	for i, tc := range doc.Constraints {
		kind, ok := snapshot.ParseKind(tc.Kind)
		if !ok {
			return nil, &FormatError{Code: ErrCodeBadKind, Message: fmt.Sprintf("constraint %d: unknown kind %q", i, tc.Kind)}
		}
		c := snapshot.ConstraintRecord{
			Kind:             kind,
			Object1:          tc.Object1,
			Object2:          tc.Object2,
			Bone1:            tc.Bone1,
			Bone2:            tc.Bone2,
			Anchor1:          fromTextTransform(tc.Anchor1),
			Anchor2:          fromTextTransform(tc.Anchor2),
			CollisionEnabled: tc.Collision,
			AngularEnabled:   tc.Angular,
			LinearEnabled:    tc.Linear,
			Params:           snapshot.ZeroParams(kind),
		}
		switch {
		case kind == snapshot.KindSpring && tc.Spring != nil:
			c.Params = *tc.Spring
		case kind == snapshot.KindAxis && tc.Axis != nil:
			c.Params = *tc.Axis
		case kind == snapshot.KindSlider && tc.Slider != nil:
			c.Params = *tc.Slider
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

// truncate cuts a decoded list to max entries, as count does for binary
// streams.
func truncate[T any](d *Decoder, list []T, max int, what string) []T {
	if len(list) <= max {
		return list
	}
	d.log.Warn("clamping oversized count", "field", what, "claimed", len(list), "max", max)
	return list[:max]
}
