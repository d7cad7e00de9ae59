package snapshot

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/geom"
)

// ObjectRecord is one captured object.
type ObjectRecord struct {
	// Index cross-references constraints within this snapshot. It is taken
	// from the live object's runtime id at capture time.
	Index int32

	// ClassName is the concrete type instantiated on paste.
	ClassName string

	// Model is the model reference, empty when the object is not model-backed.
	Model string

	// Position and Rotation are relative to the capture origin.
	Position mgl32.Vec3
	Rotation mgl32.Quat

	// Frozen records whether the primary body was not dynamic at capture.
	Frozen bool

	// Extension is the object's own payload from its pre-capture hook.
	Extension []Value
}

// Pose returns the record's origin-relative transform.
func (r ObjectRecord) Pose() geom.Transform {
	return geom.New(r.Position, r.Rotation)
}

// Kind classifies a constraint. The numeric values are the wire tags.
type Kind byte

const (
	KindWeld Kind = iota
	KindNoCollide
	KindSpring
	KindRope
	KindAxis
	KindBallSocket
	KindSlider
)

var kindNames = [...]string{
	KindWeld:       "weld",
	KindNoCollide:  "nocollide",
	KindSpring:     "spring",
	KindRope:       "rope",
	KindAxis:       "axis",
	KindBallSocket: "ballsocket",
	KindSlider:     "slider",
}

// Kinds lists every known kind in tag order.
func Kinds() []Kind {
	return []Kind{KindWeld, KindNoCollide, KindSpring, KindRope, KindAxis, KindBallSocket, KindSlider}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return int(k) < len(kindNames)
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", byte(k))
	}
	return kindNames[k]
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// HasRope reports whether paste creates a cosmetic rope alongside joints of
// this kind.
func (k Kind) HasRope() bool {
	return k == KindSpring || k == KindRope || k == KindSlider
}

// Params is a sealed interface for the kind-specific constraint tail.
// Spring, Axis and Slider carry one; every other kind has nil Params.
type Params interface {
	params()
}

// SpringParams is the tail of a Spring constraint.
type SpringParams struct {
	MinLength float32 `json:"min_length"`
	MaxLength float32 `json:"max_length"`
	Frequency float32 `json:"frequency"`
	Damping   float32 `json:"damping"`
}

func (SpringParams) params() {}

// AxisParams is the tail of an Axis (hinge) constraint, angles in degrees.
type AxisParams struct {
	MinAngle float32 `json:"min_angle"`
	MaxAngle float32 `json:"max_angle"`
}

func (AxisParams) params() {}

// SliderParams is the tail of a Slider constraint.
type SliderParams struct {
	MinLength float32 `json:"min_length"`
	MaxLength float32 `json:"max_length"`
}

func (SliderParams) params() {}

// ZeroParams returns the zero tail for k, or nil when k carries none.
func ZeroParams(k Kind) Params {
	switch k {
	case KindSpring:
		return SpringParams{}
	case KindAxis:
		return AxisParams{}
	case KindSlider:
		return SliderParams{}
	default:
		return nil
	}
}

// ConstraintRecord is one captured joint between two objects.
type ConstraintRecord struct {
	Kind Kind

	// Object1 and Object2 are ObjectRecord indices in the same snapshot.
	Object1 int32
	Object2 int32

	// Bone1 and Bone2 select a body within a multi-body object.
	Bone1 int32
	Bone2 int32

	// Anchor1 and Anchor2 are in each endpoint object's local frame.
	Anchor1 geom.Transform
	Anchor2 geom.Transform

	CollisionEnabled bool
	AngularEnabled   bool
	LinearEnabled    bool

	// Params is the kind-specific tail, nil for kinds without one.
	Params Params
}

// Spring returns the spring tail, zero when absent.
func (c ConstraintRecord) Spring() SpringParams {
	p, _ := c.Params.(SpringParams)
	return p
}

// Axis returns the hinge tail, zero when absent.
func (c ConstraintRecord) Axis() AxisParams {
	p, _ := c.Params.(AxisParams)
	return p
}

// Slider returns the slider tail, zero when absent.
func (c ConstraintRecord) Slider() SliderParams {
	p, _ := c.Params.(SliderParams)
	return p
}
