package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/geom"
)

// Object is a live simulated object.
type Object interface {
	// ID is the runtime identifier. Capture uses it as the snapshot index.
	ID() int
	ClassName() string
	// Model returns the model reference, empty when not model-backed.
	Model() string

	Transform() geom.Transform
	SetTransform(geom.Transform)

	// Parent returns nil for root objects.
	Parent() Object
	Children() []Object

	// PhysicsGroup returns nil when the object has no physics.
	PhysicsGroup() PhysicsGroup

	// SetPhysicsEnabled toggles simulation for every body of the object.
	SetPhysicsEnabled(bool)

	// IsValid is false once the object has been deleted.
	IsValid() bool
}

// PhysicsGroup is a multi-body simulation group (a prop has one body, a
// ragdoll one per bone). Bodies of different objects may share a group.
type PhysicsGroup interface {
	Bodies() []Body
	// Joints returns every joint touching any body of the group.
	Joints() []Joint
}

// MotionType is a body's simulation mode.
type MotionType int

const (
	MotionDynamic MotionType = iota
	MotionStatic
	MotionKinematic
)

// Body is one rigid body.
type Body interface {
	// Object returns the object owning the body.
	Object() Object
	// Bone is the body's index within its owner, 0 for the primary body.
	Bone() int
	MotionType() MotionType
	SetMotionType(MotionType)
}

// JointType is the concrete joint implementation reported by the physics
// engine. Capture maps it onto a snapshot kind.
type JointType int

const (
	JointFixed JointType = iota + 1
	JointSpring
	JointLength
	JointRevolute
	JointSpherical
	JointPrismatic
	JointConical
)

func (t JointType) String() string {
	switch t {
	case JointFixed:
		return "fixed"
	case JointSpring:
		return "spring"
	case JointLength:
		return "length"
	case JointRevolute:
		return "revolute"
	case JointSpherical:
		return "spherical"
	case JointPrismatic:
		return "prismatic"
	case JointConical:
		return "conical"
	default:
		return "unknown"
	}
}

// Limits carries the kind-specific joint parameters. Fields that do not
// apply to a joint type are zero.
type Limits struct {
	MinLength float32
	MaxLength float32
	Frequency float32
	Damping   float32
	MinAngle  float32
	MaxAngle  float32
}

// Joint is a live constraint between two bodies.
type Joint interface {
	Type() JointType
	Body1() Body
	Body2() Body

	// Frame1 and Frame2 are the attachment frames in world space.
	Frame1() geom.Transform
	Frame2() geom.Transform

	CollisionEnabled() bool
	AngularEnabled() bool
	LinearEnabled() bool
	SetCollisionEnabled(bool)
	SetAngularEnabled(bool)
	SetLinearEnabled(bool)

	Limits() Limits
	SetLimits(Limits)

	// OnBroken registers fn to run once when the joint breaks or is removed.
	OnBroken(fn func())
	IsValid() bool
	Remove()
}

// JointSpec describes a joint to create. Frames are in world space.
type JointSpec struct {
	Type   JointType
	Body1  Body
	Body2  Body
	Frame1 geom.Transform
	Frame2 geom.Transform
	Limits Limits
}

// Cosmetic is a purely visual side effect, e.g. a rope drawn along a joint.
type Cosmetic interface {
	Destroy()
}

// Runtime is the entity/physics runtime.
type Runtime interface {
	// Spawn instantiates className. The object starts with physics disabled
	// and must be positioned by the caller.
	Spawn(className string) (Object, error)
	Delete(Object)

	CreateJoint(JointSpec) (Joint, error)
	// CreateRope draws a visual rope between the joint's frames.
	CreateRope(Joint) (Cosmetic, error)

	// ObjectsInBox returns every object whose world position is inside b.
	ObjectsInBox(b geom.Box) []Object
}

// UndoSink is the external undo facility. undo returns a user-facing
// message, empty when there was nothing left to undo.
type UndoSink interface {
	AddUndo(requester string, undo func() string)
}

// Position is a convenience for o.Transform().Position.
func Position(o Object) mgl32.Vec3 {
	return o.Transform().Position
}

// PrimaryBody returns the object's bone-0 body, or nil.
func PrimaryBody(o Object) Body {
	return BodyFor(o, 0)
}

// BodyFor returns the body of o with the given bone index, or nil.
func BodyFor(o Object, bone int) Body {
	g := o.PhysicsGroup()
	if g == nil {
		return nil
	}
	for _, b := range g.Bodies() {
		if b.Object() == o && b.Bone() == bone {
			return b
		}
	}
	return nil
}
