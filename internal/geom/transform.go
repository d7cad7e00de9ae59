package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a rigid pose with uniform scale.
//
// The zero value is treated as identity: a zero rotation quaternion and a
// zero scale are both replaced by their identity values before use, so
// records decoded from files that never set them still resolve.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    float32
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: 1}
}

// At returns an unrotated, unscaled transform at p.
func At(p mgl32.Vec3) Transform {
	return Transform{Position: p, Rotation: mgl32.QuatIdent(), Scale: 1}
}

// New returns a transform at p with rotation q and unit scale.
func New(p mgl32.Vec3, q mgl32.Quat) Transform {
	return Transform{Position: p, Rotation: q, Scale: 1}
}

// Yaw returns a rotation of deg degrees about the up (Z) axis.
func Yaw(deg float32) mgl32.Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(deg), mgl32.Vec3{0, 0, 1})
}

func (t Transform) rotation() mgl32.Quat {
	if t.Rotation.W == 0 && t.Rotation.V == (mgl32.Vec3{}) {
		return mgl32.QuatIdent()
	}
	return t.Rotation
}

func (t Transform) scale() float32 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}

// Canonical returns t with identity defaults filled in.
func (t Transform) Canonical() Transform {
	return Transform{Position: t.Position, Rotation: t.rotation(), Scale: t.scale()}
}

// PointToWorld maps a point in t's local frame into the parent frame.
func (t Transform) PointToWorld(local mgl32.Vec3) mgl32.Vec3 {
	return t.Position.Add(t.rotation().Rotate(local.Mul(t.scale())))
}

// PointToLocal maps a point in the parent frame into t's local frame.
func (t Transform) PointToLocal(world mgl32.Vec3) mgl32.Vec3 {
	return t.rotation().Inverse().Rotate(world.Sub(t.Position)).Mul(1 / t.scale())
}

// RotationToWorld maps a rotation in t's local frame into the parent frame.
func (t Transform) RotationToWorld(local mgl32.Quat) mgl32.Quat {
	return t.rotation().Mul(local).Normalize()
}

// RotationToLocal maps a rotation in the parent frame into t's local frame.
func (t Transform) RotationToLocal(world mgl32.Quat) mgl32.Quat {
	return t.rotation().Inverse().Mul(world).Normalize()
}

// ToWorld composes t with a pose expressed in t's local frame (t ∘ local).
func (t Transform) ToWorld(local Transform) Transform {
	local = local.Canonical()
	return Transform{
		Position: t.PointToWorld(local.Position),
		Rotation: t.RotationToWorld(local.Rotation),
		Scale:    t.scale() * local.Scale,
	}
}

// ToLocal expresses a parent-frame pose in t's local frame (t⁻¹ ∘ world).
func (t Transform) ToLocal(world Transform) Transform {
	world = world.Canonical()
	return Transform{
		Position: t.PointToLocal(world.Position),
		Rotation: t.RotationToLocal(world.Rotation),
		Scale:    world.Scale / t.scale(),
	}
}

// Inverse returns t⁻¹ such that t.Mul(t.Inverse()) is identity.
func (t Transform) Inverse() Transform {
	return t.ToLocal(Identity())
}

// Mul is t ∘ o.
func (t Transform) Mul(o Transform) Transform {
	return t.ToWorld(o)
}

// ApproxEqual reports whether two transforms match within eps. Rotations q
// and -q describe the same orientation and compare equal.
func (t Transform) ApproxEqual(o Transform, eps float32) bool {
	a, b := t.Canonical(), o.Canonical()
	if !a.Position.ApproxEqualThreshold(b.Position, eps) {
		return false
	}
	if d := a.Rotation.Dot(b.Rotation); d < 1-eps && d > -1+eps {
		return false
	}
	return mgl32.FloatEqualThreshold(a.Scale, b.Scale, eps)
}

func (t Transform) String() string {
	q := t.rotation()
	return fmt.Sprintf("pos(%g %g %g) rot(%g %g %g %g) scale %g",
		t.Position[0], t.Position[1], t.Position[2], q.V[0], q.V[1], q.V[2], q.W, t.scale())
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// BoxAround returns the box of the given half extent centered on c.
func BoxAround(c mgl32.Vec3, halfExtent float32) Box {
	h := mgl32.Vec3{halfExtent, halfExtent, halfExtent}
	return Box{Min: c.Sub(h), Max: c.Add(h)}
}

// Contains reports whether p lies inside b, bounds inclusive.
func (b Box) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}
