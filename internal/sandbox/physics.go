package sandbox

import (
	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/world"
)

// Group is a physics group. Bodies of several entities may share one.
type Group struct {
	w      *World
	bodies []*Body
}

func (g *Group) Bodies() []world.Body {
	out := make([]world.Body, len(g.bodies))
	for i, b := range g.bodies {
		out[i] = b
	}
	return out
}

// Joints returns every live joint with a body in g.
func (g *Group) Joints() []world.Joint {
	in := make(map[*Body]bool, len(g.bodies))
	for _, b := range g.bodies {
		in[b] = true
	}
	var out []world.Joint
	for _, j := range g.w.joints {
		if j.valid && (in[j.b1] || in[j.b2]) {
			out = append(out, j)
		}
	}
	return out
}

func (g *Group) detach(e *Entity) {
	kept := g.bodies[:0]
	for _, b := range g.bodies {
		if b.owner != e {
			kept = append(kept, b)
		}
	}
	g.bodies = kept
}

// Body is one rigid body of an entity.
type Body struct {
	owner  *Entity
	bone   int
	motion world.MotionType
}

func (b *Body) Object() world.Object             { return b.owner.self }
func (b *Body) Bone() int                        { return b.bone }
func (b *Body) MotionType() world.MotionType     { return b.motion }
func (b *Body) SetMotionType(m world.MotionType) { b.motion = m }

// Joint is a live constraint. Frames are kept in each owner's local space
// so they follow the bodies when the owners move.
type Joint struct {
	w      *World
	typ    world.JointType
	b1, b2 *Body
	local1 geom.Transform
	local2 geom.Transform

	collision bool
	angular   bool
	linear    bool
	limits    world.Limits

	onBroken []func()
	valid    bool
}

func (j *Joint) Type() world.JointType { return j.typ }
func (j *Joint) Body1() world.Body     { return j.b1 }
func (j *Joint) Body2() world.Body     { return j.b2 }

func (j *Joint) Frame1() geom.Transform { return j.b1.owner.transform.ToWorld(j.local1) }
func (j *Joint) Frame2() geom.Transform { return j.b2.owner.transform.ToWorld(j.local2) }

func (j *Joint) CollisionEnabled() bool     { return j.collision }
func (j *Joint) AngularEnabled() bool       { return j.angular }
func (j *Joint) LinearEnabled() bool        { return j.linear }
func (j *Joint) SetCollisionEnabled(v bool) { j.collision = v }
func (j *Joint) SetAngularEnabled(v bool)   { j.angular = v }
func (j *Joint) SetLinearEnabled(v bool)    { j.linear = v }

func (j *Joint) Limits() world.Limits     { return j.limits }
func (j *Joint) SetLimits(l world.Limits) { j.limits = l }

func (j *Joint) OnBroken(fn func()) { j.onBroken = append(j.onBroken, fn) }
func (j *Joint) IsValid() bool      { return j.valid }

// Remove invalidates the joint and runs its broken callbacks once.
func (j *Joint) Remove() {
	if !j.valid {
		return
	}
	j.valid = false
	j.w.dropJoint(j)
	fns := j.onBroken
	j.onBroken = nil
	for _, fn := range fns {
		fn()
	}
}

// Break simulates the physics engine snapping the joint.
func (j *Joint) Break() { j.Remove() }

// Owners returns the sandbox entities on each side of the joint.
func (j *Joint) Owners() (*Entity, *Entity) { return j.b1.owner, j.b2.owner }

// Rope is a cosmetic rope drawn along a joint.
type Rope struct {
	w         *World
	joint     *Joint
	destroyed bool
}

// Joint returns the joint the rope follows.
func (r *Rope) Joint() *Joint { return r.joint }

// Destroy implements world.Cosmetic.
func (r *Rope) Destroy() { r.destroyed = true }

// Destroyed reports whether Destroy has been called.
func (r *Rope) Destroyed() bool { return r.destroyed }

var (
	_ world.PhysicsGroup = (*Group)(nil)
	_ world.Body         = (*Body)(nil)
	_ world.Joint        = (*Joint)(nil)
	_ world.Cosmetic     = (*Rope)(nil)
)
