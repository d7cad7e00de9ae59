package sandbox

import (
	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/world"
)

// Entity is the base object of the sandbox. Class types embed it.
type Entity struct {
	w    *World
	self world.Object

	id        int
	class     string
	model     string
	transform geom.Transform
	parent    *Entity
	children  []*Entity
	group     *Group
	bodies    []*Body
	physics   bool
	valid     bool
}

// Base returns the embedded entity. Wrapping class types inherit it.
func (e *Entity) Base() *Entity { return e }

// Self returns the object the factory built around e.
func (e *Entity) Self() world.Object { return e.self }

func (e *Entity) ID() int           { return e.id }
func (e *Entity) ClassName() string { return e.class }
func (e *Entity) Model() string     { return e.model }

// SetModel sets the model reference.
func (e *Entity) SetModel(m string) { e.model = m }

func (e *Entity) Transform() geom.Transform { return e.transform }

func (e *Entity) SetTransform(t geom.Transform) { e.transform = t.Canonical() }

func (e *Entity) Parent() world.Object {
	if e.parent == nil {
		return nil
	}
	return e.parent.self
}

func (e *Entity) Children() []world.Object {
	if len(e.children) == 0 {
		return nil
	}
	out := make([]world.Object, len(e.children))
	for i, c := range e.children {
		out[i] = c.self
	}
	return out
}

// SetParent attaches e under p, or detaches it when p is nil.
func (e *Entity) SetParent(p *Entity) {
	if e.parent != nil {
		e.parent.removeChild(e)
	}
	e.parent = p
	if p != nil {
		p.children = append(p.children, e)
	}
}

func (e *Entity) removeChild(c *Entity) {
	for i, x := range e.children {
		if x == c {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

// PhysicsGroup returns nil once the entity has no bodies.
func (e *Entity) PhysicsGroup() world.PhysicsGroup {
	if len(e.bodies) == 0 {
		return nil
	}
	return e.group
}

// Bodies returns the entity's bodies by bone.
func (e *Entity) Bodies() []*Body { return e.bodies }

// AddBody appends a dynamic body with the next bone index.
func (e *Entity) AddBody() *Body {
	b := &Body{owner: e, bone: len(e.bodies)}
	e.bodies = append(e.bodies, b)
	e.group.bodies = append(e.group.bodies, b)
	return b
}

// RemovePhysics drops every body, leaving a purely hierarchical object.
func (e *Entity) RemovePhysics() {
	e.group.detach(e)
	e.bodies = nil
	e.group = &Group{w: e.w}
}

// JoinGroup moves e's bodies into o's physics group.
func (e *Entity) JoinGroup(o *Entity) {
	if e.group == o.group {
		return
	}
	e.group.detach(e)
	e.group = o.group
	o.group.bodies = append(o.group.bodies, e.bodies...)
}

// SetPhysicsEnabled implements world.Object.
func (e *Entity) SetPhysicsEnabled(on bool) { e.physics = on }

// PhysicsEnabled reports whether the entity is simulated.
func (e *Entity) PhysicsEnabled() bool { return e.physics }

// Frozen reports whether the primary body is not dynamic.
func (e *Entity) Frozen() bool {
	return len(e.bodies) > 0 && e.bodies[0].motion != world.MotionDynamic
}

// SetFrozen sets the motion type of every body.
func (e *Entity) SetFrozen(frozen bool) {
	m := world.MotionDynamic
	if frozen {
		m = world.MotionStatic
	}
	for _, b := range e.bodies {
		b.motion = m
	}
}

func (e *Entity) IsValid() bool { return e.valid }

func entityOf(o world.Object) *Entity {
	if b, ok := o.(interface{ Base() *Entity }); ok {
		return b.Base()
	}
	return nil
}

// EntityOf returns the sandbox entity behind o, or nil for foreign objects.
func EntityOf(o world.Object) *Entity {
	return entityOf(o)
}

var _ world.Object = (*Entity)(nil)
