package capture

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/world"
)

// Selection is a set of objects and joints in discovery order.
type Selection struct {
	Objects []world.Object
	Joints  []world.Joint
}

// Empty reports whether the selection has no objects.
func (s Selection) Empty() bool {
	return len(s.Objects) == 0
}

// FindAttached returns every object and joint reachable from seed through
// the hierarchy, shared physics groups and joints.
//
// Each object is visited once, so cyclic joint graphs terminate. Hierarchy
// edges are always followed; group and joint edges only exist for objects
// with a physics group, so a lone seed without one yields just the seed.
func FindAttached(seed world.Object) Selection {
	var sel Selection
	if seed == nil {
		return sel
	}

	seenObj := map[world.Object]bool{seed: true}
	seenJoint := map[world.Joint]bool{}
	sel.Objects = append(sel.Objects, seed)
	stack := []world.Object{seed}

	visit := func(o world.Object) {
		if o == nil || seenObj[o] {
			return
		}
		seenObj[o] = true
		sel.Objects = append(sel.Objects, o)
		stack = append(stack, o)
	}

	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, c := range o.Children() {
			visit(c)
		}
		if p := o.Parent(); p != nil && p.IsValid() {
			visit(p)
		}

		g := o.PhysicsGroup()
		if g == nil {
			continue
		}
		for _, b := range g.Bodies() {
			visit(b.Object())
		}
		for _, j := range g.Joints() {
			if seenJoint[j] {
				continue
			}
			seenJoint[j] = true
			sel.Joints = append(sel.Joints, j)
			visit(j.Body1().Object())
			visit(j.Body2().Object())
		}
	}
	return sel
}

// FindInBox selects every object whose position lies in the cube of the
// given half extent around center. Joints are kept only when both
// endpoints are selected; nothing outside the box is traversed.
func FindInBox(rt world.Runtime, center mgl32.Vec3, halfExtent float32) Selection {
	var sel Selection
	sel.Objects = rt.ObjectsInBox(geom.BoxAround(center, halfExtent))

	in := make(map[world.Object]bool, len(sel.Objects))
	for _, o := range sel.Objects {
		in[o] = true
	}
	seen := map[world.Joint]bool{}
	for _, o := range sel.Objects {
		g := o.PhysicsGroup()
		if g == nil {
			continue
		}
		for _, j := range g.Joints() {
			if seen[j] {
				continue
			}
			seen[j] = true
			if in[j.Body1().Object()] && in[j.Body2().Object()] {
				sel.Joints = append(sel.Joints, j)
			}
		}
	}
	return sel
}
