package sandbox

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/world"
)

// ErrUnknownClass is returned by Spawn in a strict world for a class with no
// registered factory.
var ErrUnknownClass = errors.New("unknown class")

// Factory wraps a freshly created entity in its class type. It may add
// bodies or set a model before returning.
type Factory func(e *Entity) world.Object

// World is an in-memory entity and physics runtime.
//
// World is not safe for concurrent use; the duplicator drives it from a
// single tick loop.
type World struct {
	nextID    int
	entities  map[int]*Entity
	joints    []*Joint
	ropes     []*Rope
	factories map[string]Factory
	strict    bool
	undo      map[string][]func() string
	log       *slog.Logger
}

// Option configures a World.
type Option func(*World)

// WithStrictClasses makes Spawn fail for classes with no factory.
func WithStrictClasses() Option {
	return func(w *World) {
		w.strict = true
	}
}

// WithLogger sets the world's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		w.log = l
	}
}

// New returns an empty world.
func New(opts ...Option) *World {
	w := &World{
		entities:  make(map[int]*Entity),
		factories: make(map[string]Factory),
		undo:      make(map[string][]func() string),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Register installs the factory for class. A nil factory registers the
// class with the plain *Entity behaviour.
func (w *World) Register(class string, f Factory) {
	w.factories[class] = f
}

// Spawn implements world.Runtime. The entity gets a physics group with one
// dynamic body, physics disabled and an identity transform.
func (w *World) Spawn(class string) (world.Object, error) {
	if class == "" {
		return nil, fmt.Errorf("spawn: empty class name")
	}
	f, ok := w.factories[class]
	if !ok && w.strict {
		return nil, fmt.Errorf("spawn %q: %w", class, ErrUnknownClass)
	}

	w.nextID++
	e := &Entity{
		w:         w,
		id:        w.nextID,
		class:     class,
		transform: geom.Identity(),
		valid:     true,
	}
	e.self = e
	e.group = &Group{w: w}
	e.AddBody()

	if f != nil {
		e.self = f(e)
	}
	w.entities[e.id] = e
	w.log.Debug("spawned", "id", e.id, "class", class)
	return e.self, nil
}

// Create spawns class at t with physics enabled. It panics on a strict
// world with an unregistered class; it is meant for building fixtures.
func (w *World) Create(class string, t geom.Transform) *Entity {
	o, err := w.Spawn(class)
	if err != nil {
		panic(err)
	}
	e := entityOf(o)
	e.SetTransform(t)
	e.SetPhysicsEnabled(true)
	return e
}

// Delete implements world.Runtime. Children are deleted with their parent
// and every joint touching the object is removed.
func (w *World) Delete(o world.Object) {
	if o == nil {
		return
	}
	e, ok := w.entities[o.ID()]
	if !ok || !e.valid {
		return
	}
	w.delete(e)
}

func (w *World) delete(e *Entity) {
	for _, c := range append([]*Entity(nil), e.children...) {
		w.delete(c)
	}
	for _, j := range append([]*Joint(nil), w.joints...) {
		if j.valid && (j.b1.owner == e || j.b2.owner == e) {
			j.Remove()
		}
	}
	e.group.detach(e)
	if e.parent != nil {
		e.parent.removeChild(e)
		e.parent = nil
	}
	e.valid = false
	delete(w.entities, e.id)
	w.log.Debug("deleted", "id", e.id, "class", e.class)
}

// CreateJoint implements world.Runtime.
func (w *World) CreateJoint(spec world.JointSpec) (world.Joint, error) {
	if spec.Type < world.JointFixed || spec.Type > world.JointConical {
		return nil, fmt.Errorf("create joint: unsupported type %d", spec.Type)
	}
	b1, err := w.body(spec.Body1)
	if err != nil {
		return nil, fmt.Errorf("create %s joint: body1: %w", spec.Type, err)
	}
	b2, err := w.body(spec.Body2)
	if err != nil {
		return nil, fmt.Errorf("create %s joint: body2: %w", spec.Type, err)
	}

	j := &Joint{
		w:         w,
		typ:       spec.Type,
		b1:        b1,
		b2:        b2,
		local1:    b1.owner.transform.ToLocal(spec.Frame1),
		local2:    b2.owner.transform.ToLocal(spec.Frame2),
		collision: true,
		angular:   true,
		linear:    true,
		limits:    spec.Limits,
		valid:     true,
	}
	w.joints = append(w.joints, j)
	return j, nil
}

// dropJoint removes j from the live joint list, keeping creation order.
func (w *World) dropJoint(j *Joint) {
	kept := w.joints[:0]
	for _, other := range w.joints {
		if other != j {
			kept = append(kept, other)
		}
	}
	clear(w.joints[len(kept):])
	w.joints = kept
}

func (w *World) body(b world.Body) (*Body, error) {
	sb, ok := b.(*Body)
	if !ok || sb == nil {
		return nil, fmt.Errorf("not a sandbox body: %T", b)
	}
	if sb.owner.w != w || !sb.owner.valid {
		return nil, fmt.Errorf("body of deleted or foreign object %d", sb.owner.id)
	}
	return sb, nil
}

// CreateRope implements world.Runtime.
func (w *World) CreateRope(j world.Joint) (world.Cosmetic, error) {
	sj, ok := j.(*Joint)
	if !ok || !sj.valid {
		return nil, fmt.Errorf("create rope: invalid joint")
	}
	r := &Rope{w: w, joint: sj}
	w.ropes = append(w.ropes, r)
	return r, nil
}

// ObjectsInBox implements world.Runtime. Results are ordered by id.
func (w *World) ObjectsInBox(b geom.Box) []world.Object {
	var out []world.Object
	for _, e := range w.sorted() {
		if b.Contains(e.transform.Position) {
			out = append(out, e.self)
		}
	}
	return out
}

// Objects returns every live object ordered by id.
func (w *World) Objects() []world.Object {
	sorted := w.sorted()
	out := make([]world.Object, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, e.self)
	}
	return out
}

// Len returns the number of live objects.
func (w *World) Len() int {
	return len(w.entities)
}

// Lookup returns the live object with the given id.
func (w *World) Lookup(id int) (world.Object, bool) {
	e, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	return e.self, true
}

// Joints returns every live joint in creation order.
func (w *World) Joints() []*Joint {
	var out []*Joint
	for _, j := range w.joints {
		if j.valid {
			out = append(out, j)
		}
	}
	return out
}

// Ropes returns every rope not yet destroyed.
func (w *World) Ropes() []*Rope {
	var out []*Rope
	for _, r := range w.ropes {
		if !r.destroyed {
			out = append(out, r)
		}
	}
	return out
}

func (w *World) sorted() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// AddUndo implements world.UndoSink.
func (w *World) AddUndo(requester string, undo func() string) {
	w.undo[requester] = append(w.undo[requester], undo)
}

// Undo runs the requester's most recent undo entry. ok is false when there
// is none.
func (w *World) Undo(requester string) (msg string, ok bool) {
	stack := w.undo[requester]
	if len(stack) == 0 {
		return "", false
	}
	fn := stack[len(stack)-1]
	w.undo[requester] = stack[:len(stack)-1]
	return fn(), true
}

// UndoDepth returns the number of undo entries held for requester.
func (w *World) UndoDepth(requester string) int {
	return len(w.undo[requester])
}

var (
	_ world.Runtime  = (*World)(nil)
	_ world.UndoSink = (*World)(nil)
)
