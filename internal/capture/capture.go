package capture

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/dupe/internal/codec"
	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/snapshot"
	"github.com/roach88/dupe/internal/world"
)

// DefaultAllowedClasses are captured without implementing
// world.Duplicatable.
var DefaultAllowedClasses = []string{"prop_physics"}

// Meta is the snapshot metadata supplied by the caller.
type Meta struct {
	Name   string
	Author string
}

// Clock supplies the capture date.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type options struct {
	allowed map[string]bool
	clock   Clock
	log     *slog.Logger
}

// Option configures Capture.
type Option func(*options)

// WithAllowedClasses replaces the class allow-list.
func WithAllowedClasses(classes ...string) Option {
	return func(o *options) {
		o.allowed = make(map[string]bool, len(classes))
		for _, c := range classes {
			o.allowed[c] = true
		}
	}
}

// WithClock sets the clock used for the capture date.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger for skipped records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Capture converts sel into a snapshot relative to origin.
//
// Objects that are neither on the allow-list nor world.Duplicatable are
// left out silently, together with the joints that touch them. Joints that
// cannot be classified are skipped and reported as RecordErrors. Lists are
// capped at the codec maxima so the result always survives an encode and
// decode unchanged.
func Capture(sel Selection, origin geom.Transform, meta Meta, opts ...Option) (*snapshot.Snapshot, []error) {
	o := &options{clock: systemClock{}, log: slog.Default()}
	WithAllowedClasses(DefaultAllowedClasses...)(o)
	for _, opt := range opts {
		opt(o)
	}
	origin = origin.Canonical()

	s := &snapshot.Snapshot{
		Name:   snapshot.ASCII(meta.Name),
		Author: snapshot.ASCII(meta.Author),
		Date:   o.clock.Now().UTC().Format(time.RFC3339),
	}

	for _, obj := range sel.Objects {
		if !o.participates(obj) {
			o.log.Debug("not duplicatable, omitted", "id", obj.ID(), "class", obj.ClassName())
			continue
		}
		if len(s.Objects) == codec.MaxObjects {
			o.log.Warn("object limit reached, rest omitted", "limit", codec.MaxObjects, "selected", len(sel.Objects))
			break
		}
		s.Objects = append(s.Objects, o.object(obj, origin))
	}

	var errs []error
	for i, j := range sel.Joints {
		if len(s.Constraints) == codec.MaxConstraints {
			o.log.Warn("constraint limit reached, rest omitted", "limit", codec.MaxConstraints, "selected", len(sel.Joints))
			break
		}
		c, err := constraint(i, j)
		if err != nil {
			o.log.Warn("skipping joint", "position", i, "error", err)
			errs = append(errs, err)
			continue
		}
		s.Constraints = append(s.Constraints, c)
	}

	pruned, dropped := s.Prune()
	if len(dropped) > 0 {
		o.log.Debug("joints to omitted objects dropped", "count", len(dropped))
	}
	return pruned, errs
}

func (o *options) participates(obj world.Object) bool {
	if obj == nil || !obj.IsValid() {
		return false
	}
	if _, ok := obj.(world.Duplicatable); ok {
		return true
	}
	return o.allowed[obj.ClassName()]
}

func (o *options) object(obj world.Object, origin geom.Transform) snapshot.ObjectRecord {
	local := origin.ToLocal(obj.Transform())
	rec := snapshot.ObjectRecord{
		Index:     int32(obj.ID()),
		ClassName: snapshot.ASCII(obj.ClassName()),
		Model:     snapshot.ASCII(obj.Model()),
		Position:  local.Position,
		Rotation:  local.Rotation,
	}
	if b := world.PrimaryBody(obj); b != nil {
		rec.Frozen = b.MotionType() != world.MotionDynamic
	}
	if h, ok := obj.(world.PreCapturer); ok {
		rec.Extension = o.extension(obj, h.PreCapture())
	}
	return rec
}

// extension normalises hook output to what the codec reproduces: ASCII
// strings, at most MaxExtension entries, nil when empty.
func (o *options) extension(obj world.Object, vals []snapshot.Value) []snapshot.Value {
	if len(vals) > codec.MaxExtension {
		o.log.Warn("extension data truncated", "id", obj.ID(), "entries", len(vals), "limit", codec.MaxExtension)
		vals = vals[:codec.MaxExtension]
	}
	var out []snapshot.Value
	for _, v := range vals {
		switch val := v.(type) {
		case nil:
			continue
		case snapshot.String:
			out = append(out, snapshot.String(snapshot.ASCII(string(val))))
		default:
			out = append(out, val)
		}
	}
	return out
}

func constraint(pos int, j world.Joint) (snapshot.ConstraintRecord, error) {
	kind, params, err := ClassifyJoint(j)
	if err != nil {
		return snapshot.ConstraintRecord{}, &snapshot.RecordError{
			Code:     snapshot.ErrCodeUnknownKind,
			Record:   "constraint",
			Position: pos,
			Message:  fmt.Sprintf("joint type %s", j.Type()),
			Err:      err,
		}
	}

	o1, o2 := j.Body1().Object(), j.Body2().Object()
	return snapshot.ConstraintRecord{
		Kind:             kind,
		Object1:          int32(o1.ID()),
		Object2:          int32(o2.ID()),
		Bone1:            int32(j.Body1().Bone()),
		Bone2:            int32(j.Body2().Bone()),
		Anchor1:          o1.Transform().ToLocal(j.Frame1()),
		Anchor2:          o2.Transform().ToLocal(j.Frame2()),
		CollisionEnabled: j.CollisionEnabled(),
		AngularEnabled:   j.AngularEnabled(),
		LinearEnabled:    j.LinearEnabled(),
		Params:           params,
	}, nil
}
