package replay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/snapshot"
	"github.com/roach88/dupe/internal/world"
)

// Phase is a job's position in its state machine.
type Phase int

const (
	PhaseSpawningObjects Phase = iota
	PhaseSpawningConstraints
	PhaseFinalizing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseSpawningObjects:
		return "spawning_objects"
	case PhaseSpawningConstraints:
		return "spawning_constraints"
	case PhaseFinalizing:
		return "finalizing"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Option configures a Job.
type Option func(*Job)

// WithFreezeAll leaves every pasted object frozen.
func WithFreezeAll(on bool) Option {
	return func(j *Job) { j.freezeAll = on }
}

// WithUnfreezeAll enables physics on every pasted object, frozen or not.
// WithFreezeAll wins when both are set.
func WithUnfreezeAll(on bool) Option {
	return func(j *Job) { j.unfreezeAll = on }
}

// WithBudget sets the share of elapsed time the job may use, in (0, 1].
// Out-of-range values fall back to DefaultBudget.
func WithBudget(fraction float64) Option {
	return func(j *Job) { j.fraction = fraction }
}

// WithClock sets the clock used for budgeting.
func WithClock(c Clock) Option {
	return func(j *Job) { j.clock = c }
}

// WithLogger sets the job's logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *Job) { j.log = l }
}

// WithUndo sets where the finished paste registers its undo.
func WithUndo(u world.UndoSink) Option {
	return func(j *Job) { j.undo = u }
}

// WithRequester names who asked for the paste, for undo and logs.
func WithRequester(r string) Option {
	return func(j *Job) { j.requester = r }
}

// WithID sets the job id instead of generating a UUIDv7.
func WithID(id string) Option {
	return func(j *Job) { j.id = id }
}

type spawned struct {
	obj    world.Object
	frozen bool
}

// Job replays one snapshot at one origin.
//
// The index map is owned by the job; hooks receive copies of it. The
// snapshot is only read.
type Job struct {
	id        string
	requester string
	rt        world.Runtime
	snap      *snapshot.Snapshot
	origin    geom.Transform

	phase          Phase
	nextObject     int
	nextConstraint int

	byIndex map[int32]world.Object
	objects []spawned
	joints  []world.Joint
	errs    []error

	fraction float64
	clock    Clock
	budget   *Budget
	calls    int

	undo        world.UndoSink
	freezeAll   bool
	unfreezeAll bool
	cancelled   bool
	log         *slog.Logger
}

// NewJob creates a job that pastes snap at origin in rt. The budget clock
// starts now.
func NewJob(rt world.Runtime, snap *snapshot.Snapshot, origin geom.Transform, opts ...Option) *Job {
	j := &Job{
		rt:       rt,
		snap:     snap,
		origin:   origin.Canonical(),
		byIndex:  make(map[int32]world.Object, len(snap.Objects)),
		fraction: DefaultBudget,
		clock:    SystemClock{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.id == "" {
		j.id = UUIDv7Generator{}.Generate()
	}
	j.log = j.log.With("job", j.id, "requester", j.requester)

	b, err := NewBudget(j.fraction, j.clock.Now())
	if err != nil {
		j.log.Warn("invalid budget, using default", "error", err, "default", DefaultBudget)
		b, _ = NewBudget(DefaultBudget, j.clock.Now())
	}
	j.budget = b

	j.settle()
	j.log.Debug("paste job created",
		"objects", len(snap.Objects),
		"constraints", len(snap.Constraints),
		"origin", j.origin.String())
	return j
}

// ID returns the job id.
func (j *Job) ID() string { return j.id }

// Requester returns who asked for the paste.
func (j *Job) Requester() string { return j.requester }

// Phase returns the current phase.
func (j *Job) Phase() Phase { return j.phase }

// Done reports whether the job has finished or been cancelled.
func (j *Job) Done() bool { return j.phase == PhaseDone }

// Errors returns the record errors collected so far.
func (j *Job) Errors() []error { return j.errs }

// Budget returns the job's budget.
func (j *Job) Budget() *Budget { return j.budget }

// Progress is a snapshot of a job's cursors.
type Progress struct {
	Phase            Phase
	ObjectsDone      int
	ObjectsTotal     int
	ConstraintsDone  int
	ConstraintsTotal int
	Spawned          int
	Joints           int
	Errors           int
	Calls            int
}

// Progress reports the job's cursors and counts.
func (j *Job) Progress() Progress {
	return Progress{
		Phase:            j.phase,
		ObjectsDone:      j.nextObject,
		ObjectsTotal:     len(j.snap.Objects),
		ConstraintsDone:  j.nextConstraint,
		ConstraintsTotal: len(j.snap.Constraints),
		Spawned:          len(j.objects),
		Joints:           len(j.joints),
		Errors:           len(j.errs),
		Calls:            j.calls,
	}
}

// Advance processes records until the budget check fails or the job is
// done, always processing at least one. It returns true once the job is
// Done.
func (j *Job) Advance() bool {
	if j.phase == PhaseDone {
		return true
	}
	j.calls++

	start := j.clock.Now()
	for {
		j.step()
		if j.phase == PhaseDone {
			break
		}
		now := j.clock.Now()
		if !j.budget.Within(now, now.Sub(start)) {
			break
		}
	}
	j.budget.Charge(j.clock.Now().Sub(start))
	return j.phase == PhaseDone
}

// step processes exactly one record, or finalizes.
func (j *Job) step() {
	switch j.phase {
	case PhaseSpawningObjects:
		j.spawnObject(j.nextObject)
		j.nextObject++
	case PhaseSpawningConstraints:
		j.spawnConstraint(j.nextConstraint)
		j.nextConstraint++
	case PhaseFinalizing:
		j.finalize()
		return
	}
	j.settle()
}

// settle moves past phases whose cursor has reached the end.
func (j *Job) settle() {
	if j.phase == PhaseSpawningObjects && j.nextObject >= len(j.snap.Objects) {
		j.postPasteAll()
		j.phase = PhaseSpawningConstraints
	}
	if j.phase == PhaseSpawningConstraints && j.nextConstraint >= len(j.snap.Constraints) {
		j.phase = PhaseFinalizing
	}
}

func (j *Job) fail(err *snapshot.RecordError) {
	j.errs = append(j.errs, err)
	j.log.Warn("skipping record", "code", err.Code, "record", err.Record, "position", err.Position, "error", err)
}

func (j *Job) spawnObject(i int) {
	rec := j.snap.Objects[i]
	obj, err := j.rt.Spawn(rec.ClassName)
	if err == nil && obj == nil {
		err = errors.New("runtime returned no object")
	}
	if err != nil {
		j.fail(&snapshot.RecordError{
			Code:     snapshot.ErrCodeSpawnFailed,
			Record:   "object",
			Position: i,
			Message:  fmt.Sprintf("failed to spawn class %q", rec.ClassName),
			Err:      err,
		})
		return
	}

	obj.SetPhysicsEnabled(false)
	obj.SetTransform(j.origin.ToWorld(rec.Pose()))
	if rec.Frozen {
		setMotion(obj, world.MotionStatic)
	}
	if h, ok := obj.(world.PostPaster); ok {
		h.PostPaste(snapshot.CloneValues(rec.Extension))
	}

	j.byIndex[rec.Index] = obj
	j.objects = append(j.objects, spawned{obj: obj, frozen: rec.Frozen})
}

// postPasteAll runs once every object has been spawned.
func (j *Job) postPasteAll() {
	for _, s := range j.objects {
		h, ok := s.obj.(world.PostPasteAller)
		if !ok || !s.obj.IsValid() {
			continue
		}
		h.PostPasteAll(j.indexCopy())
	}
}

func (j *Job) indexCopy() map[int32]world.Object {
	out := make(map[int32]world.Object, len(j.byIndex))
	for k, v := range j.byIndex {
		out[k] = v
	}
	return out
}

func (j *Job) spawnConstraint(i int) {
	rec := j.snap.Constraints[i]

	b1, rerr := j.resolve(i, rec.Object1, rec.Bone1)
	if rerr != nil {
		j.fail(rerr)
		return
	}
	b2, rerr := j.resolve(i, rec.Object2, rec.Bone2)
	if rerr != nil {
		j.fail(rerr)
		return
	}

	spec, err := jointSpec(rec, b1, b2)
	if err != nil {
		j.fail(&snapshot.RecordError{
			Code:     snapshot.ErrCodeUnknownKind,
			Record:   "constraint",
			Position: i,
			Message:  "no joint for kind",
			Err:      err,
		})
		return
	}

	joint, err := j.rt.CreateJoint(spec)
	if err != nil {
		j.fail(&snapshot.RecordError{
			Code:     snapshot.ErrCodeJointFailed,
			Record:   "constraint",
			Position: i,
			Message:  fmt.Sprintf("failed to create %s", rec.Kind),
			Err:      err,
		})
		return
	}
	joint.SetCollisionEnabled(rec.CollisionEnabled)
	joint.SetAngularEnabled(rec.AngularEnabled)
	joint.SetLinearEnabled(rec.LinearEnabled)

	if rec.Kind.HasRope() {
		rope, err := j.rt.CreateRope(joint)
		if err != nil {
			j.log.Warn("rope not drawn", "position", i, "kind", rec.Kind.String(), "error", err)
		} else {
			joint.OnBroken(rope.Destroy)
		}
	}
	j.joints = append(j.joints, joint)
}

// resolve finds the live body for one constraint endpoint.
func (j *Job) resolve(pos int, index, bone int32) (world.Body, *snapshot.RecordError) {
	obj, ok := j.byIndex[index]
	if !ok || !obj.IsValid() {
		return nil, snapshot.NewMissingObjectError(pos, index)
	}
	b := world.BodyFor(obj, int(bone))
	if b == nil {
		return nil, &snapshot.RecordError{
			Code:     snapshot.ErrCodeMissingBody,
			Record:   "constraint",
			Position: pos,
			Message:  fmt.Sprintf("object %d has no body for bone %d", index, bone),
		}
	}
	return b, nil
}

func (j *Job) finalize() {
	for _, s := range j.objects {
		if !s.obj.IsValid() {
			continue
		}
		frozen := s.frozen
		if j.unfreezeAll {
			frozen = false
		}
		if j.freezeAll {
			frozen = true
		}
		if frozen {
			setMotion(s.obj, world.MotionStatic)
			continue
		}
		setMotion(s.obj, world.MotionDynamic)
		s.obj.SetPhysicsEnabled(true)
	}

	for _, s := range j.objects {
		if h, ok := s.obj.(world.PostPasteDoner); ok && s.obj.IsValid() {
			h.PostPasteDone()
		}
	}

	if j.undo != nil && len(j.objects) > 0 {
		objs := make([]world.Object, len(j.objects))
		for i, s := range j.objects {
			objs[i] = s.obj
		}
		rt := j.rt
		j.undo.AddUndo(j.requester, func() string {
			removed := deleteAll(rt, objs)
			if removed == 0 {
				return ""
			}
			return fmt.Sprintf("Undid paste of %d objects", removed)
		})
	}

	j.phase = PhaseDone
	j.log.Info("paste finished",
		"spawned", len(j.objects),
		"joints", len(j.joints),
		"errors", len(j.errs),
		"calls", j.calls,
		"used", j.budget.Used())
}

// Cancel tears the job down, deleting every object it spawned. Cancelling
// a finished job does nothing: its objects belong to the world.
func (j *Job) Cancel() {
	if j.phase == PhaseDone {
		return
	}
	objs := make([]world.Object, len(j.objects))
	for i, s := range j.objects {
		objs[i] = s.obj
	}
	removed := deleteAll(j.rt, objs)

	j.byIndex = map[int32]world.Object{}
	j.objects = nil
	j.joints = nil
	j.cancelled = true
	j.phase = PhaseDone
	j.log.Info("paste cancelled", "deleted", removed)
}

// Cancelled reports whether the job ended through Cancel.
func (j *Job) Cancelled() bool { return j.cancelled }

// deleteAll deletes the objects that are still valid, newest first.
func deleteAll(rt world.Runtime, objs []world.Object) int {
	n := 0
	for i := len(objs) - 1; i >= 0; i-- {
		if objs[i].IsValid() {
			rt.Delete(objs[i])
			n++
		}
	}
	return n
}

func setMotion(o world.Object, m world.MotionType) {
	g := o.PhysicsGroup()
	if g == nil {
		return
	}
	for _, b := range g.Bodies() {
		if b.Object() == o {
			b.SetMotionType(m)
		}
	}
}
