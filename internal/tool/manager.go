package tool

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/capture"
	"github.com/roach88/dupe/internal/codec"
	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/replay"
	"github.com/roach88/dupe/internal/snapshot"
	"github.com/roach88/dupe/internal/world"
)

var (
	// ErrNotConnected is returned for a requester without a session.
	ErrNotConnected = errors.New("requester not connected")

	// ErrEmptyClipboard is returned when pasting or saving with nothing copied.
	ErrEmptyClipboard = errors.New("clipboard is empty")
)

// Defaults for the tool settings.
const (
	DefaultAreaHalfExtent = 250
	DefaultHeightStep     = 5
)

type options struct {
	undo        world.UndoSink
	areaHalf    float32
	heightStep  float32
	allowed     []string
	freezeAll   bool
	unfreezeAll bool
	budget      float64
	limits      codec.Limits
	clock       replay.Clock
	ids         replay.IDGenerator
	log         *slog.Logger
}

// Option configures a Manager.
type Option func(*options)

// WithUndo registers every finished paste with u.
func WithUndo(u world.UndoSink) Option {
	return func(o *options) { o.undo = u }
}

// WithAreaHalfExtent sets the half size of the area-copy box.
func WithAreaHalfExtent(h float32) Option {
	return func(o *options) {
		if h > 0 {
			o.areaHalf = h
		}
	}
}

// WithHeightStep sets the height change per Raise step.
func WithHeightStep(step float32) Option {
	return func(o *options) {
		if step > 0 {
			o.heightStep = step
		}
	}
}

// WithAllowedClasses replaces the capture allow-list.
func WithAllowedClasses(classes ...string) Option {
	return func(o *options) { o.allowed = classes }
}

// WithFreezeAll leaves every pasted object frozen.
func WithFreezeAll(on bool) Option {
	return func(o *options) { o.freezeAll = on }
}

// WithUnfreezeAll releases every pasted object, frozen or not.
func WithUnfreezeAll(on bool) Option {
	return func(o *options) { o.unfreezeAll = on }
}

// WithBudget sets the paste time budget fraction.
func WithBudget(fraction float64) Option {
	return func(o *options) { o.budget = fraction }
}

// WithDecodeLimits lowers the caps applied by Load.
func WithDecodeLimits(l codec.Limits) Option {
	return func(o *options) { o.limits = l }
}

// WithClock sets the clock for capture dates and paste budgets.
func WithClock(c replay.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithIDGenerator sets the paste job id source.
func WithIDGenerator(g replay.IDGenerator) Option {
	return func(o *options) {
		if g != nil {
			o.ids = g
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Manager maps requesters to sessions over one runtime.
type Manager struct {
	rt       world.Runtime
	opts     options
	sessions map[string]*Session
	sched    *replay.Scheduler
}

// NewManager creates a manager over rt.
func NewManager(rt world.Runtime, opts ...Option) *Manager {
	o := options{
		areaHalf:   DefaultAreaHalfExtent,
		heightStep: DefaultHeightStep,
		allowed:    capture.DefaultAllowedClasses,
		budget:     replay.DefaultBudget,
		limits:     codec.DefaultLimits(),
		clock:      replay.SystemClock{},
		ids:        replay.UUIDv7Generator{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{
		rt:       rt,
		opts:     o,
		sessions: make(map[string]*Session),
		sched:    replay.NewScheduler(o.log),
	}
}

// Scheduler returns the paste scheduler.
func (m *Manager) Scheduler() *replay.Scheduler { return m.sched }

// Connect returns requester's session, creating it on first use.
func (m *Manager) Connect(requester string) *Session {
	if s, ok := m.sessions[requester]; ok {
		return s
	}
	s := &Session{requester: requester}
	m.sessions[requester] = s
	m.opts.log.Debug("session opened", "requester", requester)
	return s
}

// Session returns requester's session.
func (m *Manager) Session(requester string) (*Session, bool) {
	s, ok := m.sessions[requester]
	return s, ok
}

// Disconnect cancels requester's paste, deleting what it spawned, and
// drops the session. It reports whether a session existed.
func (m *Manager) Disconnect(requester string) bool {
	m.sched.Disconnect(requester)
	if _, ok := m.sessions[requester]; !ok {
		return false
	}
	delete(m.sessions, requester)
	m.opts.log.Debug("session closed", "requester", requester)
	return true
}

func (m *Manager) session(requester string) (*Session, error) {
	s, ok := m.sessions[requester]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConnected, requester)
	}
	return s, nil
}

// busy rejects tool use while a paste is running.
func (m *Manager) busy(requester string) error {
	if j, ok := m.sched.Job(requester); ok {
		return &replay.InFlightError{Requester: requester, JobID: j.ID()}
	}
	return nil
}

// Copy captures into the clipboard with the origin at `at`. With the area
// toggle on it captures the box around `at` and turns the toggle off;
// otherwise it captures everything attached to seed. Offsets reset. An empty
// capture (or a nil seed) clears the clipboard. The result is also returned;
// joints left out of it are reported by Session.Skipped.
func (m *Manager) Copy(requester string, seed world.Object, at mgl32.Vec3) (*snapshot.Snapshot, error) {
	s, err := m.session(requester)
	if err != nil {
		return nil, err
	}
	if err := m.busy(requester); err != nil {
		return nil, err
	}

	var sel capture.Selection
	switch {
	case s.area:
		s.area = false
		sel = capture.FindInBox(m.rt, at, m.opts.areaHalf)
	case seed != nil && seed.IsValid():
		sel = capture.FindAttached(seed)
	}
	return m.store(s, sel, at), nil
}

// CopyArea captures the box around center regardless of the toggle.
func (m *Manager) CopyArea(requester string, center mgl32.Vec3) (*snapshot.Snapshot, error) {
	s, err := m.session(requester)
	if err != nil {
		return nil, err
	}
	if err := m.busy(requester); err != nil {
		return nil, err
	}
	s.area = false
	return m.store(s, capture.FindInBox(m.rt, center, m.opts.areaHalf), center), nil
}

func (m *Manager) store(s *Session, sel capture.Selection, at mgl32.Vec3) *snapshot.Snapshot {
	s.resetOffsets()
	snap, skipped := capture.Capture(sel, geom.At(at), capture.Meta{Name: s.name, Author: s.requester},
		capture.WithAllowedClasses(m.opts.allowed...),
		capture.WithClock(m.opts.clock),
		capture.WithLogger(m.opts.log),
	)
	s.skipped = skipped
	if snap.Empty() {
		s.clipboard = nil
		return nil
	}
	s.clipboard = snap
	m.opts.log.Info("copied",
		"requester", s.requester,
		"objects", len(snap.Objects),
		"constraints", len(snap.Constraints),
	)
	return snap
}

// SetClipboard replaces requester's clipboard. An empty snapshot clears it.
func (m *Manager) SetClipboard(requester string, snap *snapshot.Snapshot) error {
	s, err := m.session(requester)
	if err != nil {
		return err
	}
	if snap.Empty() {
		s.clipboard = nil
		return nil
	}
	s.clipboard = snap
	return nil
}

// Paste starts a job replaying the clipboard at hit, raised by the height
// offset and turned by the rotation offset. While a job is running for
// requester it fails with an error matching replay.ErrJobInFlight.
func (m *Manager) Paste(requester string, hit mgl32.Vec3) (*replay.Job, error) {
	s, err := m.session(requester)
	if err != nil {
		return nil, err
	}
	if err := m.busy(requester); err != nil {
		return nil, err
	}
	if s.clipboard.Empty() {
		return nil, ErrEmptyClipboard
	}

	origin := geom.New(hit.Add(mgl32.Vec3{0, 0, s.height}), geom.Yaw(s.rotation))
	opts := []replay.Option{
		replay.WithRequester(requester),
		replay.WithID(m.opts.ids.Generate()),
		replay.WithBudget(m.opts.budget),
		replay.WithClock(m.opts.clock),
		replay.WithLogger(m.opts.log),
		replay.WithFreezeAll(m.opts.freezeAll),
		replay.WithUnfreezeAll(m.opts.unfreezeAll),
	}
	if m.opts.undo != nil {
		opts = append(opts, replay.WithUndo(m.opts.undo))
	}

	j := replay.NewJob(m.rt, s.clipboard, origin, opts...)
	if err := m.sched.Start(j); err != nil {
		return nil, err
	}
	return j, nil
}

// Load decodes data into requester's clipboard. Binary files and the text
// encoding are both accepted, under the same decode limits. On failure the clipboard is emptied and the
// decode error is returned for display.
func (m *Manager) Load(requester string, data []byte) error {
	s, err := m.session(requester)
	if err != nil {
		return err
	}

	opts := []codec.Option{codec.WithLimits(m.opts.limits), codec.WithLogger(m.opts.log)}
	var snap *snapshot.Snapshot
	if codec.IsText(data) {
		snap, err = codec.DecodeText(data, opts...)
	} else {
		snap, err = codec.Decode(data, opts...)
	}
	if err != nil {
		s.clipboard = nil
		m.opts.log.Warn("load failed, clipboard cleared", "requester", requester, "error", err)
		return fmt.Errorf("load duplicator file: %w", err)
	}

	s.clipboard = nil
	if !snap.Empty() {
		s.clipboard = snap
	}
	s.resetOffsets()
	return nil
}

// Save encodes requester's clipboard.
func (m *Manager) Save(requester string) ([]byte, error) {
	s, err := m.session(requester)
	if err != nil {
		return nil, err
	}
	if s.clipboard.Empty() {
		return nil, ErrEmptyClipboard
	}
	return codec.Encode(s.clipboard)
}

// Ghosts returns preview poses for the clipboard, nil when it is empty.
func (m *Manager) Ghosts(requester string) []snapshot.Ghost {
	s, ok := m.sessions[requester]
	if !ok || s.clipboard.Empty() {
		return nil
	}
	return s.clipboard.Ghosts()
}

// Rotate adds deg to the paste yaw and returns the new offset, wrapped to
// [0, 360).
func (m *Manager) Rotate(requester string, deg float32) (float32, error) {
	s, err := m.session(requester)
	if err != nil {
		return 0, err
	}
	r := s.rotation + deg
	for r >= 360 {
		r -= 360
	}
	for r < 0 {
		r += 360
	}
	s.rotation = r
	return r, nil
}

// Raise moves the paste height by steps height steps (negative lowers) and
// returns the new offset.
func (m *Manager) Raise(requester string, steps int) (float32, error) {
	s, err := m.session(requester)
	if err != nil {
		return 0, err
	}
	s.height += float32(steps) * m.opts.heightStep
	return s.height, nil
}

// ToggleArea flips the area-copy toggle and returns its new state.
func (m *Manager) ToggleArea(requester string) (bool, error) {
	s, err := m.session(requester)
	if err != nil {
		return false, err
	}
	s.area = !s.area
	return s.area, nil
}

// Tick advances every running paste once and returns the finished jobs.
func (m *Manager) Tick() []*replay.Job {
	done := m.sched.Tick()
	for _, j := range done {
		m.opts.log.Info("paste finished",
			"requester", j.Requester(),
			"job", j.ID(),
			"errors", len(j.Errors()),
		)
	}
	return done
}
