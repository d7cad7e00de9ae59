package snapshot

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Snapshot is the aggregate root of one captured contraption.
//
// INVARIANTS:
//   - Objects and Constraints keep capture order; nothing re-sorts them.
//   - Every constraint endpoint names an index present in Objects (see Prune).
type Snapshot struct {
	Name   string
	Author string
	Date   string

	Objects     []ObjectRecord
	Constraints []ConstraintRecord
}

// Empty reports whether the snapshot holds no objects.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Objects) == 0
}

// Indices returns the set of object indices in s.
func (s *Snapshot) Indices() map[int32]struct{} {
	set := make(map[int32]struct{}, len(s.Objects))
	for _, o := range s.Objects {
		set[o.Index] = struct{}{}
	}
	return set
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Name:   s.Name,
		Author: s.Author,
		Date:   s.Date,
	}
	if s.Objects != nil {
		out.Objects = make([]ObjectRecord, len(s.Objects))
		for i, o := range s.Objects {
			o.Extension = CloneValues(o.Extension)
			out.Objects[i] = o
		}
	}
	if s.Constraints != nil {
		out.Constraints = make([]ConstraintRecord, len(s.Constraints))
		copy(out.Constraints, s.Constraints)
	}
	return out
}

// Prune returns a copy of s without constraints whose endpoints are missing
// from Objects, along with one RecordError per dropped constraint. The
// position of each dropped constraint in the input list is reported in
// the error. When nothing is dropped s itself is returned.
func (s *Snapshot) Prune() (*Snapshot, []error) {
	known := s.Indices()

	var errs []error
	kept := make([]ConstraintRecord, 0, len(s.Constraints))
	for i, c := range s.Constraints {
		if missing, ok := firstMissing(known, c.Object1, c.Object2); ok {
			errs = append(errs, NewMissingObjectError(i, missing))
			continue
		}
		kept = append(kept, c)
	}
	if len(errs) == 0 {
		return s, nil
	}

	out := s.Clone()
	out.Constraints = kept
	return out, errs
}

func firstMissing(known map[int32]struct{}, ids ...int32) (int32, bool) {
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

// Ghost is a paste preview for one object: its origin-relative pose and the
// model to draw.
type Ghost struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Model    string
}

// Ghosts returns one preview per object, in object order.
func (s *Snapshot) Ghosts() []Ghost {
	if s == nil {
		return nil
	}
	out := make([]Ghost, 0, len(s.Objects))
	for _, o := range s.Objects {
		out = append(out, Ghost{Position: o.Position, Rotation: o.Rotation, Model: o.Model})
	}
	return out
}
