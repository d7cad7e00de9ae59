package replay

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/sandbox"
	"github.com/roach88/dupe/internal/snapshot"
	"github.com/roach88/dupe/internal/testutil"
	"github.com/roach88/dupe/internal/world"
)

// crates returns n prop_physics records 10 units apart along X, indices
// 1..n, chained by welds.
func crates(n int, welds bool) *snapshot.Snapshot {
	s := &snapshot.Snapshot{Name: "crates"}
	for i := 1; i <= n; i++ {
		s.Objects = append(s.Objects, snapshot.ObjectRecord{
			Index:     int32(i),
			ClassName: "prop_physics",
			Position:  mgl32.Vec3{float32(i) * 10, 0, 0},
			Rotation:  mgl32.QuatIdent(),
		})
		if welds && i > 1 {
			s.Constraints = append(s.Constraints, snapshot.ConstraintRecord{
				Kind:             snapshot.KindWeld,
				Object1:          int32(i - 1),
				Object2:          int32(i),
				Anchor1:          geom.At(mgl32.Vec3{5, 0, 0}),
				Anchor2:          geom.At(mgl32.Vec3{-5, 0, 0}),
				CollisionEnabled: true,
				AngularEnabled:   true,
				LinearEnabled:    true,
			})
		}
	}
	return s
}

// stepped returns options that make every Advance process one record.
func stepped() []Option {
	return []Option{WithClock(testutil.NewStepClock(time.Millisecond)), WithID("job-1")}
}

// gadget records the paste hooks it receives.
type gadget struct {
	*sandbox.Entity
	ext   []snapshot.Value
	all   map[int32]world.Object
	done  int
	calls *[]string
}

func (g *gadget) PostPaste(ext []snapshot.Value) {
	g.ext = ext
	*g.calls = append(*g.calls, "paste")
}

func (g *gadget) PostPasteAll(objs map[int32]world.Object) {
	g.all = objs
	*g.calls = append(*g.calls, "all")
}

func (g *gadget) PostPasteDone() {
	g.done++
	*g.calls = append(*g.calls, "done")
}

func gadgetWorld(calls *[]string) *sandbox.World {
	w := sandbox.New(sandbox.WithStrictClasses())
	w.Register("prop_physics", nil)
	w.Register("gadget", func(e *sandbox.Entity) world.Object {
		return &gadget{Entity: e, calls: calls}
	})
	return w
}
