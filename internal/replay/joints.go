package replay

import (
	"fmt"

	"github.com/roach88/dupe/internal/snapshot"
	"github.com/roach88/dupe/internal/world"
)

// Rope joints keep their rest length stiff.
const ropeFrequency = 1000

// jointSpec builds the runtime joint for a constraint record. Anchors are
// resolved against the live endpoints' current transforms.
//
// This is the inverse of capture.ClassifyJoint and must stay exhaustive
// over snapshot kinds.
func jointSpec(rec snapshot.ConstraintRecord, b1, b2 world.Body) (world.JointSpec, error) {
	spec := world.JointSpec{
		Body1:  b1,
		Body2:  b2,
		Frame1: b1.Object().Transform().ToWorld(rec.Anchor1),
		Frame2: b2.Object().Transform().ToWorld(rec.Anchor2),
	}

	switch rec.Kind {
	case snapshot.KindWeld, snapshot.KindNoCollide:
		// NoCollide is a fixed joint with both constraint axes released;
		// the record's flags carry the difference.
		spec.Type = world.JointFixed
	case snapshot.KindSpring:
		p := rec.Spring()
		spec.Type = world.JointSpring
		spec.Limits = world.Limits{
			MinLength: p.MinLength,
			MaxLength: p.MaxLength,
			Frequency: p.Frequency,
			Damping:   p.Damping,
		}
	case snapshot.KindRope:
		spec.Type = world.JointLength
		spec.Limits = world.Limits{
			MaxLength: spec.Frame1.Position.Sub(spec.Frame2.Position).Len(),
			Frequency: ropeFrequency,
		}
	case snapshot.KindAxis:
		p := rec.Axis()
		spec.Type = world.JointRevolute
		spec.Limits = world.Limits{MinAngle: p.MinAngle, MaxAngle: p.MaxAngle}
	case snapshot.KindBallSocket:
		spec.Type = world.JointSpherical
	case snapshot.KindSlider:
		p := rec.Slider()
		spec.Type = world.JointPrismatic
		spec.Limits = world.Limits{MinLength: p.MinLength, MaxLength: p.MaxLength}
	default:
		return spec, fmt.Errorf("unknown constraint kind %s", rec.Kind)
	}
	return spec, nil
}
