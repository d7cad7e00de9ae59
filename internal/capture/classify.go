package capture

import (
	"fmt"

	"github.com/roach88/dupe/internal/snapshot"
	"github.com/roach88/dupe/internal/world"
)

// ClassifyJoint maps a live joint onto a snapshot kind and its tail.
//
// This is the single source of truth for the mapping. A fixed joint with
// both angular and linear constraints released is a NoCollide; with either
// enabled it is a Weld. Joint types without a kind return an error and the
// caller skips the joint.
func ClassifyJoint(j world.Joint) (snapshot.Kind, snapshot.Params, error) {
	l := j.Limits()
	switch t := j.Type(); t {
	case world.JointFixed:
		if j.AngularEnabled() || j.LinearEnabled() {
			return snapshot.KindWeld, nil, nil
		}
		return snapshot.KindNoCollide, nil, nil
	case world.JointSpring:
		return snapshot.KindSpring, snapshot.SpringParams{
			MinLength: l.MinLength,
			MaxLength: l.MaxLength,
			Frequency: l.Frequency,
			Damping:   l.Damping,
		}, nil
	case world.JointLength:
		return snapshot.KindRope, nil, nil
	case world.JointRevolute:
		return snapshot.KindAxis, snapshot.AxisParams{MinAngle: l.MinAngle, MaxAngle: l.MaxAngle}, nil
	case world.JointSpherical:
		return snapshot.KindBallSocket, nil, nil
	case world.JointPrismatic:
		return snapshot.KindSlider, snapshot.SliderParams{MinLength: l.MinLength, MaxLength: l.MaxLength}, nil
	default:
		return 0, nil, fmt.Errorf("no constraint kind for %s joint", t)
	}
}
