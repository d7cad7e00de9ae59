package codec

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/snapshot"
)

func weldPair() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Name:   "weld pair",
		Author: "tester",
		Date:   "2026-01-02T03:04:05Z",
		Objects: []snapshot.ObjectRecord{
			{
				Index:     1,
				ClassName: "prop_physics",
				Model:     "models/crate.vmdl",
				Rotation:  mgl32.QuatIdent(),
				Extension: []snapshot.Value{snapshot.String("crate"), snapshot.ObjectRef(2)},
			},
			{
				Index:     2,
				ClassName: "prop_physics",
				Model:     "models/crate.vmdl",
				Position:  mgl32.Vec3{0, 0, 32},
				Rotation:  mgl32.QuatIdent(),
				Frozen:    true,
			},
		},
		Constraints: []snapshot.ConstraintRecord{
			{
				Kind:             snapshot.KindWeld,
				Object1:          1,
				Object2:          2,
				Anchor1:          geom.At(mgl32.Vec3{0, 0, 16}),
				Anchor2:          geom.At(mgl32.Vec3{0, 0, -16}),
				CollisionEnabled: true,
				AngularEnabled:   true,
				LinearEnabled:    true,
			},
			{
				Kind:           snapshot.KindAxis,
				Object1:        2,
				Object2:        1,
				Anchor1:        geom.Identity(),
				Anchor2:        geom.Identity(),
				AngularEnabled: true,
				Params:         snapshot.AxisParams{MinAngle: -45, MaxAngle: 45},
			},
		},
	}
}

// TestEncodeText_Golden tests the text dump layout against a golden file.
func TestEncodeText_Golden(t *testing.T) {
	out, err := EncodeText(weldPair())
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "weld_pair", out)
}

func TestText_RoundTrip(t *testing.T) {
	for name, s := range map[string]*snapshot.Snapshot{
		"weld pair": weldPair(),
		"all kinds": fullSnapshot(),
	} {
		t.Run(name, func(t *testing.T) {
			out, err := EncodeText(s)
			require.NoError(t, err)

			got, err := DecodeText(out)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		})
	}
}

func TestText_AgreesWithBinary(t *testing.T) {
	out, err := EncodeText(fullSnapshot())
	require.NoError(t, err)
	fromText, err := DecodeText(out)
	require.NoError(t, err)

	a, err := Encode(fromText)
	require.NoError(t, err)
	b, err := Encode(fullSnapshot())
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(b), Fingerprint(a))
}

func TestDecodeText_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code FormatErrorCode
	}{
		{"not json", "DUPE", ErrCodeBadText},
		{"unknown field", `{"format":"dupe-text","extra":1}`, ErrCodeBadText},
		{"wrong format", `{"format":"other"}`, ErrCodeBadMagic},
		{"unknown kind", `{"format":"dupe-text","constraints":[{"kind":"glue"}]}`, ErrCodeBadKind},
		{"unknown value type", `{"format":"dupe-text","objects":[{"index":1,"extension":[{"type":"color","value":1}]}]}`, ErrCodeBadText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText([]byte(tt.in))
			assert.Nil(t, got)
			assert.True(t, HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestDecodeText_DefaultsMissingParams(t *testing.T) {
	in := `{"format":"dupe-text","objects":[{"index":1},{"index":2}],` +
		`"constraints":[{"kind":"spring","object1":1,"object2":2}]}`

	got, err := DecodeText([]byte(in))
	require.NoError(t, err)
	require.Len(t, got.Constraints, 1)
	assert.Equal(t, snapshot.SpringParams{}, got.Constraints[0].Params)
}

func TestIsText(t *testing.T) {
	bin, err := Encode(weldPair())
	require.NoError(t, err)
	text, err := EncodeText(weldPair())
	require.NoError(t, err)

	assert.False(t, IsText(bin))
	assert.True(t, IsText(text))
	assert.True(t, IsText([]byte("\n  {}")))
	assert.False(t, IsText(nil))
	assert.False(t, IsText([]byte("   ")))
}

// floodSnapshot is a ring of n welded objects, larger than the caps allow
// for n above MaxObjects.
func floodSnapshot(n int) *snapshot.Snapshot {
	s := &snapshot.Snapshot{Name: "flood", Author: "tester"}
	for i := 0; i < n; i++ {
		s.Objects = append(s.Objects, snapshot.ObjectRecord{
			Index:     int32(i),
			ClassName: "prop_physics",
			Rotation:  mgl32.QuatIdent(),
		})
		s.Constraints = append(s.Constraints, snapshot.ConstraintRecord{
			Kind:    snapshot.KindWeld,
			Object1: int32(i),
			Object2: int32((i + 1) % n),
			Anchor1: geom.Identity(),
			Anchor2: geom.Identity(),
		})
	}
	return s
}

func TestDecodeText_ClampsOversizedLists(t *testing.T) {
	text, err := EncodeText(floodSnapshot(3000))
	require.NoError(t, err)

	got, err := DecodeText(text)
	require.NoError(t, err)
	assert.Len(t, got.Objects, MaxObjects)
	// The first MaxConstraints welds are kept; the last of them points past
	// the kept objects and is pruned.
	assert.Len(t, got.Constraints, MaxConstraints-1)

	bin, err := Encode(got)
	require.NoError(t, err)
	back, err := Decode(bin)
	require.NoError(t, err)
	assert.Equal(t, got, back)
}

func TestDecodeText_WithLimits(t *testing.T) {
	s := floodSnapshot(3000)
	for i := 0; i < 5; i++ {
		s.Objects[0].Extension = append(s.Objects[0].Extension, snapshot.ObjectRef(i))
	}
	text, err := EncodeText(s)
	require.NoError(t, err)

	dec := NewDecoder(bytes.NewReader(text), WithLimits(Limits{Objects: 10, Extension: 2}))
	got, err := dec.DecodeText()
	require.NoError(t, err)

	require.Len(t, got.Objects, 10)
	assert.Equal(t, []snapshot.Value{snapshot.ObjectRef(0), snapshot.ObjectRef(1)}, got.Objects[0].Extension)
	assert.Len(t, got.Constraints, 9)
	assert.Len(t, dec.Dropped(), MaxConstraints-9)
}
