package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/snapshot"
)

func fullSnapshot() *snapshot.Snapshot {
	anchor := geom.Transform{
		Position: mgl32.Vec3{1.5, -2, 8},
		Rotation: geom.Yaw(33),
		Scale:    1,
	}
	return &snapshot.Snapshot{
		Name:   "buggy",
		Author: "player one",
		Date:   "2026-10-15T12:00:00Z",
		Objects: []snapshot.ObjectRecord{
			{
				Index:     11,
				ClassName: "prop_physics",
				Model:     "models/citizen_props/crate01.vmdl",
				Position:  mgl32.Vec3{0, 0, 12.25},
				Rotation:  geom.Yaw(90),
				Extension: []snapshot.Value{
					snapshot.String("hello"),
					snapshot.Vector{1, 2, 3},
					snapshot.Rotation(geom.Yaw(45)),
					snapshot.ObjectRef(12),
				},
			},
			{
				Index:     12,
				ClassName: "wheel",
				Position:  mgl32.Vec3{-40, 3, 0},
				Rotation:  mgl32.QuatIdent(),
				Frozen:    true,
			},
			{
				Index:     13,
				ClassName: "npc_ragdoll",
				Model:     "models/citizen.vmdl",
				Position:  mgl32.Vec3{5, 5, 5},
				Rotation:  mgl32.QuatIdent(),
			},
		},
		Constraints: []snapshot.ConstraintRecord{
			{Kind: snapshot.KindWeld, Object1: 11, Object2: 12, Anchor1: anchor, Anchor2: geom.Identity(),
				CollisionEnabled: true, AngularEnabled: true, LinearEnabled: true},
			{Kind: snapshot.KindNoCollide, Object1: 11, Object2: 13, Anchor1: geom.Identity(), Anchor2: geom.Identity()},
			{Kind: snapshot.KindSpring, Object1: 12, Object2: 13, Bone2: 4, Anchor1: anchor, Anchor2: anchor,
				CollisionEnabled: true, LinearEnabled: true,
				Params: snapshot.SpringParams{MinLength: 0, MaxLength: 64, Frequency: 5, Damping: 0.7}},
			{Kind: snapshot.KindRope, Object1: 11, Object2: 12, Anchor1: anchor, Anchor2: anchor, CollisionEnabled: true},
			{Kind: snapshot.KindAxis, Object1: 12, Object2: 11, Anchor1: anchor, Anchor2: anchor,
				AngularEnabled: true, Params: snapshot.AxisParams{MinAngle: -30, MaxAngle: 60}},
			{Kind: snapshot.KindBallSocket, Object1: 13, Object2: 11, Bone1: 2, Anchor1: anchor, Anchor2: anchor},
			{Kind: snapshot.KindSlider, Object1: 11, Object2: 13, Anchor1: anchor, Anchor2: anchor,
				LinearEnabled: true, Params: snapshot.SliderParams{MinLength: 2, MaxLength: 20}},
		},
	}
}

// headerLen is the offset of the object count for s.
func headerLen(s *snapshot.Snapshot) int {
	return 4 + 1 + 4 + len(s.Name) + 4 + len(s.Author) + 4 + len(s.Date)
}

func putU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:], v)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := fullSnapshot()

	data, err := Encode(s)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestEncodeDecode_EmptySnapshot(t *testing.T) {
	s := &snapshot.Snapshot{}
	data, err := Encode(s)
	require.NoError(t, err)
	assert.Len(t, data, headerLen(s)+8)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestEncode_HeaderLayout(t *testing.T) {
	data, err := Encode(&snapshot.Snapshot{Name: "n"})
	require.NoError(t, err)

	assert.Equal(t, []byte("DUPE"), data[:4])
	assert.Equal(t, CurrentVersion, data[4])
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[5:9]))
	assert.Equal(t, byte('n'), data[9])
}

func TestEncoder_WritesToStream(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(fullSnapshot()))

	got, err := NewDecoder(&buf).Decode()
	require.NoError(t, err)
	assert.Equal(t, fullSnapshot(), got)
}

func TestEncode_FoldsStringsToASCII(t *testing.T) {
	data, err := Encode(&snapshot.Snapshot{Name: "façade", Author: "Zoë"})
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "facade", got.Name)
	assert.Equal(t, "Zoe", got.Author)
}

func TestEncode_RejectsUnknownKind(t *testing.T) {
	s := &snapshot.Snapshot{
		Objects:     []snapshot.ObjectRecord{{Index: 1}},
		Constraints: []snapshot.ConstraintRecord{{Kind: snapshot.Kind(99), Object1: 1, Object2: 1}},
	}
	_, err := Encode(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown constraint kind")
}

func TestEncode_RejectsCountsAboveMaximum(t *testing.T) {
	obj := snapshot.ObjectRecord{Index: 1, ClassName: "c", Rotation: mgl32.QuatIdent()}

	tests := []struct {
		name string
		snap func() *snapshot.Snapshot
	}{
		{"objects", func() *snapshot.Snapshot {
			s := &snapshot.Snapshot{}
			for i := 0; i <= MaxObjects; i++ {
				o := obj
				o.Index = int32(i)
				s.Objects = append(s.Objects, o)
			}
			return s
		}},
		{"constraints", func() *snapshot.Snapshot {
			s := &snapshot.Snapshot{Objects: []snapshot.ObjectRecord{obj}}
			for i := 0; i <= MaxConstraints; i++ {
				s.Constraints = append(s.Constraints, snapshot.ConstraintRecord{Kind: snapshot.KindNoCollide, Object1: 1, Object2: 1})
			}
			return s
		}},
		{"extension", func() *snapshot.Snapshot {
			o := obj
			for i := 0; i <= MaxExtension; i++ {
				o.Extension = append(o.Extension, snapshot.ObjectRef(i))
			}
			return &snapshot.Snapshot{Objects: []snapshot.ObjectRecord{o}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.snap())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrTooManyRecords))
		})
	}
}

func TestDecode_BadMagic(t *testing.T) {
	data, err := Encode(fullSnapshot())
	require.NoError(t, err)
	data[0] = 'X'

	got, err := Decode(data)
	assert.Nil(t, got)
	assert.True(t, HasCode(err, ErrCodeBadMagic))
	assert.True(t, IsFormatError(err))
}

func TestDecode_UnknownVersion(t *testing.T) {
	data, err := Encode(fullSnapshot())
	require.NoError(t, err)
	data[4] = 7

	got, err := Decode(data)
	assert.Nil(t, got)
	require.True(t, HasCode(err, ErrCodeUnknownVersion), "got %v", err)

	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, int64(4), fe.Offset)
}

func TestDecode_TruncatedAtEveryPrefix(t *testing.T) {
	data, err := Encode(fullSnapshot())
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		got, err := Decode(data[:n])
		if !assert.Nil(t, got, "prefix %d", n) {
			return
		}
		if !assert.True(t, HasCode(err, ErrCodeTruncated), "prefix %d: %v", n, err) {
			return
		}
	}
}

func TestDecode_OversizedObjectCountIsClamped(t *testing.T) {
	s := &snapshot.Snapshot{Name: "flood"}
	for i := 0; i < MaxObjects; i++ {
		s.Objects = append(s.Objects, snapshot.ObjectRecord{Index: int32(i), ClassName: "p", Rotation: mgl32.QuatIdent()})
	}
	data, err := Encode(s)
	require.NoError(t, err)

	// Claim four billion objects; only MaxObjects follow, then a zero
	// constraint count.
	putU32(data, headerLen(s), 4_000_000_000)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Len(t, got.Objects, MaxObjects)
	assert.Empty(t, got.Constraints)
}

func TestDecode_OversizedExtensionCountIsClamped(t *testing.T) {
	s := &snapshot.Snapshot{
		Objects: []snapshot.ObjectRecord{{Index: 1, ClassName: "c", Rotation: mgl32.QuatIdent()}},
	}
	for i := 0; i < MaxExtension; i++ {
		s.Objects[0].Extension = append(s.Objects[0].Extension, snapshot.ObjectRef(i))
	}
	data, err := Encode(s)
	require.NoError(t, err)

	// object count, index, class, model, position, rotation, frozen
	extOffset := headerLen(s) + 4 + 4 + (4 + 1) + 4 + 12 + 16 + 1
	require.Equal(t, uint32(MaxExtension), binary.LittleEndian.Uint32(data[extOffset:]))
	putU32(data, extOffset, 0xFFFFFFFF)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got.Objects, 1)
	assert.Len(t, got.Objects[0].Extension, MaxExtension)
}

func TestDecode_DanglingConstraintDroppedIndividually(t *testing.T) {
	s := fullSnapshot()
	s.Constraints[1].Object2 = 404

	data, err := Encode(s)
	require.NoError(t, err)

	dec := NewDecoder(bytes.NewReader(data))
	got, err := dec.Decode()
	require.NoError(t, err)

	assert.Len(t, got.Objects, 3)
	require.Len(t, got.Constraints, len(s.Constraints)-1)
	assert.Equal(t, snapshot.KindWeld, got.Constraints[0].Kind)
	assert.Equal(t, snapshot.KindSpring, got.Constraints[1].Kind)

	require.Len(t, dec.Dropped(), 1)
	assert.True(t, snapshot.HasCode(dec.Dropped()[0], snapshot.ErrCodeMissingObject))
}

func TestDecode_BadValueTag(t *testing.T) {
	s := &snapshot.Snapshot{
		Objects: []snapshot.ObjectRecord{{Index: 1, ClassName: "c", Rotation: mgl32.QuatIdent(),
			Extension: []snapshot.Value{snapshot.ObjectRef(3)}}},
	}
	data, err := Encode(s)
	require.NoError(t, err)

	tagOffset := headerLen(s) + 4 + 4 + (4 + 1) + 4 + 12 + 16 + 1 + 4
	require.Equal(t, byte(snapshot.TagObjectRef), data[tagOffset])
	data[tagOffset] = 9

	_, err = Decode(data)
	assert.True(t, HasCode(err, ErrCodeBadValueTag), "got %v", err)
}

func TestDecode_BadKind(t *testing.T) {
	s := &snapshot.Snapshot{
		Objects:     []snapshot.ObjectRecord{{Index: 1, Rotation: mgl32.QuatIdent()}},
		Constraints: []snapshot.ConstraintRecord{{Kind: snapshot.KindWeld, Object1: 1, Object2: 1}},
	}
	data, err := Encode(s)
	require.NoError(t, err)

	kindOffset := headerLen(s) + 4 + 4 + 4 + 4 + 12 + 16 + 1 + 4 + 4
	require.Equal(t, byte(snapshot.KindWeld), data[kindOffset])
	data[kindOffset] = 200

	_, err = Decode(data)
	assert.True(t, HasCode(err, ErrCodeBadKind), "got %v", err)
}

func TestDecode_StringTooLong(t *testing.T) {
	data, err := Encode(&snapshot.Snapshot{})
	require.NoError(t, err)
	putU32(data, 5, MaxStringLen+1)

	_, err = Decode(data)
	assert.True(t, HasCode(err, ErrCodeStringTooLong), "got %v", err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestDecode_ReaderErrorIsFormatError(t *testing.T) {
	_, err := NewDecoder(failingReader{}).Decode()
	require.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestLimits_ClampToHardMaximum(t *testing.T) {
	l := Limits{Objects: 10, Constraints: 99999}.clamp()
	assert.Equal(t, 10, l.Objects)
	assert.Equal(t, MaxConstraints, l.Constraints)
	assert.Equal(t, MaxExtension, l.Extension)
}

func TestDecode_WithLimitsLowersObjectCap(t *testing.T) {
	s := &snapshot.Snapshot{}
	for i := 0; i < 3; i++ {
		s.Objects = append(s.Objects, snapshot.ObjectRecord{Index: int32(i), Rotation: mgl32.QuatIdent()})
	}
	data, err := Encode(s)
	require.NoError(t, err)

	// With a cap of 3 the full stream decodes; the cap only bites on larger claims.
	got, err := Decode(data, WithLimits(Limits{Objects: 3}))
	require.NoError(t, err)
	assert.Len(t, got.Objects, 3)
}

func TestFingerprint(t *testing.T) {
	a, err := Encode(fullSnapshot())
	require.NoError(t, err)
	b, err := Encode(fullSnapshot())
	require.NoError(t, err)

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Len(t, Fingerprint(a), 64)

	other := fullSnapshot()
	other.Name = "different"
	c, err := Encode(other)
	require.NoError(t, err)
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}
