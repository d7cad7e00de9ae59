package sandbox

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dupe/internal/geom"
	"github.com/roach88/dupe/internal/world"
)

// Scene describes a set of entities and joints to build into a World.
type Scene struct {
	// Name labels the scene in logs and captured snapshots.
	Name string `yaml:"name"`

	// Entities are created in list order, so ids follow it.
	Entities []SceneEntity `yaml:"entities"`

	// Joints reference entities by name.
	Joints []SceneJoint `yaml:"joints,omitempty"`
}

// SceneEntity is one entity in a scene.
type SceneEntity struct {
	// Name is the scene-local handle used by parent, group and joints.
	Name  string `yaml:"name"`
	Class string `yaml:"class"`
	Model string `yaml:"model,omitempty"`

	// Position is the world position, three numbers.
	Position []float32 `yaml:"position"`

	// Yaw is a rotation about the up axis in degrees.
	Yaw float32 `yaml:"yaw,omitempty"`

	Frozen bool `yaml:"frozen,omitempty"`

	// Parent names the hierarchical parent.
	Parent string `yaml:"parent,omitempty"`

	// Group names an entity whose physics group this one shares.
	Group string `yaml:"group,omitempty"`

	// Bones is the number of bodies, default 1. Zero bodies is spelled
	// no_physics.
	Bones     int  `yaml:"bones,omitempty"`
	NoPhysics bool `yaml:"no_physics,omitempty"`
}

// SceneJoint is one joint in a scene.
type SceneJoint struct {
	// Type is a world.JointType name: fixed, spring, length, revolute,
	// spherical, prismatic or conical.
	Type string `yaml:"type"`

	A     string `yaml:"a"`
	B     string `yaml:"b"`
	BoneA int    `yaml:"bone_a,omitempty"`
	BoneB int    `yaml:"bone_b,omitempty"`

	// AnchorA and AnchorB are offsets in each entity's local frame.
	AnchorA []float32 `yaml:"anchor_a,omitempty"`
	AnchorB []float32 `yaml:"anchor_b,omitempty"`

	// Flags default to true when omitted.
	Collision *bool `yaml:"collision,omitempty"`
	Angular   *bool `yaml:"angular,omitempty"`
	Linear    *bool `yaml:"linear,omitempty"`

	Limits SceneLimits `yaml:"limits,omitempty"`
}

// SceneLimits mirrors world.Limits.
type SceneLimits struct {
	MinLength float32 `yaml:"min_length,omitempty"`
	MaxLength float32 `yaml:"max_length,omitempty"`
	Frequency float32 `yaml:"frequency,omitempty"`
	Damping   float32 `yaml:"damping,omitempty"`
	MinAngle  float32 `yaml:"min_angle,omitempty"`
	MaxAngle  float32 `yaml:"max_angle,omitempty"`
}

// LoadScene reads and parses a scene YAML file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return ParseScene(data)
}

// ParseScene parses scene YAML. Unknown fields are rejected.
func ParseScene(data []byte) (*Scene, error) {
	var scene Scene
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scene); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScene(&scene); err != nil {
		return nil, fmt.Errorf("invalid scene: %w", err)
	}
	return &scene, nil
}

func validateScene(s *Scene) error {
	if len(s.Entities) == 0 {
		return fmt.Errorf("entities list is required and must be non-empty")
	}
	names := make(map[string]bool, len(s.Entities))
	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity %d: name is required", i)
		}
		if names[e.Name] {
			return fmt.Errorf("entity %q: duplicate name", e.Name)
		}
		names[e.Name] = true
		if e.Class == "" {
			return fmt.Errorf("entity %q: class is required", e.Name)
		}
		if len(e.Position) != 3 {
			return fmt.Errorf("entity %q: position needs 3 numbers, got %d", e.Name, len(e.Position))
		}
		if e.Bones < 0 {
			return fmt.Errorf("entity %q: bones must not be negative", e.Name)
		}
	}
	for _, e := range s.Entities {
		if e.Parent != "" && !names[e.Parent] {
			return fmt.Errorf("entity %q: unknown parent %q", e.Name, e.Parent)
		}
		if e.Group != "" && !names[e.Group] {
			return fmt.Errorf("entity %q: unknown group %q", e.Name, e.Group)
		}
	}
	for i, j := range s.Joints {
		if _, ok := parseJointType(j.Type); !ok {
			return fmt.Errorf("joint %d: unknown type %q", i, j.Type)
		}
		if !names[j.A] || !names[j.B] {
			return fmt.Errorf("joint %d: unknown endpoint %q or %q", i, j.A, j.B)
		}
		for _, a := range [][]float32{j.AnchorA, j.AnchorB} {
			if a != nil && len(a) != 3 {
				return fmt.Errorf("joint %d: anchor needs 3 numbers, got %d", i, len(a))
			}
		}
	}
	return nil
}

func parseJointType(name string) (world.JointType, bool) {
	for t := world.JointFixed; t <= world.JointConical; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

func vec(f []float32) mgl32.Vec3 {
	if len(f) != 3 {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{f[0], f[1], f[2]}
}

func flag(p *bool) bool {
	return p == nil || *p
}

// Build creates the scene in w and returns its entities by name.
func (s *Scene) Build(w *World) (map[string]*Entity, error) {
	byName := make(map[string]*Entity, len(s.Entities))
	for _, se := range s.Entities {
		o, err := w.Spawn(se.Class)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %w", se.Name, err)
		}
		e := entityOf(o)
		e.SetModel(se.Model)
		e.SetTransform(geom.New(vec(se.Position), geom.Yaw(se.Yaw)))
		if se.NoPhysics {
			e.RemovePhysics()
		}
		for !se.NoPhysics && len(e.bodies) < se.Bones {
			e.AddBody()
		}
		e.SetFrozen(se.Frozen)
		e.SetPhysicsEnabled(!se.NoPhysics)
		byName[se.Name] = e
	}

	for _, se := range s.Entities {
		e := byName[se.Name]
		if se.Parent != "" {
			e.SetParent(byName[se.Parent])
		}
		if se.Group != "" {
			e.JoinGroup(byName[se.Group])
		}
	}

	for i, sj := range s.Joints {
		typ, _ := parseJointType(sj.Type)
		a, b := byName[sj.A], byName[sj.B]
		b1 := world.BodyFor(a.self, sj.BoneA)
		b2 := world.BodyFor(b.self, sj.BoneB)
		if b1 == nil || b2 == nil {
			return nil, fmt.Errorf("joint %d: endpoint has no body for the requested bone", i)
		}
		j, err := w.CreateJoint(world.JointSpec{
			Type:   typ,
			Body1:  b1,
			Body2:  b2,
			Frame1: a.transform.ToWorld(geom.At(vec(sj.AnchorA))),
			Frame2: b.transform.ToWorld(geom.At(vec(sj.AnchorB))),
			Limits: world.Limits(sj.Limits),
		})
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
		j.SetCollisionEnabled(flag(sj.Collision))
		j.SetAngularEnabled(flag(sj.Angular))
		j.SetLinearEnabled(flag(sj.Linear))
	}

	w.log.Debug("scene built", "scene", s.Name, "entities", len(s.Entities), "joints", len(s.Joints))
	return byName, nil
}
