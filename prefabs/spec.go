package prefabs

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/controller"
	"gopkg.in/yaml.v3"
)

const (
	PlayerFile = "player.yaml"
	SceneFile  = "cathedral.yaml"
)

// LoadSpec decodes a yaml prefab into a fresh T.
func LoadSpec[T any](filename string) (T, error) {
	var spec T
	err := loadInto(filename, &spec)
	return spec, err
}

// loadInto decodes over out, so keys missing from the file keep the values
// out already holds.
func loadInto(filename string, out any) error {
	data, err := Load(filename)
	if err != nil {
		return fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	return nil
}

// PlayerSpec is the controller tuning file.
type PlayerSpec struct {
	Name string `yaml:"name"`

	MoveSpeed   float64 `yaml:"move_speed"`
	SprintSpeed float64 `yaml:"sprint_speed"`
	JumpSpeed   float64 `yaml:"jump_speed"`
	EyeHeight   float64 `yaml:"eye_height"`

	MouseSensitivity float64 `yaml:"mouse_sensitivity"`
	SmoothingTime    float64 `yaml:"smoothing_time"`
	InvertY          bool    `yaml:"invert_y"`

	Ground GroundSpec `yaml:"ground"`

	CoyoteTime     float64 `yaml:"coyote_time"`
	JumpBufferTime float64 `yaml:"jump_buffer_time"`
	Gravity        float64 `yaml:"gravity"`
	GravityScale   float64 `yaml:"gravity_scale"`

	Collider CapsuleSpec `yaml:"collider"`
}

type GroundSpec struct {
	ProbeOffset         float64 `yaml:"probe_offset"`
	Tolerance           float64 `yaml:"tolerance"`
	ExtraRayDistance    float64 `yaml:"extra_ray_distance"`
	MinNormalY          float64 `yaml:"min_normal_y"`
	SnapBand            float64 `yaml:"snap_band"`
	SnapVelocity        float64 `yaml:"snap_velocity"`
	NearZeroVelocity    float64 `yaml:"near_zero_velocity"`
	HysteresisThreshold int     `yaml:"hysteresis_threshold"`
	HysteresisCap       int     `yaml:"hysteresis_cap"`
}

type CapsuleSpec struct {
	Radius      float64 `yaml:"radius"`
	HalfHeight  float64 `yaml:"half_height"`
	Mass        float64 `yaml:"mass"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// PlayerSpecFromParams is the spec that reproduces p.
func PlayerSpecFromParams(p controller.Params) PlayerSpec {
	return PlayerSpec{
		Name:             "player",
		MoveSpeed:        p.MoveSpeed,
		SprintSpeed:      p.SprintSpeed,
		JumpSpeed:        p.JumpSpeed,
		EyeHeight:        p.EyeHeight,
		MouseSensitivity: p.MouseSensitivity,
		SmoothingTime:    p.SmoothingTime,
		InvertY:          p.InvertY,
		Ground: GroundSpec{
			ProbeOffset:         p.ProbeOffset,
			Tolerance:           p.GroundTolerance,
			ExtraRayDistance:    p.ExtraRayDistance,
			MinNormalY:          p.MinGroundNormalY,
			SnapBand:            p.SnapBand,
			SnapVelocity:        p.SnapVelocity,
			NearZeroVelocity:    p.NearZeroVelocity,
			HysteresisThreshold: p.HysteresisThreshold,
			HysteresisCap:       p.HysteresisCap,
		},
		CoyoteTime:     p.CoyoteTime,
		JumpBufferTime: p.JumpBufferTime,
		Gravity:        p.Gravity,
		GravityScale:   p.GravityScale,
		Collider: CapsuleSpec{
			Radius:      p.CapsuleRadius,
			HalfHeight:  p.CapsuleHalfHeight,
			Mass:        p.Mass,
			Friction:    p.Friction,
			Restitution: p.Restitution,
		},
	}
}

// Params converts the spec into normalized controller tuning.
func (s PlayerSpec) Params() controller.Params {
	return controller.Params{
		MoveSpeed:           s.MoveSpeed,
		SprintSpeed:         s.SprintSpeed,
		JumpSpeed:           s.JumpSpeed,
		EyeHeight:           s.EyeHeight,
		MouseSensitivity:    s.MouseSensitivity,
		SmoothingTime:       s.SmoothingTime,
		InvertY:             s.InvertY,
		ProbeOffset:         s.Ground.ProbeOffset,
		GroundTolerance:     s.Ground.Tolerance,
		ExtraRayDistance:    s.Ground.ExtraRayDistance,
		MinGroundNormalY:    s.Ground.MinNormalY,
		SnapBand:            s.Ground.SnapBand,
		SnapVelocity:        s.Ground.SnapVelocity,
		NearZeroVelocity:    s.Ground.NearZeroVelocity,
		HysteresisThreshold: s.Ground.HysteresisThreshold,
		HysteresisCap:       s.Ground.HysteresisCap,
		CoyoteTime:          s.CoyoteTime,
		JumpBufferTime:      s.JumpBufferTime,
		Gravity:             s.Gravity,
		GravityScale:        s.GravityScale,
		CapsuleRadius:       s.Collider.Radius,
		CapsuleHalfHeight:   s.Collider.HalfHeight,
		Mass:                s.Collider.Mass,
		Friction:            s.Collider.Friction,
		Restitution:         s.Collider.Restitution,
	}.Normalized()
}

// LoadPlayerSpec reads filename on top of the default tuning.
func LoadPlayerSpec(filename string) (PlayerSpec, error) {
	spec := PlayerSpecFromParams(controller.DefaultParams())
	if err := loadInto(filename, &spec); err != nil {
		return PlayerSpecFromParams(controller.DefaultParams()), err
	}
	return spec, nil
}

// SceneSpec is a level: where the player starts and the static geometry.
type SceneSpec struct {
	Name  string    `yaml:"name"`
	Spawn SpawnSpec `yaml:"spawn"`
	// KillY respawns the player once its center drops below it. Nil
	// disables respawning.
	KillY   *float64     `yaml:"kill_y"`
	Boxes   []BoxSpec    `yaml:"boxes"`
	Hulls   []HullSpec   `yaml:"hulls"`
	Terrain *TerrainSpec `yaml:"terrain"`
}

type SpawnSpec struct {
	Position Vec3Spec `yaml:"position"`
	Yaw      float64  `yaml:"yaw"`
	Pitch    float64  `yaml:"pitch"`
}

type BoxSpec struct {
	Name        string   `yaml:"name"`
	Center      Vec3Spec `yaml:"center"`
	HalfExtents Vec3Spec `yaml:"half_extents"`
	Friction    float64  `yaml:"friction"`
	Restitution float64  `yaml:"restitution"`
}

type HullSpec struct {
	Name        string     `yaml:"name"`
	Points      []Vec3Spec `yaml:"points"`
	Friction    float64    `yaml:"friction"`
	Restitution float64    `yaml:"restitution"`
}

// TerrainSpec binds a tengo height script to a rectangle of the XZ plane.
type TerrainSpec struct {
	Script string  `yaml:"script"`
	MinX   float64 `yaml:"min_x"`
	MaxX   float64 `yaml:"max_x"`
	MinZ   float64 `yaml:"min_z"`
	MaxZ   float64 `yaml:"max_z"`
}

func LoadSceneSpec(filename string) (SceneSpec, error) {
	return LoadSpec[SceneSpec](filename)
}

// Vec3Spec is written as a three element sequence: [x, y, z].
type Vec3Spec struct {
	mgl64.Vec3
}

func (v *Vec3Spec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("vector must be a sequence")
	}
	if len(value.Content) != 3 {
		return fmt.Errorf("vector needs 3 components, got %d", len(value.Content))
	}

	for i, n := range value.Content {
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("invalid vector component %q: %w", n.Value, err)
		}
		v.Vec3[i] = f
	}
	return nil
}

func (v Vec3Spec) MarshalYAML() (any, error) {
	return []float64{v.X(), v.Y(), v.Z()}, nil
}
