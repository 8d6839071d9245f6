package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// never marks a timestamp that has not happened.
var never = math.Inf(-1)

// PitchLimit keeps pitch strictly inside (-Pi/2, Pi/2).
const PitchLimit = math.Pi/2 - 0.01

type Mode int

const (
	ModeGrounded Mode = iota
	ModeFlying
)

func (m Mode) String() string {
	switch m {
	case ModeGrounded:
		return "grounded"
	case ModeFlying:
		return "flying"
	default:
		return "unknown"
	}
}

// State is a snapshot of the character.
type State struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Yaw, Pitch  float64
	Velocity    mgl64.Vec3
	Mode        Mode

	// Grounded is the raw probe result of the last tick, LikelyGrounded
	// also counts the resting-velocity hysteresis.
	Grounded       bool
	LikelyGrounded bool
	Hysteresis     int

	LastGroundedTime  float64
	LastJumpPressTime float64
	Jumps             int

	// Time is simulated seconds since the controller was created.
	Time float64
}

// Spawn is the initial transform of the character.
type Spawn struct {
	Position   mgl64.Vec3
	Yaw, Pitch float64
}
