package controller

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/common"
)

// Params tunes the controller. Lengths are world units, times are seconds,
// speeds are units per second.
type Params struct {
	MoveSpeed   float64
	SprintSpeed float64
	JumpSpeed   float64
	// EyeHeight is the camera offset above the capsule center.
	EyeHeight float64

	MouseSensitivity float64 // radians per pixel
	SmoothingTime    float64 // zero disables look smoothing
	InvertY          bool

	// The probe starts ProbeOffset above the capsule bottom and reaches
	// GroundTolerance + ExtraRayDistance below it.
	ProbeOffset      float64
	GroundTolerance  float64
	ExtraRayDistance float64
	MinGroundNormalY float64

	SnapBand     float64
	SnapVelocity float64

	NearZeroVelocity    float64
	HysteresisThreshold int
	HysteresisCap       int

	CoyoteTime     float64
	JumpBufferTime float64

	Gravity      float64
	GravityScale float64

	// Capsule settings only take effect when the body is created.
	CapsuleRadius     float64
	CapsuleHalfHeight float64
	Mass              float64
	Friction          float64
	Restitution       float64
}

func DefaultParams() Params {
	return Params{
		MoveSpeed:   4.5,
		SprintSpeed: 8,
		JumpSpeed:   5,
		EyeHeight:   0.6,

		MouseSensitivity: 0.0025,
		SmoothingTime:    0.03,

		ProbeOffset:      0.05,
		GroundTolerance:  0.05,
		ExtraRayDistance: 0.25,
		MinGroundNormalY: 0.7,

		SnapBand:     0.03,
		SnapVelocity: 0.5,

		NearZeroVelocity:    0.05,
		HysteresisThreshold: 3,
		HysteresisCap:       8,

		CoyoteTime:     0.12,
		JumpBufferTime: 0.12,

		Gravity:      common.Gravity,
		GravityScale: 1,

		CapsuleRadius:     0.3,
		CapsuleHalfHeight: 0.6,
		Mass:              80,
	}
}

// Normalized returns p with every out-of-range value clamped into range.
// NaN and infinite values become zero unless zero is invalid, then the
// default is used.
func (p Params) Normalized() Params {
	def := DefaultParams()

	for _, v := range []*float64{
		&p.MoveSpeed, &p.SprintSpeed, &p.JumpSpeed, &p.EyeHeight,
		&p.MouseSensitivity, &p.SmoothingTime,
		&p.ProbeOffset, &p.GroundTolerance, &p.ExtraRayDistance,
		&p.SnapBand, &p.SnapVelocity, &p.NearZeroVelocity,
		&p.CoyoteTime, &p.JumpBufferTime,
		&p.Gravity, &p.GravityScale,
		&p.CapsuleHalfHeight, &p.Friction, &p.Restitution,
	} {
		*v = finiteNonNegative(*v)
	}

	if !common.Finite(p.MinGroundNormalY) {
		p.MinGroundNormalY = def.MinGroundNormalY
	}
	p.MinGroundNormalY = mgl64.Clamp(p.MinGroundNormalY, 0, 1)

	if p.HysteresisThreshold < 1 {
		p.HysteresisThreshold = 1
	}
	if p.HysteresisCap < p.HysteresisThreshold {
		p.HysteresisCap = p.HysteresisThreshold
	}

	if !(p.CapsuleRadius > 0) || !common.Finite(p.CapsuleRadius) {
		p.CapsuleRadius = def.CapsuleRadius
	}
	if !(p.Mass > 0) || !common.Finite(p.Mass) {
		p.Mass = def.Mass
	}
	return p
}

func (c *Controller) MoveSpeed() float64        { return c.params.MoveSpeed }
func (c *Controller) SprintSpeed() float64      { return c.params.SprintSpeed }
func (c *Controller) JumpSpeed() float64        { return c.params.JumpSpeed }
func (c *Controller) EyeHeight() float64        { return c.params.EyeHeight }
func (c *Controller) MouseSensitivity() float64 { return c.params.MouseSensitivity }
func (c *Controller) SmoothingTime() float64    { return c.params.SmoothingTime }
func (c *Controller) InvertY() bool             { return c.params.InvertY }
func (c *Controller) GroundTolerance() float64  { return c.params.GroundTolerance }
func (c *Controller) ExtraRayDistance() float64 { return c.params.ExtraRayDistance }

func (c *Controller) SetMoveSpeed(v float64) {
	c.params.MoveSpeed = finiteNonNegative(v)
}

func (c *Controller) SetSprintSpeed(v float64) {
	c.params.SprintSpeed = finiteNonNegative(v)
}

func (c *Controller) SetJumpSpeed(v float64) {
	c.params.JumpSpeed = finiteNonNegative(v)
}

func (c *Controller) SetEyeHeight(v float64) {
	c.params.EyeHeight = finiteNonNegative(v)
}

func (c *Controller) SetMouseSensitivity(v float64) {
	c.params.MouseSensitivity = finiteNonNegative(v)
}

func (c *Controller) SetSmoothingTime(v float64) {
	c.params.SmoothingTime = finiteNonNegative(v)
}

func (c *Controller) SetInvertY(v bool) {
	c.params.InvertY = v
}

func (c *Controller) SetGroundTolerance(v float64) {
	c.params.GroundTolerance = finiteNonNegative(v)
}

func (c *Controller) SetExtraRayDistance(v float64) {
	c.params.ExtraRayDistance = finiteNonNegative(v)
}

// Params returns the current tuning.
func (c *Controller) Params() Params {
	return c.params
}

// ApplyParams replaces the tuning. Capsule settings are ignored because the
// body already exists.
func (c *Controller) ApplyParams(p Params) {
	p = p.Normalized()
	p.CapsuleRadius = c.params.CapsuleRadius
	p.CapsuleHalfHeight = c.params.CapsuleHalfHeight
	p.Mass = c.params.Mass
	p.Friction = c.params.Friction
	p.Restitution = c.params.Restitution

	gravityChanged := p.GravityScale != c.params.GravityScale
	c.params = p
	if gravityChanged && !c.Flying() && !c.closed {
		c.world.SetGravityScale(c.body, p.GravityScale)
	}
}

func finiteNonNegative(v float64) float64 {
	if !common.Finite(v) {
		return 0
	}
	return common.NonNegative(v)
}
