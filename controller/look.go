package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/common"
)

// look turns the raw pointer delta of this tick into yaw and pitch. With a
// smoothing time the delta passes through an exponential moving average.
func (c *Controller) look(dt, dx, dy float64) {
	p := c.params
	dx *= p.MouseSensitivity
	dy *= p.MouseSensitivity
	if p.InvertY {
		dy = -dy
	}

	alpha := 1.0
	if p.SmoothingTime > 0 {
		alpha = 1 - math.Exp(-dt/p.SmoothingTime)
	}
	c.lookDX = common.Lerp(c.lookDX, dx, alpha)
	c.lookDY = common.Lerp(c.lookDY, dy, alpha)

	c.state.Yaw = common.WrapAngle(c.state.Yaw - c.lookDX)
	c.state.Pitch = mgl64.Clamp(c.state.Pitch-c.lookDY, -PitchLimit, PitchLimit)
}

// heading returns the horizontal forward and right unit vectors for yaw.
func heading(yaw float64) (forward, right mgl64.Vec3) {
	sin, cos := math.Sincos(yaw)
	return mgl64.Vec3{-sin, 0, -cos}, mgl64.Vec3{cos, 0, -sin}
}

// horizontal is the desired XZ velocity for the held movement keys.
func (c *Controller) horizontal(fwdAxis, rightAxis float64, sprint bool) mgl64.Vec3 {
	forward, right := heading(c.state.Yaw)
	dir := forward.Mul(fwdAxis).Add(right.Mul(rightAxis))
	if dir.Len() == 0 {
		return mgl64.Vec3{}
	}
	return dir.Normalize().Mul(c.speedTier(sprint))
}

func (c *Controller) speedTier(sprint bool) float64 {
	if sprint {
		return c.params.SprintSpeed
	}
	return c.params.MoveSpeed
}

// Face points the view at yaw and pitch, dropping any smoothed motion.
func (c *Controller) Face(yaw, pitch float64) {
	if c.closed {
		return
	}
	c.state.Yaw = common.WrapAngle(yaw)
	c.state.Pitch = mgl64.Clamp(pitch, -PitchLimit, PitchLimit)
	c.lookDX, c.lookDY = 0, 0
	c.refreshView(c.world.Translation(c.body))
}
