package controller

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/common"
	"github.com/milk9111/cathedral/input"
)

// PreTick decides the body velocity for the coming physics step and
// integrates look input. dt is the fixed step length.
func (c *Controller) PreTick(dt float64) {
	if c.closed || !(dt > 0) || !common.Finite(dt) {
		return
	}

	var frame input.Frame
	if c.in != nil {
		frame = c.in.Drain()
	}
	if frame.FlyTogglePressed {
		c.SetMode(!c.Flying())
	}

	pos := c.world.Translation(c.body)
	vel := c.world.LinearVelocity(c.body)

	fwd, right := frame.MoveAxes()
	v := c.horizontal(fwd, right, frame.Sprint)

	var vy float64
	if c.Flying() {
		c.state.Grounded = false
		c.state.LikelyGrounded = false
		switch {
		case frame.Jump && !frame.Down:
			vy = c.speedTier(frame.Sprint)
		case frame.Down && !frame.Jump:
			vy = -c.speedTier(frame.Sprint)
		}
	} else {
		if frame.JumpPressed {
			c.state.LastJumpPressTime = c.state.Time
		}
		vy = c.groundedVertical(dt, pos, vel.Y())
	}

	v[1] = vy
	c.world.SetLinearVelocity(c.body, v)
	c.state.Velocity = v

	c.look(dt, frame.LookDX, frame.LookDY)
	c.state.Time += dt
}

// PostTick places the camera at the body's post-step position.
func (c *Controller) PostTick() {
	if c.closed {
		return
	}
	c.refreshView(c.world.Translation(c.body))
	c.state.Velocity = c.world.LinearVelocity(c.body)
}

func (c *Controller) refreshView(pos mgl64.Vec3) {
	c.state.Position = pos
	c.state.Orientation = mgl64.AnglesToQuat(c.state.Yaw, c.state.Pitch, 0, mgl64.YXZ)
	if c.cam == nil {
		return
	}
	c.cam.SetPosition(pos.Add(mgl64.Vec3{0, c.params.EyeHeight, 0}))
	c.cam.SetOrientation(c.state.Yaw, c.state.Pitch)
}
