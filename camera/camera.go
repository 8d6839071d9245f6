package camera

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is a first-person view: an eye position and a yaw/pitch
// orientation without roll. Yaw 0 looks down -Z, positive pitch looks up.
type Camera struct {
	position    mgl64.Vec3
	yaw, pitch  float64
	orientation mgl64.Quat

	// FOV is the vertical field of view in radians.
	FOV float64
}

func New(fov float64) *Camera {
	if fov <= 0 {
		fov = mgl64.DegToRad(75)
	}
	return &Camera{orientation: mgl64.QuatIdent(), FOV: fov}
}

func (c *Camera) SetPosition(p mgl64.Vec3) {
	c.position = p
}

func (c *Camera) SetOrientation(yaw, pitch float64) {
	c.yaw, c.pitch = yaw, pitch
	c.orientation = mgl64.AnglesToQuat(yaw, pitch, 0, mgl64.YXZ)
}

func (c *Camera) Position() mgl64.Vec3 {
	return c.position
}

func (c *Camera) Angles() (yaw, pitch float64) {
	return c.yaw, c.pitch
}

func (c *Camera) Quat() mgl64.Quat {
	return c.orientation
}

// Forward is the unit view direction.
func (c *Camera) Forward() mgl64.Vec3 {
	return c.orientation.Rotate(mgl64.Vec3{0, 0, -1})
}

func (c *Camera) Right() mgl64.Vec3 {
	return c.orientation.Rotate(mgl64.Vec3{1, 0, 0})
}

func (c *Camera) Up() mgl64.Vec3 {
	return c.orientation.Rotate(mgl64.Vec3{0, 1, 0})
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	eye := c.position
	return mgl64.LookAtV(eye, eye.Add(c.Forward()), c.Up())
}

// Projection returns a perspective matrix for the given aspect ratio.
func (c *Camera) Projection(aspect, near, far float64) mgl64.Mat4 {
	return mgl64.Perspective(c.FOV, aspect, near, far)
}
