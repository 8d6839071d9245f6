package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/common"
)

var down = mgl64.Vec3{0, -1, 0}

// groundProbe is what was found under the feet. gap is the height of the
// feet above the surface, negative when sunk into it.
type groundProbe struct {
	found    bool
	terrain  bool
	gap      float64
	normalY  float64
	grounded bool
}

func (c *Controller) probe(pos mgl64.Vec3) groundProbe {
	p := c.params
	feet := pos.Y() - c.halfExtent()

	origin := mgl64.Vec3{pos.X(), feet + p.ProbeOffset, pos.Z()}
	reach := p.ProbeOffset + p.GroundTolerance + p.ExtraRayDistance
	if hit, ok := c.world.CastRay(origin, down, reach, true, c.body); ok {
		gap := hit.Distance - p.ProbeOffset
		return groundProbe{
			found:    true,
			gap:      gap,
			normalY:  hit.Normal.Y(),
			grounded: gap <= p.GroundTolerance && hit.Normal.Y() >= p.MinGroundNormalY,
		}
	}

	if c.height != nil {
		if h, ok := c.height(pos.X(), pos.Z()); ok && common.Finite(h) {
			gap := feet - h
			return groundProbe{
				found:    true,
				terrain:  true,
				gap:      gap,
				normalY:  1,
				grounded: gap <= p.GroundTolerance,
			}
		}
	}
	return groundProbe{}
}

// snap settles the body onto the ground it is hovering over or sunk into
// and returns the corrected vertical velocity. Colliders push bodies out on
// their own, so a collider surface is only snapped within SnapBand. Terrain
// from a HeightFunc has no collider behind it and is always snapped up to.
func (c *Controller) snap(g groundProbe, pos mgl64.Vec3, vy float64) float64 {
	p := c.params
	if vy > 0 {
		return vy
	}

	if g.terrain {
		if g.gap > p.SnapBand {
			return vy
		}
		if g.gap != 0 {
			c.world.SetTranslation(c.body, mgl64.Vec3{pos.X(), pos.Y() - g.gap, pos.Z()})
		}
		if g.gap < 0 || vy > -p.SnapVelocity {
			vy = 0
		}
		return vy
	}

	if math.Abs(g.gap) > p.SnapBand {
		return vy
	}
	if g.gap != 0 {
		c.world.SetTranslation(c.body, mgl64.Vec3{pos.X(), pos.Y() - g.gap, pos.Z()})
	}
	if vy > -p.SnapVelocity {
		vy = 0
	}
	return vy
}

// updateHysteresis counts consecutive ticks of resting vertical velocity.
func (c *Controller) updateHysteresis(vy float64) {
	if math.Abs(vy) < c.params.NearZeroVelocity {
		if c.state.Hysteresis < c.params.HysteresisCap {
			c.state.Hysteresis++
		}
		return
	}
	c.state.Hysteresis = 0
}

func (c *Controller) jumpBuffered() bool {
	return c.state.Time-c.state.LastJumpPressTime <= c.params.JumpBufferTime
}

// inCoyote reports whether the character left the ground recently enough
// to still jump. Ground time that a jump already spent does not count.
func (c *Controller) inCoyote() bool {
	last := c.state.LastGroundedTime
	return last > c.lastJumpTime && c.state.Time-last <= c.params.CoyoteTime
}

// groundedVertical runs the probe, snap, hysteresis and jump policy in that
// order and returns the vertical velocity to commit.
func (c *Controller) groundedVertical(dt float64, pos mgl64.Vec3, vy float64) float64 {
	g := c.probe(pos)
	c.state.Grounded = g.grounded
	if g.grounded {
		if c.state.Time > c.state.LastGroundedTime {
			c.state.LastGroundedTime = c.state.Time
		}
		vy = c.snap(g, pos, vy)
	}

	c.updateHysteresis(vy)
	likely := g.grounded || c.state.Hysteresis >= c.params.HysteresisThreshold
	c.state.LikelyGrounded = likely

	if c.jumpBuffered() && (likely || c.inCoyote()) {
		vy = c.params.JumpSpeed
		c.state.LastJumpPressTime = never
		c.lastJumpTime = c.state.Time
		c.state.Hysteresis = 0
		c.state.Jumps++
		c.log.Debugw("jump", "time", c.state.Time, "grounded", g.grounded, "likely", likely)
		return vy
	}

	if !g.grounded {
		vy -= c.params.Gravity * dt
	}
	return vy
}
