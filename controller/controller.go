package controller

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/common"
	"github.com/milk9111/cathedral/input"
	"github.com/milk9111/cathedral/logging"
	"github.com/milk9111/cathedral/physics"
	"go.uber.org/zap"
)

// Camera receives the eye transform after every physics step.
type Camera interface {
	SetPosition(p mgl64.Vec3)
	SetOrientation(yaw, pitch float64)
}

// Input is the consumer side of the input mailbox.
type Input interface {
	Drain() input.Frame
}

// HeightFunc reports the terrain height under (x, z). It is consulted when
// the ground probe finds no collider. ok is false outside the terrain.
type HeightFunc func(x, z float64) (height float64, ok bool)

// Controller drives a capsule body from player input. PreTick runs before
// the world steps and PostTick after it.
type Controller struct {
	world   physics.World
	body    physics.BodyHandle
	capsule physics.ColliderHandle
	cam     Camera
	in      Input
	height  HeightFunc
	log     *zap.SugaredLogger

	params Params
	state  State

	lookDX, lookDY float64
	lastJumpTime   float64
	closed         bool
}

type Option func(*Controller)

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

func WithHeightFunc(fn HeightFunc) Option {
	return func(c *Controller) {
		c.height = fn
	}
}

// New creates the character body and capsule in world at spawn. cam and in
// may be nil for headless use.
func New(world physics.World, cam Camera, in Input, spawn Spawn, params Params, opts ...Option) (*Controller, error) {
	if world == nil {
		return nil, errors.New("controller: nil world")
	}

	c := &Controller{
		world:        world,
		cam:          cam,
		in:           in,
		log:          logging.Nop(),
		params:       params.Normalized(),
		lastJumpTime: never,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.body = world.CreateBody(physics.BodyDesc{
		Position:      spawn.Position,
		Mass:          c.params.Mass,
		LockRotations: true,
		CCD:           true,
		CanSleep:      false,
	})
	capsule, err := world.CreateCapsule(c.body, physics.CapsuleDesc{
		Radius:      c.params.CapsuleRadius,
		HalfHeight:  c.params.CapsuleHalfHeight,
		Friction:    c.params.Friction,
		Restitution: c.params.Restitution,
	})
	if err != nil {
		world.RemoveBody(c.body)
		return nil, fmt.Errorf("controller: create capsule: %w", err)
	}
	c.capsule = capsule
	world.SetGravityScale(c.body, c.params.GravityScale)

	c.state = State{
		Position:          spawn.Position,
		Yaw:               common.WrapAngle(spawn.Yaw),
		Pitch:             mgl64.Clamp(spawn.Pitch, -PitchLimit, PitchLimit),
		Mode:              ModeGrounded,
		LastGroundedTime:  never,
		LastJumpPressTime: never,
	}
	c.refreshView(spawn.Position)

	c.log.Infow("controller created", "spawn", spawn.Position, "body", c.body)
	return c, nil
}

// Body returns the physics body the controller drives.
func (c *Controller) Body() physics.BodyHandle {
	return c.body
}

func (c *Controller) SetHeightFunc(fn HeightFunc) {
	c.height = fn
}

// State returns a snapshot of the character.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Mode() Mode {
	return c.state.Mode
}

func (c *Controller) Flying() bool {
	return c.state.Mode == ModeFlying
}

// SetMode switches between flying and walking. Switching clears vertical
// velocity and any buffered jump. Setting the current mode does nothing.
func (c *Controller) SetMode(flying bool) {
	if c.closed || flying == c.Flying() {
		return
	}

	c.state.Mode = ModeGrounded
	scale := c.params.GravityScale
	if flying {
		c.state.Mode = ModeFlying
		scale = 0
	}

	v := c.world.LinearVelocity(c.body)
	v[1] = 0
	c.world.SetLinearVelocity(c.body, v)
	c.world.SetGravityScale(c.body, scale)

	c.state.Velocity[1] = 0
	c.state.LastJumpPressTime = never
	c.state.Hysteresis = 0
	c.state.LikelyGrounded = false

	c.log.Infow("mode changed", "mode", c.state.Mode)
}

// Teleport moves the character to pos and stops it.
func (c *Controller) Teleport(pos mgl64.Vec3) {
	if c.closed {
		return
	}
	c.world.SetTranslation(c.body, pos)
	c.world.SetLinearVelocity(c.body, mgl64.Vec3{})
	c.state.Velocity = mgl64.Vec3{}
	c.state.LastJumpPressTime = never
	c.state.Hysteresis = 0
	c.state.Grounded = false
	c.state.LikelyGrounded = false
	c.lookDX, c.lookDY = 0, 0
	c.refreshView(c.world.Translation(c.body))

	c.log.Infow("teleported", "position", pos)
}

// Close removes the character body from the world.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.world.RemoveBody(c.body)
	c.closed = true
}

// halfExtent is the distance from the capsule center to its bottom.
func (c *Controller) halfExtent() float64 {
	return c.params.CapsuleHalfHeight + c.params.CapsuleRadius
}
