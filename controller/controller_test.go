package controller

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/camera"
	"github.com/milk9111/cathedral/input"
	"github.com/milk9111/cathedral/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60.0

type harness struct {
	t     *testing.T
	world *fakeWorld
	in    *input.Aggregator
	cam   *camera.Camera
	c     *Controller
}

func newHarness(t *testing.T, world *fakeWorld, spawn Spawn, params Params, opts ...Option) *harness {
	t.Helper()
	h := &harness{t: t, world: world, in: input.NewAggregator(1e6), cam: camera.New(0)}
	c, err := New(world, h.cam, h.in, spawn, params, opts...)
	require.NoError(t, err)
	h.c = c
	return h
}

func (h *harness) tick() {
	h.c.PreTick(dt)
	h.world.Step()
	h.c.PostTick()
}

func (h *harness) key(k input.Key, down bool) {
	h.in.Push(input.KeyChanged{Key: k, Down: down})
}

func (h *harness) tap(k input.Key) {
	h.key(k, true)
	h.key(k, false)
}

func standing() Spawn {
	return Spawn{Position: mgl64.Vec3{0, 0.9, 0}}
}

func TestYawStaysWrapped(t *testing.T) {
	p := DefaultParams()
	p.SmoothingTime = 0
	p.MouseSensitivity = 0.01
	h := newHarness(t, newFakeWorld().withFloor(0), standing(), p)

	for i := 0; i < 200; i++ {
		dx := 1000.0
		if i%3 == 0 {
			dx = -777
		}
		h.in.Push(input.PointerMoved{DX: dx})
		h.tick()
		yaw := h.c.State().Yaw
		require.Greater(t, yaw, -math.Pi)
		require.LessOrEqual(t, yaw, math.Pi)
	}
}

func TestPitchClamped(t *testing.T) {
	p := DefaultParams()
	p.SmoothingTime = 0
	p.MouseSensitivity = 0.01
	h := newHarness(t, newFakeWorld().withFloor(0), standing(), p)

	h.in.Push(input.PointerMoved{DY: 1e5})
	h.tick()
	assert.Equal(t, -PitchLimit, h.c.State().Pitch)
	assert.Greater(t, h.c.State().Pitch, -math.Pi/2)

	for i := 0; i < 5; i++ {
		h.in.Push(input.PointerMoved{DY: -1e5})
		h.tick()
	}
	assert.Equal(t, PitchLimit, h.c.State().Pitch)
	assert.Less(t, h.c.State().Pitch, math.Pi/2)
}

func TestLookDirectionAndInvert(t *testing.T) {
	p := DefaultParams()
	p.SmoothingTime = 0
	p.MouseSensitivity = 0.001
	h := newHarness(t, newFakeWorld().withFloor(0), standing(), p)

	h.in.Push(input.PointerMoved{DX: 100, DY: 100})
	h.tick()
	assert.InDelta(t, -0.1, h.c.State().Yaw, 1e-12, "moving right turns right")
	assert.InDelta(t, -0.1, h.c.State().Pitch, 1e-12, "moving down looks down")

	h.c.SetInvertY(true)
	h.in.Push(input.PointerMoved{DY: 100})
	h.tick()
	assert.InDelta(t, 0, h.c.State().Pitch, 1e-12)
}

func TestLookSmoothing(t *testing.T) {
	p := DefaultParams()
	p.SmoothingTime = 0.1
	p.MouseSensitivity = 0.001
	h := newHarness(t, newFakeWorld().withFloor(0), standing(), p)

	alpha := 1 - math.Exp(-dt/0.1)
	h.in.Push(input.PointerMoved{DX: 100})
	h.tick()
	first := h.c.State().Yaw
	assert.InDelta(t, -0.1*alpha, first, 1e-12)

	h.tick()
	assert.InDelta(t, first-0.1*alpha*(1-alpha), h.c.State().Yaw, 1e-12, "smoothed delta keeps easing in")
}

func TestDoubleToggleRestoresState(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())
	for i := 0; i < 10; i++ {
		h.tick()
	}

	scale := w.GravityScale(1)
	vy := w.LinearVelocity(1).Y()
	pending := h.c.State().LastJumpPressTime

	h.c.SetMode(true)
	assert.True(t, h.c.Flying())
	assert.Equal(t, 0.0, w.GravityScale(1))
	h.c.SetMode(false)
	assert.False(t, h.c.Flying())

	assert.Equal(t, scale, w.GravityScale(1))
	assert.Equal(t, vy, w.LinearVelocity(1).Y())
	assert.Equal(t, pending, h.c.State().LastJumpPressTime)
}

func TestSetModeSameModeIsNoop(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())
	writes := w.scaleWrites

	h.c.SetMode(false)
	assert.Equal(t, writes, w.scaleWrites)

	h.c.SetMode(true)
	h.c.SetMode(true)
	assert.Equal(t, writes+1, w.scaleWrites)
}

func TestFlyToggleKey(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())

	h.tap(input.KeyFlyToggle)
	h.tick()
	assert.Equal(t, ModeFlying, h.c.Mode())

	h.tap(input.KeyFlyToggle)
	h.tick()
	assert.Equal(t, ModeGrounded, h.c.Mode())
}

func TestToggleClearsBufferedJump(t *testing.T) {
	w := newFakeWorld()
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 10, 0}}, DefaultParams())

	h.tap(input.KeyJump)
	h.tick()
	require.False(t, math.IsInf(h.c.State().LastJumpPressTime, -1))

	h.c.SetMode(true)
	assert.True(t, math.IsInf(h.c.State().LastJumpPressTime, -1))
	assert.Equal(t, 0.0, w.LinearVelocity(1).Y())
}

// firstTick runs ticks until cond holds and returns the tick index.
func firstTick(t *testing.T, h *harness, limit int, cond func() bool) int {
	t.Helper()
	for i := 0; i < limit; i++ {
		h.tick()
		if cond() {
			return i
		}
	}
	t.Fatalf("condition not reached in %d ticks", limit)
	return -1
}

func TestJumpBuffer(t *testing.T) {
	spawn := Spawn{Position: mgl64.Vec3{0, 8, 0}}
	landed := func(h *harness) func() bool {
		return func() bool { return h.c.State().Grounded }
	}

	probe := newHarness(t, newFakeWorld().withFloor(0), spawn, DefaultParams())
	land := firstTick(t, probe, 600, landed(probe))
	require.Greater(t, land, 20)

	cases := []struct {
		name  string
		early int
		jumps int
	}{
		{"inside_window", 3, 1},
		{"same_tick", 0, 1},
		{"after_window", 20, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(t, newFakeWorld().withFloor(0), spawn, DefaultParams())
			for i := 0; i < land+120; i++ {
				if i == land-c.early {
					h.tap(input.KeyJump)
				}
				h.tick()
			}
			assert.Equal(t, c.jumps, h.c.State().Jumps)
		})
	}
}

func TestCoyoteTime(t *testing.T) {
	spawn := Spawn{Position: mgl64.Vec3{-1, 0.9, 0}, Yaw: -math.Pi / 2}
	newLedge := func() *fakeWorld {
		w := newFakeWorld().withFloor(0)
		w.edgeX = 0
		return w
	}

	probe := newHarness(t, newLedge(), spawn, DefaultParams())
	probe.key(input.KeyForward, true)
	probe.tick()
	require.True(t, probe.c.State().Grounded)
	left := firstTick(t, probe, 120, func() bool { return !probe.c.State().Grounded })

	cases := []struct {
		name  string
		after int
		jumps int
	}{
		{"inside_window", 2, 1},
		{"after_window", 12, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := newHarness(t, newLedge(), spawn, DefaultParams())
			h.key(input.KeyForward, true)
			h.tick()
			for i := 0; i <= left+c.after; i++ {
				if i == left+c.after {
					h.tap(input.KeyJump)
				}
				h.tick()
			}
			st := h.c.State()
			assert.False(t, st.Grounded)
			assert.False(t, st.LikelyGrounded)
			assert.Equal(t, c.jumps, st.Jumps)
		})
	}
}

func TestNoSecondJumpFromSpentGround(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())
	h.tick()

	h.tap(input.KeyJump)
	h.tick()
	require.Equal(t, 1, h.c.State().Jumps)
	require.Greater(t, w.LinearVelocity(1).Y(), 0.0)

	h.tick()
	h.tap(input.KeyJump)
	h.tick()
	assert.Equal(t, 1, h.c.State().Jumps)
}

func TestJumpFromRest(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	p := DefaultParams()
	h := newHarness(t, w, standing(), p)
	h.tick()

	h.tap(input.KeyJump)
	h.c.PreTick(dt)
	assert.Equal(t, p.JumpSpeed, w.LinearVelocity(1).Y())
	assert.True(t, math.IsInf(h.c.State().LastJumpPressTime, -1), "consumed press is cleared")
}

func TestSprintSpeed(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		name string
		keys []input.Key
		want float64
	}{
		{"walk", []input.Key{input.KeyForward}, p.MoveSpeed},
		{"sprint", []input.Key{input.KeyForward, input.KeySprint}, p.SprintSpeed},
		{"diagonal_walk", []input.Key{input.KeyForward, input.KeyRight}, p.MoveSpeed},
		{"diagonal_sprint", []input.Key{input.KeyBack, input.KeyLeft, input.KeySprint}, p.SprintSpeed},
		{"idle", nil, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newFakeWorld().withFloor(0)
			h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 0.9, 0}, Yaw: 0.7}, p)
			for _, k := range c.keys {
				h.key(k, true)
			}
			for i := 0; i < 5; i++ {
				h.c.PreTick(dt)
				v := w.LinearVelocity(1)
				assert.InDelta(t, c.want, math.Hypot(v.X(), v.Z()), 1e-12)
				w.Step()
				h.c.PostTick()
			}
		})
	}
}

func TestForwardFollowsYaw(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 0.9, 0}, Yaw: math.Pi / 2}, DefaultParams())
	h.key(input.KeyForward, true)
	h.c.PreTick(dt)

	v := w.LinearVelocity(1)
	assert.InDelta(t, -DefaultParams().MoveSpeed, v.X(), 1e-12)
	assert.InDelta(t, 0, v.Z(), 1e-12)
}

func TestFlyingVerticalSpeed(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		name string
		keys []input.Key
		want float64
	}{
		{"up", []input.Key{input.KeyJump}, p.MoveSpeed},
		{"up_sprint", []input.Key{input.KeyJump, input.KeySprint}, p.SprintSpeed},
		{"down", []input.Key{input.KeyDown}, -p.MoveSpeed},
		{"both", []input.Key{input.KeyJump, input.KeyDown}, 0},
		{"neither", nil, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newFakeWorld()
			h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 20, 0}}, p)
			h.c.SetMode(true)
			for _, k := range c.keys {
				h.key(k, true)
			}
			for i := 0; i < 30; i++ {
				h.tick()
				assert.Equal(t, c.want, w.LinearVelocity(1).Y())
			}
			assert.Equal(t, 0, h.c.State().Jumps)
		})
	}
}

func TestAirborneWithoutGround(t *testing.T) {
	w := newFakeWorld()
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 3, 0}}, DefaultParams())
	h.tick()
	h.tick()

	st := h.c.State()
	assert.False(t, st.Grounded)
	assert.Less(t, w.LinearVelocity(1).Y(), 0.0)
	assert.True(t, math.IsInf(st.LastGroundedTime, -1))
}

func TestSteepSurfaceIsNotGround(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	w.normal = mgl64.Vec3{0.8, 0.6, 0}
	h := newHarness(t, w, standing(), DefaultParams())
	h.tick()
	assert.False(t, h.c.State().Grounded)

	w.normal = mgl64.Vec3{0.6, 0.8, 0}
	h.tick()
	assert.True(t, h.c.State().Grounded)
}

func TestHeightFuncFallback(t *testing.T) {
	w := newFakeWorld()
	terrain := func(x, z float64) (float64, bool) { return 2, true }
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 6, 0}}, DefaultParams(), WithHeightFunc(terrain))

	for i := 0; i < 200; i++ {
		h.tick()
	}
	h.c.PreTick(dt)

	assert.True(t, h.c.State().Grounded)
	assert.InDelta(t, 2.9, w.Translation(1).Y(), 1e-9)
	assert.Equal(t, 0.0, w.LinearVelocity(1).Y())
}

func TestHeightFuncOutsideTerrain(t *testing.T) {
	w := newFakeWorld()
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 2.9, 0}}, DefaultParams())
	h.c.SetHeightFunc(func(x, z float64) (float64, bool) { return 2, false })
	h.tick()
	assert.False(t, h.c.State().Grounded)
}

func TestSnapSettlesHover(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	p := DefaultParams()
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 0.92, 0}}, p)

	h.c.PreTick(dt)
	assert.True(t, h.c.State().Grounded)
	assert.InDelta(t, 0.9, w.Translation(1).Y(), 1e-9)
	assert.Equal(t, 0.0, w.LinearVelocity(1).Y())
}

func TestHysteresisCountsRestingTicks(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	p := DefaultParams()
	h := newHarness(t, w, standing(), p)

	for i := 0; i < p.HysteresisCap+5; i++ {
		h.tick()
	}
	assert.Equal(t, p.HysteresisCap, h.c.State().Hysteresis)
	assert.True(t, h.c.State().LikelyGrounded)

	w.hasFloor = false
	h.tick()
	h.tick()
	assert.Equal(t, 0, h.c.State().Hysteresis)
	assert.False(t, h.c.State().LikelyGrounded)
}

func TestCameraFollowsBody(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{1, 0.9, -2}, Yaw: 0.3, Pitch: 0.2}, DefaultParams())
	h.key(input.KeyRight, true)
	h.tick()

	want := w.Translation(1).Add(mgl64.Vec3{0, h.c.EyeHeight(), 0})
	got := h.cam.Position()
	for i := range got {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
	yaw, pitch := h.cam.Angles()
	assert.Equal(t, h.c.State().Yaw, yaw)
	assert.Equal(t, h.c.State().Pitch, pitch)
	assert.Equal(t, w.Translation(1), h.c.State().Position)
}

func TestSettersClamp(t *testing.T) {
	h := newHarness(t, newFakeWorld(), standing(), DefaultParams())
	c := h.c

	c.SetMoveSpeed(-3)
	c.SetSprintSpeed(math.NaN())
	c.SetJumpSpeed(-1)
	c.SetEyeHeight(-0.5)
	c.SetMouseSensitivity(-1)
	c.SetSmoothingTime(math.Inf(1))
	c.SetGroundTolerance(-0.1)
	c.SetExtraRayDistance(-2)

	assert.Equal(t, 0.0, c.MoveSpeed())
	assert.Equal(t, 0.0, c.SprintSpeed())
	assert.Equal(t, 0.0, c.JumpSpeed())
	assert.Equal(t, 0.0, c.EyeHeight())
	assert.Equal(t, 0.0, c.MouseSensitivity())
	assert.Equal(t, 0.0, c.SmoothingTime())
	assert.Equal(t, 0.0, c.GroundTolerance())
	assert.Equal(t, 0.0, c.ExtraRayDistance())

	c.SetMoveSpeed(6)
	c.SetInvertY(true)
	assert.Equal(t, 6.0, c.MoveSpeed())
	assert.True(t, c.InvertY())
}

func TestNormalizedRejectsInfinity(t *testing.T) {
	inf := math.Inf(1)
	p := Params{
		MoveSpeed: inf, SprintSpeed: inf, JumpSpeed: inf, EyeHeight: inf,
		MouseSensitivity: inf, SmoothingTime: inf,
		ProbeOffset: inf, GroundTolerance: inf, ExtraRayDistance: inf, MinGroundNormalY: inf,
		SnapBand: inf, SnapVelocity: inf, NearZeroVelocity: inf,
		CoyoteTime: inf, JumpBufferTime: inf,
		Gravity: inf, GravityScale: inf,
		CapsuleRadius: inf, CapsuleHalfHeight: inf, Mass: inf, Friction: inf, Restitution: inf,
	}.Normalized()

	def := DefaultParams()
	want := Params{
		MinGroundNormalY:    def.MinGroundNormalY,
		HysteresisThreshold: 1,
		HysteresisCap:       1,
		CapsuleRadius:       def.CapsuleRadius,
		Mass:                def.Mass,
	}
	assert.Equal(t, want, p)
}

func TestInfiniteTuningKeepsLookAndJumpSane(t *testing.T) {
	h := newHarness(t, newFakeWorld().withFloor(0), standing(), DefaultParams())
	p := DefaultParams()
	p.SmoothingTime = 0
	p.MouseSensitivity = math.Inf(1)
	p.JumpBufferTime = math.Inf(1)
	h.c.ApplyParams(p)

	for i := 0; i < 30; i++ {
		h.in.Push(input.PointerMoved{DX: 5, DY: 5})
		h.tick()
	}

	st := h.c.State()
	assert.False(t, math.IsNaN(st.Pitch))
	assert.LessOrEqual(t, math.Abs(st.Pitch), PitchLimit)
	assert.Equal(t, 0, st.Jumps, "no press was made")
	assert.True(t, st.Grounded)
}

func TestApplyParams(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())

	p := DefaultParams()
	p.GravityScale = 2
	p.MoveSpeed = -1
	p.CapsuleRadius = 5
	h.c.ApplyParams(p)

	assert.Equal(t, 2.0, w.GravityScale(1))
	assert.Equal(t, 0.0, h.c.MoveSpeed())
	assert.Equal(t, DefaultParams().CapsuleRadius, h.c.Params().CapsuleRadius)

	h.c.SetMode(true)
	p.GravityScale = 3
	h.c.ApplyParams(p)
	assert.Equal(t, 0.0, w.GravityScale(1), "flying keeps gravity off")
	h.c.SetMode(false)
	assert.Equal(t, 3.0, w.GravityScale(1))
}

func TestTeleport(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, Spawn{Position: mgl64.Vec3{0, 5, 0}}, DefaultParams())
	for i := 0; i < 10; i++ {
		h.tick()
	}
	h.tap(input.KeyJump)
	h.tick()

	h.c.Teleport(mgl64.Vec3{3, 0.9, 3})
	assert.Equal(t, mgl64.Vec3{3, 0.9, 3}, w.Translation(1))
	assert.Equal(t, mgl64.Vec3{}, w.LinearVelocity(1))
	assert.True(t, math.IsInf(h.c.State().LastJumpPressTime, -1))
	assert.Equal(t, mgl64.Vec3{3, 0.9 + h.c.EyeHeight(), 3}, h.cam.Position())
}

func TestFace(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())

	h.c.Face(3*math.Pi, 2)
	yaw, pitch := h.cam.Angles()
	assert.InDelta(t, math.Pi, math.Abs(yaw), 1e-9)
	assert.Equal(t, PitchLimit, pitch)
	assert.Equal(t, yaw, h.c.State().Yaw)
}

func TestCloseRemovesBody(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())
	h.c.Close()
	assert.True(t, w.removed)

	w.vel = mgl64.Vec3{1, 2, 3}
	h.c.PreTick(dt)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, w.vel)
}

func TestNewCapsuleFailure(t *testing.T) {
	w := newFakeWorld()
	w.capsuleErr = physics.ErrDegenerateCollider
	_, err := New(w, nil, nil, standing(), DefaultParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, physics.ErrDegenerateCollider))
	assert.True(t, w.removed)

	_, err = New(nil, nil, nil, standing(), DefaultParams())
	assert.Error(t, err)
}

func TestLastGroundedTimeMonotonic(t *testing.T) {
	w := newFakeWorld().withFloor(0)
	h := newHarness(t, w, standing(), DefaultParams())
	prev := math.Inf(-1)
	for i := 0; i < 120; i++ {
		if i%40 == 0 {
			h.tap(input.KeyJump)
		}
		h.tick()
		cur := h.c.State().LastGroundedTime
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}
