package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/physics"
)

// fakeWorld is a single-body world with an optional flat floor that ends at
// edgeX. It integrates gravity like the real space does.
type fakeWorld struct {
	pos, vel mgl64.Vec3
	scale    float64
	gravity  float64
	dt       float64
	he       float64

	hasFloor bool
	floorY   float64
	edgeX    float64
	normal   mgl64.Vec3

	capsuleErr  error
	removed     bool
	scaleWrites int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		gravity: -9.81,
		dt:      1.0 / 60.0,
		edgeX:   math.Inf(1),
		normal:  mgl64.Vec3{0, 1, 0},
	}
}

func (f *fakeWorld) withFloor(y float64) *fakeWorld {
	f.hasFloor = true
	f.floorY = y
	return f
}

func (f *fakeWorld) CreateBody(desc physics.BodyDesc) physics.BodyHandle {
	f.pos = desc.Position
	f.scale = 1
	return 1
}

func (f *fakeWorld) CreateCapsule(body physics.BodyHandle, desc physics.CapsuleDesc) (physics.ColliderHandle, error) {
	if f.capsuleErr != nil {
		return 0, f.capsuleErr
	}
	f.he = desc.Radius + desc.HalfHeight
	return 1, nil
}

func (f *fakeWorld) RemoveBody(body physics.BodyHandle) {
	f.removed = true
}

func (f *fakeWorld) LinearVelocity(physics.BodyHandle) mgl64.Vec3 { return f.vel }
func (f *fakeWorld) SetLinearVelocity(_ physics.BodyHandle, v mgl64.Vec3) {
	f.vel = v
}
func (f *fakeWorld) Translation(physics.BodyHandle) mgl64.Vec3 { return f.pos }
func (f *fakeWorld) SetTranslation(_ physics.BodyHandle, p mgl64.Vec3) {
	f.pos = p
}
func (f *fakeWorld) GravityScale(physics.BodyHandle) float64 { return f.scale }
func (f *fakeWorld) SetGravityScale(_ physics.BodyHandle, s float64) {
	f.scale = s
	f.scaleWrites++
}

func (f *fakeWorld) supported(x float64) bool {
	return f.hasFloor && x < f.edgeX
}

func (f *fakeWorld) CastRay(origin, dir mgl64.Vec3, maxDistance float64, solid bool, exclude physics.BodyHandle) (physics.RayHit, bool) {
	if !f.supported(origin.X()) || origin.Y() < f.floorY {
		return physics.RayHit{}, false
	}
	dist := origin.Y() - f.floorY
	if dist > maxDistance {
		return physics.RayHit{}, false
	}
	return physics.RayHit{
		Distance: dist,
		Point:    mgl64.Vec3{origin.X(), f.floorY, origin.Z()},
		Normal:   f.normal,
		Collider: 1,
	}, true
}

func (f *fakeWorld) Step() {
	f.vel[1] += f.gravity * f.scale * f.dt
	f.pos = f.pos.Add(f.vel.Mul(f.dt))
	if f.supported(f.pos.X()) {
		bottom := f.pos.Y() - f.he
		if bottom < f.floorY && bottom > f.floorY-1 {
			f.pos[1] = f.floorY + f.he
			if f.vel[1] < 0 {
				f.vel[1] = 0
			}
		}
	}
}
