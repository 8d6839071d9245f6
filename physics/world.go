package physics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrUnknownBody        = errors.New("physics: unknown body")
	ErrUnknownCollider    = errors.New("physics: unknown collider")
	ErrDegenerateCollider = errors.New("physics: degenerate collider")
	ErrColliderAttached   = errors.New("physics: body already has a collider")
)

// BodyHandle identifies a dynamic body. The zero value is "no body".
type BodyHandle uint32

// ColliderHandle identifies a collider. The zero value is "no collider".
type ColliderHandle uint32

// BodyDesc describes a dynamic rigid body.
type BodyDesc struct {
	Position      mgl64.Vec3
	Mass          float64
	LockRotations bool
	// CCD sweeps the body so fast motion cannot skip thin geometry.
	CCD bool
	// CanSleep lets the body go idle. Bodies that are driven every tick
	// should leave this false.
	CanSleep bool
}

// CapsuleDesc describes an upright capsule attached to a body.
type CapsuleDesc struct {
	Radius      float64
	HalfHeight  float64
	Friction    float64
	Restitution float64
}

// BoxDesc describes an axis-aligned static box.
type BoxDesc struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Friction    float64
	Restitution float64
}

// HullDesc describes a static convex hull. The footprint is the convex hull
// of the points projected onto XZ, the vertical extent is their Y range.
type HullDesc struct {
	Points      []mgl64.Vec3
	Friction    float64
	Restitution float64
}

// RayHit is the first surface a ray cast touched.
type RayHit struct {
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Collider ColliderHandle
	// Body is set when the hit collider belongs to a dynamic body.
	Body BodyHandle
}

// World is the capability surface the character controller drives.
type World interface {
	CreateBody(desc BodyDesc) BodyHandle
	CreateCapsule(body BodyHandle, desc CapsuleDesc) (ColliderHandle, error)
	RemoveBody(body BodyHandle)

	LinearVelocity(body BodyHandle) mgl64.Vec3
	SetLinearVelocity(body BodyHandle, v mgl64.Vec3)
	Translation(body BodyHandle) mgl64.Vec3
	SetTranslation(body BodyHandle, p mgl64.Vec3)
	GravityScale(body BodyHandle) float64
	SetGravityScale(body BodyHandle, scale float64)

	// CastRay returns the closest hit along dir within maxDistance,
	// ignoring every collider owned by exclude. With solid set, a ray that
	// starts inside a collider hits it at distance zero.
	CastRay(origin, dir mgl64.Vec3, maxDistance float64, solid bool, exclude BodyHandle) (RayHit, bool)

	// Step advances the simulation by the world's fixed timestep.
	Step()
}

// StaticWorld is the part of the world scene geometry is built against.
type StaticWorld interface {
	AddStaticBox(desc BoxDesc) (ColliderHandle, error)
	AddStaticHull(desc HullDesc) (ColliderHandle, error)
	RemoveCollider(handle ColliderHandle) error
}
