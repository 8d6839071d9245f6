package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/cathedral/common"
)

const (
	collisionTypeBody cp.CollisionType = iota + 1
	collisionTypeStatic
)

const (
	defaultIterations = 20
	collisionSlop     = 0.001
	sleepThreshold    = 0.5

	// stepSkin is how far a body's feet may sit below a surface top and
	// still be treated as standing on it rather than touching its side.
	stepSkin = 0.02
	// footprintSkin shrinks the capsule footprint when deciding whether a
	// body is over a surface, so grazing a wall does not count as support.
	footprintSkin = 0.01

	ccdSubstepFraction = 0.5
	maxSubsteps        = 8

	// bounceCutoff is the rebound speed below which a landing comes to rest.
	bounceCutoff = 0.1
)

// Space is a World backed by a Chipmunk space. Chipmunk solves contacts in
// the horizontal XZ plane: capsules are circles and static colliders are
// convex footprints. Every collider also has a vertical extent, and the
// Space integrates the Y axis itself, landing bodies on the tops of the
// colliders under them and stopping them against ceilings.
type Space struct {
	space   *cp.Space
	dt      float64
	gravity mgl64.Vec3

	bodies      map[BodyHandle]*rigidBody
	order       []BodyHandle
	colliders   map[ColliderHandle]*prism
	staticOrder []ColliderHandle

	nextBody     BodyHandle
	nextCollider ColliderHandle
}

type rigidBody struct {
	handle  BodyHandle
	body    *cp.Body
	capsule *prism

	y            float64
	vy           float64
	gravityScale float64

	locked   bool
	ccd      bool
	canSleep bool
	mass     float64
}

// prism is a collider: a convex XZ footprint swept over [minY, maxY]. A
// capsule prism has an owner and takes its vertical extent from the
// owner's height every time it is queried.
type prism struct {
	handle      ColliderHandle
	shape       *cp.Shape
	minY, maxY  float64
	restitution float64

	owner      *rigidBody
	radius     float64
	halfHeight float64
}

var (
	_ World       = (*Space)(nil)
	_ StaticWorld = (*Space)(nil)
)

// NewSpace creates an empty world stepping dt seconds per Step. A
// non-positive dt falls back to the fixed tick.
func NewSpace(dt float64, gravity mgl64.Vec3) *Space {
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = common.FixedStep
	}

	space := cp.NewSpace()
	space.Iterations = defaultIterations
	space.SetGravity(cp.Vector{X: gravity.X(), Y: gravity.Z()})
	space.SetCollisionSlop(collisionSlop)
	space.SleepTimeThreshold = sleepThreshold

	s := &Space{
		space:     space,
		dt:        dt,
		gravity:   gravity,
		bodies:    make(map[BodyHandle]*rigidBody),
		colliders: make(map[ColliderHandle]*prism),
	}
	s.setupHandlers()
	return s
}

// Space returns the underlying Chipmunk space.
func (s *Space) Space() *cp.Space {
	if s == nil {
		return nil
	}
	return s.space
}

func (s *Space) setupHandlers() {
	for _, pair := range [][2]cp.CollisionType{
		{collisionTypeBody, collisionTypeStatic},
		{collisionTypeBody, collisionTypeBody},
	} {
		handler := s.space.NewCollisionHandler(pair[0], pair[1])
		handler.UserData = s
		handler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
			a, b := arb.Shapes()
			pa, okA := a.UserData.(*prism)
			pb, okB := b.UserData.(*prism)
			if !okA || !okB {
				return true
			}
			return verticalOverlap(pa, pb)
		}
	}
}

// verticalOverlap reports whether two colliders share some height. A body
// whose feet are within stepSkin of a surface top is above it, not beside it.
func verticalOverlap(a, b *prism) bool {
	loA, hiA := a.contactRange()
	loB, hiB := b.contactRange()
	return loA < hiB && loB < hiA
}

func (p *prism) bounds() (float64, float64) {
	if p.owner == nil {
		return p.minY, p.maxY
	}
	he := p.halfHeight + p.radius
	return p.owner.y - he, p.owner.y + he
}

func (p *prism) contactRange() (float64, float64) {
	lo, hi := p.bounds()
	if p.owner != nil {
		lo += stepSkin
	}
	return lo, hi
}

// CreateBody adds a dynamic body. A non-positive mass is treated as 1.
func (s *Space) CreateBody(desc BodyDesc) BodyHandle {
	mass := desc.Mass
	if !(mass > 0) || math.IsInf(mass, 0) {
		mass = 1
	}

	moment := math.Inf(1)
	if !desc.LockRotations {
		moment = cp.MomentForCircle(mass, 0, 0.5, cp.Vector{})
	}

	body := cp.NewBody(mass, moment)
	pos := finiteVec(desc.Position)
	body.SetPosition(cp.Vector{X: pos.X(), Y: pos.Z()})
	body.SetAngularVelocity(0)

	s.nextBody++
	rb := &rigidBody{
		handle:       s.nextBody,
		body:         body,
		y:            pos.Y(),
		gravityScale: 1,
		locked:       desc.LockRotations,
		ccd:          desc.CCD,
		canSleep:     desc.CanSleep,
		mass:         mass,
	}
	body.UserData = rb
	body.SetVelocityUpdateFunc(func(body *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		cp.BodyUpdateVelocity(body, gravity.Mult(rb.gravityScale), damping, dt)
	})

	s.space.AddBody(body)
	s.bodies[rb.handle] = rb
	s.order = append(s.order, rb.handle)
	return rb.handle
}

// CreateCapsule attaches an upright capsule to body. A body carries at most
// one capsule; its center is the body position.
func (s *Space) CreateCapsule(handle BodyHandle, desc CapsuleDesc) (ColliderHandle, error) {
	rb, ok := s.bodies[handle]
	if !ok {
		return 0, fmt.Errorf("create capsule for body %d: %w", handle, ErrUnknownBody)
	}
	if rb.capsule != nil {
		return 0, fmt.Errorf("create capsule for body %d: %w", handle, ErrColliderAttached)
	}
	if !(desc.Radius > 0) || math.IsInf(desc.Radius, 0) || desc.HalfHeight < 0 || math.IsNaN(desc.HalfHeight) || math.IsInf(desc.HalfHeight, 0) {
		return 0, fmt.Errorf("capsule radius %.3f half height %.3f: %w", desc.Radius, desc.HalfHeight, ErrDegenerateCollider)
	}

	shape := cp.NewCircle(rb.body, desc.Radius, cp.Vector{})
	shape.SetFriction(common.NonNegative(desc.Friction))
	shape.SetElasticity(common.NonNegative(desc.Restitution))
	shape.SetCollisionType(collisionTypeBody)

	s.nextCollider++
	p := &prism{
		handle:      s.nextCollider,
		shape:       shape,
		restitution: common.NonNegative(desc.Restitution),
		owner:       rb,
		radius:      desc.Radius,
		halfHeight:  desc.HalfHeight,
	}
	shape.UserData = p

	if !rb.locked {
		rb.body.SetMoment(cp.MomentForCircle(rb.mass, 0, desc.Radius, cp.Vector{}))
	}
	s.space.AddShape(shape)

	rb.capsule = p
	s.colliders[p.handle] = p
	return p.handle, nil
}

// RemoveBody removes a body and its capsule. Unknown handles are ignored.
func (s *Space) RemoveBody(handle BodyHandle) {
	rb, ok := s.bodies[handle]
	if !ok {
		return
	}
	if rb.capsule != nil {
		s.space.RemoveShape(rb.capsule.shape)
		delete(s.colliders, rb.capsule.handle)
		rb.capsule = nil
	}
	s.space.RemoveBody(rb.body)
	delete(s.bodies, handle)
	for i, h := range s.order {
		if h == handle {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Space) LinearVelocity(handle BodyHandle) mgl64.Vec3 {
	rb, ok := s.bodies[handle]
	if !ok {
		return mgl64.Vec3{}
	}
	v := rb.body.Velocity()
	return mgl64.Vec3{v.X, rb.vy, v.Y}
}

func (s *Space) SetLinearVelocity(handle BodyHandle, v mgl64.Vec3) {
	rb, ok := s.bodies[handle]
	if !ok {
		return
	}
	v = finiteVec(v)
	rb.body.SetVelocity(v.X(), v.Z())
	rb.vy = v.Y()
	rb.body.Activate()
}

// Translation returns the body center.
func (s *Space) Translation(handle BodyHandle) mgl64.Vec3 {
	rb, ok := s.bodies[handle]
	if !ok {
		return mgl64.Vec3{}
	}
	p := rb.body.Position()
	return mgl64.Vec3{p.X, rb.y, p.Y}
}

func (s *Space) SetTranslation(handle BodyHandle, p mgl64.Vec3) {
	rb, ok := s.bodies[handle]
	if !ok {
		return
	}
	p = finiteVec(p)
	rb.body.SetPosition(cp.Vector{X: p.X(), Y: p.Z()})
	rb.y = p.Y()
	rb.body.Activate()
}

func (s *Space) GravityScale(handle BodyHandle) float64 {
	rb, ok := s.bodies[handle]
	if !ok {
		return 0
	}
	return rb.gravityScale
}

func (s *Space) SetGravityScale(handle BodyHandle, scale float64) {
	rb, ok := s.bodies[handle]
	if !ok || !common.Finite(scale) {
		return
	}
	rb.gravityScale = scale
	rb.body.Activate()
}

// Step advances the world by one fixed timestep.
func (s *Space) Step() {
	if s == nil || s.space == nil {
		return
	}

	for _, h := range s.order {
		rb := s.bodies[h]
		if !rb.canSleep {
			rb.body.Activate()
		}
	}

	n := s.substeps()
	sub := s.dt / float64(n)
	for i := 0; i < n; i++ {
		for _, h := range s.order {
			s.blockContacts(s.bodies[h])
		}
		s.space.Step(sub)
	}

	for _, h := range s.order {
		s.integrateVertical(s.bodies[h])
	}
}

// blockContacts removes the part of the body's velocity that drives it
// into the colliders it touched last step. Chipmunk integrates positions
// before solving, so the solver never sees a velocity set between steps.
func (s *Space) blockContacts(rb *rigidBody) {
	rb.body.EachArbiter(func(arb *cp.Arbiter) {
		if arb.Count() == 0 {
			return
		}
		// Normal points from this body toward the other shape.
		n := arb.Normal()
		v := rb.body.Velocity()
		if into := v.Dot(n); into > 0 {
			rb.body.SetVelocityVector(v.Sub(n.Mult(into)))
		}
	})
}

// substeps splits the horizontal step so no CCD body moves more than a
// fraction of its radius per Chipmunk step.
func (s *Space) substeps() int {
	n := 1
	for _, h := range s.order {
		rb := s.bodies[h]
		if !rb.ccd || rb.capsule == nil {
			continue
		}
		travel := rb.body.Velocity().Length() * s.dt
		limit := rb.capsule.radius * ccdSubstepFraction
		if travel <= limit {
			continue
		}
		k := int(math.Ceil(travel / limit))
		if k > n {
			n = k
		}
	}
	if n > maxSubsteps {
		n = maxSubsteps
	}
	return n
}

func (s *Space) integrateVertical(rb *rigidBody) {
	rb.vy += s.gravity.Y() * rb.gravityScale * s.dt
	if !common.Finite(rb.vy) {
		rb.vy = 0
	}

	oldY := rb.y
	newY := oldY + rb.vy*s.dt

	var radius, he, restitution float64
	if rb.capsule != nil {
		radius = rb.capsule.radius
		he = rb.capsule.halfHeight + rb.capsule.radius
		restitution = rb.capsule.restitution
	}
	center := rb.body.Position()

	switch {
	case rb.vy <= 0:
		if top, rest, ok := s.landing(rb, center, radius, oldY-he, newY-he); ok {
			newY = top + he
			rb.vy = -rb.vy * math.Max(restitution, rest)
			if rb.vy < bounceCutoff {
				rb.vy = 0
			}
		}
	default:
		if bottom, ok := s.ceiling(rb, center, radius, oldY+he, newY+he); ok {
			newY = bottom - he
			rb.vy = 0
		}
	}

	rb.y = newY
	if rb.vy != 0 {
		rb.body.Activate()
	}
}

// landing finds the highest surface the body's feet crossed this step.
func (s *Space) landing(rb *rigidBody, center cp.Vector, radius, oldBottom, newBottom float64) (float64, float64, bool) {
	best := math.Inf(-1)
	var rest float64
	found := false
	s.eachSupport(rb, center, radius, func(p *prism) {
		lo, hi := p.bounds()
		var hit bool
		if rb.ccd {
			hit = oldBottom >= hi-stepSkin && newBottom < hi
		} else {
			hit = newBottom < hi && newBottom >= (lo+hi)/2
		}
		if hit && hi > best {
			best = hi
			rest = p.restitution
			found = true
		}
	})
	return best, rest, found
}

// ceiling finds the lowest underside the body's head crossed this step.
func (s *Space) ceiling(rb *rigidBody, center cp.Vector, radius, oldTop, newTop float64) (float64, bool) {
	best := math.Inf(1)
	found := false
	s.eachSupport(rb, center, radius, func(p *prism) {
		lo, hi := p.bounds()
		var hit bool
		if rb.ccd {
			hit = oldTop <= lo+stepSkin && newTop > lo
		} else {
			hit = newTop > lo && newTop <= (lo+hi)/2
		}
		if hit && lo < best {
			best = lo
			found = true
		}
	})
	return best, found
}

// eachSupport visits every collider whose footprint lies under the body.
func (s *Space) eachSupport(rb *rigidBody, center cp.Vector, radius float64, fn func(p *prism)) {
	reach := radius - footprintSkin
	visit := func(p *prism) {
		if p.owner == rb {
			return
		}
		p.shape.CacheBB()
		if p.shape.PointQuery(center).Distance < reach {
			fn(p)
		}
	}
	for _, h := range s.staticOrder {
		visit(s.colliders[h])
	}
	for _, h := range s.order {
		if other := s.bodies[h]; other.capsule != nil {
			visit(other.capsule)
		}
	}
}

func finiteVec(v mgl64.Vec3) mgl64.Vec3 {
	for i := range v {
		if !common.Finite(v[i]) {
			v[i] = 0
		}
	}
	return v
}
