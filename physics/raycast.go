package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/cathedral/common"
)

const parallelEpsilon = 1e-9

var (
	upNormal   = mgl64.Vec3{0, 1, 0}
	downNormal = mgl64.Vec3{0, -1, 0}
)

// CastRay returns the closest collider along dir. Capsules are tested as
// upright cylinders of the same radius and total height.
func (s *Space) CastRay(origin, dir mgl64.Vec3, maxDistance float64, solid bool, exclude BodyHandle) (RayHit, bool) {
	if s == nil || !(maxDistance > 0) || !common.Finite(maxDistance) {
		return RayHit{}, false
	}
	for i := 0; i < 3; i++ {
		if !common.Finite(origin[i]) || !common.Finite(dir[i]) {
			return RayHit{}, false
		}
	}
	if dir.Len() < parallelEpsilon {
		return RayHit{}, false
	}
	dir = dir.Normalize()

	var best RayHit
	found := false
	test := func(p *prism) {
		if p.owner != nil && p.owner.handle == exclude {
			return
		}
		p.shape.CacheBB()
		dist, normal, ok := rayPrism(p, origin, dir, maxDistance, solid)
		if !ok || (found && dist >= best.Distance) {
			return
		}
		best = RayHit{
			Distance: dist,
			Point:    origin.Add(dir.Mul(dist)),
			Normal:   normal,
			Collider: p.handle,
		}
		if p.owner != nil {
			best.Body = p.owner.handle
		}
		found = true
	}

	for _, h := range s.staticOrder {
		test(s.colliders[h])
	}
	for _, h := range s.order {
		if rb := s.bodies[h]; rb.capsule != nil {
			test(rb.capsule)
		}
	}
	return best, found
}

// rayPrism intersects a ray with a collider as the overlap of a vertical
// slab and the footprint interval along the ray. dir must be normalized.
func rayPrism(p *prism, origin, dir mgl64.Vec3, maxDistance float64, solid bool) (float64, mgl64.Vec3, bool) {
	lo, hi := p.bounds()

	yIn, yOut := math.Inf(-1), math.Inf(1)
	var yInNormal, yOutNormal mgl64.Vec3
	if math.Abs(dir.Y()) < parallelEpsilon {
		if origin.Y() < lo || origin.Y() > hi {
			return 0, mgl64.Vec3{}, false
		}
	} else {
		t1 := (lo - origin.Y()) / dir.Y()
		t2 := (hi - origin.Y()) / dir.Y()
		n1, n2 := downNormal, upNormal
		if t1 > t2 {
			t1, t2 = t2, t1
			n1, n2 = n2, n1
		}
		yIn, yOut = t1, t2
		yInNormal, yOutNormal = n1, n2
	}

	a := cp.Vector{X: origin.X(), Y: origin.Z()}
	xzIn, xzOut := math.Inf(-1), math.Inf(1)
	var xzInNormal, xzOutNormal mgl64.Vec3
	if math.Hypot(dir.X(), dir.Z())*maxDistance < parallelEpsilon {
		if p.shape.PointQuery(a).Distance > 0 {
			return 0, mgl64.Vec3{}, false
		}
	} else {
		b := cp.Vector{X: origin.X() + dir.X()*maxDistance, Y: origin.Z() + dir.Z()*maxDistance}

		var fwd cp.SegmentQueryInfo
		if !p.shape.SegmentQuery(a, b, 0, &fwd) {
			return 0, mgl64.Vec3{}, false
		}
		if fwd.Alpha > 0 || p.shape.PointQuery(a).Distance > 0 {
			xzIn = fwd.Alpha * maxDistance
			xzInNormal = mgl64.Vec3{fwd.Normal.X, 0, fwd.Normal.Y}
		}

		var back cp.SegmentQueryInfo
		if p.shape.SegmentQuery(b, a, 0, &back) && back.Alpha > 0 {
			xzOut = (1 - back.Alpha) * maxDistance
			xzOutNormal = mgl64.Vec3{back.Normal.X, 0, back.Normal.Y}
		}
	}

	enter, enterNormal := yIn, yInNormal
	if xzIn > yIn {
		enter, enterNormal = xzIn, xzInNormal
	}
	exit, exitNormal := yOut, yOutNormal
	if xzOut < yOut {
		exit, exitNormal = xzOut, xzOutNormal
	}

	if enter > exit || exit < 0 || enter > maxDistance {
		return 0, mgl64.Vec3{}, false
	}
	if enter < 0 {
		if solid {
			return 0, dir.Mul(-1), true
		}
		if exit > maxDistance {
			return 0, mgl64.Vec3{}, false
		}
		return exit, exitNormal, true
	}
	return enter, enterNormal, true
}
