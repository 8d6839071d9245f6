package physics

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/cathedral/common"
)

// minExtent is the smallest footprint area or height a static collider may
// have before it is rejected as degenerate.
const minExtent = 1e-6

// AddStaticBox adds an axis-aligned box to the world's static geometry.
func (s *Space) AddStaticBox(desc BoxDesc) (ColliderHandle, error) {
	c, h := desc.Center, desc.HalfExtents
	for i := 0; i < 3; i++ {
		if !common.Finite(c[i]) || !common.Finite(h[i]) || h[i] <= minExtent {
			return 0, fmt.Errorf("box center %v half extents %v: %w", c, h, ErrDegenerateCollider)
		}
	}

	bb := cp.BB{L: c.X() - h.X(), B: c.Z() - h.Z(), R: c.X() + h.X(), T: c.Z() + h.Z()}
	shape := cp.NewBox2(s.space.StaticBody, bb, 0)
	return s.addStatic(shape, c.Y()-h.Y(), c.Y()+h.Y(), desc.Friction, desc.Restitution), nil
}

// AddStaticHull adds a convex hull to the world's static geometry. Points
// that do not span a footprint with area and a vertical extent are
// rejected with ErrDegenerateCollider.
func (s *Space) AddStaticHull(desc HullDesc) (ColliderHandle, error) {
	if len(desc.Points) < 3 {
		return 0, fmt.Errorf("hull of %d points: %w", len(desc.Points), ErrDegenerateCollider)
	}

	verts := make([]cp.Vector, 0, len(desc.Points))
	minY, maxY := desc.Points[0].Y(), desc.Points[0].Y()
	for _, p := range desc.Points {
		if !common.Finite(p.X()) || !common.Finite(p.Y()) || !common.Finite(p.Z()) {
			return 0, fmt.Errorf("hull point %v: %w", p, ErrDegenerateCollider)
		}
		verts = append(verts, cp.Vector{X: p.X(), Y: p.Z()})
		if p.Y() < minY {
			minY = p.Y()
		}
		if p.Y() > maxY {
			maxY = p.Y()
		}
	}

	count := cp.ConvexHull(len(verts), verts, nil, 0)
	if count < 3 {
		return 0, fmt.Errorf("hull of %d points has %d corners: %w", len(desc.Points), count, ErrDegenerateCollider)
	}
	if area := cp.AreaForPoly(count, verts[:count], 0); area <= minExtent {
		return 0, fmt.Errorf("hull footprint area %.6f: %w", area, ErrDegenerateCollider)
	}
	if maxY-minY <= minExtent {
		return 0, fmt.Errorf("hull height %.6f: %w", maxY-minY, ErrDegenerateCollider)
	}

	shape := cp.NewPolyShapeRaw(s.space.StaticBody, count, verts[:count], 0)
	return s.addStatic(shape, minY, maxY, desc.Friction, desc.Restitution), nil
}

func (s *Space) addStatic(shape *cp.Shape, minY, maxY, friction, restitution float64) ColliderHandle {
	shape.SetFriction(common.NonNegative(friction))
	shape.SetElasticity(common.NonNegative(restitution))
	shape.SetCollisionType(collisionTypeStatic)

	s.nextCollider++
	p := &prism{
		handle:      s.nextCollider,
		shape:       shape,
		minY:        minY,
		maxY:        maxY,
		restitution: common.NonNegative(restitution),
	}
	shape.UserData = p
	s.space.AddShape(shape)
	shape.CacheBB()

	s.colliders[p.handle] = p
	s.staticOrder = append(s.staticOrder, p.handle)
	return p.handle
}

// RemoveCollider removes a static collider. Capsules go away with their
// body through RemoveBody.
func (s *Space) RemoveCollider(handle ColliderHandle) error {
	p, ok := s.colliders[handle]
	if !ok || p.owner != nil {
		return fmt.Errorf("remove collider %d: %w", handle, ErrUnknownCollider)
	}
	s.space.RemoveShape(p.shape)
	delete(s.colliders, handle)
	for i, h := range s.staticOrder {
		if h == handle {
			s.staticOrder = append(s.staticOrder[:i], s.staticOrder[i+1:]...)
			break
		}
	}
	return nil
}

// ColliderBounds returns the vertical extent of a collider.
func (s *Space) ColliderBounds(handle ColliderHandle) (minY, maxY float64, ok bool) {
	p, ok := s.colliders[handle]
	if !ok {
		return 0, 0, false
	}
	minY, maxY = p.bounds()
	return minY, maxY, true
}

// StaticCount returns the number of static colliders in the world.
func (s *Space) StaticCount() int {
	return len(s.staticOrder)
}

// BodyCount returns the number of dynamic bodies in the world.
func (s *Space) BodyCount() int {
	return len(s.order)
}
