package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/controller"
	"github.com/milk9111/cathedral/logging"
	"github.com/milk9111/cathedral/physics"
	"github.com/milk9111/cathedral/prefabs"
	"go.uber.org/zap"
)

// Group is the set of static colliders one scene added to the world.
type Group struct {
	handles []physics.ColliderHandle
}

func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.handles)
}

// Teardown removes every collider in the group. The group is empty
// afterwards, so calling it twice is harmless.
func (g *Group) Teardown(world physics.StaticWorld, log *zap.SugaredLogger) {
	if g == nil {
		return
	}
	for _, h := range g.handles {
		if err := world.RemoveCollider(h); err != nil && log != nil {
			log.Warnw("remove collider failed", "collider", h, "error", err)
		}
	}
	g.handles = nil
}

// Scene is a loaded level whose geometry lives in the world.
type Scene struct {
	Name    string
	Spawn   controller.Spawn
	KillY   float64
	HasKill bool
	Terrain *Terrain
	// Bounds holds the box of every collider that was built, for drawing.
	Bounds []physics.BoxDesc

	group *Group
}

// HeightFunc is the terrain fallback for the controller, nil without
// terrain.
func (s *Scene) HeightFunc() controller.HeightFunc {
	if s == nil || s.Terrain == nil {
		return nil
	}
	return s.Terrain.Height
}

// Fallen reports whether y is below the kill plane.
func (s *Scene) Fallen(y float64) bool {
	return s != nil && s.HasKill && y < s.KillY
}

func (s *Scene) Colliders() int {
	if s == nil {
		return 0
	}
	return s.group.Len()
}

// Build adds the static geometry of spec to world. A collider the world
// rejects is logged and skipped, a rejected hull is first retried as its
// bounding box.
func Build(world physics.StaticWorld, spec prefabs.SceneSpec, terrain *Terrain, log *zap.SugaredLogger) *Scene {
	if log == nil {
		log = logging.Nop()
	}

	group := &Group{}
	var bounds []physics.BoxDesc
	for i, box := range spec.Boxes {
		desc := physics.BoxDesc{
			Center:      box.Center.Vec3,
			HalfExtents: box.HalfExtents.Vec3,
			Friction:    box.Friction,
			Restitution: box.Restitution,
		}
		h, err := world.AddStaticBox(desc)
		if err != nil {
			log.Warnw("skipping box", "scene", spec.Name, "index", i, "name", box.Name, "error", err)
			continue
		}
		group.handles = append(group.handles, h)
		bounds = append(bounds, desc)
	}

	for i, hull := range spec.Hulls {
		box := boundingBox(hull)
		h, err := addHull(world, hull)
		if err == nil {
			group.handles = append(group.handles, h)
			bounds = append(bounds, box)
			continue
		}
		if !errors.Is(err, physics.ErrDegenerateCollider) {
			log.Warnw("skipping hull", "scene", spec.Name, "index", i, "name", hull.Name, "error", err)
			continue
		}

		log.Warnw("degenerate hull, using bounding box", "scene", spec.Name, "index", i, "name", hull.Name, "error", err)
		h, err = world.AddStaticBox(box)
		if err != nil {
			log.Warnw("skipping hull", "scene", spec.Name, "index", i, "name", hull.Name, "error", err)
			continue
		}
		group.handles = append(group.handles, h)
		bounds = append(bounds, box)
	}

	s := &Scene{
		Name: spec.Name,
		Spawn: controller.Spawn{
			Position: spec.Spawn.Position.Vec3,
			Yaw:      spec.Spawn.Yaw,
			Pitch:    spec.Spawn.Pitch,
		},
		Terrain: terrain,
		Bounds:  bounds,
		group:   group,
	}
	if spec.KillY != nil {
		s.KillY = *spec.KillY
		s.HasKill = true
	}
	return s
}

func addHull(world physics.StaticWorld, hull prefabs.HullSpec) (physics.ColliderHandle, error) {
	points := make([]mgl64.Vec3, len(hull.Points))
	for i, p := range hull.Points {
		points[i] = p.Vec3
	}
	h, err := world.AddStaticHull(physics.HullDesc{
		Points:      points,
		Friction:    hull.Friction,
		Restitution: hull.Restitution,
	})
	if err != nil {
		return 0, fmt.Errorf("scene: hull %q: %w", hull.Name, err)
	}
	return h, nil
}

func boundingBox(hull prefabs.HullSpec) physics.BoxDesc {
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range hull.Points {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p.Vec3[i])
			hi[i] = math.Max(hi[i], p.Vec3[i])
		}
	}
	if len(hull.Points) == 0 {
		lo, hi = mgl64.Vec3{}, mgl64.Vec3{}
	}
	return physics.BoxDesc{
		Center:      lo.Add(hi).Mul(0.5),
		HalfExtents: hi.Sub(lo).Mul(0.5),
		Friction:    hull.Friction,
		Restitution: hull.Restitution,
	}
}
