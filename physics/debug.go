package physics

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
)

const (
	debugCircleSegments = 24
	debugDotSize        = 0.1
	debugStroke         = 1
)

// DebugView maps the XZ plane onto the screen: Center lands in the middle
// of the screen and Zoom is pixels per world unit.
type DebugView struct {
	CenterX, CenterZ float64
	Zoom             float64
}

// ToScreen converts a world XZ position into screen pixels.
func (v DebugView) ToScreen(screen *ebiten.Image, x, z float64) (float32, float32) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	b := screen.Bounds()
	sx := float64(b.Dx())/2 + (x-v.CenterX)*zoom
	sy := float64(b.Dy())/2 + (z-v.CenterZ)*zoom
	return float32(sx), float32(sy)
}

// DrawDebug draws the footprint of every collider from above. Static
// geometry is green, bodies are orange.
func DrawDebug(s *Space, screen *ebiten.Image, view DebugView) {
	if s == nil || s.space == nil || screen == nil {
		return
	}
	cp.DrawSpace(s.space, &debugDrawer{screen: screen, view: view})
}

type debugDrawer struct {
	screen *ebiten.Image
	view   DebugView
}

func (d *debugDrawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	d.drawCircle(pos, radius, fill)
}

func (d *debugDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	d.drawLine(a, b, fill)
}

func (d *debugDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	d.drawLine(a, b, fill)
	if radius > 0 {
		d.drawCircle(a, radius, fill)
		d.drawCircle(b, radius, fill)
	}
}

func (d *debugDrawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	if count <= 0 {
		return
	}
	d.drawPolygon(verts[:count], fill)
}

func (d *debugDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	half := debugDotSize / 2
	d.drawLine(cp.Vector{X: pos.X - half, Y: pos.Y}, cp.Vector{X: pos.X + half, Y: pos.Y}, fill)
	d.drawLine(cp.Vector{X: pos.X, Y: pos.Y - half}, cp.Vector{X: pos.X, Y: pos.Y + half}, fill)
}

func (d *debugDrawer) Flags() uint {
	return cp.DRAW_SHAPES
}

func (d *debugDrawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1, B: 0.2, A: 0.9}
}

func (d *debugDrawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	if p, ok := shape.UserData.(*prism); ok && p.owner != nil {
		return cp.FColor{R: 1, G: 0.6, B: 0.1, A: 1}
	}
	return cp.FColor{R: 0.2, G: 0.9, B: 0.3, A: 0.8}
}

func (d *debugDrawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.5, B: 0.1, A: 0.9}
}

func (d *debugDrawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.2, B: 0.2, A: 0.9}
}

func (d *debugDrawer) Data() interface{} {
	return nil
}

func (d *debugDrawer) drawLine(a, b cp.Vector, c cp.FColor) {
	x1, y1 := d.view.ToScreen(d.screen, a.X, a.Y)
	x2, y2 := d.view.ToScreen(d.screen, b.X, b.Y)
	vector.StrokeLine(d.screen, x1, y1, x2, y2, debugStroke, toNRGBA(c), true)
}

func (d *debugDrawer) drawPolygon(verts []cp.Vector, c cp.FColor) {
	for i := range verts {
		d.drawLine(verts[i], verts[(i+1)%len(verts)], c)
	}
}

func (d *debugDrawer) drawCircle(center cp.Vector, radius float64, c cp.FColor) {
	if radius <= 0 {
		return
	}
	points := make([]cp.Vector, 0, debugCircleSegments)
	for i := 0; i < debugCircleSegments; i++ {
		t := (2 * math.Pi) * (float64(i) / float64(debugCircleSegments))
		points = append(points, cp.Vector{X: center.X + math.Cos(t)*radius, Y: center.Y + math.Sin(t)*radius})
	}
	d.drawPolygon(points, c)
}

func toNRGBA(c cp.FColor) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
