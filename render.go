package main

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/cathedral/camera"
	"github.com/milk9111/cathedral/physics"
)

const (
	nearPlane = 0.05
	farPlane  = 200
)

var (
	wireColor      = color.NRGBA{R: 0xd8, G: 0xcf, B: 0xb8, A: 0xff}
	crosshairColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xc0}
	headingColor   = color.NRGBA{R: 0x40, G: 0xa0, B: 0xff, A: 0xff}
)

// boxEdges indexes the corners produced by boxCorners.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func boxCorners(b physics.BoxDesc) [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		d := mgl64.Vec3{-1, -1, -1}
		if i&1 != 0 {
			d[0] = 1
		}
		if i&2 != 0 {
			d[2] = 1
		}
		if i&4 != 0 {
			d[1] = 1
		}
		out[i] = b.Center.Add(mgl64.Vec3{d[0] * b.HalfExtents[0], d[1] * b.HalfExtents[1], d[2] * b.HalfExtents[2]})
	}
	return out
}

// drawWireframe draws the outline of every box as seen from cam.
func drawWireframe(screen *ebiten.Image, cam *camera.Camera, boxes []physics.BoxDesc) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	if w <= 0 || h <= 0 {
		return
	}
	viewProj := cam.Projection(w/h, nearPlane, farPlane).Mul4(cam.View())
	view := cam.View()

	for _, b := range boxes {
		corners := boxCorners(b)
		for _, e := range boxEdges {
			a, c, ok := clipEdge(view, corners[e[0]], corners[e[1]])
			if !ok {
				continue
			}
			x1, y1 := project(viewProj, a, w, h)
			x2, y2 := project(viewProj, c, w, h)
			vector.StrokeLine(screen, x1, y1, x2, y2, 1, wireColor, true)
		}
	}
}

// clipEdge trims the segment a-b to the part in front of the near plane.
func clipEdge(view mgl64.Mat4, a, b mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3, bool) {
	// Camera looks down -Z in view space.
	da := -view.Mul4x1(a.Vec4(1)).Z() - nearPlane
	db := -view.Mul4x1(b.Vec4(1)).Z() - nearPlane
	switch {
	case da < 0 && db < 0:
		return a, b, false
	case da < 0:
		a = a.Add(b.Sub(a).Mul(da / (da - db)))
	case db < 0:
		b = b.Add(a.Sub(b).Mul(db / (db - da)))
	}
	return a, b, true
}

func project(viewProj mgl64.Mat4, p mgl64.Vec3, w, h float64) (float32, float32) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip.W() == 0 {
		return 0, 0
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	return float32((ndc.X() + 1) * 0.5 * w), float32((1 - ndc.Y()) * 0.5 * h)
}

func drawCrosshair(screen *ebiten.Image) {
	b := screen.Bounds()
	cx, cy := float32(b.Dx())/2, float32(b.Dy())/2
	vector.StrokeLine(screen, cx-6, cy, cx+6, cy, 1, crosshairColor, false)
	vector.StrokeLine(screen, cx, cy-6, cx, cy+6, 1, crosshairColor, false)
}

// drawHeading marks where the camera points on the top-down debug view.
func drawHeading(screen *ebiten.Image, view physics.DebugView, pos, forward mgl64.Vec3) {
	x1, y1 := view.ToScreen(screen, pos.X(), pos.Z())
	x2, y2 := view.ToScreen(screen, pos.X()+forward.X()*2, pos.Z()+forward.Z()*2)
	vector.StrokeLine(screen, x1, y1, x2, y2, 2, headingColor, true)
}
