package input

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	stickDeadzone = 0.2
	// stickLookSpeed is the pointer distance, in pixels per sample, of a
	// fully deflected right stick.
	stickLookSpeed = 12.0
)

// Bindings maps each control to the physical keys that drive it.
type Bindings map[Key][]ebiten.Key

// DefaultBindings is WASD plus arrows, Shift to sprint, Space to jump or
// rise, C or Control to descend and F to toggle flying.
func DefaultBindings() Bindings {
	return Bindings{
		KeyForward:   {ebiten.KeyW, ebiten.KeyArrowUp},
		KeyBack:      {ebiten.KeyS, ebiten.KeyArrowDown},
		KeyLeft:      {ebiten.KeyA, ebiten.KeyArrowLeft},
		KeyRight:     {ebiten.KeyD, ebiten.KeyArrowRight},
		KeySprint:    {ebiten.KeyShift},
		KeyJump:      {ebiten.KeySpace},
		KeyDown:      {ebiten.KeyC, ebiten.KeyControl},
		KeyFlyToggle: {ebiten.KeyF},
	}
}

// Sampler polls ebiten once per frame and turns changes into events.
type Sampler struct {
	sink     *Aggregator
	bindings Bindings

	down      [keyCount]bool
	cursorX   int
	cursorY   int
	hasCursor bool
}

func NewSampler(sink *Aggregator, bindings Bindings) *Sampler {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Sampler{sink: sink, bindings: bindings}
}

// Sample pushes the input that changed since the previous call. While the
// window is unfocused every control is released and the pointer is ignored.
func (s *Sampler) Sample() {
	if s == nil || s.sink == nil {
		return
	}

	if !ebiten.IsFocused() {
		s.hasCursor = false
		for k := KeyNone + 1; k < keyCount; k++ {
			s.set(k, false)
		}
		return
	}

	x, y := ebiten.CursorPosition()
	if s.hasCursor && (x != s.cursorX || y != s.cursorY) {
		s.sink.Push(PointerMoved{DX: float64(x - s.cursorX), DY: float64(y - s.cursorY)})
	}
	s.cursorX, s.cursorY, s.hasCursor = x, y, true

	var pad [keyCount]bool
	if gamepads := ebiten.GamepadIDs(); len(gamepads) > 0 {
		pad = s.samplePad(gamepads[0])
	}

	for k := KeyNone + 1; k < keyCount; k++ {
		pressed := pad[k]
		for _, key := range s.bindings[k] {
			if ebiten.IsKeyPressed(key) {
				pressed = true
				break
			}
		}
		s.set(k, pressed)
	}
}

func (s *Sampler) samplePad(id ebiten.GamepadID) [keyCount]bool {
	var pad [keyCount]bool

	lx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	ly := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	pad[KeyLeft] = lx < -stickDeadzone
	pad[KeyRight] = lx > stickDeadzone
	pad[KeyForward] = ly < -stickDeadzone
	pad[KeyBack] = ly > stickDeadzone

	pad[KeyJump] = ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightBottom)
	pad[KeySprint] = ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonLeftStick)
	pad[KeyDown] = ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonRightRight)
	pad[KeyFlyToggle] = ebiten.IsStandardGamepadButtonPressed(id, ebiten.StandardGamepadButtonCenterRight)

	rx := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal)
	ry := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical)
	if math.Hypot(rx, ry) > stickDeadzone {
		s.sink.Push(PointerMoved{DX: rx * stickLookSpeed, DY: ry * stickLookSpeed})
	}
	return pad
}

func (s *Sampler) set(k Key, down bool) {
	if s.down[k] == down {
		return
	}
	s.down[k] = down
	s.sink.Push(KeyChanged{Key: k, Down: down})
}
