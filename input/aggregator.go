package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/cathedral/common"
)

// DefaultMaxPointerDelta bounds a single pointer event, per axis, in pixels.
// Platforms report huge jumps when the window regains focus.
const DefaultMaxPointerDelta = 200

// Frame is everything that happened between two drains.
type Frame struct {
	LookDX, LookDY float64

	Forward, Back bool
	Left, Right   bool
	Sprint        bool
	Jump          bool
	Down          bool

	// JumpPressed and FlyTogglePressed are set when the control went down
	// at least once since the previous drain, even if it is up again.
	JumpPressed      bool
	FlyTogglePressed bool
}

// MoveAxes returns the forward and strafe intent, each in {-1, 0, 1}.
func (f Frame) MoveAxes() (forward, right float64) {
	if f.Forward {
		forward++
	}
	if f.Back {
		forward--
	}
	if f.Right {
		right++
	}
	if f.Left {
		right--
	}
	return forward, right
}

// Aggregator folds queued events into one Frame per simulation tick.
type Aggregator struct {
	mailbox  Mailbox
	maxDelta float64
	held     [keyCount]bool
}

// NewAggregator returns an aggregator clamping each pointer event to
// maxDelta per axis. A non-positive maxDelta uses DefaultMaxPointerDelta.
func NewAggregator(maxDelta float64) *Aggregator {
	if !(maxDelta > 0) || math.IsInf(maxDelta, 0) {
		maxDelta = DefaultMaxPointerDelta
	}
	return &Aggregator{maxDelta: maxDelta}
}

// Push queues an event for the next Drain.
func (a *Aggregator) Push(ev Event) {
	a.mailbox.Push(ev)
}

// Pending returns the number of events waiting for Drain.
func (a *Aggregator) Pending() int {
	return a.mailbox.Len()
}

// Drain consumes every queued event. Held key state carries over between
// drains; the pointer accumulator and the pressed flags start over.
func (a *Aggregator) Drain() Frame {
	var f Frame
	for _, ev := range a.mailbox.Drain() {
		switch ev := ev.(type) {
		case PointerMoved:
			if !common.Finite(ev.DX) || !common.Finite(ev.DY) {
				continue
			}
			f.LookDX += mgl64.Clamp(ev.DX, -a.maxDelta, a.maxDelta)
			f.LookDY += mgl64.Clamp(ev.DY, -a.maxDelta, a.maxDelta)
		case KeyChanged:
			if !ev.Key.valid() {
				continue
			}
			if ev.Down && !a.held[ev.Key] {
				switch ev.Key {
				case KeyJump:
					f.JumpPressed = true
				case KeyFlyToggle:
					f.FlyTogglePressed = true
				}
			}
			a.held[ev.Key] = ev.Down
		}
	}

	f.Forward = a.held[KeyForward]
	f.Back = a.held[KeyBack]
	f.Left = a.held[KeyLeft]
	f.Right = a.held[KeyRight]
	f.Sprint = a.held[KeySprint]
	f.Jump = a.held[KeyJump]
	f.Down = a.held[KeyDown]
	return f
}

// Held reports the last known state of a control.
func (a *Aggregator) Held(k Key) bool {
	if !k.valid() {
		return false
	}
	return a.held[k]
}
