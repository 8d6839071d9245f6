package input

import "sync"

// Key is a logical control, not a physical key. Bindings live in the
// sampler that produces events.
type Key int

const (
	KeyNone Key = iota
	KeyForward
	KeyBack
	KeyLeft
	KeyRight
	KeySprint
	KeyJump
	KeyDown
	KeyFlyToggle
	keyCount
)

var keyNames = [...]string{
	KeyNone:      "none",
	KeyForward:   "forward",
	KeyBack:      "back",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeySprint:    "sprint",
	KeyJump:      "jump",
	KeyDown:      "down",
	KeyFlyToggle: "fly_toggle",
}

func (k Key) String() string {
	if k < 0 || k >= keyCount {
		return "unknown"
	}
	return keyNames[k]
}

func (k Key) valid() bool {
	return k > KeyNone && k < keyCount
}

// Event is an immutable input message.
type Event interface {
	isEvent()
}

// PointerMoved is a relative pointer motion in pixels.
type PointerMoved struct {
	DX, DY float64
}

// KeyChanged reports a control going down or up.
type KeyChanged struct {
	Key  Key
	Down bool
}

func (PointerMoved) isEvent() {}
func (KeyChanged) isEvent()   {}

// Mailbox is a FIFO of events. Producers may push from any goroutine; the
// consumer takes everything queued so far with Drain.
type Mailbox struct {
	mu     sync.Mutex
	events []Event
	spare  []Event
}

func (m *Mailbox) Push(ev Event) {
	if ev == nil {
		return
	}
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
}

// Drain returns the queued events in push order and empties the mailbox.
// The returned slice is only valid until the next Drain.
func (m *Mailbox) Drain() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = m.spare[:0]
	m.spare = out
	return out
}

// Len returns the number of queued events.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
