package common

const (
	// TicksPerSecond is the fixed simulation rate.
	TicksPerSecond = 60
	// FixedStep is the duration of one simulation tick in seconds.
	FixedStep = 1.0 / TicksPerSecond
	// MaxFrameCatchUp bounds how much wall-clock time a single frame may
	// feed into the simulation after a stall.
	MaxFrameCatchUp = 0.25

	// Gravity is the world's downward acceleration in m/s^2.
	Gravity = 9.81

	BaseWidth  = 1280
	BaseHeight = 720
)
