package sim

import (
	"math"

	"github.com/milk9111/cathedral/common"
)

// System takes part in every fixed tick: PreTick before the world steps,
// PostTick after it.
type System interface {
	PreTick(dt float64)
	PostTick()
}

// Stepper advances the physics world by one fixed tick.
type Stepper interface {
	Step()
}

// Scheduler turns variable frame times into whole fixed ticks.
type Scheduler struct {
	world   Stepper
	systems []System

	step           float64
	maxAccumulator float64
	acc            float64
	ticks          uint64
}

// NewScheduler runs systems around world.Step every step seconds. The
// accumulator never holds more than maxAccumulator seconds, so one frame
// runs at most floor(maxAccumulator/step) ticks. Non-positive values fall
// back to the common constants.
func NewScheduler(world Stepper, step, maxAccumulator float64, systems ...System) *Scheduler {
	if !(step > 0) || math.IsInf(step, 0) {
		step = common.FixedStep
	}
	if !(maxAccumulator > 0) || math.IsInf(maxAccumulator, 0) {
		maxAccumulator = common.MaxFrameCatchUp
	}
	if maxAccumulator < step {
		maxAccumulator = step
	}
	copied := append([]System(nil), systems...)
	return &Scheduler{world: world, systems: copied, step: step, maxAccumulator: maxAccumulator}
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

// Advance feeds elapsed wall-clock seconds in and runs every whole tick
// they pay for. It returns the number of ticks run.
func (s *Scheduler) Advance(elapsed float64) int {
	if elapsed > 0 && !math.IsInf(elapsed, 0) {
		s.acc += elapsed
	}
	if s.acc > s.maxAccumulator {
		s.acc = s.maxAccumulator
	}

	n := 0
	for s.acc >= s.step {
		for _, system := range s.systems {
			system.PreTick(s.step)
		}
		if s.world != nil {
			s.world.Step()
		}
		for _, system := range s.systems {
			system.PostTick()
		}
		s.acc -= s.step
		s.ticks++
		n++
	}
	return n
}

// Alpha is how far the accumulator is into the next tick, in [0, 1).
func (s *Scheduler) Alpha() float64 {
	return s.acc / s.step
}

// Ticks returns the number of ticks run since creation.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks
}

func (s *Scheduler) Step() float64 {
	return s.step
}

// MaxTicksPerAdvance is the most ticks a single Advance can run.
func (s *Scheduler) MaxTicksPerAdvance() int {
	return int(math.Floor(s.maxAccumulator/s.step + 1e-9))
}

// Reset drops any banked time, e.g. after a scene swap.
func (s *Scheduler) Reset() {
	s.acc = 0
}
