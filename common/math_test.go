package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAngle(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi_stays", math.Pi, math.Pi},
		{"minus_pi_flips", -math.Pi, math.Pi},
		{"just_over_pi", math.Pi + 0.1, -math.Pi + 0.1},
		{"many_turns", 7*2*math.Pi + 0.5, 0.5},
		{"negative_turns", -5*2*math.Pi - 0.5, -0.5},
		{"nan", math.NaN(), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, WrapAngle(c.in), 1e-9)
		})
	}
}

func TestWrapAngleRange(t *testing.T) {
	for a := -50.0; a <= 50.0; a += 0.37 {
		got := WrapAngle(a)
		assert.Greater(t, got, -math.Pi, "angle %v", a)
		assert.LessOrEqual(t, got, math.Pi, "angle %v", a)
	}
}

func TestNonNegativeAndLerp(t *testing.T) {
	assert.Equal(t, 0.0, NonNegative(-3))
	assert.Equal(t, 0.0, NonNegative(math.NaN()))
	assert.Equal(t, 2.0, NonNegative(2))
	assert.Equal(t, 1.5, Lerp(1, 2, 0.5))
}
