package workout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepCounterHysteresis(t *testing.T) {
	var c RepCounter
	assert.Equal(t, AwaitingContraction, c.Direction())

	inputs := []float64{10, 50, 97, 50, 3, 97, 3}
	want := []float64{0, 0, 0.5, 0.5, 1.0, 1.5, 2.0}

	for i, per := range inputs {
		c.Observe(per)
		assert.Equalf(t, want[i], c.Value(), "after sample %d (%.0f%%)", i, per)
	}
	assert.Equal(t, 4, c.HalfReps())
	assert.Equal(t, 2, c.Reps())
}

func TestRepCounterIgnoresRepeatedCrossing(t *testing.T) {
	var c RepCounter

	assert.True(t, c.Observe(97))
	assert.False(t, c.Observe(99), "second high without a low must not count")
	assert.False(t, c.Observe(100))
	assert.Equal(t, 1, c.HalfReps())
	assert.Equal(t, AwaitingExtension, c.Direction())

	assert.True(t, c.Observe(5))
	assert.False(t, c.Observe(0))
	assert.Equal(t, 2, c.HalfReps())
	assert.Equal(t, AwaitingContraction, c.Direction())
}

func TestRepCounterBoundaries(t *testing.T) {
	var c RepCounter
	assert.False(t, c.Observe(94.99))
	assert.True(t, c.Observe(95))
	assert.False(t, c.Observe(5.01))
	assert.True(t, c.Observe(5))
}

func TestRepCounterResetIsIdempotent(t *testing.T) {
	var c RepCounter
	c.Observe(100)
	c.Observe(0)
	c.Observe(100)

	for i := 0; i < 2; i++ {
		c.Reset()
		assert.Equal(t, 0, c.HalfReps())
		assert.Equal(t, AwaitingContraction, c.Direction())
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name          string
		angle, lo, hi float64
		want          float64
	}{
		{"at min", 20, 20, 160, 0},
		{"at max", 160, 20, 160, 100},
		{"midpoint", 90, 20, 160, 50},
		{"below range clamps", 5, 20, 160, 0},
		{"above range clamps", 179, 20, 160, 100},
		{"empty range", 50, 40, 40, 0},
		{"inverted range", 50, 160, 20, 0},
		{"nan angle", math.NaN(), 20, 160, 0},
		{"nan min", 90, math.NaN(), 160, 0},
		{"infinite max", 90, 20, math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentage(tt.angle, tt.lo, tt.hi), 1e-9)
		})
	}
}
