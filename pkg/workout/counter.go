package workout

import "math"

// Hysteresis band: a half-rep is only counted on crossing the upper threshold
// and then the lower one, in strict alternation.
const (
	UpperThreshold = 95.0
	LowerThreshold = 5.0
)

// Direction is the counter's hysteresis state.
type Direction int

const (
	AwaitingContraction Direction = 0
	AwaitingExtension   Direction = 1
)

func (d Direction) String() string {
	if d == AwaitingExtension {
		return "AWAITING_EXTENSION"
	}
	return "AWAITING_CONTRACTION"
}

// RepCounter turns a percentage-of-range signal into half-repetitions.
// The count is kept in integer half-rep units so it never drifts.
type RepCounter struct {
	halfReps  int
	direction Direction
}

// Observe feeds one percentage sample and reports whether it completed a
// half-repetition.
func (r *RepCounter) Observe(per float64) bool {
	switch {
	case per >= UpperThreshold && r.direction == AwaitingContraction:
		r.halfReps++
		r.direction = AwaitingExtension
		return true
	case per <= LowerThreshold && r.direction == AwaitingExtension:
		r.halfReps++
		r.direction = AwaitingContraction
		return true
	}
	return false
}

func (r *RepCounter) Reset() {
	r.halfReps = 0
	r.direction = AwaitingContraction
}

func (r *RepCounter) HalfReps() int { return r.halfReps }

func (r *RepCounter) Direction() Direction { return r.direction }

// Reps is the number of completed full repetitions.
func (r *RepCounter) Reps() int { return r.halfReps / 2 }

// Value is the count in repetitions with half-rep granularity (1.5 etc).
func (r *RepCounter) Value() float64 { return float64(r.halfReps) / 2 }

// Percentage maps angle linearly from [minAngle, maxAngle] onto [0, 100] and
// clamps the result. A non-positive range, or any non-finite input, yields 0.
func Percentage(angle, minAngle, maxAngle float64) float64 {
	span := maxAngle - minAngle
	if !isFinite(angle) || !isFinite(span) || span <= 0 {
		return 0
	}
	per := (angle - minAngle) / span * 100
	if math.IsNaN(per) {
		return 0
	}
	return math.Max(0, math.Min(100, per))
}
