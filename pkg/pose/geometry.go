package pose

import "math"

// Point is a 2D pixel coordinate reported by the landmark detector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Angle returns the interior angle at vertex p2 between the rays p2->p1 and
// p2->p3, in degrees within [0, 180].
//
// ok is false when p1 or p3 coincides with p2, or when the coordinates are too
// large to form a finite vector; callers treat that as "no angle for this
// frame", not as a failure.
func Angle(p1, p2, p3 Point) (degrees float64, ok bool) {
	u1x, u1y, ok1 := unit(p1.X-p2.X, p1.Y-p2.Y)
	u2x, u2y, ok2 := unit(p3.X-p2.X, p3.Y-p2.Y)
	if !ok1 || !ok2 {
		return 0, false
	}

	// Rounding can push the dot product just outside acos's domain.
	cos := math.Max(-1, math.Min(1, u1x*u2x+u1y*u2y))

	degrees = math.Acos(cos) * 180 / math.Pi
	if math.IsNaN(degrees) {
		return 0, false
	}
	return degrees, true
}

// unit normalises (x, y) by its own length so that neither the product of two
// magnitudes nor the dot product can overflow or underflow.
func unit(x, y float64) (float64, float64, bool) {
	mag := math.Hypot(x, y)
	if mag == 0 || math.IsInf(mag, 0) || math.IsNaN(mag) {
		return 0, 0, false
	}
	return x / mag, y / mag, true
}
