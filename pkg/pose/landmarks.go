package pose

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Landmark indices of the external detector's 33-point body model that the
// arm tracker cares about.
const (
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	RightElbow    = 14
	LeftWrist     = 15
	RightWrist    = 16
)

var ErrUnknownLimbSide = errors.New("unknown limb side")

// LimbSide selects which arm is tracked.
type LimbSide string

const (
	LimbLeft  LimbSide = "left"
	LimbRight LimbSide = "right"
)

// ParseLimbSide accepts "left" or "right" (case-insensitive).
func ParseLimbSide(s string) (LimbSide, error) {
	switch LimbSide(strings.ToLower(strings.TrimSpace(s))) {
	case LimbLeft:
		return LimbLeft, nil
	case LimbRight:
		return LimbRight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLimbSide, s)
}

// Joints returns the shoulder, elbow and wrist landmark IDs for the side.
// The elbow is the vertex of the tracked angle.
func (s LimbSide) Joints() (shoulder, elbow, wrist int) {
	if s == LimbRight {
		return RightShoulder, RightElbow, RightWrist
	}
	return LeftShoulder, LeftElbow, LeftWrist
}

// Landmarks maps a detector landmark ID to its pixel coordinate. A nil or
// empty map means nobody was detected in the frame.
type Landmarks map[int]Point

// LimbAngle computes the elbow angle for the given side. ok is false when the
// frame has no detection, lacks one of the three joints, or the joints are
// degenerate.
func (l Landmarks) LimbAngle(side LimbSide) (float64, bool) {
	if len(l) == 0 {
		return 0, false
	}
	shoulder, elbow, wrist := side.Joints()
	p1, ok1 := l[shoulder]
	p2, ok2 := l[elbow]
	p3, ok3 := l[wrist]
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	return Angle(p1, p2, p3)
}

// UnmarshalJSON accepts the wire form {"11": [x, y], ...}. Object points
// {"x": .., "y": ..} are accepted as well.
func (l *Landmarks) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Landmarks, len(raw))
	for key, value := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("landmark id %q: %w", key, err)
		}
		p, err := decodePoint(value)
		if err != nil {
			return fmt.Errorf("landmark %d: %w", id, err)
		}
		out[id] = p
	}
	*l = out
	return nil
}

func decodePoint(data json.RawMessage) (Point, error) {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return Point{}, fmt.Errorf("expected [x, y], got %d values", len(pair))
		}
		return Point{X: pair[0], Y: pair[1]}, nil
	}
	var p Point
	if err := json.Unmarshal(data, &p); err != nil {
		return Point{}, err
	}
	return p, nil
}
