package workout

import (
	"sync"
	"sync/atomic"
	"time"

	"ai-fitness-be/pkg/pose"
)

// Mode decides what an incoming angle is used for.
type Mode string

const (
	ModeIdle           Mode = "IDLE"
	ModeCalibratingMin Mode = "CALIBRATING_MIN"
	ModeCalibratingMax Mode = "CALIBRATING_MAX"
	ModeCounting       Mode = "COUNTING"
)

// CalibrationHint is the phase the client believes it is in when it sends a
// frame ("min", "max" or empty).
type CalibrationHint string

const (
	HintNone CalibrationHint = ""
	HintMin  CalibrationHint = "min"
	HintMax  CalibrationHint = "max"
)

// FrameResult is what a single angle sample produced.
type FrameResult struct {
	Angle        float64
	Percentage   float64
	Calibrated   bool
	HalfReps     int
	Reps         int
	Sampled      bool // the angle went into a calibration collector
	HalfRepAdded bool
}

// Snapshot is a consistent, read-only copy of a session.
type Snapshot struct {
	ID         string
	UserID     string
	LimbSide   pose.LimbSide
	Mode       Mode
	Calibrated bool
	MinAngle   *float64
	MaxAngle   *float64
	HalfReps   int
	Reps       int
	Direction  Direction
	MinSamples int
	MaxSamples int
	Frames     int
	StartedAt  time.Time
}

// Session holds one connection's calibration and counting state. Every method
// takes the session lock, so the threshold check and direction flip of the
// counter always happen as one step.
type Session struct {
	mu sync.Mutex

	id        string
	userID    string
	startedAt time.Time

	limb       pose.LimbSide
	mode       Mode
	min        Collector
	max        Collector
	minAngle   *float64
	maxAngle   *float64
	calibrated bool
	counter    RepCounter

	lastPercentage float64
	frames         int

	released atomic.Bool
}

// NewSession returns a session tracking the left arm in IDLE mode.
func NewSession(id string) *Session {
	return &Session{
		id:        id,
		startedAt: time.Now(),
		limb:      pose.LimbLeft,
		mode:      ModeIdle,
	}
}

func (s *Session) ID() string { return s.id }

// Release marks the session as torn down. Only the first caller gets true.
func (s *Session) Release() bool { return s.released.CompareAndSwap(false, true) }

func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *Session) LimbSide() pose.LimbSide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limb
}

// SetLimbSide switches the tracked arm and discards everything learned for
// the previous one: samples, calibrated range and count.
func (s *Session) SetLimbSide(side pose.LimbSide) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.limb = side
	s.mode = ModeIdle
	s.min.Clear()
	s.max.Clear()
	s.minAngle = nil
	s.maxAngle = nil
	s.calibrated = false
	s.counter.Reset()
	s.lastPercentage = 0
}

func (s *Session) StartCalibrationMin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.min.Start()
	s.mode = ModeCalibratingMin
	s.calibrated = false
}

func (s *Session) StartCalibrationMax() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.max.Start()
	s.mode = ModeCalibratingMax
	s.calibrated = false
}

// CompleteCalibrationMin stores the mean of the min samples. On
// ErrInsufficientCalibrationData the previous min angle is kept.
func (s *Session) CompleteCalibrationMin() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg, err := s.min.Complete()
	if s.mode == ModeCalibratingMin {
		s.mode = ModeIdle
	}
	if err != nil {
		return 0, err
	}
	s.minAngle = &avg
	return avg, nil
}

// CompleteCalibrationMax stores the mean of the max samples and marks the
// session calibrated when it lies strictly above the stored min. An ordering
// failure still records the max angle but leaves the session uncalibrated.
func (s *Session) CompleteCalibrationMax() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg, err := s.max.Complete()
	if s.mode == ModeCalibratingMax {
		s.mode = ModeIdle
	}
	if err != nil {
		return 0, err
	}
	s.maxAngle = &avg

	// Written as !(>) so a NaN bound can never pass.
	if s.minAngle == nil || !(avg > *s.minAngle) {
		s.calibrated = false
		return avg, ErrInvalidCalibrationOrdering
	}
	s.calibrated = true
	s.mode = ModeCounting
	return avg, nil
}

// ResetCounter zeroes the count and direction. Calibration is untouched.
func (s *Session) ResetCounter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter.Reset()
}

// IngestAngle routes one angle sample according to the session mode.
//
// A non-empty hint that disagrees with the mode means the client and server
// are out of step (e.g. a late frame from a finished phase); such a sample is
// neither collected nor counted.
func (s *Session) IngestAngle(angle float64, hint CalibrationHint) FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	res := FrameResult{Angle: angle}
	if !isFinite(angle) {
		// Unusable sample: report like a frame without detection.
		res.Angle = 0
		if s.mode == ModeCounting {
			res.Percentage = s.lastPercentage
		}
		res.Calibrated = s.calibrated
		res.HalfReps = s.counter.HalfReps()
		res.Reps = s.counter.Reps()
		return res
	}

	switch s.mode {
	case ModeCalibratingMin:
		if hint == HintNone || hint == HintMin {
			res.Sampled = s.min.Add(angle)
		}
	case ModeCalibratingMax:
		if hint == HintNone || hint == HintMax {
			res.Sampled = s.max.Add(angle)
		}
	case ModeCounting:
		if hint == HintNone && s.calibrated && s.minAngle != nil && s.maxAngle != nil {
			per := Percentage(angle, *s.minAngle, *s.maxAngle)
			s.lastPercentage = per
			res.Percentage = per
			res.HalfRepAdded = s.counter.Observe(per)
		}
	}

	res.Calibrated = s.calibrated
	res.HalfReps = s.counter.HalfReps()
	res.Reps = s.counter.Reps()
	return res
}

// LastResult reports the last known state for a frame without a usable
// angle. Angle is always 0.
func (s *Session) LastResult() FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	res := FrameResult{
		Calibrated: s.calibrated,
		HalfReps:   s.counter.HalfReps(),
		Reps:       s.counter.Reps(),
	}
	if s.mode == ModeCounting {
		res.Percentage = s.lastPercentage
	}
	return res
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:         s.id,
		UserID:     s.userID,
		LimbSide:   s.limb,
		Mode:       s.mode,
		Calibrated: s.calibrated,
		MinAngle:   copyAngle(s.minAngle),
		MaxAngle:   copyAngle(s.maxAngle),
		HalfReps:   s.counter.HalfReps(),
		Reps:       s.counter.Reps(),
		Direction:  s.counter.Direction(),
		MinSamples: s.min.Len(),
		MaxSamples: s.max.Len(),
		Frames:     s.frames,
		StartedAt:  s.startedAt,
	}
}

func copyAngle(a *float64) *float64 {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}
