package workout

import "math"

// Collector gathers angle samples for one calibration phase and reduces them
// to their mean. It is not safe for concurrent use; Session serialises access.
type Collector struct {
	samples []float64
	active  bool
}

// Start clears previous samples and opens the phase.
func (c *Collector) Start() {
	c.samples = c.samples[:0]
	c.active = true
}

// Add appends a sample. Samples offered while the phase is closed, and
// non-finite samples, are dropped and Add reports false.
func (c *Collector) Add(angle float64) bool {
	if !c.active || !isFinite(angle) {
		return false
	}
	c.samples = append(c.samples, angle)
	return true
}

// Complete closes the phase and returns the mean of the collected samples.
func (c *Collector) Complete() (float64, error) {
	c.active = false
	if len(c.samples) == 0 {
		return 0, ErrInsufficientCalibrationData
	}
	var sum float64
	for _, s := range c.samples {
		sum += s
	}
	return sum / float64(len(c.samples)), nil
}

// Clear drops all samples and closes the phase.
func (c *Collector) Clear() {
	c.samples = nil
	c.active = false
}

func (c *Collector) Active() bool { return c.active }

func (c *Collector) Len() int { return len(c.samples) }

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
