package events

import "time"

// Workout event types.
const (
	TypeCalibrationCompleted = "CALIBRATION_COMPLETED"
	TypeCalibrationFailed    = "CALIBRATION_FAILED"
	TypeRepCompleted         = "REP_COMPLETED"
	TypeSessionEnded         = "SESSION_ENDED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "REP_COMPLETED").
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
