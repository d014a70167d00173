package dto

import (
	"encoding/json"
	"time"

	"ai-fitness-be/pkg/pose"
)

// Websocket event names.
const (
	EventSetArmSide             = "set_arm_side"
	EventStartCalibrationMin    = "start_calibration_min"
	EventStartCalibrationMax    = "start_calibration_max"
	EventCompleteCalibrationMin = "complete_calibration_min"
	EventCompleteCalibrationMax = "complete_calibration_max"
	EventProcessFrame           = "process_frame"
	EventResetCounter           = "reset_counter"

	EventArmSideSet             = "arm_side_set"
	EventCalibrationMinStarted  = "calibration_min_started"
	EventCalibrationMaxStarted  = "calibration_max_started"
	EventCalibrationMinComplete = "calibration_min_complete"
	EventCalibrationMaxComplete = "calibration_max_complete"
	EventCalibrationFailed      = "calibration_failed"
	EventFrameProcessed         = "frame_processed"
	EventCounterReset           = "counter_reset"
	EventError                  = "error"
)

// InboundMessage is the envelope every client message arrives in.
type InboundMessage struct {
	Event string          `json:"event" validate:"required"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundMessage is the envelope every server reply is sent in.
type OutboundMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type SetArmSideRequest struct {
	ArmSide string `json:"arm_side" validate:"required,oneof=left right"`
}

type ProcessFrameRequest struct {
	Landmarks       pose.Landmarks `json:"landmarks"`
	CalibrationMode string         `json:"calibration_mode" validate:"omitempty,oneof=min max"`
}

type ArmSideSetResponse struct {
	ArmSide string `json:"arm_side"`
}

type CalibrationMinCompleteResponse struct {
	MinAngle int `json:"min_angle"`
}

type CalibrationMaxCompleteResponse struct {
	MaxAngle   int  `json:"max_angle"`
	Calibrated bool `json:"calibrated"`
}

type CalibrationFailedResponse struct {
	Phase  string `json:"phase"` // "min" | "max"
	Reason string `json:"reason"`
}

// FrameProcessedResponse is returned for every processed frame. Count is in
// whole repetitions; HalfReps keeps the raw half-rep granularity.
type FrameProcessedResponse struct {
	Count      int  `json:"count"`
	HalfReps   int  `json:"half_reps"`
	Percentage int  `json:"percentage"`
	Calibrated bool `json:"calibrated"`
	Angle      int  `json:"angle"`
}

type CounterResetResponse struct {
	Count int `json:"count"`
}

type ErrorMessageResponse struct {
	Message string `json:"message"`
}

type SessionSnapshotResponse struct {
	Id         string    `json:"id"`
	UserId     string    `json:"user_id,omitempty"`
	LimbSide   string    `json:"arm_side"`
	Mode       string    `json:"mode"`
	Calibrated bool      `json:"calibrated"`
	MinAngle   *float64  `json:"min_angle"`
	MaxAngle   *float64  `json:"max_angle"`
	Count      int       `json:"count"`
	HalfReps   int       `json:"half_reps"`
	Direction  string    `json:"direction"`
	MinSamples int       `json:"min_samples"`
	MaxSamples int       `json:"max_samples"`
	Frames     int       `json:"frames"`
	StartedAt  time.Time `json:"started_at"`
}

// WorkoutSummary is persisted when a session ends.
type WorkoutSummary struct {
	SessionId  string    `json:"session_id"`
	UserId     string    `json:"user_id,omitempty"`
	LimbSide   string    `json:"arm_side"`
	Calibrated bool      `json:"calibrated"`
	MinAngle   *float64  `json:"min_angle,omitempty"`
	MaxAngle   *float64  `json:"max_angle,omitempty"`
	Reps       int       `json:"reps"`
	HalfReps   int       `json:"half_reps"`
	Frames     int       `json:"frames"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Reason     string    `json:"reason"` // "disconnect" | "expired"
}

type SettingsResponse struct {
	CalibrationDurationSeconds int     `json:"calibration_duration_seconds"`
	FrameIntervalMs            int     `json:"frame_interval_ms"`
	DefaultMinAngle            float64 `json:"default_min_angle"`
	DefaultMaxAngle            float64 `json:"default_max_angle"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	Connections    int    `json:"connections"`
}
