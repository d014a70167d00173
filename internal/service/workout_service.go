package service

import (
	"context"
	"errors"
	"time"

	"ai-fitness-be/internal/dto"
	"ai-fitness-be/internal/pkg/logger"
	"ai-fitness-be/internal/repository"
	"ai-fitness-be/pkg/events"
	"ai-fitness-be/pkg/pose"
	"ai-fitness-be/pkg/workout"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrSummariesDisabled = errors.New("workout summaries are not enabled")

type IWorkoutService interface {
	OpenSession(ctx context.Context, connID, userID string) error
	CloseSession(ctx context.Context, connID string)
	ExpireSession(session *workout.Session)

	SetLimbSide(ctx context.Context, connID string, side pose.LimbSide) (*dto.ArmSideSetResponse, error)
	StartCalibrationMin(ctx context.Context, connID string) error
	StartCalibrationMax(ctx context.Context, connID string) error
	CompleteCalibrationMin(ctx context.Context, connID string) (*dto.CalibrationMinCompleteResponse, error)
	CompleteCalibrationMax(ctx context.Context, connID string) (*dto.CalibrationMaxCompleteResponse, error)
	ProcessFrame(ctx context.Context, connID string, landmarks pose.Landmarks, hint workout.CalibrationHint) (*dto.FrameProcessedResponse, error)
	ResetCounter(ctx context.Context, connID string) (*dto.CounterResetResponse, error)

	GetSnapshot(ctx context.Context, connID string) (*dto.SessionSnapshotResponse, error)
	GetSummary(ctx context.Context, sessionID string) (*dto.WorkoutSummary, error)
	ActiveSessions() int
}

type workoutService struct {
	sessions  repository.SessionRegistry
	summaries repository.SummaryRepository
	events    IEventPublisher
	logger    logger.ILogger
	tracer    trace.Tracer
}

// NewWorkoutService wires the orchestrator. summaries and events may be nil.
func NewWorkoutService(
	sessions repository.SessionRegistry,
	summaries repository.SummaryRepository,
	publisher IEventPublisher,
	log logger.ILogger,
) IWorkoutService {
	return &workoutService{
		sessions:  sessions,
		summaries: summaries,
		events:    publisher,
		logger:    log,
		tracer:    otel.Tracer("ai-fitness-be/workout"),
	}
}

func (s *workoutService) OpenSession(ctx context.Context, connID, userID string) error {
	session, err := s.sessions.Create(connID)
	if err != nil {
		s.logger.Error("WorkoutService", "Failed to open session", map[string]interface{}{"session_id": connID, "error": err.Error()})
		return err
	}
	if userID != "" {
		session.SetUserID(userID)
	}
	s.logger.Info("WorkoutService", "Session opened", map[string]interface{}{"session_id": connID, "user_id": userID})
	return nil
}

func (s *workoutService) CloseSession(ctx context.Context, connID string) {
	session, ok := s.sessions.Remove(connID)
	if !ok {
		return
	}
	s.endSession(ctx, session, "disconnect")
}

// ExpireSession is the registry's TTL callback.
func (s *workoutService) ExpireSession(session *workout.Session) {
	s.endSession(context.Background(), session, "expired")
}

func (s *workoutService) endSession(ctx context.Context, session *workout.Session, reason string) {
	snap := session.Snapshot()
	summary := dto.WorkoutSummary{
		SessionId:  snap.ID,
		UserId:     snap.UserID,
		LimbSide:   string(snap.LimbSide),
		Calibrated: snap.Calibrated,
		MinAngle:   snap.MinAngle,
		MaxAngle:   snap.MaxAngle,
		Reps:       snap.Reps,
		HalfReps:   snap.HalfReps,
		Frames:     snap.Frames,
		StartedAt:  snap.StartedAt,
		EndedAt:    time.Now(),
		Reason:     reason,
	}
	s.logger.Info("WorkoutService", "Session ended", map[string]interface{}{
		"session_id": snap.ID,
		"reason":     reason,
		"reps":       snap.Reps,
		"frames":     snap.Frames,
	})
	s.publish(ctx, events.TypeSessionEnded, toEventData(summary))
}

func (s *workoutService) lookup(connID string) (*workout.Session, error) {
	session, ok := s.sessions.Get(connID)
	if !ok {
		// A message racing the teardown of its connection.
		s.logger.Debug("WorkoutService", "Unknown session", map[string]interface{}{"session_id": connID})
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

func (s *workoutService) SetLimbSide(ctx context.Context, connID string, side pose.LimbSide) (*dto.ArmSideSetResponse, error) {
	session, err := s.lookup(connID)
	if err != nil {
		return nil, err
	}
	session.SetLimbSide(side)
	s.logger.Info("WorkoutService", "Arm side set", map[string]interface{}{"session_id": connID, "arm_side": side})
	return &dto.ArmSideSetResponse{ArmSide: string(side)}, nil
}

func (s *workoutService) StartCalibrationMin(ctx context.Context, connID string) error {
	session, err := s.lookup(connID)
	if err != nil {
		return err
	}
	session.StartCalibrationMin()
	return nil
}

func (s *workoutService) StartCalibrationMax(ctx context.Context, connID string) error {
	session, err := s.lookup(connID)
	if err != nil {
		return err
	}
	session.StartCalibrationMax()
	return nil
}

func (s *workoutService) CompleteCalibrationMin(ctx context.Context, connID string) (*dto.CalibrationMinCompleteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "WorkoutService.CompleteCalibrationMin",
		trace.WithAttributes(attribute.String("session.id", connID)))
	defer span.End()

	session, err := s.lookup(connID)
	if err != nil {
		return nil, err
	}

	minAngle, err := session.CompleteCalibrationMin()
	if err != nil {
		s.logger.Warn("WorkoutService", "MIN calibration failed", map[string]interface{}{"session_id": connID, "error": err.Error()})
		s.publish(ctx, events.TypeCalibrationFailed, map[string]interface{}{
			"session_id": connID,
			"phase":      "min",
			"reason":     err.Error(),
		})
		return nil, err
	}

	s.logger.Info("WorkoutService", "MIN calibration complete", map[string]interface{}{"session_id": connID, "min_angle": minAngle})
	s.publish(ctx, events.TypeCalibrationCompleted, map[string]interface{}{
		"session_id": connID,
		"phase":      "min",
		"angle":      minAngle,
		"calibrated": false,
	})
	return &dto.CalibrationMinCompleteResponse{MinAngle: int(minAngle)}, nil
}

// CompleteCalibrationMax reports an ordering failure through Calibrated=false
// rather than an error; only a phase without samples is an error.
func (s *workoutService) CompleteCalibrationMax(ctx context.Context, connID string) (*dto.CalibrationMaxCompleteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "WorkoutService.CompleteCalibrationMax",
		trace.WithAttributes(attribute.String("session.id", connID)))
	defer span.End()

	session, err := s.lookup(connID)
	if err != nil {
		return nil, err
	}

	maxAngle, err := session.CompleteCalibrationMax()
	switch {
	case errors.Is(err, workout.ErrInvalidCalibrationOrdering):
		snap := session.Snapshot()
		s.logger.Warn("WorkoutService", "Calibration not complete: max <= min", map[string]interface{}{
			"session_id": connID,
			"max_angle":  maxAngle,
			"min_angle":  snap.MinAngle,
		})
		s.publish(ctx, events.TypeCalibrationFailed, map[string]interface{}{
			"session_id": connID,
			"phase":      "max",
			"reason":     err.Error(),
		})
		return &dto.CalibrationMaxCompleteResponse{MaxAngle: int(maxAngle), Calibrated: false}, nil
	case err != nil:
		s.logger.Warn("WorkoutService", "MAX calibration failed", map[string]interface{}{"session_id": connID, "error": err.Error()})
		s.publish(ctx, events.TypeCalibrationFailed, map[string]interface{}{
			"session_id": connID,
			"phase":      "max",
			"reason":     err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(attribute.Float64("calibration.max_angle", maxAngle))
	s.logger.Info("WorkoutService", "Full calibration done", map[string]interface{}{"session_id": connID, "max_angle": maxAngle})
	s.publish(ctx, events.TypeCalibrationCompleted, map[string]interface{}{
		"session_id": connID,
		"phase":      "max",
		"angle":      maxAngle,
		"calibrated": true,
	})
	return &dto.CalibrationMaxCompleteResponse{MaxAngle: int(maxAngle), Calibrated: true}, nil
}

// ProcessFrame turns one frame's landmarks into the session's response. An
// unknown session yields (nil, nil): frames after a disconnect are expected.
func (s *workoutService) ProcessFrame(ctx context.Context, connID string, landmarks pose.Landmarks, hint workout.CalibrationHint) (*dto.FrameProcessedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "WorkoutService.ProcessFrame",
		trace.WithAttributes(attribute.String("session.id", connID)))
	defer span.End()

	session, ok := s.sessions.Get(connID)
	if !ok {
		return nil, nil
	}

	angle, ok := landmarks.LimbAngle(session.LimbSide())
	if !ok {
		span.SetAttributes(attribute.Bool("pose.detected", false))
		return toFrameResponse(session.LastResult()), nil
	}

	res := session.IngestAngle(angle, hint)
	if res.HalfRepAdded && res.HalfReps%2 == 0 {
		s.publish(ctx, events.TypeRepCompleted, map[string]interface{}{
			"session_id": connID,
			"reps":       res.Reps,
		})
	}
	return toFrameResponse(res), nil
}

func (s *workoutService) ResetCounter(ctx context.Context, connID string) (*dto.CounterResetResponse, error) {
	session, err := s.lookup(connID)
	if err != nil {
		return nil, err
	}
	session.ResetCounter()
	return &dto.CounterResetResponse{Count: 0}, nil
}

func (s *workoutService) GetSnapshot(ctx context.Context, connID string) (*dto.SessionSnapshotResponse, error) {
	session, ok := s.sessions.Get(connID)
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	snap := session.Snapshot()
	return &dto.SessionSnapshotResponse{
		Id:         snap.ID,
		UserId:     snap.UserID,
		LimbSide:   string(snap.LimbSide),
		Mode:       string(snap.Mode),
		Calibrated: snap.Calibrated,
		MinAngle:   snap.MinAngle,
		MaxAngle:   snap.MaxAngle,
		Count:      snap.Reps,
		HalfReps:   snap.HalfReps,
		Direction:  snap.Direction.String(),
		MinSamples: snap.MinSamples,
		MaxSamples: snap.MaxSamples,
		Frames:     snap.Frames,
		StartedAt:  snap.StartedAt,
	}, nil
}

func (s *workoutService) GetSummary(ctx context.Context, sessionID string) (*dto.WorkoutSummary, error) {
	if s.summaries == nil {
		return nil, ErrSummariesDisabled
	}
	return s.summaries.Get(ctx, sessionID)
}

func (s *workoutService) ActiveSessions() int {
	return s.sessions.Count()
}

func (s *workoutService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events != nil {
		s.events.Publish(ctx, eventType, data)
	}
}

func toFrameResponse(res workout.FrameResult) *dto.FrameProcessedResponse {
	return &dto.FrameProcessedResponse{
		Count:      res.Reps,
		HalfReps:   res.HalfReps,
		Percentage: int(res.Percentage),
		Calibrated: res.Calibrated,
		Angle:      int(res.Angle),
	}
}
