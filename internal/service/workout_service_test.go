package service

import (
	"context"
	"math"
	"sync"
	"testing"

	"ai-fitness-be/internal/pkg/logger"
	"ai-fitness-be/internal/repository"
	"ai-fitness-be/internal/repository/memory"
	"ai-fitness-be/pkg/events"
	"ai-fitness-be/pkg/pose"
	"ai-fitness-be/pkg/workout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Type string
	Data map[string]interface{}
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEventPublisher) Publish(_ context.Context, eventType string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Type: eventType, Data: data})
}

func (f *fakeEventPublisher) ofType(eventType string) []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedEvent
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// armAt builds landmarks whose elbow angle on the given side is degrees.
func armAt(side pose.LimbSide, degrees float64) pose.Landmarks {
	shoulder, elbow, wrist := side.Joints()
	rad := degrees * math.Pi / 180
	return pose.Landmarks{
		shoulder: {X: 200, Y: 100},
		elbow:    {X: 200, Y: 200},
		wrist:    {X: 200 + 100*math.Sin(rad), Y: 200 - 100*math.Cos(rad)},
	}
}

func newTestService(t *testing.T) (IWorkoutService, *fakeEventPublisher) {
	t.Helper()
	pub := &fakeEventPublisher{}
	svc := NewWorkoutService(memory.NewSessionRepository(0, nil), nil, pub, logger.NewNopLogger())
	return svc, pub
}

func calibrateService(t *testing.T, svc IWorkoutService, id string, side pose.LimbSide, lo, hi float64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, svc.StartCalibrationMin(ctx, id))
	_, err := svc.ProcessFrame(ctx, id, armAt(side, lo), workout.HintMin)
	require.NoError(t, err)
	_, err = svc.CompleteCalibrationMin(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.StartCalibrationMax(ctx, id))
	_, err = svc.ProcessFrame(ctx, id, armAt(side, hi), workout.HintMax)
	require.NoError(t, err)
	res, err := svc.CompleteCalibrationMax(ctx, id)
	require.NoError(t, err)
	require.True(t, res.Calibrated)
}

func TestProcessFrameUnknownSessionIsSilent(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.ProcessFrame(context.Background(), "ghost", armAt(pose.LimbLeft, 90), workout.HintNone)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestBoundaryOpsOnUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetLimbSide(ctx, "ghost", pose.LimbRight)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.ErrorIs(t, svc.StartCalibrationMin(ctx, "ghost"), repository.ErrSessionNotFound)
	_, err = svc.ResetCounter(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestOpenSessionTwiceFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.OpenSession(ctx, "a", ""))
	assert.ErrorIs(t, svc.OpenSession(ctx, "a", ""), repository.ErrSessionExists)
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestProcessFrameReportsAngle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.OpenSession(ctx, "a", ""))

	res, err := svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, 90), workout.HintNone)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.InDelta(t, 90, res.Angle, 1)
	assert.False(t, res.Calibrated)
	assert.Zero(t, res.Percentage)
}

func TestProcessFrameNoDetectionReturnsLastKnown(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.OpenSession(ctx, "a", ""))
	calibrateService(t, svc, "a", pose.LimbLeft, 30, 150)

	_, err := svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, 150), workout.HintNone)
	require.NoError(t, err)
	_, err = svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, 90), workout.HintNone)
	require.NoError(t, err)

	res, err := svc.ProcessFrame(ctx, "a", nil, workout.HintNone)
	require.NoError(t, err)
	assert.Zero(t, res.Angle)
	assert.True(t, res.Calibrated)
	assert.Equal(t, 1, res.HalfReps)
	assert.InDelta(t, 50, res.Percentage, 1)

	// Right-arm joints only: nothing usable for the tracked left arm.
	res, err = svc.ProcessFrame(ctx, "a", armAt(pose.LimbRight, 150), workout.HintNone)
	require.NoError(t, err)
	assert.Zero(t, res.Angle)
	assert.Equal(t, 1, res.HalfReps)
}

func TestFullWorkoutFlow(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.OpenSession(ctx, "a", "user-1"))
	calibrateService(t, svc, "a", pose.LimbLeft, 30, 150)

	// 30..150 => 95% at 144, 5% at 36.
	angles := []float64{40, 90, 148, 90, 32, 148, 32}
	wantCount := []int{0, 0, 0, 0, 1, 1, 2}
	for i, a := range angles {
		res, err := svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, a), workout.HintNone)
		require.NoError(t, err)
		assert.Equalf(t, wantCount[i], res.Count, "angle %.0f", a)
		assert.True(t, res.Calibrated)
	}

	reps := pub.ofType(events.TypeRepCompleted)
	require.Len(t, reps, 2)
	assert.Equal(t, 2, reps[1].Data["reps"])

	snap, err := svc.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, 4, snap.HalfReps)
	assert.Equal(t, string(workout.ModeCounting), snap.Mode)

	reset, err := svc.ResetCounter(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, reset.Count)
	snap, err = svc.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, snap.HalfReps)
	assert.True(t, snap.Calibrated)

	svc.CloseSession(ctx, "a")
	ended := pub.ofType(events.TypeSessionEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "a", ended[0].Data["session_id"])
	assert.Equal(t, "user-1", ended[0].Data["user_id"])
	assert.Equal(t, "disconnect", ended[0].Data["reason"])
	assert.Zero(t, svc.ActiveSessions())

	svc.CloseSession(ctx, "a")
	assert.Len(t, pub.ofType(events.TypeSessionEnded), 1, "closing twice ends once")
}

func TestCompleteCalibrationFailures(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.OpenSession(ctx, "a", ""))

	require.NoError(t, svc.StartCalibrationMin(ctx, "a"))
	_, err := svc.CompleteCalibrationMin(ctx, "a")
	assert.ErrorIs(t, err, workout.ErrInsufficientCalibrationData)

	require.NoError(t, svc.StartCalibrationMin(ctx, "a"))
	_, err = svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, 160), workout.HintMin)
	require.NoError(t, err)
	minRes, err := svc.CompleteCalibrationMin(ctx, "a")
	require.NoError(t, err)
	assert.InDelta(t, 160, minRes.MinAngle, 1)

	require.NoError(t, svc.StartCalibrationMax(ctx, "a"))
	_, err = svc.CompleteCalibrationMax(ctx, "a")
	assert.ErrorIs(t, err, workout.ErrInsufficientCalibrationData)

	require.NoError(t, svc.StartCalibrationMax(ctx, "a"))
	_, err = svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, 150), workout.HintMax)
	require.NoError(t, err)
	maxRes, err := svc.CompleteCalibrationMax(ctx, "a")
	require.NoError(t, err)
	assert.False(t, maxRes.Calibrated)
	assert.InDelta(t, 150, maxRes.MaxAngle, 1)

	assert.Len(t, pub.ofType(events.TypeCalibrationFailed), 3)
	assert.Len(t, pub.ofType(events.TypeCalibrationCompleted), 1)
}

func TestSetLimbSideSwitchesJoints(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.OpenSession(ctx, "a", ""))
	calibrateService(t, svc, "a", pose.LimbLeft, 30, 150)

	res, err := svc.SetLimbSide(ctx, "a", pose.LimbRight)
	require.NoError(t, err)
	assert.Equal(t, "right", res.ArmSide)

	snap, err := svc.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.False(t, snap.Calibrated)
	assert.Zero(t, snap.MinSamples)
	assert.Nil(t, snap.MinAngle)

	frame, err := svc.ProcessFrame(ctx, "a", armAt(pose.LimbRight, 120), workout.HintNone)
	require.NoError(t, err)
	assert.InDelta(t, 120, frame.Angle, 1)

	frame, err = svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, 120), workout.HintNone)
	require.NoError(t, err)
	assert.Zero(t, frame.Angle, "left joints are ignored after switching")
}

func TestSessionsDoNotShareState(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.OpenSession(ctx, "a", ""))
	require.NoError(t, svc.OpenSession(ctx, "b", ""))
	calibrateService(t, svc, "a", pose.LimbLeft, 30, 150)

	for _, a := range []float64{150, 30, 150} {
		_, err := svc.ProcessFrame(ctx, "a", armAt(pose.LimbLeft, a), workout.HintNone)
		require.NoError(t, err)
	}

	snapA, err := svc.GetSnapshot(ctx, "a")
	require.NoError(t, err)
	snapB, err := svc.GetSnapshot(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, 3, snapA.HalfReps)
	assert.Zero(t, snapB.HalfReps)
	assert.False(t, snapB.Calibrated)
	assert.Nil(t, snapB.MinAngle)
}

func TestGetSummaryDisabled(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetSummary(context.Background(), "a")
	assert.ErrorIs(t, err, ErrSummariesDisabled)
}

func TestExpireSessionPublishesSummary(t *testing.T) {
	pub := &fakeEventPublisher{}
	svc := NewWorkoutService(memory.NewSessionRepository(0, nil), nil, pub, logger.NewNopLogger())

	svc.ExpireSession(workout.NewSession("old"))

	ended := pub.ofType(events.TypeSessionEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "expired", ended[0].Data["reason"])
}
