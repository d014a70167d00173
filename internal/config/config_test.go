package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "5000")
	t.Setenv("CALIBRATION_DURATION", "")
	t.Setenv("DEFAULT_MIN_ANGLE", "not-a-number")
	t.Setenv("TLS_CERT_FILE", "")

	cfg := Load()

	assert.Equal(t, "5000", cfg.App.Port)
	assert.Equal(t, 7*time.Second, cfg.Workout.CalibrationDuration)
	assert.Equal(t, 25.0, cfg.Workout.DefaultMinAngle)
	assert.False(t, cfg.TLSEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CALIBRATION_DURATION", "5")
	t.Setenv("FRAME_INTERVAL", "66")
	t.Setenv("DEFAULT_MAX_ANGLE", "160.5")
	t.Setenv("SESSION_TTL_HOURS", "2")
	t.Setenv("GO_ENV", "production")
	t.Setenv("TLS_CERT_FILE", "cert.pem")
	t.Setenv("TLS_KEY_FILE", "key.pem")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.Workout.CalibrationDuration)
	assert.Equal(t, 66*time.Millisecond, cfg.Workout.FrameInterval)
	assert.Equal(t, 160.5, cfg.Workout.DefaultMaxAngle)
	assert.Equal(t, 2*time.Hour, cfg.Workout.SessionTTL)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.TLSEnabled())
}
