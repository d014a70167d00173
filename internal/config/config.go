package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Infra     InfraConfig
	Workout   WorkoutConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	JwtSecret          string // empty = anonymous websocket sessions
	TLSCertFile        string
	TLSKeyFile         string
}

type InfraConfig struct {
	NatsURL  string // empty disables event forwarding
	RedisURL string // empty disables summaries
}

// WorkoutConfig carries the tunables the browser client needs plus session
// housekeeping. Calibration timing is driven by the client.
type WorkoutConfig struct {
	CalibrationDuration time.Duration
	FrameInterval       time.Duration
	DefaultMinAngle     float64
	DefaultMaxAngle     float64
	SessionTTL          time.Duration // 0 = live until the connection closes
	SummaryTTL          time.Duration
}

type TelemetryConfig struct {
	Enabled      bool
	OtlpEndpoint string
	ServiceName  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			TLSCertFile:        getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:         getEnv("TLS_KEY_FILE", ""),
		},
		Infra: InfraConfig{
			NatsURL:  getEnv("NATS_URL", ""),
			RedisURL: getEnv("REDIS_URL", ""),
		},
		Workout: WorkoutConfig{
			CalibrationDuration: time.Duration(getEnvAsInt("CALIBRATION_DURATION", 7)) * time.Second,
			FrameInterval:       time.Duration(getEnvAsInt("FRAME_INTERVAL", 100)) * time.Millisecond,
			DefaultMinAngle:     getEnvAsFloat("DEFAULT_MIN_ANGLE", 25),
			DefaultMaxAngle:     getEnvAsFloat("DEFAULT_MAX_ANGLE", 150),
			SessionTTL:          time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 0)) * time.Hour,
			SummaryTTL:          time.Duration(getEnvAsInt("SUMMARY_TTL_HOURS", 24)) * time.Hour,
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnv("OTEL_ENABLED", "false") == "true",
			OtlpEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "ai-fitness-backend"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) TLSEnabled() bool {
	return c.App.TLSCertFile != "" && c.App.TLSKeyFile != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
