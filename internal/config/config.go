package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Practice sessions
	FrameRate             int
	SessionTTLMinutes     int
	IdleTimeoutSeconds    int
	IdleWorkerPollSeconds int
	MaxSessions           int
	MaxBodies             int
	SnapshotEveryFrames   int
	RestSpeed             float64

	// Physics
	Damping         float64
	WallRestitution float64
	CollisionLoss   float64
	ShotPowerScale  float64
	TableWidth      float64
	TableHeight     float64
	TableBorder     float64
	PocketRadius    float64

	// Persistence circuit breaker
	BreakerMaxFailures    int
	BreakerTimeoutSeconds int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Practice sessions
		FrameRate:             getEnvInt("FRAME_RATE", 60),
		SessionTTLMinutes:     getEnvInt("SESSION_TTL_MINUTES", 60),
		IdleTimeoutSeconds:    getEnvInt("IDLE_TIMEOUT_SECONDS", 600),
		IdleWorkerPollSeconds: getEnvInt("IDLE_WORKER_POLL_SECONDS", 5),
		MaxSessions:           getEnvInt("MAX_SESSIONS", 500),
		MaxBodies:             getEnvInt("MAX_BODIES", 64),
		SnapshotEveryFrames:   getEnvInt("SNAPSHOT_EVERY_FRAMES", 60),
		RestSpeed:             getEnvFloat("REST_SPEED", 1.0),

		// Physics
		Damping:         getEnvFloat("PHYSICS_DAMPING", 0.8),
		WallRestitution: getEnvFloat("WALL_RESTITUTION", 0.9),
		CollisionLoss:   getEnvFloat("COLLISION_LOSS", 0.9),
		ShotPowerScale:  getEnvFloat("SHOT_POWER_SCALE", 20),
		TableWidth:      getEnvFloat("TABLE_WIDTH", 900),
		TableHeight:     getEnvFloat("TABLE_HEIGHT", 480),
		TableBorder:     getEnvFloat("TABLE_BORDER", 40),
		PocketRadius:    getEnvFloat("POCKET_RADIUS", 20),

		// Persistence circuit breaker
		BreakerMaxFailures:    getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerTimeoutSeconds: getEnvInt("BREAKER_TIMEOUT_SECONDS", 30),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
