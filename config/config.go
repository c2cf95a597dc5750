package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the scam alert service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// JWT configuration
	JWTSecret string

	// Trend engine configuration
	DispatchInterval  time.Duration
	LookbackHours     int
	MaxLookbackHours  int
	NearbyRadiusKm    float64
	NearbyReportLimit int

	// Push gateway configuration
	FCMEndpoint  string
	FCMServerKey string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first if present.
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "fraudshield"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// JWT defaults
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		// Trend engine defaults (1 hour cycle, 72 hour window, 30 day cap)
		DispatchInterval:  getDurationEnv("DISPATCH_INTERVAL", time.Hour),
		LookbackHours:     getIntEnv("LOOKBACK_HOURS", 72),
		MaxLookbackHours:  getIntEnv("MAX_LOOKBACK_HOURS", 720),
		NearbyRadiusKm:    15.0,
		NearbyReportLimit: 50,

		// Push gateway defaults
		FCMEndpoint:  getEnv("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
		FCMServerKey: getEnv("FCM_SERVER_KEY", ""),

		// Rate limiting defaults (30 requests per minute per client)
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 30),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
