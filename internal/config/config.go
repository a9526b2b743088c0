package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	StorePath       string
	RedisAddr       string
	ScanBackend     string // "memory" or "redis"
	ScanQueueKey    string
	ScanDebounce    time.Duration
	JWTIssuer       string
	JWTSigningKey   string
	SessionTTL      time.Duration
	GeminiAPIKey    string
	GeminiModel     string
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		StorePath:       getEnv("STORE_PATH", "eduscan.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		ScanBackend:     getEnv("SCAN_BACKEND", "memory"),
		ScanQueueKey:    getEnv("SCAN_QUEUE_KEY", "eduscan:scans"),
		ScanDebounce:    durationEnv("SCAN_DEBOUNCE", 3*time.Second),
		JWTIssuer:       getEnv("JWT_ISSUER", "eduscan"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		SessionTTL:      durationEnv("SESSION_TTL", 12*time.Hour),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
