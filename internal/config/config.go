// Package config centralises configuration parsing for the analysis service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration values for the analysis service.
type Config struct {
	HTTPAddress       string
	JWTSecret         string
	JWTIssuer         string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float32
	NarrativeTimeout  time.Duration // Upper bound for a single narrative completion call.
	LookbackDays      int           // Default analysis window when a request does not set one.
	DistanceUnit      string        // Unit assumed for bare CSV distance columns.
	UploadDir         string        // Directory uploads are archived to; empty disables archiving.
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	return Config{
		HTTPAddress:       getEnv("HTTP_ADDRESS", ":8080"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:         getEnv("JWT_ISSUER", "runcoach.identity"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", ""),
		OpenAITemperature: getFloatEnv("OPENAI_TEMPERATURE", 0.4),
		NarrativeTimeout:  getDurationEnv("NARRATIVE_TIMEOUT", 30*time.Second),
		LookbackDays:      getIntEnv("LOOKBACK_DAYS", 28),
		DistanceUnit:      getEnv("DISTANCE_UNIT", "km"),
		UploadDir:         getEnv("UPLOAD_DIR", "data/uploads"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float32) float32 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return fallback
}
