package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends for the persisted alert batch.
const (
	StateBackendFile     = "file"
	StateBackendRedis    = "redis"
	StateBackendPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	// Bounding box the alert query is restricted to, in decimal degrees.
	// Presence is enforced while reading the environment; a corner on the
	// equator or prime meridian is a legal zero value.
	BBoxTop    float64
	BBoxBottom float64
	BBoxLeft   float64
	BBoxRight  float64

	MapboxToken       string `validate:"required"`
	DiscordWebhookURL string `validate:"required,url"`

	PollInterval time.Duration
	HTTPTimeout  time.Duration
	LogLevel     string
	ImageDir     string

	StateBackend string `validate:"oneof=file redis postgres"`
	StateFile    string

	RedisAddr string `validate:"required_if=StateBackend redis"`
	RedisPass string
	RedisDB   int

	DatabaseURL string `validate:"required_if=StateBackend postgres"`
}

// LoadConfig reads configuration from environment variables and an optional
// .env file. Missing required values are reported as an error so the process
// can fail fast at startup.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	top, err := getEnvAsFloat("BBOX_TOP")
	if err != nil {
		return nil, err
	}
	bottom, err := getEnvAsFloat("BBOX_BOTTOM")
	if err != nil {
		return nil, err
	}
	left, err := getEnvAsFloat("BBOX_LEFT")
	if err != nil {
		return nil, err
	}
	right, err := getEnvAsFloat("BBOX_RIGHT")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BBoxTop:           top,
		BBoxBottom:        bottom,
		BBoxLeft:          left,
		BBoxRight:         right,
		MapboxToken:       os.Getenv("MAPBOX_TOKEN"),
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		PollInterval:      getEnvAsDuration("POLL_INTERVAL", 60*time.Second),
		HTTPTimeout:       getEnvAsDuration("HTTP_TIMEOUT", 0),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ImageDir:          getEnv("IMAGE_DIR", "images"),
		StateBackend:      getEnv("STATE_BACKEND", StateBackendFile),
		StateFile:         getEnv("STATE_FILE", "alerts.json"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the value of an environment variable as int or a default.
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration returns the value of an environment variable as
// time.Duration or a default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsFloat returns the value of a required environment variable as
// float64. Absence or a non-numeric value is an error.
func getEnvAsFloat(key string) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return 0, fmt.Errorf("%s environment variable is required", key)
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a decimal degree value: %w", key, err)
	}
	return floatValue, nil
}
