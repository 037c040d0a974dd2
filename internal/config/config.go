package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	BackendURL  string
	RedisURL    string
	DatabaseURL string
	Environment string

	// HandoffStore selects the screen handoff backend: "memory" or "redis"
	HandoffStore    string
	HandoffTTL      time.Duration
	BulkConcurrency int
	BackendTimeout  time.Duration

	Events EventConfig
}

func LoadConfig() (*Config, error) {
	// .env is optional; deployments inject the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:5000"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		HandoffStore:    getEnv("HANDOFF_STORE", "memory"),
		HandoffTTL:      getEnvDuration("HANDOFF_TTL", 30*time.Minute),
		BulkConcurrency: getEnvInt("BULK_CONCURRENCY", 4),
		BackendTimeout:  getEnvDuration("BACKEND_TIMEOUT", 60*time.Second),
		Events: EventConfig{
			Enabled:       getEnvBool("EVENTS_ENABLED", false),
			Publisher:     getEnv("EVENTS_PUBLISHER", "mock"),
			KafkaBrokers:  getEnv("KAFKA_BROKERS", "localhost:9092"),
			ActivityTopic: getEnv("ACTIVITY_TOPIC", "dashboard-activity"),
		},
	}, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
