package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration

	MaxRetries        int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int

	CacheBackend         string
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SavedFiltersBackend string
	SavedFiltersDir     string

	NATSURL         string
	NATSConnTimeout time.Duration

	OTELCollectorURL string

	PageSize       int
	LogDevelopment bool
}

// LoadConfig reads the environment, after merging an optional .env file from
// the working directory.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		APIBaseURL:     getEnvString("JOBS_API_BASE_URL", "http://localhost:5000"),
		RequestTimeout: getEnvDuration("JOBS_API_TIMEOUT", 15*time.Second),

		MaxRetries:        getEnvInt("MAX_RETRIES", 2),
		RetryInitialDelay: getEnvDuration("RETRY_INITIAL_DELAY", time.Second),
		RetryMaxDelay:     getEnvDuration("RETRY_MAX_DELAY", 30*time.Second),

		RateLimitPerSecond: getEnvFloat("RATE_LIMIT_PER_SECOND", 0),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 5),

		CacheBackend:         getEnvString("CACHE_BACKEND", "memory"),
		CacheTTL:             getEnvDuration("CACHE_TTL", 60*time.Second),
		CacheCleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 5*time.Minute),

		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SavedFiltersBackend: getEnvString("SAVED_FILTERS_BACKEND", "file"),
		SavedFiltersDir:     getEnvString("SAVED_FILTERS_DIR", defaultStateDir()),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),

		PageSize:       getEnvInt("PAGE_SIZE", 20),
		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),
	}

	return config, nil
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "jobboard")
	}
	return ".jobboard"
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
