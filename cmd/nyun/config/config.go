package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DockerHost         string
	DockerUsername     string
	DockerAccessToken  string
	Registry           string
	MaxConcurrentPulls int
	LogLevel           string
	OtelEnabled        bool
	OtelEndpoint       string
	SkipRemoteCheck    bool
	SysfsRoot          string

	// Version is the build version, set by main rather than the environment.
	Version string
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	cfg := &Config{
		DockerHost:         getEnv("DOCKER_HOST", ""),
		DockerUsername:     getEnv("DOCKER_USERNAME", ""),
		DockerAccessToken:  getEnv("DOCKER_ACCESS_TOKEN", ""),
		Registry:           getEnv("NYUN_REGISTRY", "docker.io"),
		MaxConcurrentPulls: getEnvInt("NYUN_MAX_CONCURRENT_PULLS", 4),
		LogLevel:           getEnv("NYUN_LOG_LEVEL", "info"),
		OtelEnabled:        getEnvBool("NYUN_OTEL_ENABLED", false),
		OtelEndpoint:       getEnv("NYUN_OTEL_ENDPOINT", ""),
		SkipRemoteCheck:    getEnvBool("NYUN_SKIP_REMOTE_CHECK", false),
		SysfsRoot:          getEnv("NYUN_SYSFS_ROOT", "/sys"),
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
