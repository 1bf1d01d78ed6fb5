// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds the local bridge server settings
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// BackendConfig holds settings for reaching the platform backend
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// PresentationConfig tunes the loading-presentation thresholds
type PresentationConfig struct {
	CacheHitThreshold time.Duration
	FirstMissMin      time.Duration
	FirstMissMax      time.Duration
	RepeatMissMin     time.Duration
	RepeatMissMax     time.Duration
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Backend        *BackendConfig
	Presentation   *PresentationConfig
	JWTSecret      string
	AllowedOrigins []string
	Debug          bool
}

// DefaultConfig provides default bridge server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:           8090,
		Host:           "127.0.0.1", // the bridge serves the local UI only
		MetricsEnabled: true,
	}
}

// DefaultBackendConfig provides default backend settings
func DefaultBackendConfig() *BackendConfig {
	return &BackendConfig{
		BaseURL:        "http://localhost:8080",
		RequestTimeout: 10 * time.Second,
	}
}

// DefaultPresentationConfig provides the default loading thresholds
func DefaultPresentationConfig() *PresentationConfig {
	return &PresentationConfig{
		CacheHitThreshold: 300 * time.Millisecond,
		FirstMissMin:      1500 * time.Millisecond,
		FirstMissMax:      2000 * time.Millisecond,
		RepeatMissMin:     800 * time.Millisecond,
		RepeatMissMax:     1200 * time.Millisecond,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",          // Current directory
		"../../.env",    // Project root when running from cmd/client
		"../../../.env", // Even higher directory
		filepath.Join(os.Getenv("GOPATH"), "src/collabiora-client/.env"), // GOPATH location
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		// If we couldn't find a .env file, try loading without a path
		// This is a silent failure if no .env exists, which is fine
		_ = godotenv.Load()
	}

	// Start with default server config
	serverConfig := DefaultConfig()

	// Override server settings from environment if provided
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	backendConfig := DefaultBackendConfig()

	if baseURL := os.Getenv("BACKEND_URL"); baseURL != "" {
		backendConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if timeoutStr := os.Getenv("BACKEND_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil && timeout > 0 {
			backendConfig.RequestTimeout = timeout
		}
	}

	presentationConfig := DefaultPresentationConfig()

	if thresholdStr := os.Getenv("CACHE_HIT_THRESHOLD"); thresholdStr != "" {
		if threshold, err := time.ParseDuration(thresholdStr); err == nil && threshold > 0 {
			presentationConfig.CacheHitThreshold = threshold
		}
	}

	setDurationFromEnv("FIRST_MISS_MIN", &presentationConfig.FirstMissMin)
	setDurationFromEnv("FIRST_MISS_MAX", &presentationConfig.FirstMissMax)
	setDurationFromEnv("REPEAT_MISS_MIN", &presentationConfig.RepeatMissMin)
	setDurationFromEnv("REPEAT_MISS_MAX", &presentationConfig.RepeatMissMax)

	// Initialize complete config
	config := &Config{
		Server:         serverConfig,
		Backend:        backendConfig,
		Presentation:   presentationConfig,
		JWTSecret:      getEnvOrDefault("JWT_SECRET", "collabiora-local-dev-secret"),
		AllowedOrigins: []string{"*"}, // Default to allow all origins
		Debug:          false,
	}

	// Override remaining settings from environment if provided
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	return config, nil
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setDurationFromEnv overrides target with the named variable when it parses
// to a positive duration; otherwise the default stands.
func setDurationFromEnv(key string, target *time.Duration) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			*target = parsed
		}
	}
}
