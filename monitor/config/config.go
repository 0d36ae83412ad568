package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the checkout monitor. Theme and
// feature toggles live here so the pieces below receive them by explicit
// parameter passing instead of ambient globals.
type Config struct {
	// Server configuration
	Port string

	// Feed configuration
	FeedHost string
	FeedPort string

	// UI configuration
	Theme     string
	ShowVideo bool

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Server defaults
		Port: getEnv("PORT", "8090"),

		// Feed defaults
		FeedHost: getEnv("FEED_HOST", "localhost"),
		FeedPort: getEnv("FEED_PORT", "5000"),

		// UI defaults
		Theme:     getEnv("THEME", "light"),
		ShowVideo: getBoolEnv("SHOW_VIDEO", true),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// FeedAddress returns the configured detector address as host:port
func (c *Config) FeedAddress() string {
	return fmt.Sprintf("%s:%s", c.FeedHost, c.FeedPort)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
