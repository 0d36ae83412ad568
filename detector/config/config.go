package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the detector service
type Config struct {
	// Server configuration
	Port string

	// Catalog configuration
	CatalogSource string // "file" or "mysql"
	ProductsFile  string

	// Database configuration (used when CatalogSource is "mysql")
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Detection configuration
	BroadcastInterval  time.Duration
	RecountThreshold   time.Duration
	DetectionThreshold float64

	// Frame relay configuration
	FrameQueueSize int

	// Test mode cycles through catalog labels with fake detections
	TestMode         bool
	TestModeInterval time.Duration

	// RabbitMQ configuration (disabled when URL is empty)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Server defaults
		Port: getEnv("PORT", "5000"),

		// Catalog defaults
		CatalogSource: getEnv("CATALOG_SOURCE", "file"),
		ProductsFile:  getEnv("PRODUCTS_FILE", "products.json"),

		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "smartcheckout"),

		// Detection defaults
		BroadcastInterval:  getDurationEnv("BROADCAST_INTERVAL", 100*time.Millisecond),
		RecountThreshold:   getDurationEnv("RECOUNT_THRESHOLD", 2*time.Second),
		DetectionThreshold: getFloatEnv("DETECTION_THRESHOLD", 0.2),

		// Frame relay defaults
		FrameQueueSize: getIntEnv("FRAME_QUEUE_SIZE", 10),

		// Test mode defaults
		TestMode:         getBoolEnv("TEST_MODE", false),
		TestModeInterval: getDurationEnv("TEST_MODE_INTERVAL", 2*time.Second),

		// RabbitMQ defaults
		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "smartcheckout"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "checkout.session"),

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

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
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

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
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
