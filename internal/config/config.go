package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"saldo/internal/core"
)

type Config struct {
	// Backend API
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Durable client state (bearer token)
	StateDBPath string

	// Push notifications: device token registered after login.
	// Empty disables registration.
	PushDeviceToken string

	// AMQP mutation events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Dashboard
	DefaultTimeframe string
	TrendsCacheTTL   time.Duration
	TrendsCacheSize  int
}

func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:5000"),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		StateDBPath: getEnv("STATE_DB_PATH", defaultStatePath()),

		PushDeviceToken: getEnv("PUSH_DEVICE_TOKEN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "saldo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		DefaultTimeframe: getEnv("DEFAULT_TIMEFRAME", "monthly"),
		TrendsCacheTTL:   getEnvDuration("TRENDS_CACHE_TTL", 5*time.Minute),
		TrendsCacheSize:  getEnvInt("TRENDS_CACHE_SIZE", 8),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API base URL
	if parsed, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	} else if parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	// Validate state database path
	if c.StateDBPath == "" {
		errors = append(errors, "state database path cannot be empty")
	} else {
		dir := filepath.Dir(c.StateDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create state directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate timeframe
	if _, err := core.ParseTimeframe(c.DefaultTimeframe); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default timeframe '%s': must be weekly, monthly or yearly", c.DefaultTimeframe))
	}

	// Validate timeouts and cache sizing
	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}
	if c.TrendsCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid trends cache TTL %v: must be at least 1 second", c.TrendsCacheTTL))
	}
	if c.TrendsCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid trends cache size %d: must be at least 1", c.TrendsCacheSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data/saldo.db"
	}
	return filepath.Join(home, ".saldo", "state.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
