package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finplan/internal/log"
)

// Tax data backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendFile}

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Tax data
	TaxDataBackend string
	SQLiteDBPath   string
	TaxDataDir     string

	// Cache in front of the tax data backend. An empty RedisAddr keeps
	// the cache in process.
	RedisAddr string
	CacheTTL  time.Duration
	CacheSize int

	// AMQP
	AMQPURL          string
	AMQPExchange     string
	AMQPRequestQueue string
	AMQPResultQueue  string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// GoogleSheetsEndpoint points the client at an emulator and skips auth.
	GoogleSheetsEndpoint string

	// Projection
	ProjectionConcurrency int
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", log.FormatText),

		TaxDataBackend: getEnv("TAX_DATA_BACKEND", BackendMemory),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/finplan.db"),
		TaxDataDir:     getEnv("TAX_DATA_DIR", "./data/taxdata"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getEnvDuration("CACHE_TTL", time.Hour),
		CacheSize: getEnvInt("CACHE_SIZE", 256),

		AMQPURL:          getEnv("AMQP_URL", ""),
		AMQPExchange:     getEnv("AMQP_EXCHANGE", "finplan"),
		AMQPRequestQueue: getEnv("AMQP_REQUEST_QUEUE", "projection_requests"),
		AMQPResultQueue:  getEnv("AMQP_RESULT_QUEUE", "projection_results"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleSheetsEndpoint:     getEnv("GOOGLE_SHEETS_ENDPOINT", ""),

		ProjectionConcurrency: getEnvInt("PROJECTION_CONCURRENCY", 4),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %v", err))
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %v", err))
	}

	switch c.TaxDataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendFile:
		if c.TaxDataDir == "" {
			errors = append(errors, "tax data directory cannot be empty when using file backend")
		} else if info, err := os.Stat(c.TaxDataDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("tax data directory '%s' does not exist", c.TaxDataDir))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid tax data backend '%s': must be one of %v", c.TaxDataBackend, validBackends))
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRequestQueue == "" || c.AMQPResultQueue == "" {
			errors = append(errors, "AMQP request and result queue names cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if c.GoogleSheetsEndpoint != "" {
		if u, err := url.Parse(c.GoogleSheetsEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid Google Sheets endpoint '%s': must be an absolute URL", c.GoogleSheetsEndpoint))
		}
	}

	if c.ProjectionConcurrency < 1 || c.ProjectionConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid projection concurrency %d: must be between 1 and 64", c.ProjectionConcurrency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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
