// Package config loads runtime settings from the environment, optionally
// layered over a YAML file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnvKey names the environment variable pointing at an optional YAML
// settings file. Keys in the file are the lower-cased variable names.
const FileEnvKey = "ROOM8_CONFIG_FILE"

var (
	validBackends   = []string{"memory", "sqlite"}
	validLogFormats = []string{"text", "json", "tint"}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	CacheTTL           time.Duration

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL           string
	AMQPExchange      string
	AMQPQueue         string
	AMQPReminderQueue string

	// Google Calendar
	GoogleCalendarID         string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenFile     string
	GoogleOAuthTokenJSON     string

	// Scheduling
	Timezone         string
	ReminderLead     time.Duration
	SyncInterval     time.Duration
	SyncConcurrency  int
	DueCheckInterval time.Duration
	ReloadInterval   time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	fileErr error
}

// Load reads settings from the environment over the optional YAML file.
// File errors surface from Validate.
func Load() *Config {
	src := source{}
	if path := os.Getenv(FileEnvKey); path != "" {
		file, err := readFile(path)
		if err != nil {
			src.err = err
		}
		src.file = file
	}

	return &Config{
		Port:               src.get("PORT", "8081"),
		RateLimitPerMinute: src.getInt("RATE_LIMIT_PER_MINUTE", 120),
		CacheTTL:           src.getDuration("CACHE_TTL", 30*time.Second),

		DataBackend:  src.get("DATA_BACKEND", "memory"),
		SQLiteDBPath: src.get("SQLITE_DB_PATH", "./data/room8.db"),

		AMQPURL:           src.get("AMQP_URL", ""),
		AMQPExchange:      src.get("AMQP_EXCHANGE", "room8"),
		AMQPQueue:         src.get("AMQP_QUEUE", "chore_sync"),
		AMQPReminderQueue: src.get("AMQP_REMINDER_QUEUE", "chore_reminders"),

		GoogleCalendarID:         src.get("GOOGLE_CALENDAR_ID", ""),
		GoogleServiceAccountFile: src.get("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: src.get("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleOAuthClientFile:    src.get("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthClientJSON:    src.get("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenFile:     src.get("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthTokenJSON:     src.get("GOOGLE_OAUTH_TOKEN_JSON", ""),

		Timezone:         src.get("TIMEZONE", "Local"),
		ReminderLead:     src.getDuration("REMINDER_LEAD", 15*time.Minute),
		SyncInterval:     src.getDuration("SYNC_INTERVAL", 5*time.Minute),
		SyncConcurrency:  src.getInt("SYNC_CONCURRENCY", 4),
		DueCheckInterval: src.getDuration("DUE_CHECK_INTERVAL", time.Hour),
		ReloadInterval:   src.getDuration("RELOAD_INTERVAL", 15*time.Second),

		LogLevel:  src.get("LOG_LEVEL", "info"),
		LogFormat: src.get("LOG_FORMAT", "text"),

		fileErr: src.err,
	}
}

// Location resolves Timezone. "Local" and empty mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CalendarEnabled reports whether a Google calendar is configured.
func (c *Config) CalendarEnabled() bool {
	return c.GoogleCalendarID != ""
}

// AMQPEnabled reports whether a broker URL is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.fileErr != nil {
		errors = append(errors, c.fileErr.Error())
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPReminderQueue == "" {
			errors = append(errors, "AMQP reminder queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CalendarEnabled() {
		errors = append(errors, c.validateCalendarCredentials()...)
	}

	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.ReminderLead < 0 {
		errors = append(errors, fmt.Sprintf("invalid reminder lead %v: must not be negative", c.ReminderLead))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.SyncConcurrency < 1 || c.SyncConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid sync concurrency %d: must be between 1 and 64", c.SyncConcurrency))
	}

	if c.DueCheckInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid due check interval %v: must be at least 1 minute", c.DueCheckInterval))
	}

	if c.ReloadInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reload interval %v: must be at least 1 second", c.ReloadInterval))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateCalendarCredentials() []string {
	var errors []string

	hasServiceAccount := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""

	switch {
	case hasServiceAccount:
	case hasClient && hasToken:
	case hasClient:
		errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided with OAuth client credentials")
	default:
		errors = append(errors, "calendar credentials are required: set GOOGLE_SERVICE_ACCOUNT_FILE/_JSON or GOOGLE_OAUTH_CLIENT_* with GOOGLE_OAUTH_TOKEN_*")
	}

	for _, f := range []struct{ label, path string }{
		{"Google service account file", c.GoogleServiceAccountFile},
		{"Google OAuth client file", c.GoogleOAuthClientFile},
		{"Google OAuth token file", c.GoogleOAuthTokenFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("%s does not exist: %s", f.label, f.path))
		}
	}
	return errors
}

// source resolves a key from the environment, then the YAML file, then the
// default.
type source struct {
	file map[string]string
	err  error
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

func (s source) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	if value, ok := s.file[key]; ok && value != "" {
		return value, true
	}
	return "", false
}

func (s source) get(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (s source) getInt(key string, defaultValue int) int {
	if value, ok := s.lookup(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
