package backend

import (
	"errors"
	"fmt"

	"room8/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	loc, err := appConfig.Location()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:           appConfig.AMQPURL,
		AMQPExchange:      appConfig.AMQPExchange,
		AMQPQueue:         appConfig.AMQPQueue,
		AMQPReminderQueue: appConfig.AMQPReminderQueue,

		GoogleCalendarID:         appConfig.GoogleCalendarID,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleOAuthClientFile:    appConfig.GoogleOAuthClientFile,
		GoogleOAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
		GoogleOAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
		GoogleOAuthTokenJSON:     appConfig.GoogleOAuthTokenJSON,
		Location:                 loc,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	var errs []error
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("SQLite database path is required for sqlite backend"))
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, errors.New("AMQP exchange and queue are required when AMQP is enabled"))
	}

	if c.CalendarEnabled() {
		hasServiceAccount := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
		hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
		hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""
		if !hasServiceAccount && !(hasClient && hasToken) {
			errs = append(errs, errors.New("Google Calendar needs a service account or an OAuth client and token"))
		}
	}

	return errors.Join(errs...)
}

// CalendarEnabled reports whether a remote calendar is configured.
func (c Config) CalendarEnabled() bool {
	return c.GoogleCalendarID != ""
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
