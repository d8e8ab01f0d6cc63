package backend

import (
	"context"
	"time"

	"room8/internal/amqp"
	"room8/internal/calendar"
	"room8/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult bundles the collaborators a process runs against.
// Broker is nil when AMQP is not configured.
type BackendResult struct {
	Store    storage.KV
	Broker   *amqp.Client
	Calendar calendar.Service
	// CalendarRemote is false when Calendar is the in-memory stand-in.
	CalendarRemote bool
	Cleanup        CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional for every backend type
	AMQPURL           string
	AMQPExchange      string
	AMQPQueue         string
	AMQPReminderQueue string

	// Google Calendar, optional
	GoogleCalendarID         string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenFile     string
	GoogleOAuthTokenJSON     string
	Location                 *time.Location
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
