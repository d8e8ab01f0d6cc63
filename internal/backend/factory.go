package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"room8/internal/amqp"
	"room8/internal/calendar"
	"room8/internal/calendar/google"
	calmemory "room8/internal/calendar/memory"
	"room8/internal/storage"
	"room8/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the store, then the optional broker and calendar.
// A broker that cannot be reached is logged and skipped; a calendar that
// cannot authenticate is an error.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store}
	result.Broker = f.createBroker(config)

	result.Calendar, result.CalendarRemote, err = f.createCalendar(ctx, config)
	if err != nil {
		if result.Broker != nil {
			result.Broker.Close()
		}
		store.Close()
		return nil, err
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Broker != nil {
			errs = append(errs, result.Broker.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.KV, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createBroker(config Config) *amqp.Client {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPReminderQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without broker", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue,
		"reminder_queue", config.AMQPReminderQueue)
	return client
}

func (f *DefaultFactory) createCalendar(ctx context.Context, config Config) (calendar.Service, bool, error) {
	if !config.CalendarEnabled() {
		f.logger.Info("Google Calendar not configured, using in-memory calendar")
		return calmemory.New(), false, nil
	}

	cli, err := google.New(ctx, google.Config{
		CalendarID:         config.GoogleCalendarID,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		OAuthClientJSON:    config.GoogleOAuthClientJSON,
		OAuthClientFile:    config.GoogleOAuthClientFile,
		OAuthTokenJSON:     config.GoogleOAuthTokenJSON,
		OAuthTokenFile:     config.GoogleOAuthTokenFile,
		Location:           config.Location,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to initialize Google Calendar client: %w", err)
	}

	f.logger.Info("Initialized Google Calendar", "calendar_id", config.GoogleCalendarID)
	return cli, true, nil
}
