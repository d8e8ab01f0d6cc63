package main

import (
	"context"
	"os"
	"time"

	"room8/internal/cli"
	apphttp "room8/internal/http"
	"room8/internal/log"
	"room8/internal/notify"
	"room8/internal/services"
	"room8/internal/storage"
	"room8/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	syncTimeout     = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	rt, err := cli.OpenRuntime(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer rt.Close()

	household := rt.Household

	// With a broker the room8-worker owns calendar sync and reminders.
	// Without one the server runs them in-process.
	var (
		direct    *services.DirectSyncer
		reminders *notify.Scheduler
	)
	if rt.Backend.Broker != nil {
		household.SetSyncer(services.NewAMQPSyncer(rt.Backend.Broker))
		logger.Info("Chore sync delegated to room8-worker", "queue", cfg.AMQPQueue)
	} else {
		reminders = notify.NewScheduler(household.Scheduler(), cfg.ReminderLead, notify.LogSink{Logger: logger})
		sw := worker.NewSyncWorker(household, rt.Backend.Calendar, reminders, rt.Metrics, cfg.SyncConcurrency)
		direct = services.NewDirectSyncer(sw, syncTimeout)
		household.SetSyncer(direct)
		logger.Info("Chore sync running in-process", "calendar_remote", rt.Backend.CalendarRemote)

		go func() {
			if _, err := sw.Reconcile(context.Background()); err != nil {
				logger.Error("Startup reconciliation failed", log.FieldError, err)
			}
		}()
	}

	srv := apphttp.NewServer(":"+cfg.Port, household, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		Metrics:            rt.Metrics,
		Logger:             logger,
		Ready: func(ctx context.Context) error {
			_, _, err := rt.Backend.Store.Get(ctx, storage.KeyRoommates)
			return err
		},
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if direct != nil {
			direct.Wait()
		}
		if reminders != nil {
			reminders.Stop()
		}
	})

	// room8ctl and the workers write to the same store.
	go household.Watch(ctx, cfg.ReloadInterval)

	logger.Info("Starting room8 server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", household.Scheduler().Location().String())
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
