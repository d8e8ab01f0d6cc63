package main

import (
	"context"
	"os"
	"time"

	"room8/internal/cli"
	"room8/internal/log"
	"room8/internal/notify"
	"room8/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentNotify)

	logger.Info("Starting reminder-worker")

	rt, err := cli.OpenRuntime(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer rt.Close()

	var sink notify.Sink = notify.LogSink{Logger: logger}
	if rt.Backend.Broker != nil {
		sink = rt.Backend.Broker
		logger.Info("Reminders will be published", "queue", cfg.AMQPReminderQueue)
	} else {
		logger.Info("AMQP disabled - reminders will be logged")
	}

	processor := services.NewDueProcessor(rt.Household, sink, rt.Metrics)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	interval := cfg.DueCheckInterval
	logger.Info("Due chore processor configured", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Running initial due chore check...")
	if count, err := processor.ProcessDueChores(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", log.FieldError, err)
	} else {
		logger.Info("Initial processing complete", "reminders_sent", count)
	}

	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			logger.Info("Reminder-worker shutdown complete")
			return
		case now := <-ticker.C:
			count, err := processor.ProcessDueChores(ctx, now)
			if err != nil {
				logger.Error("Periodic processing failed", log.FieldError, err)
				continue
			}
			logger.Info("Periodic processing complete",
				"reminders_sent", count,
				"next_check", now.Add(interval).Format("15:04:05"))
		}
	}
}
