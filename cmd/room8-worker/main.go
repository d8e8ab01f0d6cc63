package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"room8/internal/cli"
	"room8/internal/log"
	"room8/internal/notify"
	"room8/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting room8-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("room8-worker needs a broker: set AMQP_URL")
		os.Exit(1)
	}

	rt, err := cli.OpenRuntime(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer rt.Close()

	broker := rt.Backend.Broker
	if broker == nil {
		logger.Error("Broker unreachable, cannot consume chore sync messages", "queue", cfg.AMQPQueue)
		os.Exit(1)
	}

	// Fired reminders go to the reminder queue for whatever delivers them.
	reminders := notify.NewScheduler(rt.Household.Scheduler(), cfg.ReminderLead, broker)
	syncWorker := worker.NewSyncWorker(rt.Household, rt.Backend.Calendar, reminders, rt.Metrics, cfg.SyncConcurrency)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(context.Context) {
		reminders.Stop()
	})

	logger.Info("Performing startup reconciliation...")
	if created, err := syncWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconciliation failed", log.FieldError, err, "created", created)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return broker.ConsumeChoreSync(gctx, syncWorker.HandleChoreSync)
	})

	// Periodic reconciliation catches messages that were lost.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				created, err := syncWorker.Reconcile(gctx)
				if err != nil {
					logger.Error("Periodic reconciliation failed", log.FieldError, err)
					continue
				}
				logger.Info("Periodic reconciliation complete", "created", created)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
