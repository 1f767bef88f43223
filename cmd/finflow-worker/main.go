// Command finflow-worker consumes transaction events and raises budget
// alerts. It also scans all budgets for the current month on a fixed
// interval, so alerts still fire when events are lost.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finflow/internal/amqp"
	"finflow/internal/cli"
	"finflow/internal/log"
	"finflow/internal/worker"
)

func main() {
	logger := cli.SetupLogger(log.ComponentWorker)
	log.SetDefault(logger)

	cli.LoadEnvFile(logger)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Invalid configuration", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := cli.OpenRepository(cfg, logger)
	if err != nil {
		logger.Error("Failed to open storage", log.FieldError, err.Error())
		os.Exit(1)
	}

	client := cli.ConnectAMQP(cfg, logger)
	if client == nil {
		logger.Error("Worker requires a reachable AMQP broker")
		os.Exit(1)
	}
	defer client.Close()

	alerts := worker.NewAlertWorker(repo, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Consuming transaction events",
			log.FieldOperation, log.OpStartup,
			"queue", cfg.AMQPQueue)
		return client.ConsumeTransactionRecorded(ctx, func(msg *amqp.TransactionRecorded) error {
			return alerts.HandleTransactionRecorded(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.AlertScanInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := alerts.ScanCurrentMonth(ctx, time.Now()); err != nil {
					logger.Error("Budget scan failed",
						log.FieldOperation, log.OpScan,
						log.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped cleanly", log.FieldOperation, log.OpShutdown)
}
