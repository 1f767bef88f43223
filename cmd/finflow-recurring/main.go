// Command finflow-recurring materializes due recurring transactions into
// income and expense entries on a fixed interval.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finflow/internal/cli"
	"finflow/internal/log"
	"finflow/internal/services"
)

func main() {
	logger := cli.SetupLogger(log.ComponentRecurring)
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

	var publisher services.EventPublisher
	if client := cli.ConnectAMQP(cfg, logger); client != nil {
		publisher = client
		defer client.Close()
	}

	finance := services.NewFinanceService(repo, publisher, logger, cfg.PageSize)
	processor := services.NewRecurringProcessor(repo, finance, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Recurring processor started",
		log.FieldOperation, log.OpStartup,
		"interval", cfg.RecurringInterval.String())

	runOnce(ctx, processor, logger)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring processor stopped", log.FieldOperation, log.OpShutdown)
			return
		case <-ticker.C:
			runOnce(ctx, processor, logger)
		}
	}
}

func runOnce(ctx context.Context, processor *services.RecurringProcessor, logger *log.Logger) {
	materialized, err := processor.ProcessDue(ctx, time.Now())
	if err != nil {
		logger.Error("Recurring run failed", log.FieldError, err.Error())
		return
	}
	if materialized > 0 {
		logger.Info("Materialized recurring transactions", "count", materialized)
	}
}
