// Command finflow runs the web application: HTTP surface, session auth,
// and transaction event publishing.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finflow/internal/auth"
	"finflow/internal/cli"
	httpserver "finflow/internal/http"
	"finflow/internal/log"
	"finflow/internal/services"
)

func main() {
	logger := cli.SetupLogger(log.ComponentApp)
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
	authSvc := auth.NewService(repo, logger)
	sessions := auth.NewSessionManager(cfg.SessionTTL)
	defer sessions.Stop()

	server := httpserver.NewServer(httpserver.Options{
		Addr:           ":" + cfg.Port,
		Finance:        finance,
		Auth:           authSvc,
		Sessions:       sessions,
		Logger:         logger,
		CurrencyPrefix: cfg.CurrencyPrefix,
	})
	server.ReadTimeout = 10 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.IdleTimeout = 120 * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			log.FieldOperation, log.OpStartup,
			"addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", log.FieldError, err.Error())
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped cleanly", log.FieldOperation, log.OpShutdown)
}
