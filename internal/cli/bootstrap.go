// Package cli holds the shared bootstrap plumbing of the finflow binaries.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"finflow/internal/amqp"
	"finflow/internal/auth"
	"finflow/internal/config"
	"finflow/internal/log"
	"finflow/internal/services"
	"finflow/internal/storage"
	"finflow/internal/worker"
)

// Repository is the full persistence surface the binaries wire together.
// Both storage backends implement it.
type Repository interface {
	services.Repository
	services.RecurringStore
	auth.UserStore
	worker.BudgetStore
}

// LoadEnvFile loads a .env file when present. A missing file is not an
// error; production deployments configure through the environment.
func LoadEnvFile(logger *log.Logger) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load .env file", log.FieldError, err.Error())
		}
		return
	}
	logger.Info("Loaded configuration from .env file")
}

// SetupLogger builds the process logger, honoring LOG_LEVEL.
func SetupLogger(component string) *log.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return log.New(log.Config{
		Level:     level,
		Component: component,
	})
}

// LoadAndValidateConfig loads configuration from the environment and
// fails fast on invalid values.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenRepository selects the storage backend from configuration.
func OpenRepository(cfg *config.Config, logger *log.Logger) (Repository, error) {
	switch cfg.DataBackend {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		return storage.NewMemoryRepository(), nil
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		logger.Info("SQLite storage ready", "path", cfg.SQLiteDBPath)
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// ConnectAMQP dials the broker. A nil client is returned when the broker
// is unreachable so callers can run without eventing.
func ConnectAMQP(cfg *config.Config, logger *log.Logger) *amqp.Client {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP broker unavailable, events disabled",
			log.FieldError, err.Error())
		return nil
	}
	logger.Info("Connected to AMQP broker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}
