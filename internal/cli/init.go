// Package cli holds the startup steps shared by the finzen binaries.
package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finzen/internal/backend"
	"finzen/internal/config"
	"finzen/internal/log"
)

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *config.Config {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()
	return config.Load()
}

// SetupLogger builds the application logger at the given level and installs
// it as the slog default.
func SetupLogger(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger
}

// MustValidate exits the process when the configuration is invalid.
func MustValidate(logger *log.Logger, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
}

// OpenBackend creates the storage backend selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
}

// Shutdowner is satisfied by *http.Server.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ShutdownOnDone stops srv once ctx is cancelled, giving in-flight requests up
// to timeout. The returned channel closes when shutdown has finished.
func ShutdownOnDone(ctx context.Context, srv Shutdowner, timeout time.Duration, logger *log.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
			return
		}
		logger.Info("Shutdown complete")
	}()
	return done
}
