package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"

	"finzen/internal/amqp"
	"finzen/internal/auth"
	"finzen/internal/cache"
	"finzen/internal/cli"
	apphttp "finzen/internal/http"
	"finzen/internal/log"
	"finzen/internal/services"
)

// maxDashboardUsers bounds the per-user dashboard state kept in memory.
const maxDashboardUsers = 1000

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout)
	cli.MustValidate(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()
	store := result.Backend

	loc := cfg.Location()
	state := services.NewDashboardState(maxDashboardUsers, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register("dashboard_state", state.Cleaner())
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	dashboard := services.NewDashboardService(services.DashboardReaders{
		Transactions: store,
		Goals:        store,
		Tips:         store,
	}, state, loc, logger)

	// Change events are optional; without a broker each instance only sees its own writes.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, uuid.NewString(), logger)
		if err != nil {
			logger.Warn("AMQP unavailable, running without change events", log.FieldError, err.Error())
		} else {
			defer client.Close()
			publisher = client
			go func() {
				if err := client.ConsumeChanges(ctx, dashboard.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Change consumer stopped", log.FieldError, err.Error())
				}
			}()
			logger.Info("Change events enabled", "exchange", cfg.AMQPExchange, "source", client.Source())
		}
	}

	authSvc := auth.NewService(store, auth.Config{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
	}, logger)

	deps := apphttp.Deps{
		Auth:               authSvc,
		Dashboard:          dashboard,
		Transactions:       services.NewTransactionService(store, publisher, state, loc, logger),
		Goals:              services.NewGoalService(store, publisher, state, logger),
		State:              state,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      cfg.CookieSecure,
		TrustedProxies:     cfg.TrustedProxies,
	}
	if p, ok := store.(apphttp.Pinger); ok {
		deps.Backend = p
	}
	srv, err := apphttp.NewServer(":"+cfg.Port, deps)
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	stopped := cli.ShutdownOnDone(ctx, srv, 30*time.Second, logger)

	logger.Info("Starting finzen server",
		"port", cfg.Port,
		log.FieldBackend, result.Type.String(),
		"timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-stopped
	logger.Info("Server stopped gracefully")
}
