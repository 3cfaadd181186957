package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/auth"
	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	result, cleanup := cli.OpenMedium(ctx, logger, cfg)
	defer cleanup()

	store := ledger.New(result.Store, logger.WithComponent(applog.ComponentStorage).Logger)
	if err := store.Load(ctx); err != nil {
		// the store is usable with whatever loaded; unreadable entries start empty
		logger.Warn("Ledger snapshot could not be fully loaded", applog.FieldError, err)
	}
	logger.Info("Ledger loaded",
		"customers", len(store.Customers()),
		applog.FieldRevision, store.Revision())

	m := metrics.New()

	opts := services.Options{Metrics: m, Logger: logger}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// events are best effort; the ledger works without them
			logger.Warn("AMQP unavailable, ledger events disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			opts.Publisher = client
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var gateway auth.Gateway
	switch cfg.AuthProvider {
	case "gotrue":
		gateway = auth.NewGoTrueGateway(cfg.AuthURL, cfg.AuthAPIKey)
	default:
		logger.Warn("Using in-memory identity gateway, accounts will not survive a restart")
		gateway = auth.NewLocalGateway()
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Service:            services.NewLedgerService(store, opts),
		Gateway:            gateway,
		Sessions:           auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL),
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      cfg.SecureCookies,
		SessionIdle:        cfg.SessionTTL,
		ReadyChecks: map[string]apphttp.ReadyCheck{
			"storage": func(ctx context.Context) error {
				_, err := result.Store.Get(ctx, storage.KeyCustomers)
				if errors.Is(err, storage.ErrNotFound) {
					return nil
				}
				return err
			},
		},
	})

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth_provider", cfg.AuthProvider)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	<-stopped
	logger.Info("Server stopped gracefully")
}
