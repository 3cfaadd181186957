package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	applog "ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/services"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting ledger-worker")

	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	result, cleanup := cli.OpenMedium(ctx, logger, cfg)
	defer cleanup()

	sheetsClient, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	m := metrics.New()
	if cfg.WorkerMetricsPort != "" {
		srv := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", applog.FieldError, err)
			}
		}()
		defer srv.Close()
		logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
	}

	procCfg := services.DefaultMirrorProcessorConfig()
	procCfg.ResyncInterval = cfg.SyncInterval
	processor := services.NewMirrorProcessor(result.Store, sheetsClient, m, procCfg)

	var events worker.EventSource
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, mirroring on the resync timer only",
			"interval", cfg.SyncInterval)
	}

	if err := worker.NewMirrorWorker(processor, events).Run(ctx); err != nil {
		logger.Error("Mirror worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
