package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/cli"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/sheets"
	gsheet "finplan/internal/sheets/google"
	"finplan/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		log.New(log.DefaultConfig()).Error("Invalid logging configuration", log.FieldError, err)
		os.Exit(1)
	}
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting projection-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	result, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize tax data backend", log.FieldError, err, log.FieldBackend, cfg.TaxDataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Failed to release tax data backend", log.FieldError, err)
			}
		}
	}()

	// Export is optional; requests asking for it are answered without a
	// sheets reference when no spreadsheet is configured.
	var exporter sheets.ProjectionExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			Endpoint:           cfg.GoogleSheetsEndpoint,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = sheets.NewExporter(client)
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRequestQueue, cfg.AMQPResultQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	projector := projection.NewProjector(result.Provider,
		projection.WithConcurrency(cfg.ProjectionConcurrency),
		projection.WithLogger(logger))
	w := worker.NewProjectionWorker(projector, amqpClient, exporter, logger)

	runCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeProjectionRequests(runCtx, w.HandleRequest)
	}()

	logger.Info("Consuming projection requests", log.FieldQueue, cfg.AMQPRequestQueue)
	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	case <-runCtx.Done():
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker stopped")
}
