package cmd

import (
	"context"
	"fmt"

	"finplan/internal/amqp"
	"finplan/internal/backend"
	"finplan/internal/cli"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/services"
	"finplan/internal/sheets"
	gsheet "finplan/internal/sheets/google"
	"finplan/internal/sheets/memory"
)

// app holds what a command opened and must release.
type app struct {
	backend   *backend.BackendResult
	queue     *amqp.Client
	projector *projection.Projector
	svc       *services.PlanningService
}

type appOptions struct {
	export bool
	queue  bool
}

// openApp builds the planning service. Sheets and AMQP are only dialed when
// the command needs them.
func openApp(ctx context.Context, opts appOptions) (*app, error) {
	result, err := cli.InitBackend(ctx, logger, appConfig)
	if err != nil {
		return nil, err
	}
	a := &app{backend: result}

	a.projector = projection.NewProjector(result.Provider,
		projection.WithConcurrency(appConfig.ProjectionConcurrency),
		projection.WithLogger(logger))

	var writer sheets.TableWriter
	switch {
	case opts.export && dryRun:
		logger.Info("Dry run, exported tables stay in memory")
		writer = memory.New()
	case opts.export:
		w, err := openSheets(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		writer = w
	}

	var publisher services.RequestPublisher
	if opts.queue {
		if !appConfig.AMQPEnabled() {
			a.Close()
			return nil, fmt.Errorf("%w: set AMQP_URL", services.ErrQueueUnavailable)
		}
		c, err := amqp.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange,
			appConfig.AMQPRequestQueue, appConfig.AMQPResultQueue, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to AMQP: %w", err)
		}
		a.queue = c
		publisher = c
	}

	a.svc = services.NewPlanningService(a.projector, publisher, writer, logger)
	return a, nil
}

func openSheets(ctx context.Context) (*gsheet.Client, error) {
	if !appConfig.SheetsEnabled() {
		return nil, fmt.Errorf("%w: set GOOGLE_SPREADSHEET_ID", services.ErrExportUnavailable)
	}
	c, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      appConfig.GoogleSpreadsheetID,
		ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		ServiceAccountFile: appConfig.GoogleServiceAccountFile,
		Endpoint:           appConfig.GoogleSheetsEndpoint,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("google sheets: %w", err)
	}
	return c, nil
}

func (a *app) Close() {
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
	if a.backend != nil && a.backend.Cleanup != nil {
		if err := a.backend.Cleanup(); err != nil {
			logger.Warn("Failed to release tax data backend", log.FieldError, err)
		}
	}
}
