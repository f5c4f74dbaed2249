// Package worker runs projections requested over AMQP.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/scenario"
	"finplan/internal/sheets"
)

type Projector interface {
	Project(ctx context.Context, s *scenario.Scenario) (*projection.Projection, error)
}

type ResultPublisher interface {
	PublishProjectionResult(ctx context.Context, res *amqp.ProjectionResult) error
}

// ProjectionWorker answers every request with exactly one result message.
// Requests that cannot succeed, such as invalid scenarios or missing tax
// tables, are answered with an error result and acknowledged. Anything else
// is returned so the message is redelivered.
type ProjectionWorker struct {
	projector  Projector
	publisher  ResultPublisher
	exporter   sheets.ProjectionExporter
	logger     *log.Logger
	structured *log.StructuredLogger
}

// NewProjectionWorker creates a worker. exporter may be nil, in which case
// export requests are answered without a sheets reference.
func NewProjectionWorker(projector Projector, publisher ResultPublisher, exporter sheets.ProjectionExporter, logger *log.Logger) *ProjectionWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentWorker)
	return &ProjectionWorker{
		projector:  projector,
		publisher:  publisher,
		exporter:   exporter,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
	}
}

// HandleRequest processes a single projection request from AMQP.
func (w *ProjectionWorker) HandleRequest(ctx context.Context, req *amqp.ProjectionRequest) error {
	start := time.Now()
	logger := w.logger.With(log.FieldProjectionID, req.ID, log.FieldScenario, req.Scenario.Name)
	logger.InfoContext(ctx, "Processing projection request", "export", req.Export)

	p, err := w.projector.Project(ctx, &req.Scenario)
	if err != nil {
		if !projection.IsInputError(err) {
			return fmt.Errorf("project %s: %w", req.ID, err)
		}
		logger.WarnContext(ctx, "Projection rejected", log.FieldError, err)
		return w.publish(ctx, amqp.NewProjectionResult(req.ID, nil, err))
	}

	res := amqp.NewProjectionResult(req.ID, p, nil)
	if req.Export {
		w.export(ctx, p, res)
	}
	if err := w.publish(ctx, res); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Projection request completed",
		log.FieldYears, len(p.Years),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// export attaches the sheet ranges to res. A failed export still publishes
// the projection, with the failure in res.Error.
func (w *ProjectionWorker) export(ctx context.Context, p *projection.Projection, res *amqp.ProjectionResult) {
	if w.exporter == nil {
		w.logger.WarnContext(ctx, "No sheets exporter configured, skipping export", log.FieldProjectionID, p.ID)
		return
	}
	refs, err := w.exporter.ExportProjection(ctx, p)
	if err != nil {
		w.structured.LogError(ctx, "Failed to export projection", err, log.ComponentSheets, log.OpExport,
			map[string]any{log.FieldProjectionID: p.ID})
		res.Error = fmt.Sprintf("export: %v", err)
	}
	res.SheetsRef = strings.Join(refs, ",")
}

func (w *ProjectionWorker) publish(ctx context.Context, res *amqp.ProjectionResult) error {
	if err := w.publisher.PublishProjectionResult(ctx, res); err != nil {
		return fmt.Errorf("publish result for %s: %w", res.RequestID, err)
	}
	return nil
}
