// Package services orchestrates the engines for the outer surfaces: the
// CLI, the HTTP API and the worker all go through PlanningService.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/scenario"
	"finplan/internal/sheets"
)

var (
	ErrQueueUnavailable  = errors.New("projection queue not configured")
	ErrExportUnavailable = errors.New("sheets export not configured")
)

type RequestPublisher interface {
	PublishProjectionRequest(ctx context.Context, req *amqp.ProjectionRequest) error
}

// Outcome is a projection and, when it was exported, the ranges written.
type Outcome struct {
	*projection.Projection
	SheetsRefs []string `json:"sheets_refs,omitempty"`
}

type PlanningService struct {
	projector *projection.Projector
	publisher RequestPublisher
	writer    sheets.TableWriter
	logger    *log.Logger
}

// NewPlanningService wires the service. publisher and writer may be nil;
// the operations needing them then fail with ErrQueueUnavailable or
// ErrExportUnavailable.
func NewPlanningService(projector *projection.Projector, publisher RequestPublisher, writer sheets.TableWriter, logger *log.Logger) *PlanningService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &PlanningService{
		projector: projector,
		publisher: publisher,
		writer:    writer,
		logger:    logger.WithComponent(log.ComponentApp),
	}
}

func (s *PlanningService) CanSubmit() bool { return s.publisher != nil }
func (s *PlanningService) CanExport() bool { return s.writer != nil }

// Amortize pays off the loan req describes. With export set the schedule
// is also written to a sheet named after the loan.
func (s *PlanningService) Amortize(ctx context.Context, req AmortizationRequest, export bool) (*Schedule, string, error) {
	if export && s.writer == nil {
		return nil, "", ErrExportUnavailable
	}
	sched, err := Amortize(req)
	if err != nil {
		return nil, "", err
	}
	s.logger.InfoContext(ctx, "Loan amortized",
		log.FieldLoan, string(sched.Kind),
		log.FieldPayments, sched.Len())
	if !export {
		return sched, "", nil
	}

	title := sheets.SheetTitle(string(sched.Kind), sched.Name, req.StartMonth.ISO())
	ref, err := s.writer.WriteTable(ctx, sched.Table(title))
	if err != nil {
		return sched, "", fmt.Errorf("export schedule: %w", err)
	}
	return sched, ref, nil
}

// Project runs sc in process and optionally exports the result.
func (s *PlanningService) Project(ctx context.Context, sc *scenario.Scenario, export bool) (*Outcome, error) {
	if export && s.writer == nil {
		return nil, ErrExportUnavailable
	}
	p, err := s.projector.Project(ctx, sc)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Projection: p}
	if !export {
		return out, nil
	}
	out.SheetsRefs, err = sheets.NewExporter(s.writer).ExportProjection(ctx, p)
	if err != nil {
		return out, fmt.Errorf("export projection: %w", err)
	}
	return out, nil
}

// Submit validates sc and queues it for a worker. It returns the request
// id the result message will carry.
func (s *PlanningService) Submit(ctx context.Context, sc scenario.Scenario, export bool) (string, error) {
	if s.publisher == nil {
		return "", ErrQueueUnavailable
	}
	if err := sc.Validate(); err != nil {
		return "", err
	}
	req := amqp.NewProjectionRequest(sc, export)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.publisher.PublishProjectionRequest(ctx, req); err != nil {
		s.logger.ErrorContext(ctx, "Failed to queue projection",
			log.FieldProjectionID, req.ID,
			log.FieldError, err)
		return "", fmt.Errorf("queue projection: %w", err)
	}
	return req.ID, nil
}
