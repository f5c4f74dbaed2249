package sheets

import (
	"context"

	"finplan/internal/projection"
)

// Ports for outbound adapters.
type (
	// TableWriter replaces the contents of one named sheet with a table.
	TableWriter interface {
		WriteTable(ctx context.Context, t Table) (rangeRef string, err error)
	}

	// ProjectionExporter publishes every table of a projection.
	ProjectionExporter interface {
		ExportProjection(ctx context.Context, p *projection.Projection) (refs []string, err error)
	}
)
