// Package storage keeps reference tax tables in SQLite. The schema is
// managed by embedded migrations; the repository serves the tables as a
// taxdata.Provider.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"finplan/internal/core"
	"finplan/internal/taxdata"
)

const federalJurisdiction = "federal"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Federal implements taxdata.Provider.
func (r *SQLiteRepository) Federal(ctx context.Context, year int, status core.FilingStatus) (taxdata.FederalTaxData, error) {
	key := taxdata.FederalKey(year, status)
	row, err := r.queries.GetFederal(ctx, int64(year), string(status))
	if errors.Is(err, sql.ErrNoRows) {
		return taxdata.FederalTaxData{}, fmt.Errorf("%w: %s", taxdata.ErrNoData, key)
	}
	if err != nil {
		return taxdata.FederalTaxData{}, fmt.Errorf("get %s: %w", key, err)
	}

	brackets, err := r.brackets(ctx, federalJurisdiction, year, status)
	if err != nil {
		return taxdata.FederalTaxData{}, fmt.Errorf("get %s brackets: %w", key, err)
	}

	d := taxdata.FederalTaxData{
		Year:                           int(row.Year),
		FilingStatus:                   core.FilingStatus(row.FilingStatus),
		Brackets:                       brackets,
		MedicareTaxRate:                row.MedicareTaxRate,
		SocialSecurityTaxRate:          row.SocialSecurityTaxRate,
		SocialSecurityWageBase:         row.SocialSecurityWageBase,
		StandardDeduction:              row.StandardDeduction,
		ExemptionPerPerson:             row.ExemptionPerPerson,
		StudentLoanMaxDeduction:        row.StudentLoanMaxDeduction,
		StudentLoanPhaseoutDenominator: row.StudentLoanPhaseoutDenominator,
		StudentLoanPhaseoutReduction:   row.StudentLoanPhaseoutReduction,
	}
	if err := d.Validate(); err != nil {
		return taxdata.FederalTaxData{}, err
	}
	return d, nil
}

// State implements taxdata.Provider.
func (r *SQLiteRepository) State(ctx context.Context, state string, year int, status core.FilingStatus) (taxdata.StateTaxData, error) {
	state = taxdata.NormalizeState(state)
	key := taxdata.StateKey(state, year, status)
	row, err := r.queries.GetState(ctx, state, int64(year), string(status))
	if errors.Is(err, sql.ErrNoRows) {
		return taxdata.StateTaxData{}, fmt.Errorf("%w: %s", taxdata.ErrNoData, key)
	}
	if err != nil {
		return taxdata.StateTaxData{}, fmt.Errorf("get %s: %w", key, err)
	}

	brackets, err := r.brackets(ctx, state, year, status)
	if err != nil {
		return taxdata.StateTaxData{}, fmt.Errorf("get %s brackets: %w", key, err)
	}

	d := taxdata.StateTaxData{
		State:              row.State,
		Year:               int(row.Year),
		FilingStatus:       core.FilingStatus(row.FilingStatus),
		Brackets:           brackets,
		StandardDeduction:  row.StandardDeduction,
		ExemptionPerPerson: row.ExemptionPerPerson,
	}
	if err := d.Validate(); err != nil {
		return taxdata.StateTaxData{}, err
	}
	return d, nil
}

func (r *SQLiteRepository) brackets(ctx context.Context, jurisdiction string, year int, status core.FilingStatus) ([]taxdata.Bracket, error) {
	rows, err := r.queries.GetBrackets(ctx, jurisdiction, int64(year), string(status))
	if err != nil {
		return nil, err
	}
	out := make([]taxdata.Bracket, len(rows))
	for i, b := range rows {
		out[i] = taxdata.Bracket{Threshold: b.Threshold, Rate: b.Rate}
	}
	return out, nil
}

// Import validates t and writes it in one transaction, replacing tables
// with the same keys. source is recorded in the import log.
func (r *SQLiteRepository) Import(ctx context.Context, source string, t taxdata.Tables) error {
	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	for _, d := range t.Federal {
		err := q.UpsertFederal(ctx, FederalRow{
			Year:                           int64(d.Year),
			FilingStatus:                   string(d.FilingStatus),
			MedicareTaxRate:                d.MedicareTaxRate,
			SocialSecurityTaxRate:          d.SocialSecurityTaxRate,
			SocialSecurityWageBase:         d.SocialSecurityWageBase,
			StandardDeduction:              d.StandardDeduction,
			ExemptionPerPerson:             d.ExemptionPerPerson,
			StudentLoanMaxDeduction:        d.StudentLoanMaxDeduction,
			StudentLoanPhaseoutDenominator: d.StudentLoanPhaseoutDenominator,
			StudentLoanPhaseoutReduction:   d.StudentLoanPhaseoutReduction,
		})
		if err != nil {
			return fmt.Errorf("upsert %s: %w", d.Key(), err)
		}
		if err := replaceBrackets(ctx, q, federalJurisdiction, d.Year, d.FilingStatus, d.Brackets); err != nil {
			return fmt.Errorf("brackets %s: %w", d.Key(), err)
		}
	}

	for _, d := range t.State {
		state := taxdata.NormalizeState(d.State)
		err := q.UpsertState(ctx, StateRow{
			State:              state,
			Year:               int64(d.Year),
			FilingStatus:       string(d.FilingStatus),
			StandardDeduction:  d.StandardDeduction,
			ExemptionPerPerson: d.ExemptionPerPerson,
		})
		if err != nil {
			return fmt.Errorf("upsert %s: %w", d.Key(), err)
		}
		if err := replaceBrackets(ctx, q, state, d.Year, d.FilingStatus, d.Brackets); err != nil {
			return fmt.Errorf("brackets %s: %w", d.Key(), err)
		}
	}

	if err := q.RecordImport(ctx, source, int64(len(t.Federal)), int64(len(t.State))); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Tax tables imported",
		"source", source,
		"federal", len(t.Federal),
		"state", len(t.State))
	return nil
}

func replaceBrackets(ctx context.Context, q *Queries, jurisdiction string, year int, status core.FilingStatus, brackets []taxdata.Bracket) error {
	if err := q.DeleteBrackets(ctx, jurisdiction, int64(year), string(status)); err != nil {
		return err
	}
	for _, b := range brackets {
		if err := q.InsertBracket(ctx, jurisdiction, int64(year), string(status), BracketRow{Threshold: b.Threshold, Rate: b.Rate}); err != nil {
			return err
		}
	}
	return nil
}

// SeedBuiltin imports the built-in tables into an empty database. It
// reports whether anything was written.
func (r *SQLiteRepository) SeedBuiltin(ctx context.Context) (bool, error) {
	n, err := r.queries.CountFederal(ctx)
	if err != nil {
		return false, fmt.Errorf("count federal tables: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := r.Import(ctx, "builtin", taxdata.Builtin()); err != nil {
		return false, err
	}
	return true, nil
}

// Tables reads every stored table.
func (r *SQLiteRepository) Tables(ctx context.Context) (taxdata.Tables, error) {
	var t taxdata.Tables

	federal, err := r.queries.ListFederal(ctx)
	if err != nil {
		return t, fmt.Errorf("list federal tables: %w", err)
	}
	for _, row := range federal {
		d, err := r.Federal(ctx, int(row.Year), core.FilingStatus(row.FilingStatus))
		if err != nil {
			return t, err
		}
		t.Federal = append(t.Federal, d)
	}

	states, err := r.queries.ListState(ctx)
	if err != nil {
		return t, fmt.Errorf("list state tables: %w", err)
	}
	for _, row := range states {
		d, err := r.State(ctx, row.State, int(row.Year), core.FilingStatus(row.FilingStatus))
		if err != nil {
			return t, err
		}
		t.State = append(t.State, d)
	}
	return t, nil
}
