package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type FederalRow struct {
	Year                           int64
	FilingStatus                   string
	MedicareTaxRate                float64
	SocialSecurityTaxRate          float64
	SocialSecurityWageBase         float64
	StandardDeduction              float64
	ExemptionPerPerson             float64
	StudentLoanMaxDeduction        float64
	StudentLoanPhaseoutDenominator float64
	StudentLoanPhaseoutReduction   float64
}

type StateRow struct {
	State              string
	Year               int64
	FilingStatus       string
	StandardDeduction  float64
	ExemptionPerPerson float64
}

type BracketRow struct {
	Threshold float64
	Rate      float64
}

const federalColumns = `year, filing_status, medicare_tax_rate, social_security_tax_rate,
    social_security_wage_base, standard_deduction, exemption_per_person,
    student_loan_max_deduction, student_loan_phaseout_denominator, student_loan_phaseout_reduction`

const getFederal = `SELECT ` + federalColumns + `
FROM federal_tax_data
WHERE year = ? AND filing_status = ?`

func scanFederal(row interface{ Scan(...any) error }) (FederalRow, error) {
	var r FederalRow
	err := row.Scan(
		&r.Year,
		&r.FilingStatus,
		&r.MedicareTaxRate,
		&r.SocialSecurityTaxRate,
		&r.SocialSecurityWageBase,
		&r.StandardDeduction,
		&r.ExemptionPerPerson,
		&r.StudentLoanMaxDeduction,
		&r.StudentLoanPhaseoutDenominator,
		&r.StudentLoanPhaseoutReduction,
	)
	return r, err
}

func (q *Queries) GetFederal(ctx context.Context, year int64, filingStatus string) (FederalRow, error) {
	return scanFederal(q.db.QueryRowContext(ctx, getFederal, year, filingStatus))
}

const listFederal = `SELECT ` + federalColumns + `
FROM federal_tax_data
ORDER BY year, filing_status`

func (q *Queries) ListFederal(ctx context.Context) ([]FederalRow, error) {
	rows, err := q.db.QueryContext(ctx, listFederal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FederalRow
	for rows.Next() {
		r, err := scanFederal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const upsertFederal = `INSERT OR REPLACE INTO federal_tax_data (` + federalColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) UpsertFederal(ctx context.Context, r FederalRow) error {
	_, err := q.db.ExecContext(ctx, upsertFederal,
		r.Year,
		r.FilingStatus,
		r.MedicareTaxRate,
		r.SocialSecurityTaxRate,
		r.SocialSecurityWageBase,
		r.StandardDeduction,
		r.ExemptionPerPerson,
		r.StudentLoanMaxDeduction,
		r.StudentLoanPhaseoutDenominator,
		r.StudentLoanPhaseoutReduction,
	)
	return err
}

const getState = `SELECT state, year, filing_status, standard_deduction, exemption_per_person
FROM state_tax_data
WHERE state = ? AND year = ? AND filing_status = ?`

func (q *Queries) GetState(ctx context.Context, state string, year int64, filingStatus string) (StateRow, error) {
	var r StateRow
	err := q.db.QueryRowContext(ctx, getState, state, year, filingStatus).Scan(
		&r.State,
		&r.Year,
		&r.FilingStatus,
		&r.StandardDeduction,
		&r.ExemptionPerPerson,
	)
	return r, err
}

const listState = `SELECT state, year, filing_status, standard_deduction, exemption_per_person
FROM state_tax_data
ORDER BY state, year, filing_status`

func (q *Queries) ListState(ctx context.Context) ([]StateRow, error) {
	rows, err := q.db.QueryContext(ctx, listState)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StateRow
	for rows.Next() {
		var r StateRow
		if err := rows.Scan(&r.State, &r.Year, &r.FilingStatus, &r.StandardDeduction, &r.ExemptionPerPerson); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const upsertState = `INSERT OR REPLACE INTO state_tax_data (state, year, filing_status, standard_deduction, exemption_per_person)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) UpsertState(ctx context.Context, r StateRow) error {
	_, err := q.db.ExecContext(ctx, upsertState, r.State, r.Year, r.FilingStatus, r.StandardDeduction, r.ExemptionPerPerson)
	return err
}

const getBrackets = `SELECT threshold, rate
FROM tax_brackets
WHERE jurisdiction = ? AND year = ? AND filing_status = ?
ORDER BY threshold`

func (q *Queries) GetBrackets(ctx context.Context, jurisdiction string, year int64, filingStatus string) ([]BracketRow, error) {
	rows, err := q.db.QueryContext(ctx, getBrackets, jurisdiction, year, filingStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BracketRow
	for rows.Next() {
		var r BracketRow
		if err := rows.Scan(&r.Threshold, &r.Rate); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const deleteBrackets = `DELETE FROM tax_brackets
WHERE jurisdiction = ? AND year = ? AND filing_status = ?`

func (q *Queries) DeleteBrackets(ctx context.Context, jurisdiction string, year int64, filingStatus string) error {
	_, err := q.db.ExecContext(ctx, deleteBrackets, jurisdiction, year, filingStatus)
	return err
}

const insertBracket = `INSERT INTO tax_brackets (jurisdiction, year, filing_status, threshold, rate)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertBracket(ctx context.Context, jurisdiction string, year int64, filingStatus string, b BracketRow) error {
	_, err := q.db.ExecContext(ctx, insertBracket, jurisdiction, year, filingStatus, b.Threshold, b.Rate)
	return err
}

const recordImport = `INSERT INTO table_imports (source, federal, state)
VALUES (?, ?, ?)`

func (q *Queries) RecordImport(ctx context.Context, source string, federal, state int64) error {
	_, err := q.db.ExecContext(ctx, recordImport, source, federal, state)
	return err
}

const countFederal = `SELECT COUNT(*) FROM federal_tax_data`

func (q *Queries) CountFederal(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countFederal).Scan(&n)
	return n, err
}
