// Package sheets turns projections and amortization schedules into
// spreadsheet tables and exports them through a TableWriter.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"finplan/internal/core"
	"finplan/internal/home"
	"finplan/internal/loan"
	"finplan/internal/projection"
)

// maxTitleLength is the longest sheet title Google Sheets accepts.
const maxTitleLength = 100

// Table is a header row followed by data rows. Amounts are rounded to
// cents; engines keep full precision.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// Values returns the header and rows as one matrix.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	return append(out, t.Rows...)
}

// SheetTitle joins parts into a valid sheet title: characters Sheets
// rejects are dropped and the result is cut to maxTitleLength.
func SheetTitle(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Map(func(r rune) rune {
			switch r {
			case '[', ']', '*', '?', '/', '\\', ':', '\'':
				return -1
			}
			return r
		}, p)
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			kept = append(kept, p)
		}
	}
	title := strings.Join(kept, " ")
	for utf8.RuneCountInString(title) > maxTitleLength {
		_, size := utf8.DecodeLastRuneInString(title)
		title = title[:len(title)-size]
	}
	return strings.TrimSpace(title)
}

var scheduleHeader = []string{"Month", "Payment", "Previous Balance", "Interest", "Principal", "New Balance"}

// ScheduleTable lays out loan payments one row per month.
func ScheduleTable(title string, payments []loan.Payment) Table {
	t := Table{Title: title, Header: scheduleHeader, Rows: make([][]any, 0, len(payments))}
	for _, p := range payments {
		t.Rows = append(t.Rows, paymentRow(p))
	}
	return t
}

func paymentRow(p loan.Payment) []any {
	return []any{
		p.Month.ISO(),
		core.RoundCents(p.PaymentAmount),
		core.RoundCents(p.PreviousBalance),
		core.RoundCents(p.InterestAmount),
		core.RoundCents(p.PrincipalAmount),
		core.RoundCents(p.NewBalance),
	}
}

// HomeTable is a schedule with PMI and the total paid each month.
func HomeTable(title string, payments []home.HomePayment) Table {
	header := append(append([]string(nil), scheduleHeader...), "PMI", "Total Payment")
	t := Table{Title: title, Header: header, Rows: make([][]any, 0, len(payments))}
	for _, p := range payments {
		row := append(paymentRow(p.Payment), core.RoundCents(p.PMIAmount), core.RoundCents(p.TotalPaymentAmount))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// SummaryTable lays out one row per projected year.
func SummaryTable(title string, years []projection.YearSummary) Table {
	t := Table{
		Title: title,
		Header: []string{
			"Year", "Gross Income", "Retirement", "Healthcare", "Deductions",
			"Mortgage Interest", "PMI", "Student Loan Interest", "Student Loan Deduction",
			"MAGI", "Federal AGI", "State AGI", "Federal Tax", "State Tax",
			"Medicare", "Social Security", "FICA", "Total Tax", "Net Income", "Effective Federal Rate",
		},
		Rows: make([][]any, 0, len(years)),
	}
	for _, y := range years {
		t.Rows = append(t.Rows, []any{
			y.Year,
			core.RoundCents(y.GrossIncome),
			core.RoundCents(y.RetirementContribution),
			core.RoundCents(y.HealthcareContribution),
			core.RoundCents(y.Deductions),
			core.RoundCents(y.MortgageInterest),
			core.RoundCents(y.PMIPaid),
			core.RoundCents(y.StudentLoanInterest),
			core.RoundCents(y.StudentLoanInterestDeduction),
			core.RoundCents(y.MAGI),
			core.RoundCents(y.FederalAGI),
			core.RoundCents(y.StateAGI),
			core.RoundCents(y.FederalIncomeTax),
			core.RoundCents(y.StateIncomeTax),
			core.RoundCents(y.MedicareTax),
			core.RoundCents(y.SocialSecurityTax),
			core.RoundCents(y.FICATax),
			core.RoundCents(y.TotalTax),
			core.RoundCents(y.NetIncome),
			y.EffectiveFederalRate,
		})
	}
	return t
}

// ProjectionTables returns the summary first, then the home schedule and
// one schedule per student loan. Titles carry the scenario name and the
// first block of the projection id so reruns do not overwrite each other.
func ProjectionTables(p *projection.Projection) []Table {
	run, _, _ := strings.Cut(p.ID, "-")
	tables := []Table{SummaryTable(SheetTitle(p.Scenario, run, "summary"), p.Years)}
	if len(p.Home) > 0 {
		tables = append(tables, HomeTable(SheetTitle(p.Scenario, run, "home"), p.Home))
	}
	for _, sl := range p.StudentLoans {
		tables = append(tables, ScheduleTable(SheetTitle(p.Scenario, run, sl.Name), sl.Payments))
	}
	return tables
}

// Exporter writes projections through a TableWriter.
type Exporter struct {
	writer TableWriter
}

var _ ProjectionExporter = (*Exporter)(nil)

func NewExporter(w TableWriter) *Exporter {
	return &Exporter{writer: w}
}

func (e *Exporter) ExportProjection(ctx context.Context, p *projection.Projection) ([]string, error) {
	tables := ProjectionTables(p)
	refs := make([]string, 0, len(tables))
	for _, t := range tables {
		ref, err := e.writer.WriteTable(ctx, t)
		if err != nil {
			return refs, fmt.Errorf("write %q: %w", t.Title, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// A1Range is the A1 notation covering a table of rows by cols anchored at
// A1, e.g. 'Plan 2013'!A1:F13.
func A1Range(title string, rows, cols int) string {
	quoted := QuoteTitle(title)
	if rows < 1 || cols < 1 {
		return quoted + "!A1"
	}
	return fmt.Sprintf("%s!A1:%s%d", quoted, columnName(cols), rows)
}

// QuoteTitle quotes a sheet title for use in A1 notation. On its own it
// addresses the whole sheet.
func QuoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// columnName converts a 1-based column index to letters: 1 is A, 27 is AA.
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
