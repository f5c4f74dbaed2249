// Package projection runs a scenario forward: it amortizes the household's
// loans, feeds the interest paid each year into that year's tax figures and
// evaluates one tax graph per year.
package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finplan/internal/core"
	"finplan/internal/home"
	"finplan/internal/loan"
	"finplan/internal/log"
	"finplan/internal/people"
	"finplan/internal/scenario"
	"finplan/internal/tax"
	"finplan/internal/taxdata"
)

// DefaultConcurrency bounds how many years are evaluated at once.
const DefaultConcurrency = 4

// YearSummary is one projected tax year.
type YearSummary struct {
	tax.Result
	MortgageInterest    float64 `json:"mortgage_interest"`
	PMIPaid             float64 `json:"pmi_paid"`
	StudentLoanInterest float64 `json:"student_loan_interest"`
}

// LoanSchedule is the full repayment of one student loan.
type LoanSchedule struct {
	Name           string         `json:"name"`
	MinimumPayment float64        `json:"minimum_payment"`
	TotalInterest  float64        `json:"total_interest"`
	Payments       []loan.Payment `json:"payments"`
}

// Projection is the outcome of one run.
type Projection struct {
	ID           string             `json:"id"`
	Scenario     string             `json:"scenario"`
	Years        []YearSummary      `json:"years"`
	Home         []home.HomePayment `json:"home,omitempty"`
	StudentLoans []LoanSchedule     `json:"student_loans,omitempty"`
}

type Projector struct {
	builder     *tax.Builder
	concurrency int
	logger      *log.Logger
}

type Option func(*Projector)

// WithConcurrency sets the number of years evaluated in parallel. Values
// below one fall back to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Projector) { p.logger = l }
}

func NewProjector(provider taxdata.Provider, opts ...Option) *Projector {
	p := &Projector{
		builder:     tax.NewBuilder(provider),
		concurrency: DefaultConcurrency,
		logger:      log.New(log.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent(log.ComponentProjection)
	return p
}

// Summarize evaluates the tax graph of h for a single year.
func (p *Projector) Summarize(ctx context.Context, h tax.Household, year int) (YearSummary, error) {
	g, err := p.builder.Build(ctx, h, year, tax.Overrides{})
	if err != nil {
		return YearSummary{}, err
	}
	return YearSummary{Result: g.Result()}, nil
}

// Project amortizes every loan of s, then evaluates each projected year.
// Loan schedules are complete before any year is evaluated and are only
// read afterwards.
func (p *Projector) Project(ctx context.Context, s *scenario.Scenario) (*Projection, error) {
	start := time.Now()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	family, err := s.Family()
	if err != nil {
		return nil, err
	}

	out := &Projection{ID: uuid.NewString(), Scenario: s.Name}
	logger := p.logger.With(log.FieldProjectionID, out.ID, log.FieldScenario, s.Name)

	h, err := s.BuildHome()
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	if h != nil {
		if out.Home, err = h.AmortizationTable(); err != nil {
			return nil, fmt.Errorf("amortize home: %w", err)
		}
		logger.Debug("Home amortized", log.FieldLoan, "mortgage", log.FieldPayments, len(out.Home))
	}

	loans, err := s.BuildStudentLoans()
	if err != nil {
		return nil, err
	}
	for i, sl := range loans {
		payments, err := sl.AmortizationTable(s.StudentLoans[i].FixedPayment)
		if err != nil {
			return nil, fmt.Errorf("amortize student loan %q: %w", sl.Name(), err)
		}
		out.StudentLoans = append(out.StudentLoans, LoanSchedule{
			Name:           sl.Name(),
			MinimumPayment: sl.MinimumPayment(),
			TotalInterest:  sl.TotalInterestPaid(),
			Payments:       payments,
		})
		logger.Debug("Student loan amortized", log.FieldLoan, sl.Name(), log.FieldPayments, len(payments))
	}

	years := s.YearRange()
	out.Years = make([]YearSummary, len(years))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, year := range years {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			view := yearView(family, year, h, out.StudentLoans)
			graph, err := p.builder.Build(gctx, view, year, tax.Overrides{})
			if err != nil {
				return err
			}
			out.Years[i] = YearSummary{
				Result:              graph.Result(),
				MortgageInterest:    view.mortgageInterest,
				PMIPaid:             view.pmiPaid,
				StudentLoanInterest: view.studentLoanInterest,
			}
			logger.Debug("Year projected", log.FieldYear, year)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.NewStructuredLogger(p.logger).LogProjectionCompleted(ctx, out.ID, s.Name, len(years), time.Since(start).Milliseconds())
	return out, nil
}

// household is the family as seen in one year: mortgage interest paid that
// year joins the itemized deductions and student loan interest is added to
// what the family already reports.
type household struct {
	*people.Family
	year                int
	mortgageInterest    float64
	pmiPaid             float64
	studentLoanInterest float64
}

func yearView(f *people.Family, year int, h *home.Home, loans []LoanSchedule) *household {
	v := &household{Family: f, year: year}
	if h != nil {
		v.mortgageInterest = h.InterestPaidIn(year)
		v.pmiPaid = h.PMIPaidIn(year)
	}
	for _, l := range loans {
		v.studentLoanInterest += loan.SumInterest(l.Payments, loan.InYear(year))
	}
	return v
}

func (h *household) Deductions(year int) float64 {
	d := h.Family.Deductions(year)
	if year == h.year {
		d += h.mortgageInterest
	}
	return d
}

func (h *household) StudentLoanInterestPaid(year int) float64 {
	paid := h.Family.StudentLoanInterestPaid(year)
	if year == h.year {
		paid += h.studentLoanInterest
	}
	return paid
}

// IsInputError reports whether err comes from the scenario or the tax data
// it needs rather than from the run itself. Rerunning the same scenario
// fails the same way.
func IsInputError(err error) bool {
	for _, target := range []error{
		scenario.ErrInvalidScenario,
		taxdata.ErrNoData,
		loan.ErrInvalidTerms,
		loan.ErrPaymentInsufficient,
		loan.ErrIterationLimit,
		people.ErrEmptyFamily,
		core.ErrInvalidFilingStatus,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
