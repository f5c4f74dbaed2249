package home

import (
	"fmt"

	"finplan/internal/core"
	"finplan/internal/loan"
)

// DefaultStudentLoanTerm is used when StudentLoanTerms.TermInYears is zero.
const DefaultStudentLoanTerm = 10

type StudentLoanTerms struct {
	Name        string
	StartMonth  core.Month
	StartAmount float64
	APR         float64
	TermInYears int
}

// StudentLoan accrues interest daily between payments.
type StudentLoan struct {
	name string
	loan *loan.AmortizedLoan
}

func NewStudentLoan(terms StudentLoanTerms) (*StudentLoan, error) {
	if terms.TermInYears == 0 {
		terms.TermInYears = DefaultStudentLoanTerm
	}
	l, err := loan.New(loan.Terms{
		PurchaseAmount: terms.StartAmount,
		TermInYears:    terms.TermInYears,
		APR:            terms.APR,
		StartMonth:     terms.StartMonth,
		Compounding:    loan.CompoundDaily,
	})
	if err != nil {
		return nil, fmt.Errorf("student loan %q: %w", terms.Name, err)
	}
	return &StudentLoan{name: terms.Name, loan: l}, nil
}

func (s *StudentLoan) Name() string                    { return s.name }
func (s *StudentLoan) Loan() *loan.AmortizedLoan       { return s.loan }
func (s *StudentLoan) MinimumPayment() float64         { return s.loan.MinimumPayment() }
func (s *StudentLoan) RemainingBalance() float64       { return s.loan.RemainingBalance() }
func (s *StudentLoan) LastPaymentMonth() *core.Month   { return s.loan.LastPaymentMonth() }
func (s *StudentLoan) Payments() []loan.Payment        { return s.loan.Payments() }
func (s *StudentLoan) TotalInterestPaid() float64      { return s.loan.TotalInterestPaid() }
func (s *StudentLoan) InterestPaidIn(year int) float64 { return s.loan.InterestPaidIn(year) }

func (s *StudentLoan) MakePayment(opts ...loan.PaymentOption) (*loan.Payment, error) {
	return s.loan.MakePayment(opts...)
}

// AmortizationTable pays the loan off with fixed, or the minimum payment when
// fixed is nil.
func (s *StudentLoan) AmortizationTable(fixed *float64) ([]loan.Payment, error) {
	return s.loan.AmortizationTable(fixed)
}
