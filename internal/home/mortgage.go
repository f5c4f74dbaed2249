// Package home models the loan products of a household: a mortgaged home
// with private mortgage insurance, and student loans.
package home

import (
	"fmt"

	"finplan/internal/core"
	"finplan/internal/loan"
)

// MortgageTerms describes a home purchase financed with a fixed-rate loan.
type MortgageTerms struct {
	PurchaseMonth      core.Month
	PurchaseAmount     float64
	DownPaymentPercent float64
	APR                float64
	TermInYears        int
}

func (t MortgageTerms) Validate() error {
	if t.DownPaymentPercent < 0 || t.DownPaymentPercent >= 1 {
		return fmt.Errorf("%w: down payment must be in [0, 1), got %v", loan.ErrInvalidTerms, t.DownPaymentPercent)
	}
	if t.PurchaseAmount <= 0 {
		return fmt.Errorf("%w: purchase amount must be positive, got %v", loan.ErrInvalidTerms, t.PurchaseAmount)
	}
	return nil
}

func (t MortgageTerms) DownPaymentAmount() float64 {
	return t.PurchaseAmount * t.DownPaymentPercent
}

func (t MortgageTerms) FinancedAmount() float64 {
	return t.PurchaseAmount * (1 - t.DownPaymentPercent)
}

// Mortgage is a monthly-compounded loan over the financed part of a purchase.
// It always pays the minimum payment unless told otherwise.
type Mortgage struct {
	terms MortgageTerms
	loan  *loan.AmortizedLoan
}

func NewMortgage(terms MortgageTerms) (*Mortgage, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	l, err := loan.New(loan.Terms{
		PurchaseAmount: terms.FinancedAmount(),
		TermInYears:    terms.TermInYears,
		APR:            terms.APR,
		StartMonth:     terms.PurchaseMonth,
		Compounding:    loan.CompoundMonthly,
	})
	if err != nil {
		return nil, fmt.Errorf("mortgage: %w", err)
	}
	return &Mortgage{terms: terms, loan: l}, nil
}

func (m *Mortgage) Terms() MortgageTerms            { return m.terms }
func (m *Mortgage) Loan() *loan.AmortizedLoan       { return m.loan }
func (m *Mortgage) PurchaseAmount() float64         { return m.terms.PurchaseAmount }
func (m *Mortgage) DownPaymentAmount() float64      { return m.terms.DownPaymentAmount() }
func (m *Mortgage) FinancedAmount() float64         { return m.terms.FinancedAmount() }
func (m *Mortgage) MinimumPayment() float64         { return m.loan.MinimumPayment() }
func (m *Mortgage) RemainingBalance() float64       { return m.loan.RemainingBalance() }
func (m *Mortgage) LastPaymentMonth() *core.Month   { return m.loan.LastPaymentMonth() }
func (m *Mortgage) Payments() []loan.Payment        { return m.loan.Payments() }
func (m *Mortgage) TotalInterestPaid() float64      { return m.loan.TotalInterestPaid() }
func (m *Mortgage) InterestPaidIn(year int) float64 { return m.loan.InterestPaidIn(year) }

// MakePayment pays the minimum payment, in the next month unless a
// loan.WithMonth option says otherwise. A loan.WithAmount option is ignored.
func (m *Mortgage) MakePayment(opts ...loan.PaymentOption) (*loan.Payment, error) {
	opts = append(opts[:len(opts):len(opts)], loan.WithAmount(m.loan.MinimumPayment()))
	return m.loan.MakePayment(opts...)
}

func (m *Mortgage) AmortizationTable() ([]loan.Payment, error) {
	return m.loan.AmortizationTable(nil)
}
