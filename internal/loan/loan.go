// Package loan amortizes fixed-rate loans under monthly or daily compounding.
//
// An AmortizedLoan is a small state machine: it starts ACTIVE with the full
// principal outstanding and moves to PAID_OFF once a payment brings the
// balance to zero. Loans are single-owner and not safe for concurrent use.
package loan

import (
	"fmt"

	"finplan/internal/core"
)

const (
	// MaxPeriods bounds AmortizationTable; 100 years of monthly payments.
	MaxPeriods = 1200

	// BalanceTolerance is the balance below which a loan counts as paid off.
	// Float residue from the annuity formula would otherwise leave a few
	// micro-cents outstanding after the final scheduled payment.
	BalanceTolerance = 1e-6
)

// Terms describes a loan at origination.
type Terms struct {
	PurchaseAmount float64
	TermInYears    int
	APR            float64
	StartMonth     core.Month
	Compounding    Compounding
}

func (t Terms) Validate() error {
	switch {
	case t.PurchaseAmount <= 0:
		return fmt.Errorf("%w: purchase amount must be positive, got %v", ErrInvalidTerms, t.PurchaseAmount)
	case t.TermInYears <= 0:
		return fmt.Errorf("%w: term must be positive, got %d", ErrInvalidTerms, t.TermInYears)
	case t.APR <= 0:
		return fmt.Errorf("%w: apr must be positive, got %v", ErrInvalidTerms, t.APR)
	case t.StartMonth.IsZero():
		return fmt.Errorf("%w: start month is required", ErrInvalidTerms)
	}
	return nil
}

// Payment is one applied payment.
type Payment struct {
	Month           core.Month `json:"month"`
	PaymentAmount   float64    `json:"payment_amount"`
	PreviousBalance float64    `json:"previous_balance"`
	InterestAmount  float64    `json:"interest_amount"`
	PrincipalAmount float64    `json:"principal_amount"`
	NewBalance      float64    `json:"new_balance"`
}

func (p Payment) String() string {
	return fmt.Sprintf("Payment %s %8.2f (%8.2f P, %8.2f I, %10.2f R)",
		p.Month, p.PaymentAmount, p.PrincipalAmount, p.InterestAmount, p.NewBalance)
}

// AmortizedLoan tracks the balance of a loan as payments are applied.
type AmortizedLoan struct {
	terms      Terms
	compounder Compounder
	minimum    float64

	balance  float64
	last     *core.Month
	payments []Payment
}

// New validates terms and returns an ACTIVE loan with the whole principal
// outstanding.
func New(terms Terms) (*AmortizedLoan, error) {
	if terms.Compounding == "" {
		terms.Compounding = CompoundMonthly
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	c, err := NewCompounder(terms.Compounding, terms.PurchaseAmount, terms.TermInYears, terms.APR)
	if err != nil {
		return nil, err
	}
	return &AmortizedLoan{
		terms:      terms,
		compounder: c,
		minimum:    c.MinimumPayment(),
		balance:    terms.PurchaseAmount,
	}, nil
}

func (l *AmortizedLoan) Terms() Terms              { return l.terms }
func (l *AmortizedLoan) PurchaseAmount() float64   { return l.terms.PurchaseAmount }
func (l *AmortizedLoan) TermInYears() int          { return l.terms.TermInYears }
func (l *AmortizedLoan) APR() float64              { return l.terms.APR }
func (l *AmortizedLoan) StartMonth() core.Month    { return l.terms.StartMonth }
func (l *AmortizedLoan) Compounding() Compounding  { return l.terms.Compounding }
func (l *AmortizedLoan) MinimumPayment() float64   { return l.minimum }
func (l *AmortizedLoan) RemainingBalance() float64 { return l.balance }
func (l *AmortizedLoan) PaidOff() bool             { return l.balance == 0 }
func (l *AmortizedLoan) Compounder() Compounder    { return l.compounder }
func (l *AmortizedLoan) LastPaymentMonth() *core.Month {
	if l.last == nil {
		return nil
	}
	m := *l.last
	return &m
}

// Payments returns a copy of the applied payments in order.
func (l *AmortizedLoan) Payments() []Payment {
	out := make([]Payment, len(l.payments))
	copy(out, l.payments)
	return out
}

// NextPaymentMonth is the month MakePayment uses when none is given.
func (l *AmortizedLoan) NextPaymentMonth() core.Month {
	if l.last != nil {
		return l.last.AddMonths(1)
	}
	return l.terms.StartMonth
}

// PaymentOption overrides a default of MakePayment.
type PaymentOption func(*paymentRequest)

type paymentRequest struct {
	amount *float64
	month  *core.Month
}

// WithAmount pays amount instead of the minimum payment.
func WithAmount(amount float64) PaymentOption {
	return func(r *paymentRequest) { r.amount = &amount }
}

// WithMonth applies the payment in m instead of the next scheduled month.
func WithMonth(m core.Month) PaymentOption {
	return func(r *paymentRequest) { r.month = &m }
}

// MakePayment applies one payment. A paid-off loan ignores the call and
// returns nil, nil. Rejected payments leave the loan untouched.
func (l *AmortizedLoan) MakePayment(opts ...PaymentOption) (*Payment, error) {
	if l.PaidOff() {
		return nil, nil
	}

	var req paymentRequest
	for _, opt := range opts {
		opt(&req)
	}
	month := l.NextPaymentMonth()
	if req.month != nil {
		month = *req.month
	}
	amount := l.minimum
	if req.amount != nil {
		amount = *req.amount
	}

	if l.last != nil && !month.After(*l.last) {
		return nil, &PaymentError{Month: month, Amount: amount, Err: ErrPaymentOutOfOrder}
	}

	interest := l.compounder.InterestFor(l.balance, l.last, month)
	if amount <= interest {
		return nil, &PaymentError{Month: month, Amount: amount, Interest: interest, Err: ErrPaymentInsufficient}
	}

	// the final payment retires exactly the outstanding balance
	principal := amount - interest
	newBalance := l.balance - principal
	if newBalance < BalanceTolerance {
		principal = l.balance
		amount = principal + interest
		newBalance = 0
	}

	p := Payment{
		Month:           month,
		PaymentAmount:   amount,
		PreviousBalance: l.balance,
		InterestAmount:  interest,
		PrincipalAmount: principal,
		NewBalance:      newBalance,
	}
	l.payments = append(l.payments, p)
	l.last = &month
	l.balance = newBalance
	return &p, nil
}

// AmortizationTable pays the loan off with regular payments and returns every
// payment made on it, including any made before the call. A nil fixed uses
// the minimum payment.
func (l *AmortizedLoan) AmortizationTable(fixed *float64) ([]Payment, error) {
	var opts []PaymentOption
	if fixed != nil {
		opts = append(opts, WithAmount(*fixed))
	}
	for !l.PaidOff() {
		if len(l.payments) >= MaxPeriods {
			return l.Payments(), fmt.Errorf("%w: balance %.2f after %d payments", ErrIterationLimit, l.balance, len(l.payments))
		}
		if _, err := l.MakePayment(opts...); err != nil {
			return l.Payments(), err
		}
	}
	return l.Payments(), nil
}

// TotalInterestPaid sums interest over all applied payments.
func (l *AmortizedLoan) TotalInterestPaid() float64 {
	return SumInterest(l.payments, func(Payment) bool { return true })
}

// InterestPaidIn sums interest over payments made in year.
func (l *AmortizedLoan) InterestPaidIn(year int) float64 {
	return SumInterest(l.payments, InYear(year))
}

// PrincipalPaid sums the principal of every applied payment.
func (l *AmortizedLoan) PrincipalPaid() float64 {
	var total float64
	for _, p := range l.payments {
		total += p.PrincipalAmount
	}
	return total
}

func (l *AmortizedLoan) String() string {
	return fmt.Sprintf("AmortizedLoan: %.2f for %d years at %.3f%% (%s)",
		l.terms.PurchaseAmount, l.terms.TermInYears, l.terms.APR*100, l.terms.Compounding)
}

// InYear matches payments made in year.
func InYear(year int) func(Payment) bool {
	return func(p Payment) bool { return p.Month.Year() == year }
}

// SumInterest adds the interest of the payments keep accepts.
func SumInterest(payments []Payment, keep func(Payment) bool) float64 {
	var total float64
	for _, p := range payments {
		if keep(p) {
			total += p.InterestAmount
		}
	}
	return total
}
