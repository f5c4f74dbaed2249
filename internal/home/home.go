package home

import (
	"fmt"

	"finplan/internal/core"
	"finplan/internal/loan"
)

const (
	// DefaultPMIRate applies when HomeTerms.PMIRate is nil.
	DefaultPMIRate = 0.015

	// PMIEquityThreshold is the equity share at which PMI stops.
	PMIEquityThreshold = 0.20
)

// HomeTerms is a mortgage plus the PMI rate charged on it. A nil PMIRate
// means DefaultPMIRate; zero waives PMI.
type HomeTerms struct {
	MortgageTerms
	PMIRate *float64
}

// HomePayment is a mortgage payment together with the PMI due that month.
type HomePayment struct {
	loan.Payment
	PMIAmount          float64 `json:"pmi_amount"`
	TotalPaymentAmount float64 `json:"total_payment_amount"`
}

func (p HomePayment) String() string {
	return fmt.Sprintf("Payment %s %8.2f (%8.2f P, %8.2f I, %8.2f PMI %10.2f R)",
		p.Month, p.TotalPaymentAmount, p.PrincipalAmount, p.InterestAmount, p.PMIAmount, p.NewBalance)
}

// Home is a purchased property. The home value stays at the purchase price;
// equity grows only as the mortgage is paid down.
type Home struct {
	mortgage *Mortgage
	pmiRate  float64
	payments []HomePayment
}

func NewHome(terms HomeTerms) (*Home, error) {
	rate := DefaultPMIRate
	if terms.PMIRate != nil {
		rate = *terms.PMIRate
	}
	if rate < 0 {
		return nil, fmt.Errorf("%w: pmi rate must not be negative, got %v", loan.ErrInvalidTerms, rate)
	}
	m, err := NewMortgage(terms.MortgageTerms)
	if err != nil {
		return nil, err
	}
	return &Home{mortgage: m, pmiRate: rate}, nil
}

func (h *Home) Mortgage() *Mortgage           { return h.mortgage }
func (h *Home) PMIRate() float64              { return h.pmiRate }
func (h *Home) CurrentValue() float64         { return h.mortgage.PurchaseAmount() }
func (h *Home) RemainingBalance() float64     { return h.mortgage.RemainingBalance() }
func (h *Home) MinimumPayment() float64       { return h.mortgage.MinimumPayment() }
func (h *Home) FinancedAmount() float64       { return h.mortgage.FinancedAmount() }
func (h *Home) LastPaymentMonth() *core.Month { return h.mortgage.LastPaymentMonth() }

func (h *Home) CurrentEquity() float64 {
	return h.CurrentValue() - h.RemainingBalance()
}

func (h *Home) CurrentPercentEquity() float64 {
	return h.CurrentEquity() / h.CurrentValue()
}

// StandardMonthlyPMI is the PMI charge while equity is under the threshold.
func (h *Home) StandardMonthlyPMI() float64 {
	return h.pmiRate * h.FinancedAmount() / 12
}

// PMIPayment is the PMI due with the next mortgage payment.
func (h *Home) PMIPayment() float64 {
	if h.CurrentPercentEquity() < PMIEquityThreshold {
		return h.StandardMonthlyPMI()
	}
	return 0
}

// MakeMonthlyPayment pays the mortgage minimum plus PMI. PMI is assessed on
// the equity before the payment is applied.
func (h *Home) MakeMonthlyPayment(opts ...loan.PaymentOption) (*HomePayment, error) {
	pmi := h.PMIPayment()
	p, err := h.mortgage.MakePayment(opts...)
	if err != nil || p == nil {
		return nil, err
	}
	hp := HomePayment{
		Payment:            *p,
		PMIAmount:          pmi,
		TotalPaymentAmount: p.PaymentAmount + pmi,
	}
	h.payments = append(h.payments, hp)
	return &hp, nil
}

// AmortizationTable pays the mortgage off and returns every home payment.
func (h *Home) AmortizationTable() ([]HomePayment, error) {
	for h.RemainingBalance() > 0 {
		if len(h.payments) >= loan.MaxPeriods {
			return h.Payments(), fmt.Errorf("%w: home balance %.2f", loan.ErrIterationLimit, h.RemainingBalance())
		}
		if _, err := h.MakeMonthlyPayment(); err != nil {
			return h.Payments(), err
		}
	}
	return h.Payments(), nil
}

func (h *Home) Payments() []HomePayment {
	out := make([]HomePayment, len(h.payments))
	copy(out, h.payments)
	return out
}

func (h *Home) TotalInterestPaid() float64 {
	return h.mortgage.TotalInterestPaid()
}

func (h *Home) InterestPaidIn(year int) float64 {
	return h.mortgage.InterestPaidIn(year)
}

func (h *Home) TotalPMIPaid() float64 {
	var total float64
	for _, p := range h.payments {
		total += p.PMIAmount
	}
	return total
}

// PMIPaidIn sums PMI paid in year.
func (h *Home) PMIPaidIn(year int) float64 {
	var total float64
	for _, p := range h.payments {
		if p.Month.Year() == year {
			total += p.PMIAmount
		}
	}
	return total
}
