package services

import (
	"fmt"
	"strings"

	"finplan/internal/core"
	"finplan/internal/home"
	"finplan/internal/loan"
	"finplan/internal/sheets"
)

// LoanKind selects the product an AmortizationRequest describes.
type LoanKind string

const (
	KindLoan        LoanKind = "loan"
	KindMortgage    LoanKind = "mortgage"
	KindStudentLoan LoanKind = "student_loan"
)

func ParseLoanKind(s string) (LoanKind, error) {
	switch k := LoanKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")); k {
	case "", KindLoan:
		return KindLoan, nil
	case KindMortgage, KindStudentLoan:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown loan kind %q", loan.ErrInvalidTerms, s)
}

// AmortizationRequest describes one loan to pay off. Amount is the purchase
// price for mortgages and the principal otherwise. Compounding applies to
// plain loans only; mortgages compound monthly and student loans daily.
type AmortizationRequest struct {
	Kind               LoanKind         `json:"kind,omitempty"`
	Name               string           `json:"name,omitempty"`
	Amount             float64          `json:"amount"`
	APR                float64          `json:"apr"`
	TermInYears        int              `json:"term_in_years"`
	StartMonth         core.Month       `json:"start_month"`
	Compounding        loan.Compounding `json:"compounding,omitempty"`
	DownPaymentPercent float64          `json:"down_payment_percent,omitempty"`
	PMIRate            *float64         `json:"pmi_rate,omitempty"`
	FixedPayment       *float64         `json:"fixed_payment,omitempty"`
}

// Schedule is a loan paid off in full. Mortgages fill HomePayments, every
// other kind fills Payments.
type Schedule struct {
	Kind           LoanKind           `json:"kind"`
	Name           string             `json:"name,omitempty"`
	FinancedAmount float64            `json:"financed_amount"`
	MinimumPayment float64            `json:"minimum_payment"`
	TotalInterest  float64            `json:"total_interest"`
	TotalPMI       float64            `json:"total_pmi,omitempty"`
	PayoffMonth    *core.Month        `json:"payoff_month,omitempty"`
	Payments       []loan.Payment     `json:"payments,omitempty"`
	HomePayments   []home.HomePayment `json:"home_payments,omitempty"`
}

// Len is the number of payments made.
func (s *Schedule) Len() int {
	return len(s.Payments) + len(s.HomePayments)
}

// Table lays the schedule out for a spreadsheet.
func (s *Schedule) Table(title string) sheets.Table {
	if s.Kind == KindMortgage {
		return sheets.HomeTable(title, s.HomePayments)
	}
	return sheets.ScheduleTable(title, s.Payments)
}

// Amortize builds the loan req describes and pays it off.
func Amortize(req AmortizationRequest) (*Schedule, error) {
	kind, err := ParseLoanKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindMortgage:
		return amortizeMortgage(req)
	case KindStudentLoan:
		return amortizeStudentLoan(req)
	default:
		return amortizeLoan(req)
	}
}

func amortizeLoan(req AmortizationRequest) (*Schedule, error) {
	l, err := loan.New(loan.Terms{
		PurchaseAmount: req.Amount,
		TermInYears:    req.TermInYears,
		APR:            req.APR,
		StartMonth:     req.StartMonth,
		Compounding:    req.Compounding,
	})
	if err != nil {
		return nil, err
	}
	payments, err := l.AmortizationTable(req.FixedPayment)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		Kind:           KindLoan,
		Name:           req.Name,
		FinancedAmount: req.Amount,
		MinimumPayment: l.MinimumPayment(),
		TotalInterest:  l.TotalInterestPaid(),
		PayoffMonth:    l.LastPaymentMonth(),
		Payments:       payments,
	}, nil
}

func amortizeMortgage(req AmortizationRequest) (*Schedule, error) {
	if req.FixedPayment != nil {
		return nil, fmt.Errorf("%w: mortgages are paid at the minimum payment", loan.ErrInvalidTerms)
	}
	h, err := home.NewHome(home.HomeTerms{
		MortgageTerms: home.MortgageTerms{
			PurchaseMonth:      req.StartMonth,
			PurchaseAmount:     req.Amount,
			DownPaymentPercent: req.DownPaymentPercent,
			APR:                req.APR,
			TermInYears:        req.TermInYears,
		},
		PMIRate: req.PMIRate,
	})
	if err != nil {
		return nil, err
	}
	payments, err := h.AmortizationTable()
	if err != nil {
		return nil, err
	}
	return &Schedule{
		Kind:           KindMortgage,
		Name:           req.Name,
		FinancedAmount: h.FinancedAmount(),
		MinimumPayment: h.MinimumPayment(),
		TotalInterest:  h.TotalInterestPaid(),
		TotalPMI:       h.TotalPMIPaid(),
		PayoffMonth:    h.LastPaymentMonth(),
		HomePayments:   payments,
	}, nil
}

func amortizeStudentLoan(req AmortizationRequest) (*Schedule, error) {
	sl, err := home.NewStudentLoan(home.StudentLoanTerms{
		Name:        req.Name,
		StartMonth:  req.StartMonth,
		StartAmount: req.Amount,
		APR:         req.APR,
		TermInYears: req.TermInYears,
	})
	if err != nil {
		return nil, err
	}
	payments, err := sl.AmortizationTable(req.FixedPayment)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		Kind:           KindStudentLoan,
		Name:           req.Name,
		FinancedAmount: req.Amount,
		MinimumPayment: sl.MinimumPayment(),
		TotalInterest:  sl.TotalInterestPaid(),
		PayoffMonth:    sl.LastPaymentMonth(),
		Payments:       payments,
	}, nil
}
