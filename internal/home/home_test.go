package home

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finplan/internal/core"
	"finplan/internal/loan"
)

var (
	jan2014 = core.NewMonth(2014, time.January)
	dec2043 = core.NewMonth(2043, time.December)
)

func newHome(t *testing.T, down float64) *Home {
	t.Helper()
	pmi := 0.01
	h, err := NewHome(HomeTerms{
		MortgageTerms: MortgageTerms{
			PurchaseMonth:      jan2014,
			PurchaseAmount:     200000,
			DownPaymentPercent: down,
			APR:                0.05,
			TermInYears:        30,
		},
		PMIRate: &pmi,
	})
	require.NoError(t, err)
	return h
}

func TestHomeZeroDown(t *testing.T) {
	h := newHome(t, 0)

	assert.InDelta(t, 1073.64, h.MinimumPayment(), 0.005)
	assert.InDelta(t, 166.67, h.PMIPayment(), 0.005)
	assert.Nil(t, h.LastPaymentMonth())
	assert.Equal(t, 200000.0, h.RemainingBalance())
	assert.Equal(t, 0.0, h.TotalInterestPaid())
	assert.Equal(t, 0.0, h.TotalPMIPaid())

	payments, err := h.AmortizationTable()
	require.NoError(t, err)
	require.Len(t, payments, 360)

	require.NotNil(t, h.LastPaymentMonth())
	assert.Equal(t, dec2043, *h.LastPaymentMonth())
	assert.Equal(t, 0.0, h.RemainingBalance())
	assert.InDelta(t, 21166.67, h.TotalPMIPaid(), 0.005)
	assert.InDelta(t, 186511.57, h.TotalInterestPaid(), 0.005)
	assert.InDelta(t, 9932.99, h.InterestPaidIn(2014), 0.005)
	assert.InDelta(t, 9782.02, h.InterestPaidIn(2015), 0.005)
	assert.InDelta(t, 342.25, h.InterestPaidIn(2043), 0.005)
	assert.InDelta(t, 2000, h.PMIPaidIn(2014), 0.005)

	first := payments[0]
	assert.Equal(t, jan2014, first.Month)
	assert.InDelta(t, 833.33, first.InterestAmount, 0.005)
	assert.InDelta(t, 240.31, first.PrincipalAmount, 0.005)
	assert.InDelta(t, 166.67, first.PMIAmount, 0.005)
	assert.InDelta(t, 1073.64+166.67, first.TotalPaymentAmount, 0.01)

	last := payments[len(payments)-1]
	assert.Equal(t, dec2043, last.Month)
	assert.InDelta(t, 4.45, last.InterestAmount, 0.01)
	assert.InDelta(t, 1069.19, last.PrincipalAmount, 0.005)
	assert.Equal(t, 0.0, last.PMIAmount)
}

func TestHomeThirtyDown(t *testing.T) {
	h := newHome(t, 0.30)

	assert.InDelta(t, 751.55, h.MinimumPayment(), 0.005)
	assert.Equal(t, 0.0, h.PMIPayment())
	assert.InDelta(t, 140000, h.RemainingBalance(), 1e-9)

	payments, err := h.AmortizationTable()
	require.NoError(t, err)

	assert.Equal(t, dec2043, *h.LastPaymentMonth())
	assert.Equal(t, 0.0, h.TotalPMIPaid())
	assert.InDelta(t, 130558.10, h.TotalInterestPaid(), 0.005)
	assert.InDelta(t, 6953.09, h.InterestPaidIn(2014), 0.005)
	assert.InDelta(t, 6847.42, h.InterestPaidIn(2015), 0.005)
	assert.InDelta(t, 239.58, h.InterestPaidIn(2043), 0.005)

	assert.InDelta(t, 583.33, payments[0].InterestAmount, 0.005)
	assert.InDelta(t, 168.22, payments[0].PrincipalAmount, 0.005)
	assert.InDelta(t, 3.12, payments[len(payments)-1].InterestAmount, 0.005)
	assert.InDelta(t, 748.43, payments[len(payments)-1].PrincipalAmount, 0.005)
}

func TestPMIStopsAtEquityThreshold(t *testing.T) {
	h := newHome(t, 0.10)
	payments, err := h.AmortizationTable()
	require.NoError(t, err)

	stopped := false
	for _, p := range payments {
		equityBefore := (200000 - p.PreviousBalance) / 200000
		if equityBefore < PMIEquityThreshold {
			require.False(t, stopped, "pmi resumed in %s", p.Month)
			assert.InDelta(t, 0.01*180000/12, p.PMIAmount, 1e-9)
		} else {
			stopped = true
			assert.Equal(t, 0.0, p.PMIAmount)
		}
	}
	assert.True(t, stopped)
}

func TestDefaultPMIRate(t *testing.T) {
	h, err := NewHome(HomeTerms{MortgageTerms: MortgageTerms{
		PurchaseMonth:  jan2014,
		PurchaseAmount: 200000,
		APR:            0.05,
		TermInYears:    30,
	}})
	require.NoError(t, err)
	assert.Equal(t, DefaultPMIRate, h.PMIRate())
	assert.InDelta(t, 250, h.PMIPayment(), 1e-9)
}

func TestZeroPMIRate(t *testing.T) {
	zero := 0.0
	h, err := NewHome(HomeTerms{
		MortgageTerms: MortgageTerms{
			PurchaseMonth:  jan2014,
			PurchaseAmount: 200000,
			APR:            0.05,
			TermInYears:    30,
		},
		PMIRate: &zero,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, h.PMIRate())
	assert.Equal(t, 0.0, h.PMIPayment())

	_, err = h.AmortizationTable()
	require.NoError(t, err)
	assert.Equal(t, 0.0, h.TotalPMIPaid())

	negative := -0.01
	_, err = NewHome(HomeTerms{MortgageTerms: h.Mortgage().Terms(), PMIRate: &negative})
	assert.ErrorIs(t, err, loan.ErrInvalidTerms)
}

func TestMortgageIgnoresPaymentAmount(t *testing.T) {
	m, err := NewMortgage(MortgageTerms{
		PurchaseMonth:  jan2014,
		PurchaseAmount: 200000,
		APR:            0.05,
		TermInYears:    30,
	})
	require.NoError(t, err)

	opts := []loan.PaymentOption{loan.WithAmount(5000), loan.WithMonth(core.NewMonth(2014, time.March))}
	p, err := m.MakePayment(opts...)
	require.NoError(t, err)
	assert.Equal(t, m.MinimumPayment(), p.PaymentAmount)
	assert.Equal(t, core.NewMonth(2014, time.March), p.Month)
}

func TestMortgage(t *testing.T) {
	m, err := NewMortgage(MortgageTerms{
		PurchaseMonth:      jan2014,
		PurchaseAmount:     200000,
		DownPaymentPercent: 0.30,
		APR:                0.05,
		TermInYears:        30,
	})
	require.NoError(t, err)
	assert.InDelta(t, 60000, m.DownPaymentAmount(), 1e-9)
	assert.InDelta(t, 140000, m.FinancedAmount(), 1e-9)

	p, err := m.MakePayment()
	require.NoError(t, err)
	assert.InDelta(t, 751.55, p.PaymentAmount, 0.005)

	p, err = m.MakePayment(loan.WithMonth(core.NewMonth(2014, time.June)))
	require.NoError(t, err)
	assert.Equal(t, core.NewMonth(2014, time.June), p.Month)
}

func TestInvalidDownPayment(t *testing.T) {
	for _, down := range []float64{-0.1, 1, 1.5} {
		_, err := NewMortgage(MortgageTerms{
			PurchaseMonth:      jan2014,
			PurchaseAmount:     200000,
			DownPaymentPercent: down,
			APR:                0.05,
			TermInYears:        30,
		})
		assert.ErrorIs(t, err, loan.ErrInvalidTerms, "down payment %v", down)
	}
}

func TestStudentLoan(t *testing.T) {
	s, err := NewStudentLoan(StudentLoanTerms{
		Name:        "grad school",
		StartMonth:  jan2014,
		StartAmount: 130000,
		APR:         0.065,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1473.39, s.MinimumPayment(), 0.005)
	assert.Equal(t, DefaultStudentLoanTerm, s.Loan().TermInYears())
	assert.Equal(t, loan.CompoundDaily, s.Loan().Compounding())

	payments, err := s.AmortizationTable(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, payments)
	assert.Equal(t, 0.0, s.RemainingBalance())
	assert.Equal(t, 0.0, payments[0].InterestAmount)
	assert.InDelta(t, 130000, s.Loan().PrincipalPaid(), 1e-6)
	assert.Greater(t, s.InterestPaidIn(2014), 0.0)
}
