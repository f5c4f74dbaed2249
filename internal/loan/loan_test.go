package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finplan/internal/core"
)

var jan2014 = core.NewMonth(2014, time.January)

func newMonthlyLoan(t *testing.T, amount float64) *AmortizedLoan {
	t.Helper()
	l, err := New(Terms{
		PurchaseAmount: amount,
		TermInYears:    30,
		APR:            0.05,
		StartMonth:     jan2014,
		Compounding:    CompoundMonthly,
	})
	require.NoError(t, err)
	return l
}

func TestMonthlyMinimumPayment(t *testing.T) {
	l := newMonthlyLoan(t, 200000)
	assert.InDelta(t, 1073.64, l.MinimumPayment(), 0.005)
	assert.Equal(t, 200000.0, l.RemainingBalance())
	assert.Nil(t, l.LastPaymentMonth())
}

func TestMonthlyAmortizationTable(t *testing.T) {
	l := newMonthlyLoan(t, 200000)

	table, err := l.AmortizationTable(nil)
	require.NoError(t, err)
	require.Len(t, table, 360)

	first := table[0]
	assert.Equal(t, jan2014, first.Month)
	assert.InDelta(t, 833.33, first.InterestAmount, 0.005)
	assert.InDelta(t, 240.31, first.PrincipalAmount, 0.005)

	last := table[len(table)-1]
	assert.Equal(t, core.NewMonth(2043, time.December), last.Month)
	assert.InDelta(t, 4.45, last.InterestAmount, 0.01)
	assert.InDelta(t, 1069.19, last.PrincipalAmount, 0.005)
	assert.Equal(t, 0.0, last.NewBalance)

	assert.True(t, l.PaidOff())
	assert.InDelta(t, 186511.57, l.TotalInterestPaid(), 0.01)
	assert.InDelta(t, 9932.99, l.InterestPaidIn(2014), 0.005)
	assert.InDelta(t, 9782.02, l.InterestPaidIn(2015), 0.005)
	assert.InDelta(t, 342.25, l.InterestPaidIn(2043), 0.005)
	assert.Equal(t, 0.0, l.InterestPaidIn(2044))
}

func TestPrincipalSumsToPurchaseAmount(t *testing.T) {
	fixed := func(v float64) *float64 { return &v }
	cases := []struct {
		name        string
		amount      float64
		years       int
		apr         float64
		compounding Compounding
		fixed       *float64
	}{
		{"monthly minimum", 200000, 30, 0.05, CompoundMonthly, nil},
		{"monthly fixed 1500", 200000, 30, 0.05, CompoundMonthly, fixed(1500)},
		{"monthly fixed 2000", 200000, 30, 0.05, CompoundMonthly, fixed(2000)},
		{"daily minimum", 130000, 10, 0.065, CompoundDaily, nil},
		{"daily fixed", 30000, 10, 0.068, CompoundDaily, fixed(500)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := New(Terms{
				PurchaseAmount: tc.amount,
				TermInYears:    tc.years,
				APR:            tc.apr,
				StartMonth:     jan2014,
				Compounding:    tc.compounding,
			})
			require.NoError(t, err)
			table, err := l.AmortizationTable(tc.fixed)
			require.NoError(t, err)

			var principal float64
			for i, p := range table {
				assert.LessOrEqual(t, p.PrincipalAmount, p.PreviousBalance, "payment %d", i)
				assert.InDelta(t, p.PaymentAmount-p.InterestAmount, p.PrincipalAmount, 1e-9, "payment %d", i)
				principal += p.PrincipalAmount
			}
			assert.InDelta(t, tc.amount, principal, 1e-6)
			assert.InDelta(t, tc.amount, l.PrincipalPaid(), 1e-6)

			last := table[len(table)-1]
			assert.Equal(t, last.PreviousBalance, last.PrincipalAmount)
			assert.Equal(t, 0.0, last.NewBalance)
		})
	}
}

func TestBalanceInvariants(t *testing.T) {
	l := newMonthlyLoan(t, 140000)
	table, err := l.AmortizationTable(nil)
	require.NoError(t, err)

	prev := 140000.0
	for i, p := range table {
		assert.Equal(t, prev, p.PreviousBalance, "payment %d", i)
		assert.LessOrEqual(t, p.NewBalance, p.PreviousBalance, "payment %d", i)
		assert.GreaterOrEqual(t, p.NewBalance, 0.0, "payment %d", i)
		assert.InDelta(t, p.PaymentAmount, p.InterestAmount+p.PrincipalAmount, 1e-9, "payment %d", i)
		if i > 0 {
			assert.True(t, p.Month.After(table[i-1].Month), "payment %d out of order", i)
		}
		prev = p.NewBalance
	}
	assert.Equal(t, 0.0, prev)
}

func TestPaidOffLoanIgnoresPayments(t *testing.T) {
	l := newMonthlyLoan(t, 1000)
	_, err := l.AmortizationTable(nil)
	require.NoError(t, err)
	n := len(l.Payments())

	p, err := l.MakePayment()
	assert.NoError(t, err)
	assert.Nil(t, p)
	assert.Len(t, l.Payments(), n)
}

func TestInsufficientPaymentRejected(t *testing.T) {
	l := newMonthlyLoan(t, 200000)

	_, err := l.MakePayment(WithAmount(833.33))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaymentInsufficient))

	var perr *PaymentError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, jan2014, perr.Month)
	assert.InDelta(t, 833.33, perr.Interest, 0.005)

	// state untouched
	assert.Equal(t, 200000.0, l.RemainingBalance())
	assert.Empty(t, l.Payments())
	assert.Nil(t, l.LastPaymentMonth())

	fixed := 800.0
	_, err = l.AmortizationTable(&fixed)
	assert.ErrorIs(t, err, ErrPaymentInsufficient)
}

func TestPaymentOptions(t *testing.T) {
	l := newMonthlyLoan(t, 200000)

	p, err := l.MakePayment(WithMonth(core.NewMonth(2014, time.March)), WithAmount(2000))
	require.NoError(t, err)
	assert.Equal(t, core.NewMonth(2014, time.March), p.Month)
	assert.Equal(t, 2000.0, p.PaymentAmount)
	assert.InDelta(t, 2000-833.33, p.PrincipalAmount, 0.005)

	next, err := l.MakePayment()
	require.NoError(t, err)
	assert.Equal(t, core.NewMonth(2014, time.April), next.Month)

	_, err = l.MakePayment(WithMonth(core.NewMonth(2014, time.April)))
	assert.ErrorIs(t, err, ErrPaymentOutOfOrder)
}

func TestOverpaymentClampsBalance(t *testing.T) {
	l := newMonthlyLoan(t, 1000)
	p, err := l.MakePayment(WithAmount(5000))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.NewBalance)
	assert.Equal(t, 1000.0, p.PrincipalAmount)
	assert.InDelta(t, 1000+p.InterestAmount, p.PaymentAmount, 1e-9)
	assert.True(t, l.PaidOff())
	assert.Equal(t, 1000.0, l.PrincipalPaid())
}

func TestFixedPaymentShortensSchedule(t *testing.T) {
	l := newMonthlyLoan(t, 200000)
	fixed := 1500.0
	table, err := l.AmortizationTable(&fixed)
	require.NoError(t, err)
	assert.Less(t, len(table), 360)
	assert.Equal(t, 0.0, table[len(table)-1].NewBalance)
}

func TestInvalidTerms(t *testing.T) {
	cases := []Terms{
		{PurchaseAmount: 0, TermInYears: 30, APR: 0.05, StartMonth: jan2014},
		{PurchaseAmount: 1000, TermInYears: 0, APR: 0.05, StartMonth: jan2014},
		{PurchaseAmount: 1000, TermInYears: 30, APR: 0, StartMonth: jan2014},
		{PurchaseAmount: 1000, TermInYears: 30, APR: 0.05},
		{PurchaseAmount: 1000, TermInYears: 30, APR: 0.05, StartMonth: jan2014, Compounding: "weekly"},
	}
	for i, terms := range cases {
		_, err := New(terms)
		if !errors.Is(err, ErrInvalidTerms) {
			t.Fatalf("case %d: expected ErrInvalidTerms, got %v", i, err)
		}
	}
}

func TestDailyCompounding(t *testing.T) {
	l, err := New(Terms{
		PurchaseAmount: 130000,
		TermInYears:    10,
		APR:            0.065,
		StartMonth:     jan2014,
		Compounding:    CompoundDaily,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1473.39, l.MinimumPayment(), 0.005)

	first, err := l.MakePayment()
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.InterestAmount)

	second, err := l.MakePayment()
	require.NoError(t, err)
	// 31 days of January interest
	assert.InDelta(t, 0.065/365.25*31*first.NewBalance, second.InterestAmount, 1e-9)

	table, err := l.AmortizationTable(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, table[len(table)-1].NewBalance)
}

func TestParseCompounding(t *testing.T) {
	c, err := ParseCompounding("Daily")
	require.NoError(t, err)
	assert.Equal(t, CompoundDaily, c)

	_, err = ParseCompounding("yearly")
	assert.ErrorIs(t, err, ErrInvalidTerms)
}
