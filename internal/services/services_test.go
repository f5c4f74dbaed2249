package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finplan/internal/amqp"
	"finplan/internal/core"
	"finplan/internal/loan"
	"finplan/internal/log"
	"finplan/internal/projection"
	"finplan/internal/scenario"
	"finplan/internal/sheets/memory"
	"finplan/internal/taxdata"
)

var jan2013 = core.NewMonth(2013, time.January)

func TestParseLoanKind(t *testing.T) {
	cases := map[string]LoanKind{
		"":             KindLoan,
		"loan":         KindLoan,
		"Mortgage":     KindMortgage,
		"student-loan": KindStudentLoan,
		"student_loan": KindStudentLoan,
	}
	for in, want := range cases {
		got, err := ParseLoanKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLoanKind("payday")
	assert.ErrorIs(t, err, loan.ErrInvalidTerms)
}

func TestAmortize(t *testing.T) {
	fixed := 500.0
	cases := []struct {
		name     string
		req      AmortizationRequest
		payments int
		minimum  float64
	}{
		{
			name:     "monthly loan",
			req:      AmortizationRequest{Amount: 400000, APR: 0.05, TermInYears: 30, StartMonth: jan2013},
			payments: 360,
			minimum:  2147.2864920,
		},
		{
			name:     "student loan",
			req:      AmortizationRequest{Kind: KindStudentLoan, Amount: 30000, APR: 0.068, TermInYears: 10, StartMonth: jan2013},
			payments: 120,
			minimum:  344.58,
		},
		{
			name: "student loan with fixed payment",
			req: AmortizationRequest{
				Kind: KindStudentLoan, Amount: 12000, APR: 0.045, StartMonth: jan2013, FixedPayment: &fixed,
			},
			payments: 26,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Amortize(tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.payments, s.Len())
			if tc.minimum > 0 {
				assert.InDelta(t, tc.minimum, s.MinimumPayment, 0.01)
			}
			last := s.Payments[len(s.Payments)-1]
			assert.Zero(t, last.NewBalance)
			require.NotNil(t, s.PayoffMonth)
			assert.Equal(t, last.Month, *s.PayoffMonth)
			assert.Positive(t, s.TotalInterest)
		})
	}
}

func TestAmortizeMortgage(t *testing.T) {
	s, err := Amortize(AmortizationRequest{
		Kind:               KindMortgage,
		Name:               "house",
		Amount:             400000,
		DownPaymentPercent: 0.10,
		APR:                0.05,
		TermInYears:        30,
		StartMonth:         jan2013,
	})
	require.NoError(t, err)

	assert.Equal(t, KindMortgage, s.Kind)
	assert.Len(t, s.HomePayments, 360)
	assert.Empty(t, s.Payments)
	assert.InDelta(t, 360000, s.FinancedAmount, 1e-9)
	assert.InDelta(t, 1932.5578428, s.MinimumPayment, 1e-6)
	assert.Positive(t, s.TotalPMI)

	table := s.Table("house")
	assert.Equal(t, "Total Payment", table.Header[len(table.Header)-1])
	assert.Len(t, table.Rows, 360)
}

func TestAmortizeRejects(t *testing.T) {
	fixed := 100.0
	cases := map[string]AmortizationRequest{
		"zero amount":       {Amount: 0, APR: 0.05, TermInYears: 30, StartMonth: jan2013},
		"no start month":    {Amount: 1000, APR: 0.05, TermInYears: 30},
		"bad compounding":   {Amount: 1000, APR: 0.05, TermInYears: 30, StartMonth: jan2013, Compounding: "hourly"},
		"full down payment": {Kind: KindMortgage, Amount: 1000, DownPaymentPercent: 1, APR: 0.05, TermInYears: 30, StartMonth: jan2013},
		"fixed mortgage":    {Kind: KindMortgage, Amount: 1000, APR: 0.05, TermInYears: 30, StartMonth: jan2013, FixedPayment: &fixed},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Amortize(req)
			assert.ErrorIs(t, err, loan.ErrInvalidTerms)
			assert.True(t, projection.IsInputError(err))
		})
	}

	tooSmall := 10.0
	_, err := Amortize(AmortizationRequest{Amount: 30000, APR: 0.068, TermInYears: 10, StartMonth: jan2013, FixedPayment: &tooSmall})
	assert.ErrorIs(t, err, loan.ErrPaymentInsufficient)
}

type recordingPublisher struct {
	requests []*amqp.ProjectionRequest
	err      error
}

func (p *recordingPublisher) PublishProjectionRequest(_ context.Context, req *amqp.ProjectionRequest) error {
	if p.err != nil {
		return p.err
	}
	p.requests = append(p.requests, req)
	return nil
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newService(pub RequestPublisher, store *memory.Store) *PlanningService {
	projector := projection.NewProjector(taxdata.NewBuiltin(), projection.WithLogger(quietLogger()))
	if store == nil {
		return NewPlanningService(projector, pub, nil, quietLogger())
	}
	return NewPlanningService(projector, pub, store, quietLogger())
}

func household() scenario.Scenario {
	return scenario.Scenario{
		Name:         "mid",
		FilingStatus: "married_joint",
		State:        "GA",
		StartYear:    2013,
		Years:        1,
		Members:      []scenario.Member{{Name: "p1"}, {Name: "p4", GrossIncome: 120000}},
	}
}

func TestPlanningServiceProject(t *testing.T) {
	store := memory.New()
	svc := newService(nil, store)
	sc := household()

	out, err := svc.Project(context.Background(), &sc, false)
	require.NoError(t, err)
	assert.InDelta(t, 16857.5, out.Years[0].FederalIncomeTax, 1e-6)
	assert.Empty(t, out.SheetsRefs)

	out, err = svc.Project(context.Background(), &sc, true)
	require.NoError(t, err)
	assert.Len(t, out.SheetsRefs, 1)
	assert.Len(t, store.Titles(), 1)
}

func TestPlanningServiceExportUnavailable(t *testing.T) {
	svc := newService(nil, nil)
	sc := household()

	assert.False(t, svc.CanExport())
	_, err := svc.Project(context.Background(), &sc, true)
	assert.ErrorIs(t, err, ErrExportUnavailable)

	_, _, err = svc.Amortize(context.Background(), AmortizationRequest{Amount: 1000, APR: 0.05, TermInYears: 1, StartMonth: jan2013}, true)
	assert.ErrorIs(t, err, ErrExportUnavailable)
}

func TestPlanningServiceAmortizeExport(t *testing.T) {
	store := memory.New()
	svc := newService(nil, store)

	req := AmortizationRequest{Kind: KindStudentLoan, Name: "grad", Amount: 30000, APR: 0.068, TermInYears: 10, StartMonth: jan2013}
	sched, ref, err := svc.Amortize(context.Background(), req, true)
	require.NoError(t, err)
	assert.Equal(t, 120, sched.Len())
	assert.Equal(t, "mem:'student_loan grad 2013-01'!A1:F121", ref)

	table, ok := store.Table("student_loan grad 2013-01")
	require.True(t, ok)
	assert.Len(t, table.Rows, 120)
}

func TestPlanningServiceSubmit(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub, nil)

	id, err := svc.Submit(context.Background(), household(), true)
	require.NoError(t, err)
	require.Len(t, pub.requests, 1)
	assert.Equal(t, id, pub.requests[0].ID)
	assert.True(t, pub.requests[0].Export)

	bad := household()
	bad.Years = 0
	_, err = svc.Submit(context.Background(), bad, false)
	assert.ErrorIs(t, err, scenario.ErrInvalidScenario)
	assert.Len(t, pub.requests, 1)

	pub.err = errors.New("circuit breaker is open")
	_, err = svc.Submit(context.Background(), household(), false)
	assert.ErrorContains(t, err, "queue projection")
}

func TestPlanningServiceSubmitWithoutQueue(t *testing.T) {
	svc := newService(nil, nil)
	assert.False(t, svc.CanSubmit())
	_, err := svc.Submit(context.Background(), household(), false)
	assert.ErrorIs(t, err, ErrQueueUnavailable)
}
