package loan

import (
	"fmt"
	"math"
	"strings"

	"finplan/internal/core"
)

// Compounding selects how interest accrues on a loan.
type Compounding string

const (
	CompoundMonthly Compounding = "monthly"
	CompoundDaily   Compounding = "daily"
)

// DaysPerYear is the average year length used by daily compounding.
const DaysPerYear = 365.25

// ParseCompounding accepts "monthly" or "daily" in any case.
func ParseCompounding(s string) (Compounding, error) {
	switch Compounding(strings.ToLower(strings.TrimSpace(s))) {
	case CompoundMonthly:
		return CompoundMonthly, nil
	case CompoundDaily:
		return CompoundDaily, nil
	default:
		return "", fmt.Errorf("%w: unknown compounding %q", ErrInvalidTerms, s)
	}
}

func (c Compounding) String() string {
	return string(c)
}

// Compounder computes the level payment for a set of terms and the interest
// owed by a payment. Implementations carry no mutable state; the balance and
// the previous payment month are passed in by the loan.
type Compounder interface {
	MinimumPayment() float64
	InterestFor(balance float64, last *core.Month, month core.Month) float64
}

// NewCompounder returns the strategy for c bound to the given terms.
func NewCompounder(c Compounding, principal float64, termInYears int, apr float64) (Compounder, error) {
	switch c {
	case CompoundMonthly:
		return Monthly{Principal: principal, TermInYears: termInYears, APR: apr}, nil
	case CompoundDaily:
		return Daily{Principal: principal, TermInYears: termInYears, APR: apr}, nil
	default:
		return nil, fmt.Errorf("%w: unknown compounding %q", ErrInvalidTerms, string(c))
	}
}

// Monthly accrues apr/12 on the remaining balance once per payment.
type Monthly struct {
	Principal   float64
	TermInYears int
	APR         float64
}

func (m Monthly) Rate() float64 {
	return m.APR / 12
}

func (m Monthly) MinimumPayment() float64 {
	return annuityPayment(m.Rate(), float64(m.TermInYears*12), m.Principal)
}

func (m Monthly) InterestFor(balance float64, _ *core.Month, _ core.Month) float64 {
	return m.Rate() * balance
}

// Daily accrues apr/365.25 per calendar day elapsed since the previous
// payment. The first payment accrues nothing.
type Daily struct {
	Principal   float64
	TermInYears int
	APR         float64
}

func (d Daily) Rate() float64 {
	return d.APR / DaysPerYear
}

// MinimumPayment is the daily annuity payment over years*365.25 days scaled
// to an average month.
func (d Daily) MinimumPayment() float64 {
	daysPerMonth := DaysPerYear / 12
	return daysPerMonth * annuityPayment(d.Rate(), float64(d.TermInYears)*DaysPerYear, d.Principal)
}

func (d Daily) InterestFor(balance float64, last *core.Month, month core.Month) float64 {
	if last == nil {
		return 0
	}
	days := last.Diff(core.Days, month)
	return d.Rate() * float64(days) * balance
}

// annuityPayment is the level payment that retires principal over n periods
// at rate per period.
func annuityPayment(rate, n, principal float64) float64 {
	if rate == 0 {
		return principal / n
	}
	return rate * principal / (1 - math.Pow(1+rate, -n))
}
