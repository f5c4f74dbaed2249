package tax

import (
	"context"
	"fmt"

	"finplan/internal/taxdata"
)

// Overrides replaces nodes of a Graph. Nil fields get the default node.
// Downstream defaults are wired to the override, so replacing MAGI changes
// every figure derived from it.
type Overrides struct {
	MAGI                         Calculator
	StudentLoanInterestDeduction Calculator
	FederalAGI                   Calculator
	FederalIncomeTax             Calculator
	MedicareTax                  Calculator
	SocialSecurityTax            Calculator
	FICATax                      Calculator
	StateAGI                     Calculator
	StateIncomeTax               Calculator
	TotalTax                     Calculator
}

// Graph is the full set of calculators for one household and year.
type Graph struct {
	Household Household
	Year      int

	MAGI                         Calculator
	StudentLoanInterestDeduction Calculator
	FederalAGI                   Calculator
	FederalIncomeTax             Calculator
	MedicareTax                  Calculator
	SocialSecurityTax            Calculator
	FICATax                      Calculator
	StateAGI                     Calculator
	StateIncomeTax               Calculator
	TotalTax                     Calculator
	NetIncome                    Calculator
}

func orDefault(override Calculator, fallback func() Calculator) Calculator {
	if override != nil {
		return override
	}
	return fallback()
}

// NewGraph wires the default calculators for h in year. A nil state means
// the household owes no state income tax.
func NewGraph(h Household, year int, fed taxdata.FederalTaxData, state *taxdata.StateTaxData, o Overrides) *Graph {
	g := &Graph{Household: h, Year: year}

	g.MAGI = orDefault(o.MAGI, func() Calculator {
		return NewMAGICalculator(h, year, fed)
	})
	g.StudentLoanInterestDeduction = orDefault(o.StudentLoanInterestDeduction, func() Calculator {
		return NewStudentLoanInterestDeductionCalculator(h, year, fed, g.MAGI)
	})
	g.FederalAGI = orDefault(o.FederalAGI, func() Calculator {
		return NewFederalAGICalculator(g.MAGI, g.StudentLoanInterestDeduction)
	})
	g.FederalIncomeTax = orDefault(o.FederalIncomeTax, func() Calculator {
		return NewFederalIncomeTaxCalculator(g.FederalAGI, fed)
	})
	g.MedicareTax = orDefault(o.MedicareTax, func() Calculator {
		return NewMedicareTaxCalculator(h, year, fed)
	})
	g.SocialSecurityTax = orDefault(o.SocialSecurityTax, func() Calculator {
		return NewSocialSecurityTaxCalculator(h, year, fed)
	})
	g.FICATax = orDefault(o.FICATax, func() Calculator {
		return NewFICATaxCalculator(g.MedicareTax, g.SocialSecurityTax)
	})
	g.StateAGI = orDefault(o.StateAGI, func() Calculator {
		if state == nil {
			return Constant(0)
		}
		return NewStateAGICalculator(h, year, *state)
	})
	g.StateIncomeTax = orDefault(o.StateIncomeTax, func() Calculator {
		if state == nil {
			return NoStateIncomeTax
		}
		return NewStateIncomeTaxCalculator(g.StateAGI, *state)
	})
	g.TotalTax = orDefault(o.TotalTax, func() Calculator {
		return NewTotalTaxCalculator(g.FederalIncomeTax, g.StateIncomeTax, g.FICATax)
	})
	g.NetIncome = NewNetIncomeCalculator(h, year, g.TotalTax)
	return g
}

// Result is every figure of a graph, evaluated.
type Result struct {
	Year                         int     `json:"year"`
	GrossIncome                  float64 `json:"gross_income"`
	RetirementContribution       float64 `json:"retirement_contribution"`
	HealthcareContribution       float64 `json:"healthcare_contribution"`
	Deductions                   float64 `json:"deductions"`
	StudentLoanInterestPaid      float64 `json:"student_loan_interest_paid"`
	MAGI                         float64 `json:"magi"`
	StudentLoanInterestDeduction float64 `json:"student_loan_interest_deduction"`
	FederalAGI                   float64 `json:"federal_agi"`
	StateAGI                     float64 `json:"state_agi"`
	FederalIncomeTax             float64 `json:"federal_income_tax"`
	StateIncomeTax               float64 `json:"state_income_tax"`
	MedicareTax                  float64 `json:"medicare_tax"`
	SocialSecurityTax            float64 `json:"social_security_tax"`
	FICATax                      float64 `json:"fica_tax"`
	TotalTax                     float64 `json:"total_tax"`
	NetIncome                    float64 `json:"net_income"`
	EffectiveFederalRate         float64 `json:"effective_federal_rate"`
}

func (g *Graph) Result() Result {
	h, y := g.Household, g.Year
	r := Result{
		Year:                         y,
		GrossIncome:                  h.GrossIncome(y),
		RetirementContribution:       h.RetirementContribution(y),
		HealthcareContribution:       h.HealthcareContribution(y),
		Deductions:                   h.Deductions(y),
		StudentLoanInterestPaid:      h.StudentLoanInterestPaid(y),
		MAGI:                         g.MAGI.Calculate(),
		StudentLoanInterestDeduction: g.StudentLoanInterestDeduction.Calculate(),
		FederalAGI:                   g.FederalAGI.Calculate(),
		StateAGI:                     g.StateAGI.Calculate(),
		FederalIncomeTax:             g.FederalIncomeTax.Calculate(),
		StateIncomeTax:               g.StateIncomeTax.Calculate(),
		MedicareTax:                  g.MedicareTax.Calculate(),
		SocialSecurityTax:            g.SocialSecurityTax.Calculate(),
		FICATax:                      g.FICATax.Calculate(),
		TotalTax:                     g.TotalTax.Calculate(),
		NetIncome:                    g.NetIncome.Calculate(),
	}
	if r.GrossIncome > 0 {
		r.EffectiveFederalRate = r.FederalIncomeTax / r.GrossIncome
	}
	return r
}

// Builder resolves tax tables for a household and wires its graph.
type Builder struct {
	provider taxdata.Provider
}

func NewBuilder(provider taxdata.Provider) *Builder {
	return &Builder{provider: provider}
}

// Build fails with taxdata.ErrNoData when a table the household needs is
// missing.
func (b *Builder) Build(ctx context.Context, h Household, year int, o Overrides) (*Graph, error) {
	fed, err := b.provider.Federal(ctx, year, h.FilingStatus())
	if err != nil {
		return nil, fmt.Errorf("year %d federal tables: %w", year, err)
	}

	var state *taxdata.StateTaxData
	if code := h.StateOfResidence(); code != "" {
		s, err := b.provider.State(ctx, code, year, h.FilingStatus())
		if err != nil {
			return nil, fmt.Errorf("year %d state tables: %w", year, err)
		}
		state = &s
	}
	return NewGraph(h, year, fed, state, o), nil
}
