// Package tax computes a household's yearly tax liability from a graph of
// calculators. Each node derives one figure from the household and its
// upstream nodes, computes it at most once and caches the result.
//
// Graphs are built for one household and year and are not safe for
// concurrent use. Collaborators are fixed at construction.
package tax

import (
	"math"

	"finplan/internal/core"
	"finplan/internal/taxdata"
)

// Household is the read-only view of a family the calculators need.
type Household interface {
	FilingStatus() core.FilingStatus
	StateOfResidence() string
	MemberCount() int
	GrossIncome(year int) float64
	MemberGrossIncomes(year int) []float64
	RetirementContribution(year int) float64
	HealthcareContribution(year int) float64
	Deductions(year int) float64
	StudentLoanInterestPaid(year int) float64
}

type Calculator interface {
	Calculate() float64
}

type memo struct {
	done  bool
	value float64
}

func (m *memo) get(compute func() float64) float64 {
	if !m.done {
		m.value = compute()
		m.done = true
	}
	return m.value
}

// Constant always yields its own value.
type Constant float64

func (c Constant) Calculate() float64 {
	return float64(c)
}

// NoStateIncomeTax stands in for the state nodes of households that live
// where no state income tax applies.
const NoStateIncomeTax = Constant(0)

// Func adapts a function to a memoized Calculator.
func Func(f func() float64) Calculator {
	return &funcCalculator{f: f}
}

type funcCalculator struct {
	f func() float64
	m memo
}

func (c *funcCalculator) Calculate() float64 {
	return c.m.get(c.f)
}

// IncomeTax applies progressive brackets to income. Brackets must be sorted
// by ascending threshold; each rate applies to the slice of income between
// its threshold and the next one.
func IncomeTax(income float64, brackets []taxdata.Bracket) float64 {
	var total float64
	for i, b := range brackets {
		if income <= b.Threshold {
			break
		}
		upper := math.Inf(1)
		if i+1 < len(brackets) {
			upper = brackets[i+1].Threshold
		}
		total += b.Rate * (math.Min(income, upper) - b.Threshold)
	}
	return total
}

// MAGICalculator derives modified adjusted gross income: gross income less
// exemptions, the larger of the standard or itemized deduction, retirement
// and healthcare contributions. Never negative.
type MAGICalculator struct {
	household Household
	year      int
	data      taxdata.FederalTaxData
	m         memo
}

func NewMAGICalculator(h Household, year int, data taxdata.FederalTaxData) *MAGICalculator {
	return &MAGICalculator{household: h, year: year, data: data}
}

func (c *MAGICalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		h, y := c.household, c.year
		magi := h.GrossIncome(y) -
			float64(h.MemberCount())*c.data.ExemptionPerPerson -
			math.Max(c.data.StandardDeduction, h.Deductions(y)) -
			h.RetirementContribution(y) -
			h.HealthcareContribution(y)
		return math.Max(magi, 0)
	})
}

// StudentLoanInterestDeductionCalculator caps student loan interest at the
// maximum deduction and phases it out linearly as MAGI rises past the
// reduction threshold.
type StudentLoanInterestDeductionCalculator struct {
	household Household
	year      int
	data      taxdata.FederalTaxData
	magi      Calculator
	m         memo
}

func NewStudentLoanInterestDeductionCalculator(h Household, year int, data taxdata.FederalTaxData, magi Calculator) *StudentLoanInterestDeductionCalculator {
	return &StudentLoanInterestDeductionCalculator{household: h, year: year, data: data, magi: magi}
}

func (c *StudentLoanInterestDeductionCalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		capped := math.Min(c.household.StudentLoanInterestPaid(c.year), c.data.StudentLoanMaxDeduction)
		if capped <= 0 {
			return 0
		}
		fraction := (c.magi.Calculate() - c.data.StudentLoanPhaseoutReduction) / c.data.StudentLoanPhaseoutDenominator
		fraction = math.Min(math.Max(fraction, 0), 1)
		return math.Max(capped*(1-fraction), 0)
	})
}

// FederalAGICalculator is MAGI less the student loan interest deduction. It
// goes negative when the deduction exceeds MAGI; bracket tax on a negative
// AGI is zero.
type FederalAGICalculator struct {
	magi      Calculator
	deduction Calculator
	m         memo
}

func NewFederalAGICalculator(magi, studentLoanDeduction Calculator) *FederalAGICalculator {
	return &FederalAGICalculator{magi: magi, deduction: studentLoanDeduction}
}

func (c *FederalAGICalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		return c.magi.Calculate() - c.deduction.Calculate()
	})
}

// BracketTaxCalculator applies brackets to the figure produced by income.
type BracketTaxCalculator struct {
	income   Calculator
	brackets []taxdata.Bracket
	m        memo
}

func NewBracketTaxCalculator(income Calculator, brackets []taxdata.Bracket) *BracketTaxCalculator {
	return &BracketTaxCalculator{income: income, brackets: brackets}
}

func (c *BracketTaxCalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		return IncomeTax(c.income.Calculate(), c.brackets)
	})
}

// FederalIncomeTaxCalculator applies the federal brackets to federal AGI.
type FederalIncomeTaxCalculator struct {
	agi Calculator
	*BracketTaxCalculator
}

func NewFederalIncomeTaxCalculator(agi Calculator, data taxdata.FederalTaxData) *FederalIncomeTaxCalculator {
	return &FederalIncomeTaxCalculator{agi: agi, BracketTaxCalculator: NewBracketTaxCalculator(agi, data.Brackets)}
}

func (c *FederalIncomeTaxCalculator) AGI() float64 {
	return c.agi.Calculate()
}

// MedicareTaxCalculator taxes gross income less healthcare contributions.
type MedicareTaxCalculator struct {
	household Household
	year      int
	data      taxdata.FederalTaxData
	m         memo
}

func NewMedicareTaxCalculator(h Household, year int, data taxdata.FederalTaxData) *MedicareTaxCalculator {
	return &MedicareTaxCalculator{household: h, year: year, data: data}
}

func (c *MedicareTaxCalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		taxable := c.household.GrossIncome(c.year) - c.household.HealthcareContribution(c.year)
		return c.data.MedicareTaxRate * math.Max(taxable, 0)
	})
}

// SocialSecurityTaxCalculator taxes each member's gross income up to the
// wage base.
type SocialSecurityTaxCalculator struct {
	household Household
	year      int
	data      taxdata.FederalTaxData
	m         memo
}

func NewSocialSecurityTaxCalculator(h Household, year int, data taxdata.FederalTaxData) *SocialSecurityTaxCalculator {
	return &SocialSecurityTaxCalculator{household: h, year: year, data: data}
}

func (c *SocialSecurityTaxCalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		var taxable float64
		for _, gross := range c.household.MemberGrossIncomes(c.year) {
			taxable += math.Min(gross, c.data.SocialSecurityWageBase)
		}
		return c.data.SocialSecurityTaxRate * taxable
	})
}

// FICATaxCalculator is Medicare plus Social Security.
type FICATaxCalculator struct {
	medicare       Calculator
	socialSecurity Calculator
	m              memo
}

func NewFICATaxCalculator(medicare, socialSecurity Calculator) *FICATaxCalculator {
	return &FICATaxCalculator{medicare: medicare, socialSecurity: socialSecurity}
}

func (c *FICATaxCalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		return c.medicare.Calculate() + c.socialSecurity.Calculate()
	})
}

// StateAGICalculator mirrors MAGI with state exemptions and deductions.
// Healthcare contributions are not subtracted at the state level.
type StateAGICalculator struct {
	household Household
	year      int
	data      taxdata.StateTaxData
	m         memo
}

func NewStateAGICalculator(h Household, year int, data taxdata.StateTaxData) *StateAGICalculator {
	return &StateAGICalculator{household: h, year: year, data: data}
}

func (c *StateAGICalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		h, y := c.household, c.year
		agi := h.GrossIncome(y) -
			float64(h.MemberCount())*c.data.ExemptionPerPerson -
			math.Max(c.data.StandardDeduction, h.Deductions(y)) -
			h.RetirementContribution(y)
		return math.Max(agi, 0)
	})
}

// StateIncomeTaxCalculator applies the state brackets to state AGI.
type StateIncomeTaxCalculator struct {
	agi Calculator
	*BracketTaxCalculator
}

func NewStateIncomeTaxCalculator(agi Calculator, data taxdata.StateTaxData) *StateIncomeTaxCalculator {
	return &StateIncomeTaxCalculator{agi: agi, BracketTaxCalculator: NewBracketTaxCalculator(agi, data.Brackets)}
}

func (c *StateIncomeTaxCalculator) AGI() float64 {
	return c.agi.Calculate()
}

// TotalTaxCalculator sums federal income, state income and FICA taxes.
type TotalTaxCalculator struct {
	federal Calculator
	state   Calculator
	fica    Calculator
	m       memo
}

func NewTotalTaxCalculator(federal, state, fica Calculator) *TotalTaxCalculator {
	return &TotalTaxCalculator{federal: federal, state: state, fica: fica}
}

func (c *TotalTaxCalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		return c.federal.Calculate() + c.state.Calculate() + c.fica.Calculate()
	})
}

// NetIncomeCalculator is gross income less contributions and total tax.
type NetIncomeCalculator struct {
	household Household
	year      int
	total     Calculator
	m         memo
}

func NewNetIncomeCalculator(h Household, year int, totalTax Calculator) *NetIncomeCalculator {
	return &NetIncomeCalculator{household: h, year: year, total: totalTax}
}

func (c *NetIncomeCalculator) Calculate() float64 {
	return c.m.get(func() float64 {
		h, y := c.household, c.year
		return h.GrossIncome(y) - h.RetirementContribution(y) - h.HealthcareContribution(y) - c.total.Calculate()
	})
}
