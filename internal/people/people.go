// Package people holds per-year income and contribution figures for a
// household's members.
package people

import (
	"errors"
	"fmt"
	"strings"

	"finplan/internal/core"
)

var ErrEmptyFamily = errors.New("family needs at least one member")

// Person records figures by tax year. Years with no figure read as zero.
type Person struct {
	Name string

	grossIncome    map[int]float64
	healthcare     map[int]float64
	retirementRate map[int]float64
}

func NewPerson(name string) *Person {
	return &Person{
		Name:           name,
		grossIncome:    make(map[int]float64),
		healthcare:     make(map[int]float64),
		retirementRate: make(map[int]float64),
	}
}

func (p *Person) SetGrossIncome(year int, amount float64) {
	p.grossIncome[year] = amount
}

func (p *Person) SetHealthcareContribution(year int, amount float64) {
	p.healthcare[year] = amount
}

// SetRetirementContributionRate stores the share of gross income paid into
// retirement, e.g. 0.05.
func (p *Person) SetRetirementContributionRate(year int, rate float64) {
	p.retirementRate[year] = rate
}

func (p *Person) GrossIncome(year int) float64 {
	return p.grossIncome[year]
}

func (p *Person) HealthcareContribution(year int) float64 {
	return p.healthcare[year]
}

func (p *Person) RetirementContributionRate(year int) float64 {
	return p.retirementRate[year]
}

func (p *Person) RetirementContribution(year int) float64 {
	return p.RetirementContributionRate(year) * p.GrossIncome(year)
}

// Years lists every year with a gross income figure.
func (p *Person) Years() []int {
	years := make([]int, 0, len(p.grossIncome))
	for y := range p.grossIncome {
		years = append(years, y)
	}
	return years
}

func (p *Person) String() string {
	return p.Name
}

// Deduction is an itemized deduction claimed in a year.
type Deduction struct {
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// Family is a tax household: its members, filing status and state of
// residence. An empty state means no state income tax applies.
type Family struct {
	members          []*Person
	filingStatus     core.FilingStatus
	stateOfResidence string

	deductions          map[int][]Deduction
	studentLoanInterest map[int][]float64
}

func NewFamily(members []*Person, status core.FilingStatus, state string) (*Family, error) {
	if len(members) == 0 {
		return nil, ErrEmptyFamily
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}
	return &Family{
		members:             append([]*Person(nil), members...),
		filingStatus:        status,
		stateOfResidence:    strings.ToUpper(strings.TrimSpace(state)),
		deductions:          make(map[int][]Deduction),
		studentLoanInterest: make(map[int][]float64),
	}, nil
}

func (f *Family) Members() []*Person {
	return append([]*Person(nil), f.members...)
}

func (f *Family) MemberCount() int                { return len(f.members) }
func (f *Family) FilingStatus() core.FilingStatus { return f.filingStatus }
func (f *Family) StateOfResidence() string        { return f.stateOfResidence }

func (f *Family) GrossIncome(year int) float64 {
	var total float64
	for _, p := range f.members {
		total += p.GrossIncome(year)
	}
	return total
}

// MemberGrossIncomes returns each member's gross income, in member order.
func (f *Family) MemberGrossIncomes(year int) []float64 {
	out := make([]float64, len(f.members))
	for i, p := range f.members {
		out[i] = p.GrossIncome(year)
	}
	return out
}

func (f *Family) HealthcareContribution(year int) float64 {
	var total float64
	for _, p := range f.members {
		total += p.HealthcareContribution(year)
	}
	return total
}

func (f *Family) RetirementContribution(year int) float64 {
	var total float64
	for _, p := range f.members {
		total += p.RetirementContribution(year)
	}
	return total
}

// Deduct records an itemized deduction for year.
func (f *Family) Deduct(year int, d Deduction) {
	f.deductions[year] = append(f.deductions[year], d)
}

// Deductions is the sum of itemized deductions claimed in year.
func (f *Family) Deductions(year int) float64 {
	var total float64
	for _, d := range f.deductions[year] {
		total += d.Amount
	}
	return total
}

func (f *Family) DeductionItems(year int) []Deduction {
	return append([]Deduction(nil), f.deductions[year]...)
}

// PayStudentLoanInterest records student loan interest paid in year.
func (f *Family) PayStudentLoanInterest(year int, amount float64) {
	f.studentLoanInterest[year] = append(f.studentLoanInterest[year], amount)
}

func (f *Family) StudentLoanInterestPaid(year int) float64 {
	var total float64
	for _, a := range f.studentLoanInterest[year] {
		total += a
	}
	return total
}

func (f *Family) String() string {
	names := make([]string, len(f.members))
	for i, p := range f.members {
		names[i] = p.Name
	}
	return fmt.Sprintf("Family(%s)", strings.Join(names, ", "))
}
