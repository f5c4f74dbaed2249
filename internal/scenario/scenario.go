// Package scenario describes a household plan to project: its members and
// their incomes, itemized deductions, a home purchase and student loans.
// Scenarios are written in YAML or JSON.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"finplan/internal/core"
	"finplan/internal/home"
	"finplan/internal/people"
)

// MaxYears bounds how far ahead a scenario may project.
const MaxYears = 100

var ErrInvalidScenario = errors.New("invalid scenario")

type Scenario struct {
	Name         string          `json:"name" yaml:"name"`
	FilingStatus string          `json:"filing_status" yaml:"filing_status"`
	State        string          `json:"state,omitempty" yaml:"state,omitempty"`
	StartYear    int             `json:"start_year" yaml:"start_year"`
	Years        int             `json:"years" yaml:"years"`
	Members      []Member        `json:"members" yaml:"members"`
	Deductions   []YearDeduction `json:"deductions,omitempty" yaml:"deductions,omitempty"`
	Home         *Home           `json:"home,omitempty" yaml:"home,omitempty"`
	StudentLoans []StudentLoan   `json:"student_loans,omitempty" yaml:"student_loans,omitempty"`
}

// Member is one earner. GrossIncome applies to StartYear and grows by
// RaiseRate each following year; Income pins the figure for given years.
type Member struct {
	Name                   string          `json:"name" yaml:"name"`
	GrossIncome            float64         `json:"gross_income" yaml:"gross_income"`
	RaiseRate              float64         `json:"raise_rate,omitempty" yaml:"raise_rate,omitempty"`
	HealthcareContribution float64         `json:"healthcare_contribution,omitempty" yaml:"healthcare_contribution,omitempty"`
	RetirementRate         float64         `json:"retirement_rate,omitempty" yaml:"retirement_rate,omitempty"`
	Income                 map[int]float64 `json:"income,omitempty" yaml:"income,omitempty"`
}

// YearDeduction is an itemized deduction. Year zero repeats it every year.
type YearDeduction struct {
	Year   int     `json:"year,omitempty" yaml:"year,omitempty"`
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

type Home struct {
	PurchaseMonth      core.Month `json:"purchase_month" yaml:"purchase_month"`
	PurchaseAmount     float64    `json:"purchase_amount" yaml:"purchase_amount"`
	DownPaymentPercent float64    `json:"down_payment_percent" yaml:"down_payment_percent"`
	APR                float64    `json:"apr" yaml:"apr"`
	TermInYears        int        `json:"term_in_years" yaml:"term_in_years"`
	PMIRate            *float64   `json:"pmi_rate,omitempty" yaml:"pmi_rate,omitempty"`
}

// StudentLoan is repaid at its minimum payment unless FixedPayment is set.
type StudentLoan struct {
	Name         string     `json:"name" yaml:"name"`
	StartMonth   core.Month `json:"start_month" yaml:"start_month"`
	Amount       float64    `json:"amount" yaml:"amount"`
	APR          float64    `json:"apr" yaml:"apr"`
	TermInYears  int        `json:"term_in_years,omitempty" yaml:"term_in_years,omitempty"`
	FixedPayment *float64   `json:"fixed_payment,omitempty" yaml:"fixed_payment,omitempty"`
}

// Load reads and validates the scenario at path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads one YAML or JSON document and validates it. Unknown fields
// are rejected.
func Decode(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports every problem at once.
func (s *Scenario) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidScenario}, args...)...))
	}

	if strings.TrimSpace(s.Name) == "" {
		add("name is required")
	}
	if _, err := core.ParseFilingStatus(s.FilingStatus); err != nil {
		add("%v", err)
	}
	if s.StartYear <= 0 {
		add("start_year is required")
	}
	if s.Years <= 0 || s.Years > MaxYears {
		add("years must be between 1 and %d, got %d", MaxYears, s.Years)
	}
	if len(s.Members) == 0 {
		add("at least one member is required")
	}
	for i, m := range s.Members {
		if strings.TrimSpace(m.Name) == "" {
			add("member %d has no name", i)
		}
		if m.GrossIncome < 0 || m.HealthcareContribution < 0 {
			add("member %q has a negative figure", m.Name)
		}
		if m.RetirementRate < 0 || m.RetirementRate > 1 {
			add("member %q retirement_rate must be in [0, 1]", m.Name)
		}
		if m.RaiseRate <= -1 {
			add("member %q raise_rate must be above -1", m.Name)
		}
	}
	for _, d := range s.Deductions {
		if d.Amount < 0 {
			add("deduction %q is negative", d.Name)
		}
	}
	if s.Home != nil {
		if err := s.Home.terms().Validate(); err != nil {
			add("home: %v", err)
		}
		if s.Home.PurchaseMonth.IsZero() {
			add("home purchase_month is required")
		}
	}
	for _, l := range s.StudentLoans {
		if l.StartMonth.IsZero() {
			add("student loan %q start_month is required", l.Name)
		}
		if l.FixedPayment != nil && *l.FixedPayment <= 0 {
			add("student loan %q fixed_payment must be positive", l.Name)
		}
	}
	return errors.Join(errs...)
}

// YearRange lists the projected years in order.
func (s *Scenario) YearRange() []int {
	years := make([]int, s.Years)
	for i := range years {
		years[i] = s.StartYear + i
	}
	return years
}

// Family builds the household with every projected year filled in.
func (s *Scenario) Family() (*people.Family, error) {
	status, err := core.ParseFilingStatus(s.FilingStatus)
	if err != nil {
		return nil, err
	}

	members := make([]*people.Person, len(s.Members))
	for i, m := range s.Members {
		p := people.NewPerson(m.Name)
		for n, year := range s.YearRange() {
			gross := m.GrossIncome * math.Pow(1+m.RaiseRate, float64(n))
			if pinned, ok := m.Income[year]; ok {
				gross = pinned
			}
			p.SetGrossIncome(year, gross)
			p.SetHealthcareContribution(year, m.HealthcareContribution)
			p.SetRetirementContributionRate(year, m.RetirementRate)
		}
		members[i] = p
	}

	f, err := people.NewFamily(members, status, s.State)
	if err != nil {
		return nil, err
	}
	for _, d := range s.Deductions {
		deduction := people.Deduction{Name: d.Name, Amount: d.Amount}
		if d.Year != 0 {
			f.Deduct(d.Year, deduction)
			continue
		}
		for _, year := range s.YearRange() {
			f.Deduct(year, deduction)
		}
	}
	return f, nil
}

func (h *Home) terms() home.HomeTerms {
	return home.HomeTerms{
		MortgageTerms: home.MortgageTerms{
			PurchaseMonth:      h.PurchaseMonth,
			PurchaseAmount:     h.PurchaseAmount,
			DownPaymentPercent: h.DownPaymentPercent,
			APR:                h.APR,
			TermInYears:        h.TermInYears,
		},
		PMIRate: h.PMIRate,
	}
}

// BuildHome returns nil when the scenario has no home purchase.
func (s *Scenario) BuildHome() (*home.Home, error) {
	if s.Home == nil {
		return nil, nil
	}
	return home.NewHome(s.Home.terms())
}

func (s *Scenario) BuildStudentLoans() ([]*home.StudentLoan, error) {
	loans := make([]*home.StudentLoan, 0, len(s.StudentLoans))
	for _, l := range s.StudentLoans {
		sl, err := home.NewStudentLoan(home.StudentLoanTerms{
			Name:        l.Name,
			StartMonth:  l.StartMonth,
			StartAmount: l.Amount,
			APR:         l.APR,
			TermInYears: l.TermInYears,
		})
		if err != nil {
			return nil, err
		}
		loans = append(loans, sl)
	}
	return loans, nil
}
