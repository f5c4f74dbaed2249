// Package taxdata holds the reference tables the tax calculators read:
// federal and state brackets, payroll rates, deductions and the student loan
// interest phaseout. Tables are immutable once loaded; every provider hands
// out deep copies.
package taxdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finplan/internal/core"
)

var (
	// ErrNoData is returned when no table exists for a requested key.
	ErrNoData = errors.New("no tax data")

	ErrInvalidTable = errors.New("invalid tax table")
)

// Provider resolves tax tables by year and filing status.
type Provider interface {
	Federal(ctx context.Context, year int, status core.FilingStatus) (FederalTaxData, error)
	State(ctx context.Context, state string, year int, status core.FilingStatus) (StateTaxData, error)
}

// Bracket taxes income above Threshold at Rate, up to the next threshold.
type Bracket struct {
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Rate      float64 `json:"rate" yaml:"rate"`
}

type FederalTaxData struct {
	Year                           int               `json:"year" yaml:"year"`
	FilingStatus                   core.FilingStatus `json:"filing_status" yaml:"filing_status"`
	Brackets                       []Bracket         `json:"brackets" yaml:"brackets"`
	MedicareTaxRate                float64           `json:"medicare_tax_rate" yaml:"medicare_tax_rate"`
	SocialSecurityTaxRate          float64           `json:"social_security_tax_rate" yaml:"social_security_tax_rate"`
	SocialSecurityWageBase         float64           `json:"social_security_wage_base" yaml:"social_security_wage_base"`
	StandardDeduction              float64           `json:"standard_deduction" yaml:"standard_deduction"`
	ExemptionPerPerson             float64           `json:"exemption_per_person" yaml:"exemption_per_person"`
	StudentLoanMaxDeduction        float64           `json:"student_loan_max_deduction" yaml:"student_loan_max_deduction"`
	StudentLoanPhaseoutDenominator float64           `json:"student_loan_phaseout_denominator" yaml:"student_loan_phaseout_denominator"`
	StudentLoanPhaseoutReduction   float64           `json:"student_loan_phaseout_reduction" yaml:"student_loan_phaseout_reduction"`
}

type StateTaxData struct {
	State              string            `json:"state" yaml:"state"`
	Year               int               `json:"year" yaml:"year"`
	FilingStatus       core.FilingStatus `json:"filing_status" yaml:"filing_status"`
	Brackets           []Bracket         `json:"brackets" yaml:"brackets"`
	StandardDeduction  float64           `json:"standard_deduction" yaml:"standard_deduction"`
	ExemptionPerPerson float64           `json:"exemption_per_person" yaml:"exemption_per_person"`
}

// FederalKey names a federal table, e.g. "federal/2013/married_joint".
func FederalKey(year int, status core.FilingStatus) string {
	return fmt.Sprintf("federal/%d/%s", year, status)
}

// StateKey names a state table, e.g. "state/GA/2013/married_joint".
func StateKey(state string, year int, status core.FilingStatus) string {
	return fmt.Sprintf("state/%s/%d/%s", NormalizeState(state), year, status)
}

// NormalizeState upper-cases a state code.
func NormalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func (d FederalTaxData) Key() string {
	return FederalKey(d.Year, d.FilingStatus)
}

func (d StateTaxData) Key() string {
	return StateKey(d.State, d.Year, d.FilingStatus)
}

// Validate reports every problem with the table at once.
func (d FederalTaxData) Validate() error {
	var errs []error
	if d.Year <= 0 {
		errs = append(errs, fmt.Errorf("year must be positive, got %d", d.Year))
	}
	if err := d.FilingStatus.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := validateBrackets(d.Brackets); err != nil {
		errs = append(errs, err)
	}
	for name, rate := range map[string]float64{
		"medicare_tax_rate":        d.MedicareTaxRate,
		"social_security_tax_rate": d.SocialSecurityTaxRate,
	} {
		if rate < 0 || rate > 1 {
			errs = append(errs, fmt.Errorf("%s must be in [0, 1], got %v", name, rate))
		}
	}
	for name, v := range map[string]float64{
		"social_security_wage_base":       d.SocialSecurityWageBase,
		"standard_deduction":              d.StandardDeduction,
		"exemption_per_person":            d.ExemptionPerPerson,
		"student_loan_max_deduction":      d.StudentLoanMaxDeduction,
		"student_loan_phaseout_reduction": d.StudentLoanPhaseoutReduction,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", name, v))
		}
	}
	if d.StudentLoanPhaseoutDenominator <= 0 {
		errs = append(errs, fmt.Errorf("student_loan_phaseout_denominator must be positive, got %v", d.StudentLoanPhaseoutDenominator))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidTable, d.Key(), errors.Join(errs...))
	}
	return nil
}

func (d StateTaxData) Validate() error {
	var errs []error
	if NormalizeState(d.State) == "" {
		errs = append(errs, errors.New("state is required"))
	}
	if d.Year <= 0 {
		errs = append(errs, fmt.Errorf("year must be positive, got %d", d.Year))
	}
	if err := d.FilingStatus.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := validateBrackets(d.Brackets); err != nil {
		errs = append(errs, err)
	}
	if d.StandardDeduction < 0 {
		errs = append(errs, fmt.Errorf("standard_deduction must not be negative, got %v", d.StandardDeduction))
	}
	if d.ExemptionPerPerson < 0 {
		errs = append(errs, fmt.Errorf("exemption_per_person must not be negative, got %v", d.ExemptionPerPerson))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidTable, d.Key(), errors.Join(errs...))
	}
	return nil
}

func validateBrackets(brackets []Bracket) error {
	if len(brackets) == 0 {
		return errors.New("at least one bracket is required")
	}
	if brackets[0].Threshold != 0 {
		return fmt.Errorf("first bracket must start at 0, got %v", brackets[0].Threshold)
	}
	for i, b := range brackets {
		if b.Rate < 0 || b.Rate > 1 {
			return fmt.Errorf("bracket %d rate must be in [0, 1], got %v", i, b.Rate)
		}
		if i > 0 && b.Threshold <= brackets[i-1].Threshold {
			return fmt.Errorf("bracket %d threshold %v not above %v", i, b.Threshold, brackets[i-1].Threshold)
		}
	}
	return nil
}

// Clone returns a copy that shares no memory with d.
func (d FederalTaxData) Clone() FederalTaxData {
	d.Brackets = cloneBrackets(d.Brackets)
	return d
}

func (d StateTaxData) Clone() StateTaxData {
	d.Brackets = cloneBrackets(d.Brackets)
	d.State = NormalizeState(d.State)
	return d
}

func cloneBrackets(b []Bracket) []Bracket {
	if b == nil {
		return nil
	}
	out := make([]Bracket, len(b))
	copy(out, b)
	return out
}
