package taxdata

import (
	"context"
	"fmt"
	"sort"

	"finplan/internal/core"
)

// Tables is a set of federal and state tables, the unit read from files and
// seeded into storage.
type Tables struct {
	Federal []FederalTaxData `json:"federal" yaml:"federal"`
	State   []StateTaxData   `json:"state" yaml:"state"`
}

// Validate checks each table and rejects duplicate keys.
func (t Tables) Validate() error {
	seen := make(map[string]bool, len(t.Federal)+len(t.State))
	for _, d := range t.Federal {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Key()] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidTable, d.Key())
		}
		seen[d.Key()] = true
	}
	for _, d := range t.State {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Key()] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidTable, d.Key())
		}
		seen[d.Key()] = true
	}
	return nil
}

// Merge appends other to t. Validate afterwards to catch duplicates.
func (t Tables) Merge(other Tables) Tables {
	return Tables{
		Federal: append(append([]FederalTaxData(nil), t.Federal...), other.Federal...),
		State:   append(append([]StateTaxData(nil), t.State...), other.State...),
	}
}

// Static serves tables held in memory.
type Static struct {
	federal map[string]FederalTaxData
	state   map[string]StateTaxData
}

// NewStatic validates tables and indexes them by key.
func NewStatic(tables Tables) (*Static, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	s := &Static{
		federal: make(map[string]FederalTaxData, len(tables.Federal)),
		state:   make(map[string]StateTaxData, len(tables.State)),
	}
	for _, d := range tables.Federal {
		s.federal[d.Key()] = d.Clone()
	}
	for _, d := range tables.State {
		d = d.Clone()
		s.state[d.Key()] = d
	}
	return s, nil
}

func (s *Static) Federal(_ context.Context, year int, status core.FilingStatus) (FederalTaxData, error) {
	key := FederalKey(year, status)
	d, ok := s.federal[key]
	if !ok {
		return FederalTaxData{}, fmt.Errorf("%w: %s", ErrNoData, key)
	}
	return d.Clone(), nil
}

func (s *Static) State(_ context.Context, state string, year int, status core.FilingStatus) (StateTaxData, error) {
	key := StateKey(state, year, status)
	d, ok := s.state[key]
	if !ok {
		return StateTaxData{}, fmt.Errorf("%w: %s", ErrNoData, key)
	}
	return d.Clone(), nil
}

// Tables returns a copy of everything s serves, ordered by key.
func (s *Static) Tables() Tables {
	var t Tables
	for _, d := range s.federal {
		t.Federal = append(t.Federal, d.Clone())
	}
	for _, d := range s.state {
		t.State = append(t.State, d.Clone())
	}
	sort.Slice(t.Federal, func(i, j int) bool { return t.Federal[i].Key() < t.Federal[j].Key() })
	sort.Slice(t.State, func(i, j int) bool { return t.State[i].Key() < t.State[j].Key() })
	return t
}

// Builtin returns the tables shipped with finplan: 2013 and 2014 federal
// and Georgia, married-joint.
func Builtin() Tables {
	return Tables{
		Federal: []FederalTaxData{
			{
				Year:         2013,
				FilingStatus: core.MarriedJoint,
				Brackets: []Bracket{
					{0, 0.10},
					{17850, 0.15},
					{72500, 0.25},
					{146400, 0.28},
					{223050, 0.33},
					{398350, 0.35},
					{450000, 0.396},
				},
				MedicareTaxRate:                0.0145,
				SocialSecurityTaxRate:          0.062,
				SocialSecurityWageBase:         113700,
				StandardDeduction:              12200,
				ExemptionPerPerson:             3900,
				StudentLoanMaxDeduction:        2500,
				StudentLoanPhaseoutDenominator: 30000,
				StudentLoanPhaseoutReduction:   125000,
			},
			{
				Year:         2014,
				FilingStatus: core.MarriedJoint,
				Brackets: []Bracket{
					{0, 0.10},
					{18150, 0.15},
					{73800, 0.25},
					{148850, 0.28},
					{226850, 0.33},
					{405100, 0.35},
					{457600, 0.396},
				},
				MedicareTaxRate:                0.0145,
				SocialSecurityTaxRate:          0.062,
				SocialSecurityWageBase:         117000,
				StandardDeduction:              12400,
				ExemptionPerPerson:             3950,
				StudentLoanMaxDeduction:        2500,
				StudentLoanPhaseoutDenominator: 30000,
				StudentLoanPhaseoutReduction:   130000,
			},
		},
		State: []StateTaxData{
			{
				State:              "GA",
				Year:               2013,
				FilingStatus:       core.MarriedJoint,
				Brackets:           georgiaMarriedJoint(),
				StandardDeduction:  3000,
				ExemptionPerPerson: 2700,
			},
			{
				State:              "GA",
				Year:               2014,
				FilingStatus:       core.MarriedJoint,
				Brackets:           georgiaMarriedJoint(),
				StandardDeduction:  3000,
				ExemptionPerPerson: 2700,
			},
		},
	}
}

// Georgia kept the same married-joint schedule in 2013 and 2014.
func georgiaMarriedJoint() []Bracket {
	return []Bracket{
		{0, 0.01},
		{1000, 0.02},
		{3000, 0.03},
		{5000, 0.04},
		{7000, 0.05},
		{10000, 0.06},
	}
}

// NewBuiltin serves the Builtin tables.
func NewBuiltin() *Static {
	s, err := NewStatic(Builtin())
	if err != nil {
		panic(fmt.Sprintf("builtin tax tables are invalid: %v", err))
	}
	return s
}
