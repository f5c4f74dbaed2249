package taxdata

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finplan/internal/cache"
	"finplan/internal/core"
)

func TestBuiltinLookup(t *testing.T) {
	p := NewBuiltin()
	ctx := context.Background()

	fed, err := p.Federal(ctx, 2013, core.MarriedJoint)
	require.NoError(t, err)
	assert.Len(t, fed.Brackets, 7)
	assert.Equal(t, 113700.0, fed.SocialSecurityWageBase)
	assert.Equal(t, 125000.0, fed.StudentLoanPhaseoutReduction)

	fed14, err := p.Federal(ctx, 2014, core.MarriedJoint)
	require.NoError(t, err)
	assert.Equal(t, 3950.0, fed14.ExemptionPerPerson)
	assert.Equal(t, 457600.0, fed14.Brackets[6].Threshold)

	ga, err := p.State(ctx, "ga", 2013, core.MarriedJoint)
	require.NoError(t, err)
	assert.Equal(t, "GA", ga.State)
	assert.Equal(t, 2700.0, ga.ExemptionPerPerson)
}

func TestMissingKeyNamesKey(t *testing.T) {
	p := NewBuiltin()
	_, err := p.Federal(context.Background(), 2013, core.Single)
	require.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "federal/2013/single")

	_, err = p.State(context.Background(), "NY", 2013, core.MarriedJoint)
	require.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "state/NY/2013/married_joint")
}

func TestCallersGetCopies(t *testing.T) {
	p := NewBuiltin()
	ctx := context.Background()

	a, err := p.Federal(ctx, 2013, core.MarriedJoint)
	require.NoError(t, err)
	a.Brackets[0].Rate = 0.99

	b, err := p.Federal(ctx, 2013, core.MarriedJoint)
	require.NoError(t, err)
	assert.Equal(t, 0.10, b.Brackets[0].Rate)
}

func TestValidate(t *testing.T) {
	good := Builtin().Federal[0]

	cases := map[string]func(d *FederalTaxData){
		"no brackets":         func(d *FederalTaxData) { d.Brackets = nil },
		"unsorted brackets":   func(d *FederalTaxData) { d.Brackets[2].Threshold = 100 },
		"first not zero":      func(d *FederalTaxData) { d.Brackets[0].Threshold = 10 },
		"rate out of range":   func(d *FederalTaxData) { d.Brackets[1].Rate = 1.5 },
		"zero denominator":    func(d *FederalTaxData) { d.StudentLoanPhaseoutDenominator = 0 },
		"negative deduction":  func(d *FederalTaxData) { d.StandardDeduction = -1 },
		"bad filing status":   func(d *FederalTaxData) { d.FilingStatus = "widow" },
		"medicare over range": func(d *FederalTaxData) { d.MedicareTaxRate = 2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := good.Clone()
			mutate(&d)
			assert.ErrorIs(t, d.Validate(), ErrInvalidTable)
		})
	}
	assert.NoError(t, good.Validate())
}

func TestDuplicateKeysRejected(t *testing.T) {
	tables := Builtin()
	tables.State = append(tables.State, tables.State[0])
	_, err := NewStatic(tables)
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, EncodeTables(&buf, Tables{Federal: Builtin().Federal}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "federal.yaml"), buf.Bytes(), 0o644))

	state := `
state:
  - state: ga
    year: 2013
    filing_status: married_joint
    standard_deduction: 3000
    exemption_per_person: 2700
    brackets:
      - {threshold: 0, rate: 0.01}
      - {threshold: 1000, rate: 0.02}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ga.yml"), []byte(state), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	p, err := NewFileProvider(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"federal.yaml", "ga.yml"}, p.Files())

	fed, err := p.Federal(context.Background(), 2014, core.MarriedJoint)
	require.NoError(t, err)
	assert.Equal(t, 117000.0, fed.SocialSecurityWageBase)

	ga, err := p.State(context.Background(), "GA", 2013, core.MarriedJoint)
	require.NoError(t, err)
	assert.Len(t, ga.Brackets, 2)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := DecodeTables(strings.NewReader("federal:\n  - year: 2013\n    bracketz: []\n"))
	assert.Error(t, err)
}

type countingProvider struct {
	Provider
	federalCalls int
	stateCalls   int
}

func (c *countingProvider) Federal(ctx context.Context, year int, status core.FilingStatus) (FederalTaxData, error) {
	c.federalCalls++
	return c.Provider.Federal(ctx, year, status)
}

func (c *countingProvider) State(ctx context.Context, state string, year int, status core.FilingStatus) (StateTaxData, error) {
	c.stateCalls++
	return c.Provider.State(ctx, state, year, status)
}

func TestCachedProvider(t *testing.T) {
	next := &countingProvider{Provider: NewBuiltin()}
	p := NewCachedProvider(next,
		cache.NewLRUCache[FederalTaxData](8, time.Hour),
		cache.NewLRUCache[StateTaxData](8, time.Hour))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := p.Federal(ctx, 2013, core.MarriedJoint)
		require.NoError(t, err)
		d.Brackets[0].Rate = 0.5
		_, err = p.State(ctx, "GA", 2013, core.MarriedJoint)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, next.federalCalls)
	assert.Equal(t, 1, next.stateCalls)

	d, err := p.Federal(ctx, 2013, core.MarriedJoint)
	require.NoError(t, err)
	assert.Equal(t, 0.10, d.Brackets[0].Rate)

	for i := 0; i < 2; i++ {
		_, err = p.Federal(ctx, 1999, core.MarriedJoint)
		assert.True(t, errors.Is(err, ErrNoData))
	}
	assert.Equal(t, 3, next.federalCalls)
}
