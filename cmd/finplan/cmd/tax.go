package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"finplan/internal/core"
	"finplan/internal/people"
)

var taxFlags struct {
	year                int
	status              string
	state               string
	members             []string
	healthcare          string
	retirementRate      string
	deductions          []string
	studentLoanInterest string
}

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Compute one year of household taxes",
	Long: `Evaluates federal income, state income and FICA taxes for a household
in a single year.

Members are given as name=gross income. Healthcare contribution and
retirement rate apply to every member.`,
	Example: `  finplan tax --year 2013 --state GA --member p1=0 --member p4=120000
  finplan tax --year 2013 --member a=120000 --member b=120000 --retirement-rate 5% --deduction mortgage=9000`,
	Args: cobra.NoArgs,
	RunE: runTax,
}

func init() {
	f := taxCmd.Flags()
	f.IntVar(&taxFlags.year, "year", 0, "tax year")
	f.StringVar(&taxFlags.status, "status", string(core.MarriedJoint), "filing status")
	f.StringVar(&taxFlags.state, "state", "", "two-letter state of residence; empty for none")
	f.StringArrayVar(&taxFlags.members, "member", nil, "household member as name=gross income (repeatable)")
	f.StringVar(&taxFlags.healthcare, "healthcare", "0", "pre-tax healthcare contribution per member")
	f.StringVar(&taxFlags.retirementRate, "retirement-rate", "0", "share of gross income paid into retirement")
	f.StringArrayVar(&taxFlags.deductions, "deduction", nil, "itemized deduction as name=amount (repeatable)")
	f.StringVar(&taxFlags.studentLoanInterest, "student-loan-interest", "0", "student loan interest paid in the year")
	markRequired(taxCmd, "year", "member")

	rootCmd.AddCommand(taxCmd)
}

func splitPair(flag, s string) (string, float64, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", 0, fmt.Errorf("--%s %q: want name=amount", flag, s)
	}
	amount, err := core.ParseAmount(value)
	if err != nil {
		return "", 0, fmt.Errorf("--%s %q: %w", flag, s, err)
	}
	return strings.TrimSpace(name), amount, nil
}

// buildFamily assembles the household described by the tax flags.
func buildFamily() (*people.Family, error) {
	year := taxFlags.year
	status, err := core.ParseFilingStatus(taxFlags.status)
	if err != nil {
		return nil, err
	}
	healthcare, err := core.ParseAmount(taxFlags.healthcare)
	if err != nil {
		return nil, fmt.Errorf("--healthcare: %w", err)
	}
	rate, err := core.ParseRate(taxFlags.retirementRate)
	if err != nil {
		return nil, fmt.Errorf("--retirement-rate: %w", err)
	}

	members := make([]*people.Person, 0, len(taxFlags.members))
	for _, m := range taxFlags.members {
		name, gross, err := splitPair("member", m)
		if err != nil {
			return nil, err
		}
		p := people.NewPerson(name)
		p.SetGrossIncome(year, gross)
		p.SetHealthcareContribution(year, healthcare)
		p.SetRetirementContributionRate(year, rate)
		members = append(members, p)
	}

	family, err := people.NewFamily(members, status, taxFlags.state)
	if err != nil {
		return nil, err
	}
	for _, d := range taxFlags.deductions {
		name, amount, err := splitPair("deduction", d)
		if err != nil {
			return nil, err
		}
		family.Deduct(year, people.Deduction{Name: name, Amount: amount})
	}
	interest, err := core.ParseAmount(taxFlags.studentLoanInterest)
	if err != nil {
		return nil, fmt.Errorf("--student-loan-interest: %w", err)
	}
	if interest > 0 {
		family.PayStudentLoanInterest(year, interest)
	}
	return family, nil
}

func runTax(cmd *cobra.Command, args []string) error {
	family, err := buildFamily()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.projector.Summarize(ctx, family, taxFlags.year)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == outputJSON {
		return printJSON(out, summary)
	}
	fmt.Fprintf(out, "%s, %s, %d\n\n", family, family.FilingStatus(), taxFlags.year)
	printYearSummary(out, summary)
	return nil
}
