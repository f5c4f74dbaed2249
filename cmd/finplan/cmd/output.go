package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"finplan/internal/projection"
	"finplan/internal/services"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func trimPercent(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

func printSchedule(w io.Writer, s *services.Schedule) {
	title := string(s.Kind)
	if s.Name != "" {
		title += " " + s.Name
	}
	fmt.Fprintf(w, "%s: financed %.2f, minimum payment %.2f\n\n", title, s.FinancedAmount, s.MinimumPayment)

	if s.Kind == services.KindMortgage {
		fmt.Fprintf(w, "%-8s %12s %12s %12s %10s %12s %14s\n",
			"Month", "Payment", "Interest", "Principal", "PMI", "Total", "Balance")
		for _, p := range s.HomePayments {
			fmt.Fprintf(w, "%-8s %12.2f %12.2f %12.2f %10.2f %12.2f %14.2f\n",
				p.Month.ISO(), p.PaymentAmount, p.InterestAmount, p.PrincipalAmount,
				p.PMIAmount, p.TotalPaymentAmount, p.NewBalance)
		}
	} else {
		fmt.Fprintf(w, "%-8s %12s %12s %12s %14s\n", "Month", "Payment", "Interest", "Principal", "Balance")
		for _, p := range s.Payments {
			fmt.Fprintf(w, "%-8s %12.2f %12.2f %12.2f %14.2f\n",
				p.Month.ISO(), p.PaymentAmount, p.InterestAmount, p.PrincipalAmount, p.NewBalance)
		}
	}

	fmt.Fprintf(w, "\n%d payments, total interest %.2f", s.Len(), s.TotalInterest)
	if s.TotalPMI > 0 {
		fmt.Fprintf(w, ", total PMI %.2f", s.TotalPMI)
	}
	if s.PayoffMonth != nil {
		fmt.Fprintf(w, ", paid off %s", s.PayoffMonth)
	}
	fmt.Fprintln(w)
}

func printYearSummary(w io.Writer, y projection.YearSummary) {
	rows := []struct {
		label string
		value float64
	}{
		{"Gross income", y.GrossIncome},
		{"Retirement contribution", y.RetirementContribution},
		{"Healthcare contribution", y.HealthcareContribution},
		{"Itemized deductions", y.Deductions},
		{"MAGI", y.MAGI},
		{"Student loan interest deduction", y.StudentLoanInterestDeduction},
		{"Federal AGI", y.FederalAGI},
		{"Federal income tax", y.FederalIncomeTax},
		{"State AGI", y.StateAGI},
		{"State income tax", y.StateIncomeTax},
		{"Medicare tax", y.MedicareTax},
		{"Social Security tax", y.SocialSecurityTax},
		{"FICA tax", y.FICATax},
		{"Total tax", y.TotalTax},
		{"Net income", y.NetIncome},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-32s %14.2f\n", r.label, r.value)
	}
	fmt.Fprintf(w, "%-32s %13.2f%%\n", "Effective federal rate", y.EffectiveFederalRate*100)
}

func printSummaries(w io.Writer, years []projection.YearSummary) {
	fmt.Fprintf(w, "%-6s %12s %12s %12s %10s %12s %12s %12s\n",
		"Year", "Gross", "Federal", "State", "FICA", "Mortgage int", "Loan int", "Net")
	for _, y := range years {
		fmt.Fprintf(w, "%-6d %12.2f %12.2f %12.2f %10.2f %12.2f %12.2f %12.2f\n",
			y.Year, y.GrossIncome, y.FederalIncomeTax, y.StateIncomeTax, y.FICATax,
			y.MortgageInterest, y.StudentLoanInterest, y.NetIncome)
	}
}
