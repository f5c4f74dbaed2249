package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"finplan/internal/core"
	"finplan/internal/loan"
	"finplan/internal/services"
)

// loanFlags are the terms shared by every amortization command.
type loanFlags struct {
	name         string
	amount       string
	apr          string
	term         int
	start        string
	fixedPayment string
	compounding  string
	down         string
	pmi          string
	export       bool
}

var (
	amortizeFlags    loanFlags
	mortgageFlags    loanFlags
	studentLoanFlags loanFlags
)

var amortizeCmd = &cobra.Command{
	Use:   "amortize",
	Short: "Print the amortization table of a loan",
	Long: `Pays off a fixed-rate loan month by month and prints every payment.

Rates are fractions (0.05) or percentages (5%).`,
	Example: `  finplan amortize --amount 200000 --apr 5% --term 30 --start 2014-01
  finplan amortize --amount 12000 --apr 0.045 --term 10 --start 2013-01 --fixed-payment 500 --compounding daily`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAmortize(cmd, services.KindLoan, amortizeFlags)
	},
}

var mortgageCmd = &cobra.Command{
	Use:   "mortgage",
	Short: "Print the payments of a home purchase with PMI",
	Long: `Finances a home purchase net of the down payment and prints each
mortgage payment with the PMI owed until the balance drops below 80% of the
purchase price.`,
	Example: `  finplan mortgage --price 400000 --down 10 --apr 5% --term 30 --start 2014-06 --pmi 0.5%`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAmortize(cmd, services.KindMortgage, mortgageFlags)
	},
}

var studentLoanCmd = &cobra.Command{
	Use:   "student-loan",
	Short: "Print the repayment of a daily-compounded student loan",
	Example: `  finplan student-loan --name grad --amount 30000 --apr 6.8% --start 2013-01
  finplan student-loan --amount 12000 --apr 4.5% --start 2013-01 --fixed-payment 500`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAmortize(cmd, services.KindStudentLoan, studentLoanFlags)
	},
}

func init() {
	f := amortizeCmd.Flags()
	f.StringVar(&amortizeFlags.name, "name", "", "label for the loan")
	f.StringVar(&amortizeFlags.amount, "amount", "", "principal")
	f.StringVar(&amortizeFlags.apr, "apr", "", "annual percentage rate")
	f.IntVar(&amortizeFlags.term, "term", 0, "term in years")
	f.StringVar(&amortizeFlags.start, "start", "", "month of the first payment, e.g. 2014-01")
	f.StringVar(&amortizeFlags.fixedPayment, "fixed-payment", "", "pay this amount each month instead of the minimum")
	f.StringVar(&amortizeFlags.compounding, "compounding", string(loan.CompoundMonthly), "monthly or daily")
	f.BoolVar(&amortizeFlags.export, "export", false, "also write the table to Google Sheets")
	markRequired(amortizeCmd, "amount", "apr", "term", "start")

	f = mortgageCmd.Flags()
	f.StringVar(&mortgageFlags.name, "name", "home", "label for the mortgage")
	f.StringVar(&mortgageFlags.amount, "price", "", "purchase price")
	f.StringVar(&mortgageFlags.down, "down", "20", "down payment as a percentage of the price")
	f.StringVar(&mortgageFlags.apr, "apr", "", "annual percentage rate")
	f.IntVar(&mortgageFlags.term, "term", 30, "term in years")
	f.StringVar(&mortgageFlags.start, "start", "", "purchase month, e.g. 2014-06")
	f.StringVar(&mortgageFlags.pmi, "pmi", "", "annual PMI rate on the financed amount (default 1.5%, 0 waives it)")
	f.BoolVar(&mortgageFlags.export, "export", false, "also write the table to Google Sheets")
	markRequired(mortgageCmd, "price", "apr", "start")

	f = studentLoanCmd.Flags()
	f.StringVar(&studentLoanFlags.name, "name", "student loan", "label for the loan")
	f.StringVar(&studentLoanFlags.amount, "amount", "", "balance when repayment starts")
	f.StringVar(&studentLoanFlags.apr, "apr", "", "annual percentage rate")
	f.IntVar(&studentLoanFlags.term, "term", 10, "term in years")
	f.StringVar(&studentLoanFlags.start, "start", "", "month of the first payment, e.g. 2013-01")
	f.StringVar(&studentLoanFlags.fixedPayment, "fixed-payment", "", "pay this amount each month instead of the minimum")
	f.BoolVar(&studentLoanFlags.export, "export", false, "also write the table to Google Sheets")
	markRequired(studentLoanCmd, "amount", "apr", "start")

	rootCmd.AddCommand(amortizeCmd, mortgageCmd, studentLoanCmd)
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

// request turns flag values into an amortization request.
func (f loanFlags) request(kind services.LoanKind) (services.AmortizationRequest, error) {
	req := services.AmortizationRequest{Kind: kind, Name: f.name, TermInYears: f.term}
	var err error

	if req.Amount, err = core.ParseAmount(f.amount); err != nil {
		return req, fmt.Errorf("amount %q: %w", f.amount, err)
	}
	if req.APR, err = core.ParseRate(f.apr); err != nil {
		return req, fmt.Errorf("--apr %q: %w", f.apr, err)
	}
	if req.StartMonth, err = core.ParseMonth(f.start); err != nil {
		return req, fmt.Errorf("--start: %w", err)
	}
	if f.fixedPayment != "" {
		payment, err := core.ParseAmount(f.fixedPayment)
		if err != nil {
			return req, fmt.Errorf("--fixed-payment %q: %w", f.fixedPayment, err)
		}
		req.FixedPayment = &payment
	}
	if f.compounding != "" {
		if req.Compounding, err = loan.ParseCompounding(f.compounding); err != nil {
			return req, err
		}
	}
	if f.down != "" {
		// --down is a plain percentage, "20" and "20%" both mean a fifth
		down, err := core.ParseAmount(trimPercent(f.down))
		if err != nil {
			return req, fmt.Errorf("--down %q: %w", f.down, err)
		}
		req.DownPaymentPercent = down / 100
	}
	if f.pmi != "" {
		rate, err := core.ParseRate(f.pmi)
		if err != nil {
			return req, fmt.Errorf("--pmi %q: %w", f.pmi, err)
		}
		req.PMIRate = &rate
	}
	return req, nil
}

func runAmortize(cmd *cobra.Command, kind services.LoanKind, flags loanFlags) error {
	req, err := flags.request(kind)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{export: flags.export})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, ref, err := a.svc.Amortize(ctx, req, flags.export)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == outputJSON {
		return printJSON(out, struct {
			*services.Schedule
			SheetsRef string `json:"sheets_ref,omitempty"`
		}{sched, ref})
	}
	printSchedule(out, sched)
	if ref != "" {
		fmt.Fprintf(out, "\nExported to %s\n", ref)
	}
	return nil
}
