package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"finplan/internal/scenario"
)

var projectExport bool

var projectCmd = &cobra.Command{
	Use:   "project <scenario.yaml>",
	Short: "Project a household scenario over several years",
	Long: `Loads a scenario file, amortizes its home and student loans and prints
the tax summary of every projected year.`,
	Example: `  finplan project household.yaml
  finplan project household.yaml --export -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

var publishExport bool

var publishCmd = &cobra.Command{
	Use:   "publish <scenario.yaml>",
	Short: "Queue a scenario for projection-worker",
	Long: `Validates a scenario file and publishes it to the projection request
queue. The printed id is carried by the result message.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	projectCmd.Flags().BoolVar(&projectExport, "export", false, "also write the summary and schedules to Google Sheets")
	publishCmd.Flags().BoolVar(&publishExport, "export", false, "ask the worker to export the result to Google Sheets")
	rootCmd.AddCommand(projectCmd, publishCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{export: projectExport})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.svc.Project(ctx, sc, projectExport)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == outputJSON {
		return printJSON(out, result)
	}
	fmt.Fprintf(out, "Scenario %s (%s)\n\n", result.Scenario, result.ID)
	printSummaries(out, result.Years)
	for _, l := range result.StudentLoans {
		fmt.Fprintf(out, "\n%s: %d payments, minimum %.2f, interest %.2f\n",
			l.Name, len(l.Payments), l.MinimumPayment, l.TotalInterest)
	}
	if n := len(result.Home); n > 0 {
		fmt.Fprintf(out, "\nmortgage: %d payments, last in %s\n", n, result.Home[n-1].Month)
	}
	for _, ref := range result.SheetsRefs {
		fmt.Fprintf(out, "Exported to %s\n", ref)
	}
	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{queue: true})
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.svc.Submit(ctx, *sc, publishExport)
	if err != nil {
		return err
	}
	if outputFormat == outputJSON {
		return printJSON(cmd.OutOrStdout(), map[string]string{"id": id, "status": "queued"})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as %s\n", sc.Name, id)
	return nil
}
