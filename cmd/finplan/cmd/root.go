package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finplan/internal/cli"
	"finplan/internal/config"
	"finplan/internal/log"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var (
	outputFormat string
	logLevel     string
	dryRun       bool

	appConfig *config.Config
	logger    *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "finplan",
	Short: "Household loan and tax planning",
	Long: `finplan amortizes loans, computes a household's yearly tax liability
and projects both forward over several years.

Configuration is read from the environment and an optional .env file:
  TAX_DATA_BACKEND   memory, sqlite or file
  REDIS_ADDR         cache tax tables in Redis instead of in process
  AMQP_URL           queue projections for projection-worker
  GOOGLE_SPREADSHEET_ID  export schedules and summaries to Google Sheets`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.Name(), err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputTable, "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "keep exported tables in memory instead of writing to Google Sheets")
}

// setup loads configuration and the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if outputFormat != outputTable && outputFormat != outputJSON {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	cli.LoadEnvFile()
	if logLevel != "" {
		os.Setenv("LOG_LEVEL", logLevel)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	l, err := cli.SetupLogger(cfg)
	if err != nil {
		return err
	}
	appConfig, logger = cfg, l.WithComponent(log.ComponentCLI)
	return nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
