package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"finplan/internal/cli"
	apphttp "finplan/internal/http"
	"finplan/internal/log"
)

const shutdownTimeout = 30 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Starts the HTTP API:

  POST /api/amortization   amortize one loan (?export=true)
  POST /api/projection     project a scenario (?export=true, ?async=true)
  GET  /healthz            liveness
  GET  /readyz             tax data backend reachability

Exports need GOOGLE_SPREADSHEET_ID and async projections need AMQP_URL;
without them those requests answer 503.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "override PORT")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	port := appConfig.Port
	if servePort != "" {
		port = servePort
	}

	a, err := openApp(cmd.Context(), appOptions{
		export: appConfig.SheetsEnabled() || dryRun,
		queue:  appConfig.AMQPEnabled(),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := apphttp.NewServer(":"+port, a.svc, a.backend.Ready, logger)
	if err != nil {
		return err
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting finplan API",
		"port", port,
		log.FieldBackend, appConfig.TaxDataBackend,
		"sheets", appConfig.SheetsEnabled(),
		"amqp", appConfig.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
