package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sid-reconciliation-service/internal/parsers"
	"sid-reconciliation-service/internal/reconciler"
	"sid-reconciliation-service/internal/server"
	"sid-reconciliation-service/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reconciliation over HTTP",
	Long: `Serve starts an HTTP server accepting SID exports and a FIR case register
as a multipart upload and answering with the report workbook.

Routes:
  POST /api/v1/reconcile   fields: mode, sid_files (repeatable), fir_file, format (xlsx|json)
  GET  /api/v1/stations    station table
  GET  /healthz            liveness
  GET  /metrics            Prometheus metrics

Examples:
  reconciler serve --addr :8080
  RECONCILER_SERVER_MAX_UPLOAD_MB=64 reconciler serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", server.DefaultConfig().Addr, "listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.GetGlobalLogger()

	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	service, err := reconciler.NewReconciliationService(nil, &reconciler.Config{Layout: &cfg.Layout, Logger: log})
	if err != nil {
		return err
	}

	srv, err := server.New(&cfg.Server, service, parsers.NewFileLoader(log), log)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
