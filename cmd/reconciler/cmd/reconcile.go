package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sid-reconciliation-service/cmd/reconciler/config"
	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/internal/parsers"
	"sid-reconciliation-service/internal/reconciler"
	"sid-reconciliation-service/internal/reporter"
	"sid-reconciliation-service/pkg/logger"
)

// Flags for the reconcile command
var (
	sidFiles     []string
	firFile      string
	matchMode    string
	outputFormat string
	outputFile   string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile FIR cases with e-Sakshya SID case numbers",
	Long: `Reconcile classifies every FIR number as matched or pending against the
combined SID case numbers and writes four sections: the detail table, the
station-grouped listing, the per-station statistics and the run summary.

This command requires:
- A FIR case register (.xlsx, .xlsm or .csv)
- Zero or more SID exports (.xlsx, .xlsm or .csv), combined in the given order

Mode fir-links-sid computes statistics over the FIR rows; sid-used-in-fir
computes them over the distinct SID case numbers.

Examples:
  # Workbook report
  reconciler reconcile --sid-files sid_1.xlsx,sid_2.xlsx --fir-file case.xlsx --output-file Megh.xlsx

  # SID-centric statistics as JSON
  reconciler reconcile --sid-files sid.xlsx --fir-file case.xlsx \
    --mode sid-used-in-fir --output-format json

  # Quick look in the terminal
  reconciler reconcile -s sid.csv --fir-file case.csv -f console`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Input flags
	reconcileCmd.Flags().StringSliceVarP(&sidFiles, "sid-files", "s", []string{}, "comma-separated paths to SID exports, combined in order")
	reconcileCmd.Flags().StringVar(&firFile, "fir-file", "", "path to the FIR case register (required)")
	reconcileCmd.Flags().StringVarP(&matchMode, "mode", "m", string(models.ModeFirLinksSID), "match mode: fir-links-sid, sid-used-in-fir")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "", "output format: xlsx, json, csv, console (default from report.format)")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout, or the download name for xlsx)")

	// Mark required flags
	reconcileCmd.MarkFlagRequired("fir-file")

	// Bind flags to viper
	viper.BindPFlag("sid-files", reconcileCmd.Flags().Lookup("sid-files"))
	viper.BindPFlag("fir-file", reconcileCmd.Flags().Lookup("fir-file"))
	viper.BindPFlag("mode", reconcileCmd.Flags().Lookup("mode"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	sidFiles = viper.GetStringSlice("sid-files")
	firFile = viper.GetString("fir-file")
	matchMode = viper.GetString("mode")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")

	if firFile == "" {
		return fmt.Errorf("fir-file is required")
	}
	if err := validateFileExists(firFile, "FIR case file"); err != nil {
		return err
	}
	for i, sidFile := range sidFiles {
		if err := validateFileExists(sidFile, fmt.Sprintf("SID file %d", i+1)); err != nil {
			return err
		}
	}

	if matchMode == "" {
		matchMode = string(models.ModeFirLinksSID)
	}
	mode, err := models.ParseMatchMode(matchMode)
	if err != nil {
		return err
	}
	matchMode = string(mode)

	if outputFormat != "" && !reporter.OutputFormat(strings.ToLower(outputFormat)).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: xlsx, json, csv, console", outputFormat)
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}
	return nil
}

// currentConfig returns the configuration loaded for this invocation
func currentConfig() (*config.Config, error) {
	if runtimeConfig != nil {
		return runtimeConfig, nil
	}
	v := viper.GetViper()
	config.SetDefaults(v)
	return config.Load(v)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.GetGlobalLogger().WithComponent("cli")

	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	reportConfig, err := cfg.ReportConfigFor(outputFormat)
	if err != nil {
		return err
	}
	// a workbook is never streamed to stdout
	if reportConfig.Format.IsBinary() && outputFile == "" {
		outputFile = cfg.Server.DownloadName
	}

	log.WithFields(logger.Fields{
		"sid_files":     strings.Join(sidFiles, ", "),
		"fir_file":      firFile,
		"mode":          matchMode,
		"output_format": reportConfig.Format,
		"output_file":   outputFile,
	}).Debug("Starting reconciliation")

	service, err := reconciler.NewReconciliationService(
		parsers.NewFileLoader(log),
		&reconciler.Config{Layout: &cfg.Layout, Logger: log},
	)
	if err != nil {
		return err
	}

	result, err := service.ProcessFiles(ctx, &reconciler.ReconciliationRequest{
		SIDFiles: sidFiles,
		FIRFile:  firFile,
		Mode:     models.MatchMode(matchMode),
	})
	if err != nil {
		return err
	}

	report := reporter.AssembleReport(result)
	generator, err := reporter.NewSafeReportGenerator(reportConfig, log)
	if err != nil {
		return err
	}

	if outputFile == "" {
		if err := generator.GenerateReportSafely(report, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else {
		written, err := generator.GenerateToFile(report, outputFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", written)
	}

	// Show completion message
	if viper.GetBool("verbose") {
		out := cmd.ErrOrStderr()
		fmt.Fprintf(out, "\nReconciliation completed successfully (run %s).\n", result.RunID)
		fmt.Fprintf(out, "Mode: %s\n", result.Mode.Label())
		fmt.Fprintf(out, "Total: %d, matched: %d, pending: %d (%s%%)\n",
			result.Totals.FirCount, result.Totals.MatchedCount, result.Totals.PendingCount,
			result.Totals.MatchPercentage.StringFixed(2))
		for _, stage := range result.Stages {
			fmt.Fprintf(out, "  %-10s %v\n", stage.Name, stage.Duration)
		}
	}

	return nil
}
