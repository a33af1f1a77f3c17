package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sid-reconciliation-service/cmd/reconciler/config"
	"sid-reconciliation-service/pkg/logger"
)

const defaultEnvFile = ".env"

var (
	cfgFile   string
	envFile   string
	verbose   bool
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"

	// runtimeConfig is loaded once per invocation, before any subcommand runs
	runtimeConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "e-Sakshya SID reconciliation tool",
	Long: `Reconciler checks which FIR cases have a matching e-Sakshya SID case
number, attributes every case to its police station by the 8-digit prefix of
its identifier, and produces per-station statistics.

Examples:
  reconciler reconcile --sid-files sid_1.xlsx,sid_2.xlsx --fir-file case.xlsx --output-file Megh.xlsx
  reconciler reconcile --sid-files sid.csv --fir-file case.csv --mode sid-used-in-fir --output-format json
  reconciler serve --addr :8080
  reconciler stations`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

// Execute adds all child commands to the root command and runs it. The
// returned exit code follows the error category of a failure.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return NewCLIErrorHandler(rootCmd.ErrOrStderr()).HandleError(err)
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "file of RECONCILER_* variables to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logger.TextFormat), "log format: text, json")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in the env file, config file and ENV variables.
func initConfig() {
	if err := config.LoadEnvFile(envFile, envFile != defaultEnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading env file: %s\n", err)
		os.Exit(1)
	}

	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)

		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if v.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
		}
	}
}

// loadRuntime decodes the configuration and installs the process logger
func loadRuntime(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := cfg.NewLogger(viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)

	runtimeConfig = cfg
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
