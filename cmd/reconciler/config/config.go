// Package config builds the runtime configuration of the reconciler binary
// from viper: defaults, an optional config file, RECONCILER_* environment
// variables (optionally seeded from a .env file) and bound command flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sid-reconciliation-service/internal/parsers"
	"sid-reconciliation-service/internal/reporter"
	"sid-reconciliation-service/internal/server"
	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

// EnvPrefix prefixes every environment variable the binary reads
const EnvPrefix = "RECONCILER"

// Config is the complete runtime configuration
type Config struct {
	Log    logger.Config         `mapstructure:"log"`
	Layout parsers.TableLayout   `mapstructure:"layout"`
	Report reporter.ReportConfig `mapstructure:"report"`
	Server server.Config         `mapstructure:"server"`
}

// SetDefaults registers every known key so that environment variables can
// override nested values.
func SetDefaults(v *viper.Viper) {
	log := logger.DefaultConfig()
	v.SetDefault("log.level", string(log.Level))
	v.SetDefault("log.format", string(log.Format))
	v.SetDefault("log.output", string(log.Output))
	v.SetDefault("log.file", "")

	layout := parsers.DefaultTableLayout()
	v.SetDefault("layout.sid.header_rows", layout.SID.HeaderRows)
	v.SetDefault("layout.sid.case_number_1_col", layout.SID.CaseNumber1Col)
	v.SetDefault("layout.sid.case_number_2_col", layout.SID.CaseNumber2Col)
	v.SetDefault("layout.fir.header_rows", layout.FIR.HeaderRows)
	v.SetDefault("layout.fir.fir_number_col", layout.FIR.FirNumberCol)
	v.SetDefault("layout.fir.date_col", layout.FIR.DateCol)
	v.SetDefault("layout.fir.io_name_col", layout.FIR.IONameCol)
	v.SetDefault("layout.fir.station_label_row", layout.FIR.StationLabelRow)
	v.SetDefault("layout.fir.station_label_col", layout.FIR.StationLabelCol)

	report := reporter.DefaultReportConfig()
	v.SetDefault("report.format", string(report.Format))
	v.SetDefault("report.csv_delimiter", report.CSVDelimiter)
	v.SetDefault("report.max_console_rows", report.MaxConsoleRows)

	srv := server.DefaultConfig()
	v.SetDefault("server.addr", srv.Addr)
	v.SetDefault("server.max_upload_mb", srv.MaxUploadMB)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	v.SetDefault("server.download_name", srv.DownloadName)
}

// BindEnv makes nested keys readable as RECONCILER_SECTION_KEY variables
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables already set win. A missing default file is not an error.
func LoadEnvFile(path string, required bool) error {
	if _, err := os.Stat(path); os.IsNotExist(err) && !required {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "env_file", path, err)
	}
	return nil
}

var configValidator = validator.New()

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", v.ConfigFileUsed(), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "config", "", err)
	}
	if err := c.Log.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", c.Log, err)
	}
	if err := c.Layout.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "layout", c.Layout, err)
	}
	if err := c.Report.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "report.format", c.Report.Format, err)
	}
	if err := c.Server.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "server", c.Server.Addr, err)
	}
	return nil
}

// NewLogger builds the process logger. verbose forces debug level.
func (c *Config) NewLogger(verbose bool) (logger.Logger, error) {
	logConfig := c.Log
	if verbose {
		logConfig.Level = logger.DebugLevel
		logConfig.CallerInfo = true
	}
	log, err := logger.NewLogger(&logConfig)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", logConfig, err)
	}
	return log, nil
}

// ReportConfigFor returns the report settings with format overriding the
// configured one when set.
func (c *Config) ReportConfigFor(format string) (*reporter.ReportConfig, error) {
	report := c.Report
	if format != "" {
		report.Format = reporter.OutputFormat(strings.ToLower(format))
	}
	if err := report.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidValue, "output-format", format,
			fmt.Errorf("valid formats: %s, %s, %s, %s: %w",
				reporter.FormatXLSX, reporter.FormatJSON, reporter.FormatCSV, reporter.FormatConsole, err))
	}
	return &report, nil
}
