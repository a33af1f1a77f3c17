// Package reporter assembles the sections of a reconciliation report and
// writes them out.
//
// A report has four sections, always in this order:
//   - the detail table, one row per aligned SID/FIR row
//   - the station listing, sorted by station and FIR number with each station
//     label shown once per block
//   - the dashboard, a headerless block with a title row, a header row, the
//     ranked station rows and a total row; the header and total are bold
//   - a one-row summary of the run
//
// Supported output formats:
//   - XLSX: one worksheet per section, as the report is handed to users
//   - JSON: structured data format for programmatic consumption
//   - CSV: every section in turn, separated by a blank line
//   - Console: aligned text tables for terminal display
//
// Example usage:
//
//	report := reporter.AssembleReport(result)
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatXLSX})
//	err = generator.GenerateReport(report, w)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"sid-reconciliation-service/internal/models"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatXLSX    OutputFormat = "xlsx"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatConsole OutputFormat = "console"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatXLSX, FormatJSON, FormatCSV, FormatConsole:
		return true
	default:
		return false
	}
}

// IsBinary reports whether the format must not be written to a terminal
func (f OutputFormat) IsBinary() bool {
	return f == FormatXLSX
}

// Extension is the file extension of the format
func (f OutputFormat) Extension() string {
	if f == FormatConsole {
		return ".txt"
	}
	return "." + string(f)
}

// ContentType is the MIME type of the format
func (f OutputFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return XLSXContentType
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format" mapstructure:"format" validate:"required"`

	// CSV options
	CSVDelimiter string `json:"csv_delimiter" mapstructure:"csv_delimiter" validate:"omitempty,len=1"`

	// Console formatting options; rows beyond MaxConsoleRows per section are
	// elided, zero shows everything
	MaxConsoleRows int `json:"max_console_rows" mapstructure:"max_console_rows" validate:"gte=0"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:         FormatConsole,
		CSVDelimiter:   ",",
		MaxConsoleRows: 50,
	}
}

var configValidator = validator.New()

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

func (c *ReportConfig) delimiter() rune {
	if c.CSVDelimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}

// ReportGenerator writes assembled reports in one output format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// Format returns the configured output format
func (rg *ReportGenerator) Format() OutputFormat {
	return rg.config.Format
}

// GenerateReport writes the report to the provided writer
func (rg *ReportGenerator) GenerateReport(report *models.Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	switch rg.config.Format {
	case FormatXLSX:
		return WriteXLSX(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateJSONReport(report *models.Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (rg *ReportGenerator) generateCSVReport(report *models.Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.delimiter()

	for i, section := range report.Sections {
		if i > 0 {
			if err := csvWriter.Write([]string{}); err != nil {
				return fmt.Errorf("failed to write section separator: %w", err)
			}
		}
		if !section.Headerless {
			if err := csvWriter.Write(section.Columns); err != nil {
				return fmt.Errorf("failed to write %s headers: %w", section.Name, err)
			}
		}
		for _, row := range section.Rows {
			if err := csvWriter.Write(formatRow(row)); err != nil {
				return fmt.Errorf("failed to write %s record: %w", section.Name, err)
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) generateConsoleReport(report *models.Report, writer io.Writer) error {
	fmt.Fprintf(writer, "SID RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Run:     %s\n", report.RunID)
	fmt.Fprintf(writer, "Mode:    %s\n", report.Mode.Label())
	fmt.Fprintf(writer, "Period:  %s\n", report.DateRange)
	if report.StationLabel != "" {
		fmt.Fprintf(writer, "Station: %s\n", report.StationLabel)
	}
	fmt.Fprintf(writer, "\n")

	for _, section := range report.Sections {
		fmt.Fprintf(writer, "=== %s ===\n", strings.ToUpper(section.Name))

		tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
		if !section.Headerless {
			fmt.Fprintln(tw, strings.Join(section.Columns, "\t"))
		}

		limit := len(section.Rows)
		if rg.config.MaxConsoleRows > 0 && limit > rg.config.MaxConsoleRows {
			limit = rg.config.MaxConsoleRows
		}
		for _, row := range section.Rows[:limit] {
			fmt.Fprintln(tw, strings.Join(formatRow(row), "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if hidden := len(section.Rows) - limit; hidden > 0 {
			fmt.Fprintf(writer, "... and %d more\n", hidden)
		}
		fmt.Fprintf(writer, "\n")
	}
	return nil
}

func formatRow(row models.Row) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = models.FormatCell(v)
	}
	return out
}
