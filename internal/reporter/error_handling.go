package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with error classification and
// crash-safe file output
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("use one of the formats xlsx, json, csv or console")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely writes the report to writer and classifies failures
func (srg *SafeReportGenerator) GenerateReportSafely(report *models.Report, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Debug("Starting report generation")

	if err := srg.validateInputs(report, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	if srg.config.Format.IsBinary() && isTerminal(writer) {
		return errors.ValidationError(
			errors.CodeInvalidValue,
			"output_file",
			getWriterDescription(writer),
			fmt.Errorf("refusing to write a %s workbook to a terminal", srg.config.Format),
		).WithSuggestion("pass --output-file report.xlsx or choose another output format")
	}

	if err := srg.GenerateReport(report, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return srg.wrapGenerationError(err)
	}

	srg.logger.WithField("sections", len(report.Sections)).Debug("Report generation completed")
	return nil
}

// GenerateToFile writes the report to a temporary file next to path and
// renames it into place, so a failed run never leaves a truncated report. If
// the destination cannot be written, the report is saved to a backup path
// in the system temp directory and that path is returned.
func (srg *SafeReportGenerator) GenerateToFile(report *models.Report, path string) (string, error) {
	written, err := srg.writeAtomically(report, path)
	if err == nil {
		return written, nil
	}
	if !srg.isFileError(err) {
		return "", err
	}

	backup := srg.generateBackupPath(path)
	srg.logger.WithError(err).WithFields(logger.Fields{
		"original_file": path,
		"backup_file":   backup,
	}).Warn("Could not write report, attempting backup location")

	written, backupErr := srg.writeAtomically(report, backup)
	if backupErr != nil {
		return "", errors.InternalError(
			errors.CodeUnexpectedError,
			"report_output_fallback",
			fmt.Errorf("both primary and backup output failed: primary=%v, backup=%v", err, backupErr),
		)
	}
	return written, nil
}

func (srg *SafeReportGenerator) writeAtomically(report *models.Report, path string) (string, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", srg.fileError(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := srg.GenerateReportSafely(report, tmp); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", srg.fileError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", srg.fileError(path, err)
	}

	srg.logger.WithField("file_path", path).Info("Report written")
	return path, nil
}

func (srg *SafeReportGenerator) fileError(path string, err error) error {
	code := errors.CodeFileCorrupted
	switch {
	case os.IsPermission(err):
		code = errors.CodeFilePermission
	case os.IsNotExist(err):
		code = errors.CodeFileNotFound
	}
	return errors.FileError(code, path, err)
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(report *models.Report, writer io.Writer) error {
	if report == nil {
		return errors.ValidationError(errors.CodeMissingField, "report", nil, nil).
			WithSuggestion("provide an assembled report")
	}
	if writer == nil {
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil).
			WithSuggestion("provide a valid output writer")
	}
	return nil
}

// isFileError checks if the error is file-related
func (srg *SafeReportGenerator) isFileError(err error) bool {
	if re, ok := errors.AsReconcilerError(err); ok && re.Category == errors.CategoryFile {
		return true
	}
	return os.IsPermission(err) || os.IsNotExist(err) || isSpaceError(err)
}

// generateBackupPath creates a backup file path in the temp directory
func (srg *SafeReportGenerator) generateBackupPath(originalPath string) string {
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s_backup%s", name, ext))
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return errors.InternalError(
		errors.CodeProcessingError,
		"report_generation",
		err,
	).WithSuggestion("check the output destination and report format settings")
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "device full")
}
