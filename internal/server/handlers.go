package server

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"sid-reconciliation-service/internal/matcher"
	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/internal/parsers"
	"sid-reconciliation-service/internal/reporter"
	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

// Upload form field names
const (
	FieldMode     = "mode"
	FieldSIDFiles = "sid_files"
	FieldFIRFile  = "fir_file"
	FieldFormat   = "format"
)

// RunIDHeader carries the run id of a successful reconciliation
const RunIDHeader = "X-Run-ID"

// reconcileForm is the decoded multipart upload
type reconcileForm struct {
	Mode     string                  `validate:"required"`
	Format   string                  `validate:"omitempty,oneof=xlsx json"`
	SIDFiles []*multipart.FileHeader `validate:"dive,required"`
	FIRFile  *multipart.FileHeader   `validate:"required"`
}

var formValidator = validator.New()

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"stations": matcher.KnownStations()})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx := r.Context()

	form, err := s.decodeForm(w, r)
	if err != nil {
		s.metrics.ObserveRun("", started, nil, err)
		s.renderError(w, r, err)
		return
	}

	mode, err := models.ParseMatchMode(form.Mode)
	if err != nil {
		err = errors.ValidationError(errors.CodeInvalidValue, FieldMode, form.Mode, err).
			WithSuggestion(fmt.Sprintf("Use %s or %s", models.ModeFirLinksSID, models.ModeSIDUsedInFIR))
		s.metrics.ObserveRun("", started, nil, err)
		s.renderError(w, r, err)
		return
	}

	sidGrids, firGrid, err := s.loadUploads(ctx, form)
	if err != nil {
		s.metrics.ObserveRun(mode.String(), started, nil, err)
		s.renderError(w, r, err)
		return
	}

	result, err := s.service.Process(ctx, sidGrids, firGrid, mode)
	s.metrics.ObserveRun(mode.String(), started, result, err)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	report := reporter.AssembleReport(result)
	w.Header().Set(RunIDHeader, result.RunID)

	if form.Format == string(reporter.FormatJSON) {
		render.JSON(w, r, report)
		return
	}

	// build before writing headers so a failure still yields a JSON error
	wb, err := reporter.BuildWorkbook(report)
	if err != nil {
		s.renderError(w, r, errors.InternalError(errors.CodeUnexpectedError, "build workbook", err))
		return
	}
	defer wb.Close()

	w.Header().Set("Content-Type", reporter.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.config.DownloadName))
	if err := wb.Write(w); err != nil {
		s.logger.WithError(err).WithField("run_id", result.RunID).Error("Failed to stream workbook")
	}
}

// decodeForm parses the multipart body within the upload limit
func (s *Server) decodeForm(w http.ResponseWriter, r *http.Request) (*reconcileForm, error) {
	limit := s.config.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, errors.Wrap(err, errors.CategoryFile, errors.CodeFileCorrupted, "invalid multipart upload").
			WithSuggestion(fmt.Sprintf("Send multipart/form-data no larger than %d MB", s.config.MaxUploadMB))
	}

	form := &reconcileForm{
		Mode:   r.FormValue(FieldMode),
		Format: r.FormValue(FieldFormat),
	}
	if r.MultipartForm != nil {
		form.SIDFiles = r.MultipartForm.File[FieldSIDFiles]
		if firs := r.MultipartForm.File[FieldFIRFile]; len(firs) > 0 {
			form.FIRFile = firs[0]
		}
	}

	if err := formValidator.Struct(form); err != nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "upload", "", err).
			WithSuggestion(fmt.Sprintf("Provide %s, a %s file and optionally %s", FieldMode, FieldFIRFile, FieldSIDFiles))
	}
	return form, nil
}

// loadUploads reads every uploaded sheet. SID sources keep their upload order.
func (s *Server) loadUploads(ctx context.Context, form *reconcileForm) ([]parsers.Grid, parsers.Grid, error) {
	sidGrids := make([]parsers.Grid, 0, len(form.SIDFiles))
	for _, fh := range form.SIDFiles {
		grid, err := s.loadUpload(ctx, fh)
		if err != nil {
			return nil, nil, err
		}
		sidGrids = append(sidGrids, grid)
	}

	firGrid, err := s.loadUpload(ctx, form.FIRFile)
	if err != nil {
		return nil, nil, err
	}
	return sidGrids, firGrid, nil
}

func (s *Server) loadUpload(ctx context.Context, fh *multipart.FileHeader) (parsers.Grid, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, fh.Filename, err)
	}
	defer file.Close()

	grid, err := s.loader.LoadReader(ctx, fh.Filename, file)
	if err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryFile, errors.CodeFileCorrupted, "failed to read "+fh.Filename)
	}
	return grid, nil
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	resp := NewErrorResponse(err, RequestIDFrom(r.Context()))

	entry := s.logger.WithError(err).WithFields(logger.Fields{
		"request_id": resp.RequestID,
		"status":     resp.Status,
		"code":       resp.Code,
	})
	if resp.Status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	if err := render.Render(w, r, resp); err != nil {
		http.Error(w, resp.Message, resp.Status)
	}
}
