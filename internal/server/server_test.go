package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sid-reconciliation-service/internal/reconciler"
	"sid-reconciliation-service/internal/reporter"
	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

// encoding/csv skips blank lines, so the empty FIR metadata row is a lone comma
const (
	sidCSV = "title\ndistrict\nheader\n" +
		",,11188003250001,,,,,,,,\n" +
		",,11188010250009,,,,,,,,11188003250002\n"
	firCSV = "title\ndistrict\n,\nheader\n" +
		"1,11188003250001,01/01/2024,,,,P.I. Patel\n" +
		"2,11188003250003,02/01/2024,,,,P.S.I. Shah\n" +
		"3,11188010250009,03/01/2024,,,,P.I. Desai\n"
)

type upload struct {
	field, name, content string
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, logger.ErrorLevel, logger.TextFormat)

	service, err := reconciler.NewReconciliationService(nil, &reconciler.Config{Logger: log})
	require.NoError(t, err)

	srv, err := New(nil, service, nil, log)
	require.NoError(t, err)
	return srv
}

func multipartRequest(t *testing.T, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestReconcileWorkbookDownload(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, multipartRequest(t,
		map[string]string{FieldMode: "fir-links-sid"},
		upload{FieldSIDFiles, "sid_1.csv", sidCSV},
		upload{FieldFIRFile, "case.csv", firCSV},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, reporter.XLSXContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Megh.xlsx")
	assert.NotEmpty(t, rec.Header().Get(RunIDHeader))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Sheet1", "Sheet2", "Sheet3", "Sheet4"}, wb.GetSheetList())

	rows, err := wb.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus one row per FIR number")
	assert.Equal(t, "11188003250001", rows[1][3])
}

func TestReconcileJSON(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, multipartRequest(t,
		map[string]string{FieldMode: "sid-used-in-fir", FieldFormat: "json"},
		upload{FieldSIDFiles, "sid_1.csv", sidCSV},
		upload{FieldFIRFile, "case.csv", firCSV},
	))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sid-used-in-fir", body["mode"])
	assert.Equal(t, rec.Header().Get(RunIDHeader), body["run_id"])

	sections, ok := body["sections"].([]interface{})
	require.True(t, ok)
	assert.Len(t, sections, 4)
}

func TestReconcileWithoutSIDFiles(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, multipartRequest(t,
		map[string]string{FieldMode: "fir-links-sid", FieldFormat: "json"},
		upload{FieldFIRFile, "case.csv", firCSV},
	))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestReconcileErrors(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		files      []upload
		wantStatus int
		wantCode   errors.ErrorCode
	}{
		{
			name:       "missing FIR file",
			fields:     map[string]string{FieldMode: "fir-links-sid"},
			files:      []upload{{FieldSIDFiles, "sid_1.csv", sidCSV}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   errors.CodeMissingField,
		},
		{
			name:       "missing mode",
			files:      []upload{{FieldFIRFile, "case.csv", firCSV}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   errors.CodeMissingField,
		},
		{
			name:       "unknown format",
			fields:     map[string]string{FieldMode: "fir-links-sid", FieldFormat: "pdf"},
			files:      []upload{{FieldFIRFile, "case.csv", firCSV}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   errors.CodeMissingField,
		},
		{
			name:       "unknown mode",
			fields:     map[string]string{FieldMode: "sideways"},
			files:      []upload{{FieldFIRFile, "case.csv", firCSV}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   errors.CodeInvalidValue,
		},
		{
			name:       "legacy workbook",
			fields:     map[string]string{FieldMode: "fir-links-sid"},
			files:      []upload{{FieldFIRFile, "case.xls", "binary"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.CodeUnsupportedFormat,
		},
		{
			name:       "structural error",
			fields:     map[string]string{FieldMode: "fir-links-sid"},
			files:      []upload{{FieldFIRFile, "case.csv", "a,b\n"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   errors.CodeMissingColumn,
		},
		{
			name:   "no known station",
			fields: map[string]string{FieldMode: "fir-links-sid"},
			files: []upload{{FieldFIRFile, "case.csv",
				"title\ndistrict\n,\nheader\n1,99999999000001,01/01/2024,,,,\n"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   errors.CodeNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			req := multipartRequest(t, tt.fields, tt.files...)
			req.Header.Set(RequestIDHeader, "req-42")

			rec := serve(srv, req)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			resp := decodeError(t, rec)
			assert.Equal(t, string(tt.wantCode), resp.Code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "req-42", resp.RequestID)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestReconcileRejectsNonMultipart(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", strings.NewReader(`{"mode":"fir-links-sid"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := serve(srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.CodeFileCorrupted), decodeError(t, rec).Code)
}

func TestStationsAndHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/v1/stations", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stations []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Stations, 14)
	assert.Equal(t, "11188001", body.Stations[0].Code)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	serve(srv, multipartRequest(t,
		map[string]string{FieldMode: "fir-links-sid", FieldFormat: "json"},
		upload{FieldSIDFiles, "sid_1.csv", sidCSV},
		upload{FieldFIRFile, "case.csv", firCSV},
	))
	serve(srv, multipartRequest(t, map[string]string{FieldMode: "fir-links-sid"}))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	text := rec.Body.String()
	assert.Contains(t, text, `sid_reconciler_runs_total{mode="fir-links-sid",outcome="success"} 1`)
	assert.Contains(t, text, `sid_reconciler_runs_total{mode="unknown",outcome="error"} 1`)
	assert.Contains(t, text, `sid_reconciler_http_requests_total{method="POST",route="/api/v1/reconcile",status="200"} 1`)
	assert.Contains(t, text, "sid_reconciler_identifiers_total")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.FileError(errors.CodeFileNotFound, "x.xlsx", nil), http.StatusBadRequest},
		{errors.ParseError(errors.CodeMissingRow, "FIR", 4, 0, "", nil), http.StatusUnprocessableEntity},
		{errors.ValidationError(errors.CodeInvalidValue, "mode", "x", nil), http.StatusUnprocessableEntity},
		{errors.ConfigurationError(errors.CodeInvalidConfig, "addr", "", nil), http.StatusBadRequest},
		{errors.ReconciliationError(errors.CodeNoData, "totals", nil), http.StatusUnprocessableEntity},
		{errors.ReconciliationError(errors.CodeProcessingError, "match", nil), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.MaxUploadMB = 0
	assert.Error(t, cfg.Validate())

	_, err := New(cfg, nil, nil, nil)
	assert.Error(t, err)
}
