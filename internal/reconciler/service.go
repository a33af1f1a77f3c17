// Package reconciler runs one reconciliation from raw SID and FIR tables to
// the computed tables a report is assembled from.
//
// A run is a pure in-memory transform: load, extract, match, build the detail
// table and the grouped listing, then aggregate per station. Nothing is kept
// between runs, and any structural input error aborts the run with no partial
// result.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"sid-reconciliation-service/internal/matcher"
	"sid-reconciliation-service/internal/models"
	"sid-reconciliation-service/internal/parsers"
	"sid-reconciliation-service/pkg/errors"
	"sid-reconciliation-service/pkg/logger"
)

// Config holds configuration options for the reconciliation service
type Config struct {
	Layout *parsers.TableLayout
	Logger logger.Logger
}

// DefaultConfig returns the configuration for the standard sheet layout
func DefaultConfig() *Config {
	return &Config{Layout: parsers.DefaultTableLayout()}
}

// ReconciliationRequest names the sources of one file-based run
type ReconciliationRequest struct {
	SIDFiles []string         `json:"sid_files" validate:"dive,required"`
	FIRFile  string           `json:"fir_file" validate:"required"`
	Mode     models.MatchMode `json:"mode" validate:"required"`
}

var requestValidator = validator.New()

// Validate validates the reconciliation request
func (r *ReconciliationRequest) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		return err
	}
	if !r.Mode.IsValid() {
		return fmt.Errorf("unknown match mode %q", r.Mode)
	}
	return nil
}

// ReconciliationResult contains every table computed by one run
type ReconciliationResult struct {
	RunID        string                     `json:"run_id"`
	Mode         models.MatchMode           `json:"mode"`
	StationLabel string                     `json:"station_label"`
	DateRange    models.DateRange           `json:"date_range"`
	Detail       []models.ReconciliationRow `json:"detail"`
	Grouped      []models.GroupedRow        `json:"grouped"`
	Stations     []models.StationStat       `json:"stations"`
	Totals       models.StationTotals       `json:"totals"`
	Stages       []logger.StageTiming       `json:"stages,omitempty"`
	ProcessedAt  time.Time                  `json:"processed_at"`
}

// ReconciliationService orchestrates the complete reconciliation process
type ReconciliationService struct {
	loader    TableLoader
	extractor *parsers.Extractor
	engine    *matcher.Engine
	logger    logger.Logger
}

// NewReconciliationService creates a service reading sources through loader
func NewReconciliationService(loader TableLoader, config *Config) (*ReconciliationService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	extractor, err := parsers.NewExtractor(config.Layout)
	if err != nil {
		return nil, err
	}

	return &ReconciliationService{
		loader:    loader,
		extractor: extractor,
		engine:    matcher.NewEngine(log),
		logger:    log.WithComponent("reconciler"),
	}, nil
}

// ProcessFiles loads every source named by the request and runs the pipeline.
// SID sources are concatenated in the order given.
func (s *ReconciliationService) ProcessFiles(ctx context.Context, request *ReconciliationRequest) (*ReconciliationResult, error) {
	if err := request.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidValue, "reconciliation_request", request, err).
			WithSuggestion("provide a FIR file, valid SID file paths and a known mode")
	}
	if s.loader == nil {
		return nil, errors.InternalError(errors.CodeUnexpectedError, "load sources", fmt.Errorf("no table loader configured"))
	}

	tracker := logger.NewStageTracker(s.logger, "reconcile")
	tracker.Begin("load")

	sidGrids := make([]parsers.Grid, 0, len(request.SIDFiles))
	for _, path := range request.SIDFiles {
		grid, err := s.loader.Load(ctx, path)
		if err != nil {
			tracker.Fail(err)
			return nil, errors.WrapIfNeeded(err, errors.CategoryFile, errors.CodeFileCorrupted, "failed to load SID file "+path)
		}
		sidGrids = append(sidGrids, grid)
	}

	firGrid, err := s.loader.Load(ctx, request.FIRFile)
	if err != nil {
		tracker.Fail(err)
		return nil, errors.WrapIfNeeded(err, errors.CategoryFile, errors.CodeFileCorrupted, "failed to load FIR file "+request.FIRFile)
	}

	s.logger.WithFields(logger.Fields{
		"sid_files": len(request.SIDFiles),
		"fir_file":  request.FIRFile,
	}).Debug("Loaded sources")

	return s.run(ctx, tracker, sidGrids, firGrid, request.Mode)
}

// Process runs the pipeline on grids that were already loaded
func (s *ReconciliationService) Process(ctx context.Context, sidGrids []parsers.Grid, firGrid parsers.Grid, mode models.MatchMode) (*ReconciliationResult, error) {
	if !mode.IsValid() {
		return nil, errors.ValidationError(errors.CodeInvalidValue, "mode", string(mode), nil)
	}
	return s.run(ctx, logger.NewStageTracker(s.logger, "reconcile"), sidGrids, firGrid, mode)
}

func (s *ReconciliationService) run(ctx context.Context, tracker *logger.StageTracker, sidGrids []parsers.Grid, firGrid parsers.Grid, mode models.MatchMode) (*ReconciliationResult, error) {
	fail := func(err error) (*ReconciliationResult, error) {
		tracker.Fail(err)
		return nil, err
	}

	tracker.Begin("extract")
	if len(sidGrids) == 0 {
		s.logger.Warn("No SID sources supplied, every FIR number will be pending")
	}
	input, err := s.extractor.Extract(sidGrids, firGrid)
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	tracker.Begin("match")
	firNumbers := input.FirNumbers()
	sidNumbers := input.CaseNumbers()
	// the detail table is always classified FIR against SID
	firMatched, err := s.engine.Match(firNumbers, sidNumbers, models.ModeFirLinksSID)
	if err != nil {
		return fail(err)
	}
	universe, err := s.engine.Classify(firNumbers, sidNumbers, mode)
	if err != nil {
		return fail(err)
	}

	tracker.Begin("detail")
	detail := BuildDetailTable(input.CaseRecords, input.FirRecords, firMatched)

	tracker.Begin("group")
	grouped := BuildGroupedListing(detail, input.IONames())

	tracker.Begin("aggregate")
	stations := AggregateStations(universe)
	totals, err := ComputeTotals(stations)
	if err != nil {
		return fail(err)
	}

	result := &ReconciliationResult{
		RunID:        uuid.NewString(),
		Mode:         mode,
		StationLabel: input.StationLabel,
		DateRange:    input.DateRange,
		Detail:       detail,
		Grouped:      grouped,
		Stations:     stations,
		Totals:       totals,
		ProcessedAt:  time.Now().UTC(),
	}

	tracker.Complete(logger.Fields{
		"run_id":     result.RunID,
		"mode":       mode.String(),
		"total_fir":  totals.FirCount,
		"matched":    totals.MatchedCount,
		"pending":    totals.PendingCount,
		"percentage": totals.MatchPercentage.String(),
	})
	result.Stages = tracker.Stages()
	return result, nil
}
