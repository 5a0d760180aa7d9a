// Package importer turns a stock report grid into rows of the general and
// ready stock tables.
package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stock-service/internal/grid"
	"stock-service/internal/models"
)

const (
	DefaultUpsertTimeout = 30 * time.Second
	recordTimeout        = 5 * time.Second
)

// StockStore persists extracted entries, upserting by SKU
type StockStore interface {
	UpsertStock(ctx context.Context, view models.StockView, entries []grid.StockEntry) (int, error)
}

// Invalidator is notified after both tables were written. Failures are
// logged and otherwise ignored.
type Invalidator interface {
	InvalidateStockCache(ctx context.Context) error
}

// RunRecorder keeps the history of imports
type RunRecorder interface {
	CreateImportRun(ctx context.Context, run *models.StockImportRun) error
}

// Options configure a Service
type Options struct {
	UpsertTimeout time.Duration
	General       grid.Layout
	Ready         grid.Layout
	Now           func() time.Time
}

// DefaultOptions uses the standard report layout
func DefaultOptions() Options {
	return Options{
		UpsertTimeout: DefaultUpsertTimeout,
		General:       grid.GeneralStock,
		Ready:         grid.ReadyStock,
		Now:           time.Now,
	}
}

// Request is one import action
type Request struct {
	Grid     grid.Grid
	Source   string
	Operator string
	DryRun   bool
}

// TableResult is the outcome for one stock table
type TableResult struct {
	View          models.StockView  `json:"view"`
	Table         string            `json:"table"`
	SKUCount      int               `json:"skuCount"`
	TotalQuantity int               `json:"totalQuantity"`
	Persisted     bool              `json:"persisted"`
	Error         string            `json:"error,omitempty"`
	Entries       []grid.StockEntry `json:"entries,omitempty"`
}

// Result describes a finished import
type Result struct {
	RunID      uuid.UUID           `json:"runId"`
	Source     string              `json:"source"`
	Status     models.ImportStatus `json:"status"`
	General    TableResult         `json:"general"`
	Ready      TableResult         `json:"ready"`
	Log        []string            `json:"log"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
}

// Service runs imports. It holds no per-import state and may be shared.
type Service struct {
	store        StockStore
	recorder     RunRecorder
	invalidators []Invalidator
	opts         Options
	logger       *logrus.Entry
}

// NewService wires the collaborators. recorder may be nil.
func NewService(store StockStore, recorder RunRecorder, logger *logrus.Logger, opts Options, invalidators ...Invalidator) *Service {
	defaults := DefaultOptions()
	if opts.UpsertTimeout <= 0 {
		opts.UpsertTimeout = defaults.UpsertTimeout
	}
	if opts.General.Marker == "" {
		opts.General = defaults.General
	}
	if opts.Ready.Marker == "" {
		opts.Ready = defaults.Ready
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Service{
		store:        store,
		recorder:     recorder,
		invalidators: invalidators,
		opts:         opts,
		logger:       logger.WithField("component", "stock-importer"),
	}
}

// Extract runs both report sections over the grid without touching storage
func (s *Service) Extract(g grid.Grid) (general, ready []grid.StockEntry) {
	return grid.Extract(g, s.opts.General), grid.Extract(g, s.opts.Ready)
}

// Import extracts both sections and upserts them, general stock first.
//
// It returns ErrNoData when the grid holds no matching block, and a
// *PartialFailureError when at least one table could not be written. The
// result is returned in every case, with the progress log filled in.
func (s *Service) Import(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.New()
	entry := s.logger.WithFields(logrus.Fields{
		"runId":  runID.String(),
		"source": req.Source,
	})
	progress := newProgressLog(s.opts.Now, entry)

	result := &Result{
		RunID:     runID,
		Source:    req.Source,
		StartedAt: s.opts.Now(),
		General:   TableResult{View: models.StockViewGeneral, Table: models.StockViewGeneral.TableName()},
		Ready:     TableResult{View: models.StockViewReady, Table: models.StockViewReady.TableName()},
	}
	finish := func(status models.ImportStatus) {
		result.Status = status
		result.FinishedAt = s.opts.Now()
		result.Log = progress.Lines()
	}

	progress.Addf("Reading %s (%d rows)", req.Source, len(req.Grid))

	general, ready := s.Extract(req.Grid)
	result.General.Entries = general
	result.General.SKUCount = len(general)
	result.General.TotalQuantity = grid.TotalQuantity(general)
	progress.Addf("General stock (%s): %d SKUs, %d units", s.opts.General.Marker, len(general), result.General.TotalQuantity)

	result.Ready.Entries = ready
	result.Ready.SKUCount = len(ready)
	result.Ready.TotalQuantity = grid.TotalQuantity(ready)
	progress.Addf("Ready stock (%s): %d SKUs, %d units", s.opts.Ready.Marker, len(ready), result.Ready.TotalQuantity)

	if len(general) == 0 && len(ready) == 0 {
		progress.Addf("No stock data found, nothing was saved")
		finish(models.ImportStatusNoData)
		s.record(ctx, req, result)
		return result, ErrNoData
	}

	if req.DryRun {
		progress.Addf("Validation only, nothing was saved")
		finish(models.ImportStatusValidated)
		return result, nil
	}

	generalErr := s.upsert(ctx, &result.General, general, progress)
	readyErr := s.upsert(ctx, &result.Ready, ready, progress)

	if generalErr != nil || readyErr != nil {
		failure := &PartialFailureError{GeneralErr: generalErr, ReadyErr: readyErr}
		status := models.ImportStatusPartial
		if failure.AllFailed() {
			status = models.ImportStatusFailed
		}
		progress.Addf("Import finished with errors: %s", failure.Error())
		finish(status)
		s.record(ctx, req, result)
		return result, failure
	}

	s.invalidate(ctx, progress)
	progress.Addf("Import finished")
	finish(models.ImportStatusSuccess)
	s.record(ctx, req, result)
	return result, nil
}

func (s *Service) upsert(ctx context.Context, table *TableResult, entries []grid.StockEntry, progress *ProgressLog) error {
	upsertCtx, cancel := context.WithTimeout(ctx, s.opts.UpsertTimeout)
	defer cancel()

	progress.Addf("Saving %d SKUs into %s", len(entries), table.Table)
	n, err := s.store.UpsertStock(upsertCtx, table.View, entries)
	if err != nil {
		table.Error = err.Error()
		progress.Addf("Failed to save %s: %v", table.Table, err)
		return err
	}

	table.Persisted = true
	progress.Addf("Saved %d rows into %s", n, table.Table)
	return nil
}

func (s *Service) invalidate(ctx context.Context, progress *ProgressLog) {
	for _, inv := range s.invalidators {
		if err := inv.InvalidateStockCache(ctx); err != nil {
			s.logger.WithError(err).Warn("Stock cache invalidation failed")
		}
	}
	if len(s.invalidators) > 0 {
		progress.Addf("Stock cache invalidation sent")
	}
}

func (s *Service) record(ctx context.Context, req Request, result *Result) {
	if s.recorder == nil {
		return
	}

	run := &models.StockImportRun{
		ID:              result.RunID,
		SourceName:      req.Source,
		Operator:        req.Operator,
		Status:          result.Status,
		GeneralCount:    result.General.SKUCount,
		GeneralQuantity: result.General.TotalQuantity,
		GeneralError:    optionalString(result.General.Error),
		ReadyCount:      result.Ready.SKUCount,
		ReadyQuantity:   result.Ready.TotalQuantity,
		ReadyError:      optionalString(result.Ready.Error),
		Log:             models.StringList(result.Log),
		StartedAt:       result.StartedAt,
		FinishedAt:      result.FinishedAt,
	}

	// The history row is written even when the caller's context is done.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.recorder.CreateImportRun(recordCtx, run); err != nil {
		s.logger.WithError(err).WithField("runId", run.ID.String()).Error("Failed to record import run")
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
