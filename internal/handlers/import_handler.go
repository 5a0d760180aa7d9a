package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stock-service/internal/grid"
	"stock-service/internal/importer"
	"stock-service/internal/models"
	"stock-service/internal/spreadsheet"
)

// StockImporter runs one import over an already parsed grid
type StockImporter interface {
	Import(ctx context.Context, req importer.Request) (*importer.Result, error)
}

// ImportRunLister reads the import history
type ImportRunLister interface {
	ListImportRuns(ctx context.Context, page, limit int) ([]models.StockImportRun, int64, error)
}

// ImportResponse wraps an import result. Error is set for every outcome
// other than a full success.
type ImportResponse struct {
	Success bool             `json:"success"`
	Data    *importer.Result `json:"data,omitempty"`
	Error   *models.Error    `json:"error,omitempty"`
}

type ImportHandler struct {
	importer        StockImporter
	runs            ImportRunLister
	general         grid.Layout
	ready           grid.Layout
	maxUploadBytes  int64
	defaultPageSize int
	maxPageSize     int
	logger          *logrus.Entry
}

// ImportHandlerConfig holds the limits and report layout used by ImportHandler
type ImportHandlerConfig struct {
	General         grid.Layout
	Ready           grid.Layout
	MaxUploadBytes  int64
	DefaultPageSize int
	MaxPageSize     int
}

func NewImportHandler(imp StockImporter, runs ImportRunLister, cfg ImportHandlerConfig, logger *logrus.Logger) *ImportHandler {
	if cfg.General.Marker == "" {
		cfg.General = grid.GeneralStock
	}
	if cfg.Ready.Marker == "" {
		cfg.Ready = grid.ReadyStock
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ImportHandler{
		importer:        imp,
		runs:            runs,
		general:         cfg.General,
		ready:           cfg.Ready,
		maxUploadBytes:  cfg.MaxUploadBytes,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		logger:          logger.WithField("component", "import-handler"),
	}
}

// ImportStock imports the stock report spreadsheet into both stock tables
// POST /api/v1/stock/import
func (h *ImportHandler) ImportStock(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Success: false,
				Error:   models.Error{Code: "FILE_TOO_LARGE", Message: fmt.Sprintf("File exceeds the %d byte limit", h.maxUploadBytes)},
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FILE_REQUIRED", Message: "Please upload an XLS, XLSX or CSV file"},
		})
		return
	}
	defer file.Close()

	validateOnly := c.DefaultPostForm("validateOnly", "false") == "true"

	g, parseErr := spreadsheet.Read(file, header.Filename)
	if parseErr != nil {
		code := "PARSE_ERROR"
		if errors.Is(parseErr, spreadsheet.ErrUnsupportedFormat) {
			code = "UNSUPPORTED_FORMAT"
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: code, Message: parseErr.Error()},
		})
		return
	}

	result, err := h.importer.Import(c.Request.Context(), importer.Request{
		Grid:     g,
		Source:   header.Filename,
		Operator: c.GetString("operator"),
		DryRun:   validateOnly,
	})

	status, apiErr := importStatus(err)
	if apiErr != nil {
		h.logger.WithError(err).WithField("source", header.Filename).Warn("Stock import did not complete")
	}

	c.JSON(status, ImportResponse{
		Success: apiErr == nil,
		Data:    result,
		Error:   apiErr,
	})
}

// importStatus maps an import error to the HTTP status and error body
func importStatus(err error) (int, *models.Error) {
	if err == nil {
		return http.StatusOK, nil
	}

	if errors.Is(err, importer.ErrNoData) {
		return http.StatusUnprocessableEntity, &models.Error{Code: "NO_DATA", Message: err.Error()}
	}

	var partial *importer.PartialFailureError
	if errors.As(err, &partial) {
		if partial.AllFailed() {
			return http.StatusBadGateway, &models.Error{Code: "IMPORT_FAILED", Message: err.Error()}
		}
		return http.StatusMultiStatus, &models.Error{Code: "PARTIAL_IMPORT", Message: err.Error()}
	}

	return http.StatusInternalServerError, &models.Error{Code: "IMPORT_FAILED", Message: err.Error()}
}

// ListImportRuns retrieves the import history, newest first
// GET /api/v1/stock/imports
func (h *ImportHandler) ListImportRuns(c *gin.Context) {
	page, limit := paginationParams(c, h.defaultPageSize, h.maxPageSize)

	runs, total, err := h.runs.ListImportRuns(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve import history",
			},
		})
		return
	}
	if runs == nil {
		runs = []models.StockImportRun{}
	}

	c.JSON(http.StatusOK, models.ImportRunListResponse{
		Success:    true,
		Data:       runs,
		Pagination: models.NewPaginationMeta(page, limit, total),
	})
}

// GetImportTemplate returns a sample report with one product block laid out
// the way the importer expects it
// GET /api/v1/stock/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	f, err := spreadsheet.NewReportTemplate(h.general, h.ready)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "TEMPLATE_FAILED", Message: err.Error()},
		})
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=stock_import_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write import template")
	}
}
