package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock-service/internal/models"
	"stock-service/internal/repository"
)

// StockReader is the read side of the stock repository
type StockReader interface {
	ListStock(ctx context.Context, view models.StockView, filter models.StockFilter) ([]models.StockItem, int64, error)
	GetStockBySKU(ctx context.Context, view models.StockView, sku string) (*models.StockItem, error)
}

type StockHandler struct {
	repo            StockReader
	defaultPageSize int
	maxPageSize     int
}

func NewStockHandler(repo StockReader, defaultPageSize, maxPageSize int) *StockHandler {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &StockHandler{
		repo:            repo,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// ListStock retrieves the rows of one stock table with pagination
// GET /api/v1/stock/:view
func (h *StockHandler) ListStock(c *gin.Context) {
	view, ok := bindView(c)
	if !ok {
		return
	}

	page, limit := paginationParams(c, h.defaultPageSize, h.maxPageSize)
	filter := models.StockFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	items, total, err := h.repo.ListStock(c.Request.Context(), view, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve stock",
			},
		})
		return
	}
	if items == nil {
		items = []models.StockItem{}
	}

	c.JSON(http.StatusOK, models.StockListResponse{
		Success:    true,
		View:       view,
		Data:       items,
		Pagination: models.NewPaginationMeta(page, limit, total),
	})
}

// GetStock retrieves one SKU of a stock table
// GET /api/v1/stock/:view/:sku
func (h *StockHandler) GetStock(c *gin.Context) {
	view, ok := bindView(c)
	if !ok {
		return
	}

	item, err := h.repo.GetStockBySKU(c.Request.Context(), view, c.Param("sku"))
	if errors.Is(err, repository.ErrStockNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "SKU not found in " + view.TableName(),
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve stock item",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.StockItemResponse{
		Success: true,
		Data:    item,
	})
}

func bindView(c *gin.Context) (models.StockView, bool) {
	view, err := models.ParseStockView(c.Param("view"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_VIEW",
				Message: err.Error(),
			},
		})
		return "", false
	}
	return view, true
}

// paginationParams reads page and limit, falling back to page 1 and the
// default size. limit is capped at max.
func paginationParams(c *gin.Context, defaultLimit, max int) (int, int) {
	page := 1
	limit := defaultLimit

	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
