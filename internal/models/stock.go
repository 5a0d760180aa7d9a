package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringList is a []string persisted as JSON
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported StringList source %T", value)
	}
	return json.Unmarshal(raw, s)
}

// StockView identifies one of the two stock tables fed by the report
type StockView string

const (
	StockViewGeneral StockView = "general"
	StockViewReady   StockView = "ready"
)

// ParseStockView validates a view name coming from a URL or flag
func ParseStockView(s string) (StockView, error) {
	switch StockView(s) {
	case StockViewGeneral, StockViewReady:
		return StockView(s), nil
	}
	return "", fmt.Errorf("unknown stock view %q (expected %q or %q)", s, StockViewGeneral, StockViewReady)
}

// TableName returns the table backing the view
func (v StockView) TableName() string {
	if v == StockViewReady {
		return "estoque_pronta"
	}
	return "estoque_geral"
}

// StockItem is one child SKU and its on-hand quantity. The same shape backs
// estoque_geral and estoque_pronta.
type StockItem struct {
	SKU        string    `json:"sku" gorm:"type:varchar(64);primaryKey"`
	Quantidade int       `json:"quantidade" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ImportStatus is the outcome of one import run
type ImportStatus string

const (
	ImportStatusSuccess   ImportStatus = "SUCCESS"
	ImportStatusPartial   ImportStatus = "PARTIAL"
	ImportStatusFailed    ImportStatus = "FAILED"
	ImportStatusNoData    ImportStatus = "NO_DATA"
	ImportStatusValidated ImportStatus = "VALIDATED"
)

// StockImportRun records one spreadsheet import and its progress log
type StockImportRun struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	SourceName string       `json:"sourceName" gorm:"type:varchar(255);not null"`
	Operator   string       `json:"operator" gorm:"type:varchar(255);index"`
	Status     ImportStatus `json:"status" gorm:"type:varchar(20);not null;index"`

	GeneralCount    int     `json:"generalCount" gorm:"default:0"`
	GeneralQuantity int     `json:"generalQuantity" gorm:"default:0"`
	GeneralError    *string `json:"generalError,omitempty" gorm:"type:text"`
	ReadyCount      int     `json:"readyCount" gorm:"default:0"`
	ReadyQuantity   int     `json:"readyQuantity" gorm:"default:0"`
	ReadyError      *string `json:"readyError,omitempty" gorm:"type:text"`

	Log StringList `json:"log" gorm:"type:text"`

	StartedAt  time.Time `json:"startedAt" gorm:"index"`
	FinishedAt time.Time `json:"finishedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (StockImportRun) TableName() string {
	return "stock_import_runs"
}

// BeforeCreate assigns an ID when the caller did not
func (r *StockImportRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// StockFilter narrows a stock listing
type StockFilter struct {
	Search string
	Page   int
	Limit  int
}

// ========== API envelopes ==========

type StockItemResponse struct {
	Success bool       `json:"success"`
	Data    *StockItem `json:"data,omitempty"`
}

type StockListResponse struct {
	Success    bool            `json:"success"`
	View       StockView       `json:"view"`
	Data       []StockItem     `json:"data"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

type ImportRunListResponse struct {
	Success    bool             `json:"success"`
	Data       []StockImportRun `json:"data"`
	Pagination *PaginationMeta  `json:"pagination,omitempty"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaginationMeta represents pagination metadata
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginationMeta computes page counts for a listing
func NewPaginationMeta(page, limit int, total int64) *PaginationMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PaginationMeta{
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
