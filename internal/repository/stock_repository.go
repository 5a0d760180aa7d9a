package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock-service/internal/grid"
	"stock-service/internal/models"
)

// Cache TTL configurations
const (
	StockItemCacheTTL = 5 * time.Minute  // Replaced wholesale by each import
	StockL1CacheTTL   = 30 * time.Second // Bounds staleness on other replicas

	DefaultUpsertBatchSize = 500
)

var (
	// ErrStockNotFound is returned when a SKU has no row in the requested view
	ErrStockNotFound = errors.New("stock item not found")
	// ErrRedisNotConfigured is returned by RedisHealth when caching is disabled
	ErrRedisNotConfigured = errors.New("redis not configured")
)

type StockRepository struct {
	db        *gorm.DB
	redis     *redis.Client
	cache     *cache.CacheLayer
	batchSize int
	logger    *logrus.Entry
}

func NewStockRepository(db *gorm.DB, redisClient *redis.Client, batchSize int, logger *logrus.Logger) *StockRepository {
	if batchSize <= 0 {
		batchSize = DefaultUpsertBatchSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	repo := &StockRepository{
		db:        db,
		redis:     redisClient,
		batchSize: batchSize,
		logger:    logger.WithField("component", "stock-repository"),
	}

	// Initialize CacheLayer with the existing Redis client
	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      StockL1CacheTTL,
			DefaultTTL: StockItemCacheTTL,
			KeyPrefix:  "tesseract:stock:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

// Migrate creates or updates the stock tables and the import history table
func (r *StockRepository) Migrate() error {
	for _, view := range []models.StockView{models.StockViewGeneral, models.StockViewReady} {
		if err := r.db.Table(view.TableName()).AutoMigrate(&models.StockItem{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", view.TableName(), err)
		}
	}
	if err := r.db.AutoMigrate(&models.StockImportRun{}); err != nil {
		return fmt.Errorf("failed to migrate import runs: %w", err)
	}
	return nil
}

// cacheKey builds the cache key for one SKU of a view
func cacheKey(view models.StockView, sku string) string {
	return fmt.Sprintf("stock:%s:%s", view, sku)
}

// ========== Stock Operations ==========

// UpsertStock writes the entries into the view's table, keyed by SKU. An
// existing row takes the new quantity; quantities are never added across
// imports. Batches run in one transaction.
func (r *StockRepository) UpsertStock(ctx context.Context, view models.StockView, entries []grid.StockEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	now := time.Now()
	items := make([]models.StockItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.StockItem{
			SKU:        e.SKU,
			Quantidade: e.Quantidade,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantidade", "updated_at"}),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(view.TableName()).Clauses(upsert).CreateInBatches(&items, r.batchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert %s: %w", view.TableName(), err)
	}

	r.logger.WithFields(logrus.Fields{
		"table": view.TableName(),
		"rows":  len(items),
	}).Debug("Upserted stock rows")
	return len(items), nil
}

// ListStock retrieves stock rows of a view with pagination and an optional
// SKU prefix search
func (r *StockRepository) ListStock(ctx context.Context, view models.StockView, filter models.StockFilter) ([]models.StockItem, int64, error) {
	var items []models.StockItem
	var total int64

	if err := r.stockQuery(ctx, view, filter.Search).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.stockQuery(ctx, view, filter.Search)
	if filter.Page > 0 && filter.Limit > 0 {
		offset := (filter.Page - 1) * filter.Limit
		query = query.Offset(offset).Limit(filter.Limit)
	}

	err := query.Order("sku ASC").Find(&items).Error
	return items, total, err
}

func (r *StockRepository) stockQuery(ctx context.Context, view models.StockView, search string) *gorm.DB {
	query := r.db.WithContext(ctx).Table(view.TableName())
	if search != "" {
		query = query.Where("sku LIKE ?", search+"%")
	}
	return query
}

// GetStockBySKU retrieves one SKU, reading through the cache when Redis is
// configured
func (r *StockRepository) GetStockBySKU(ctx context.Context, view models.StockView, sku string) (*models.StockItem, error) {
	load := func() (*models.StockItem, error) {
		var item models.StockItem
		err := r.db.WithContext(ctx).Table(view.TableName()).Where("sku = ?", sku).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockNotFound
		}
		if err != nil {
			return nil, err
		}
		return &item, nil
	}

	if r.cache == nil {
		return load()
	}

	var item models.StockItem
	err := r.cache.GetOrSetJSON(ctx, cacheKey(view, sku), &item, StockItemCacheTTL, func() (any, error) {
		return load()
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InvalidateStockCache drops every cached stock lookup
func (r *StockRepository) InvalidateStockCache(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	if err := r.cache.DeletePattern(ctx, "stock:*"); err != nil {
		return fmt.Errorf("failed to invalidate stock cache: %w", err)
	}
	r.logger.Info("Stock cache invalidated")
	return nil
}

// RedisHealth returns the health status of the Redis connection
func (r *StockRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return ErrRedisNotConfigured
	}
	return r.redis.Ping(ctx).Err()
}

// CacheStats returns cache statistics
func (r *StockRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

// ========== Import History ==========

// CreateImportRun stores the outcome of an import
func (r *StockRepository) CreateImportRun(ctx context.Context, run *models.StockImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// ListImportRuns retrieves import history, newest first
func (r *StockRepository) ListImportRuns(ctx context.Context, page, limit int) ([]models.StockImportRun, int64, error) {
	var runs []models.StockImportRun
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.StockImportRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Model(&models.StockImportRun{})

	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}

	err := query.Order("started_at DESC").Find(&runs).Error
	return runs, total, err
}
