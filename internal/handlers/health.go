package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"

	"stock-service/internal/repository"
)

// CacheChecker reports the state of the stock cache
type CacheChecker interface {
	RedisHealth(ctx context.Context) error
	CacheStats() *cache.CacheStats
}

// ConnectionChecker reports whether a broker connection is up
type ConnectionChecker interface {
	IsConnected() bool
}

// HealthCheck returns service health status (basic)
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "stock-service",
	})
}

type HealthHandler struct {
	cache CacheChecker
	nats  ConnectionChecker
}

// NewHealthHandler builds the extended health check. nats may be nil when
// event publishing is disabled.
func NewHealthHandler(cache CacheChecker, nats ConnectionChecker) *HealthHandler {
	return &HealthHandler{cache: cache, nats: nats}
}

// ExtendedHealthCheck returns detailed health status including Redis and NATS
func (h *HealthHandler) ExtendedHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	health := gin.H{
		"status":  "healthy",
		"service": "stock-service",
		"checks":  gin.H{},
	}

	checks := health["checks"].(gin.H)

	// Check Redis
	switch err := h.cache.RedisHealth(ctx); {
	case errors.Is(err, repository.ErrRedisNotConfigured):
		checks["redis"] = gin.H{"status": "disabled"}
	case err != nil:
		checks["redis"] = gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	default:
		checks["redis"] = gin.H{"status": "healthy"}
	}

	// Add cache stats if available
	if stats := h.cache.CacheStats(); stats != nil {
		checks["cache_stats"] = gin.H{
			"l1_hits":   stats.L1Hits,
			"l1_misses": stats.L1Misses,
			"l2_hits":   stats.L2Hits,
			"l2_misses": stats.L2Misses,
		}
	}

	// Check NATS
	switch {
	case h.nats == nil:
		checks["nats"] = gin.H{"status": "disabled"}
	case h.nats.IsConnected():
		checks["nats"] = gin.H{"status": "healthy"}
	default:
		checks["nats"] = gin.H{"status": "unhealthy"}
	}

	// Determine overall health
	for _, check := range checks {
		if checkMap, ok := check.(gin.H); ok {
			if status, ok := checkMap["status"]; ok && status == "unhealthy" {
				health["status"] = "degraded"
				break
			}
		}
	}

	c.JSON(http.StatusOK, health)
}
