package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stock-service/internal/grid"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port        string
	Environment string
	MaxUploadMB int

	// Redis
	RedisURL string

	// NATS
	NATSURL string

	// Import
	UpsertTimeout time.Duration
	BatchSize     int

	// Report layout
	BlockSize     int
	GeneralMarker string
	GeneralOffset int
	ReadyMarker   string
	ReadyOffset   int

	// Pagination
	DefaultPageSize int
	MaxPageSize     int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "stock_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Server
		Port:        getEnv("PORT", "8088"),
		Environment: getEnv("ENVIRONMENT", "development"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 20),

		RedisURL: getEnv("REDIS_URL", ""),
		NATSURL:  getEnv("NATS_URL", ""),

		// Import
		UpsertTimeout: getEnvDuration("IMPORT_UPSERT_TIMEOUT", 30*time.Second),
		BatchSize:     getEnvInt("IMPORT_BATCH_SIZE", 500),

		// Report layout
		BlockSize:     getEnvInt("STOCK_BLOCK_SIZE", grid.DefaultBlockSize),
		GeneralMarker: getEnv("STOCK_GENERAL_MARKER", grid.GeneralStockMarker),
		GeneralOffset: getEnvInt("STOCK_GENERAL_OFFSET", grid.GeneralStockOffset),
		ReadyMarker:   getEnv("STOCK_READY_MARKER", grid.ReadyStockMarker),
		ReadyOffset:   getEnvInt("STOCK_READY_OFFSET", grid.ReadyStockOffset),

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}
}

// Layouts builds the general and ready stock layouts from the report settings
func (c *Config) Layouts() (general, ready grid.Layout, err error) {
	general = grid.GeneralStock
	general.Marker = c.GeneralMarker
	general.QuantityRowOffset = c.GeneralOffset
	general.BlockSize = c.BlockSize

	ready = grid.ReadyStock
	ready.Marker = c.ReadyMarker
	ready.QuantityRowOffset = c.ReadyOffset
	ready.BlockSize = c.BlockSize

	if err := general.Validate(); err != nil {
		return general, ready, fmt.Errorf("invalid general stock layout: %w", err)
	}
	if err := ready.Validate(); err != nil {
		return general, ready, fmt.Errorf("invalid ready stock layout: %w", err)
	}
	return general, ready, nil
}

// MaxUploadBytes is the multipart size limit for imports
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// InitRedis connects to Redis when REDIS_URL is set. A nil client means
// caching is disabled; the service keeps working without it.
func InitRedis(cfg *Config, log *logrus.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not configured, caching disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Failed to parse Redis URL, continuing without Redis caching")
		return nil
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, continuing without Redis caching")
		_ = client.Close()
		return nil
	}

	log.Info("Connected to Redis for caching")
	return client
}

// NewLogger returns the JSON logger used across the service
func NewLogger(environment string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if environment == "production" {
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
