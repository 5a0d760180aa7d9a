package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-service/internal/grid"
)

func reportConfig() *Config {
	return &Config{
		BlockSize:     grid.DefaultBlockSize,
		GeneralMarker: grid.GeneralStockMarker,
		GeneralOffset: grid.GeneralStockOffset,
		ReadyMarker:   grid.ReadyStockMarker,
		ReadyOffset:   grid.ReadyStockOffset,
	}
}

func TestLayouts_Defaults(t *testing.T) {
	general, ready, err := reportConfig().Layouts()
	require.NoError(t, err)

	assert.Equal(t, grid.GeneralStock, general)
	assert.Equal(t, grid.ReadyStock, ready)
}

func TestLayouts_Overrides(t *testing.T) {
	cfg := reportConfig()
	cfg.BlockSize = 12
	cfg.ReadyMarker = "[C] Pronta"
	cfg.ReadyOffset = 6

	general, ready, err := cfg.Layouts()
	require.NoError(t, err)

	assert.Equal(t, 12, general.BlockSize)
	assert.Equal(t, grid.GeneralStockOffset, general.QuantityRowOffset)
	assert.Equal(t, "[C] Pronta", ready.Marker)
	assert.Equal(t, 6, ready.QuantityRowOffset)
	assert.Equal(t, 12, ready.BlockSize)
	assert.Equal(t, grid.ViewReady, ready.Name)
}

func TestLayouts_Invalid(t *testing.T) {
	cfg := reportConfig()
	cfg.GeneralOffset = 0

	_, _, err := cfg.Layouts()
	assert.ErrorContains(t, err, "invalid general stock layout")
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("STOCK_TEST_INT", "42")
	assert.Equal(t, 42, getEnvInt("STOCK_TEST_INT", 7))

	t.Setenv("STOCK_TEST_INT", "many")
	assert.Equal(t, 7, getEnvInt("STOCK_TEST_INT", 7))
	assert.Equal(t, 7, getEnvInt("STOCK_TEST_UNSET", 7))
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 30 * time.Second},
		{"45s", 45 * time.Second},
		{"2m", 2 * time.Minute},
		{"90", 90 * time.Second},
		{"soon", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("STOCK_TEST_TIMEOUT", tt.value)
			assert.Equal(t, tt.want, getEnvDuration("STOCK_TEST_TIMEOUT", 30*time.Second))
		})
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := &Config{MaxUploadMB: 2}
	assert.Equal(t, int64(2*1024*1024), cfg.MaxUploadBytes())
}

func TestInitRedis_Disabled(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	assert.Nil(t, InitRedis(&Config{}, log))
	assert.Nil(t, InitRedis(&Config{RedisURL: "not a url"}, log))
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, NewLogger("production").GetLevel())
	assert.Equal(t, logrus.DebugLevel, NewLogger("development").GetLevel())
}
