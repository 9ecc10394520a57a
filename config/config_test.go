package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetYaml_FullConfig(t *testing.T) {
	path := writeConfig(t, `
platform: bybit
pairs:
  - BTC_USDT
  - ETH_USDT
ticker_flux_interval: 250ms
position_flux_interval: 2s
stop_gain_percent: "15"
stop_loss_percent: "7"
amount: "0.01"
dashboard_addr: ":8080"
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)

	assert.Equal(t, "bybit", cfg.Platform)
	assert.Equal(t, []domain.Pair{{From: "BTC", To: "USDT"}, {From: "ETH", To: "USDT"}}, cfg.Pairs)
	assert.Equal(t, 250*time.Millisecond, cfg.TickerFluxInterval)
	assert.Equal(t, 2*time.Second, cfg.PositionFluxInterval)
	assert.True(t, cfg.StopGainPercent.Equal(decimal.NewFromInt(15)))
	assert.True(t, cfg.StopLossPercent.Equal(decimal.NewFromInt(7)))
	assert.True(t, cfg.Amount.Equal(decimal.NewFromFloat(0.01)))
	assert.Equal(t, ":8080", cfg.DashboardAddr)
}

func TestGetYaml_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
platform: binance
pairs:
  - BTC_USDT
`)

	cfg, err := getYaml(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultFluxInterval, cfg.AccountFluxInterval)
	assert.Equal(t, DefaultFluxInterval, cfg.TickerFluxInterval)
	assert.Equal(t, DefaultFluxInterval, cfg.OrderFluxInterval)
	assert.Equal(t, DefaultFluxInterval, cfg.TradeFluxInterval)
	assert.Equal(t, DefaultPositionFluxInterval, cfg.PositionFluxInterval)
	assert.Equal(t, DefaultInitialDelay, cfg.InitialDelay)
	assert.True(t, cfg.Amount.GreaterThan(decimal.Zero))
}

func TestGetYaml_UnsupportedPlatform(t *testing.T) {
	path := writeConfig(t, `
platform: kraken
pairs:
  - BTC_USDT
`)

	_, err := getYaml(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform")
}

func TestGetYaml_NoPairs(t *testing.T) {
	path := writeConfig(t, `
platform: binance
pairs: []
`)

	_, err := getYaml(path)
	assert.Error(t, err)
}

func TestGetYaml_BadPairFormat(t *testing.T) {
	path := writeConfig(t, `
platform: binance
pairs:
  - BTCUSDT
`)

	_, err := getYaml(path)
	assert.Error(t, err)
}
