package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
  http_addr: ":8088"
binance:
  rest_base_url: https://fapi.binance.com
  http_timeout: 30s
watch:
  cache_size: 150
  symbols: [BTCUSDT, ETHUSDT]
  intervals: [1m, 15m]
rules:
  - name: trend-up
    kind: close_above_sma
    side: BUY
    window: 21
  - name: bounce
    kind: all_of
    side: BUY
    all_of:
      - kind: rsi_below
        window: 14
        threshold: 30
      - kind: macd_bullish
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":8088", cfg.App.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.Binance.HTTPTimeout)
	assert.Equal(t, 150, cfg.Watch.CacheSize)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Watch.Symbols)

	require.Len(t, cfg.Rules, 2)
	require.Len(t, cfg.Rules[1].AllOf, 2)
	assert.Equal(t, "rsi_below", cfg.Rules[1].AllOf[0].Kind)
	assert.Equal(t, 30.0, cfg.Rules[1].AllOf[0].Threshold)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
watch:
  symbols: [BTCUSDT]
rules:
  - name: trend-up
    kind: close_above_sma
    side: BUY
    window: 21
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9980", cfg.App.HTTPAddr)
	assert.Equal(t, 200, cfg.Watch.CacheSize)
	assert.Equal(t, []string{"1m"}, cfg.Watch.Intervals)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no symbols", `
watch:
  symbols: []
rules:
  - name: r
    kind: macd_bullish
    side: BUY
`},
		{"no rules", `
watch:
  symbols: [BTCUSDT]
rules: []
`},
		{"unnamed rule", `
watch:
  symbols: [BTCUSDT]
rules:
  - kind: macd_bullish
    side: BUY
`},
		{"duplicate rule names", `
watch:
  symbols: [BTCUSDT]
rules:
  - name: r
    kind: macd_bullish
    side: BUY
  - name: r
    kind: macd_bullish
    side: SELL
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
