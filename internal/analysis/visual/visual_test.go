package visual

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctos/internal/indicator"
	"ctos/internal/market"
)

func chartSeries(t *testing.T, n int) market.Series {
	t.Helper()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, n)
	for i := range candles {
		closeTime := base.Add(time.Duration(i) * time.Minute)
		price := 100 + float64(i%7)
		candles[i] = market.Candle{
			OpenTime:  closeTime.Add(-59 * time.Second),
			CloseTime: closeTime,
			Open:      price - 0.5,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    1000,
		}
	}
	s, err := market.NewSeries(candles)
	require.NoError(t, err)
	return s
}

func TestRenderIncludesOverlays(t *testing.T) {
	batch := indicator.NewBatch(
		indicator.SimpleMovingAverage{Column: market.ColClose, Window: 5},
		indicator.ExponentialMovingAverage{Column: market.ColClose, Window: 9},
	)
	frame, err := batch.Enrich(chartSeries(t, 30))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "btcusdt", "1m", frame))

	html := buf.String()
	assert.Contains(t, html, "BTCUSDT 1m")
	assert.Contains(t, html, "SMA_Close_5")
	assert.Contains(t, html, "EMA_Close_9")
	assert.Contains(t, html, "Volume")
}

func TestRenderEmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, "BTCUSDT", "1m", market.NewIndicative(market.Series{}))
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, "btcusdt_1m_20240601T123045.html", Filename("BTC/USDT", "1m", at))
}
