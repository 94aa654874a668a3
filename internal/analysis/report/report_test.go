package report

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctos/internal/market"
)

func trendingSeries(t *testing.T, n int) market.Series {
	t.Helper()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, n)
	for i := range candles {
		closeTime := base.Add(time.Duration(i) * time.Minute)
		price := 100 + float64(i)
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

func TestComputeOverview(t *testing.T) {
	s := trendingSeries(t, 80)

	rep, err := Compute(s, Settings{Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", rep.Symbol)
	assert.Equal(t, 80, rep.Count)
	for _, name := range []string{"ema_fast", "ema_slow", "rsi", "macd", "stoch_k", "williams_r", "atr", "obv"} {
		v, ok := rep.Values[name]
		require.True(t, ok, "missing %s", name)
		assert.False(t, math.IsNaN(v.Latest), "%s is NaN", name)
	}

	// A monotonic uptrend reads overbought and bullish.
	assert.Equal(t, "overbought", rep.Values["rsi"].State)
	assert.Equal(t, "bullish", rep.Values["macd"].State)
	assert.Equal(t, "above", rep.Values["ema_slow"].State)
}

func TestComputeEmptySeries(t *testing.T) {
	_, err := Compute(market.Series{}, Settings{Symbol: "BTCUSDT", Interval: "1m"})
	assert.Error(t, err)
}

func TestRelativeState(t *testing.T) {
	assert.Equal(t, "above", relativeState(101, 100))
	assert.Equal(t, "below", relativeState(99, 100))
	assert.Equal(t, "touch", relativeState(100.1, 100))
	assert.Equal(t, "unknown", relativeState(100, 0))
}

func TestStochasticState(t *testing.T) {
	assert.Equal(t, "overbought", stochasticState(85))
	assert.Equal(t, "oversold", stochasticState(10))
	assert.Equal(t, "neutral", stochasticState(50))
}
