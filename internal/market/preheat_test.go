package market

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	history map[string]Series
	failOn  string
}

func (s *stubSource) FetchHistory(_ context.Context, symbol, interval string, _ int) (Series, error) {
	key := symbol + "@" + interval
	if key == s.failOn {
		return Series{}, fmt.Errorf("stub: %s unavailable", key)
	}
	return s.history[key], nil
}

func (s *stubSource) Subscribe(context.Context, []string, []string, SubscribeOptions) (<-chan CandleEvent, error) {
	return nil, fmt.Errorf("stub: no streaming")
}

func (s *stubSource) FundingRate(context.Context, string) (float64, error) { return 0, nil }

func (s *stubSource) Positions(context.Context) ([]Position, error) { return nil, nil }

func (s *stubSource) Stats() SourceStats { return SourceStats{} }

func (s *stubSource) Close() error { return nil }

func TestPreheaterSeedsEveryStream(t *testing.T) {
	src := &stubSource{history: map[string]Series{
		"BTCUSDT@1m":  testSeries(t, 10, 11, 12),
		"ETHUSDT@15m": testSeries(t, 20, 21),
	}}
	keys := []StreamKey{
		{Symbol: "BTCUSDT", Interval: "1m"},
		{Symbol: "ETHUSDT", Interval: "15m"},
	}

	caches, err := NewPreheater(src, 50).Seed(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, caches, 2)
	assert.Equal(t, 3, caches[keys[0]].Len())
	assert.Equal(t, 2, caches[keys[1]].Len())
}

func TestPreheaterFailsWhenAnyFetchFails(t *testing.T) {
	src := &stubSource{
		history: map[string]Series{"BTCUSDT@1m": testSeries(t, 10)},
		failOn:  "ETHUSDT@1m",
	}
	keys := []StreamKey{
		{Symbol: "BTCUSDT", Interval: "1m"},
		{Symbol: "ETHUSDT", Interval: "1m"},
	}

	_, err := NewPreheater(src, 50).Seed(context.Background(), keys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ETHUSDT@1m")
}

func TestPositionSize(t *testing.T) {
	positions := []Position{
		{Symbol: "BTCUSDT", Amount: 0.5},
		{Symbol: "ETHUSDT", Amount: -2},
	}

	size, err := PositionSize(positions, "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, -2.0, size)

	_, err = PositionSize(positions, "SOLUSDT")
	assert.ErrorIs(t, err, ErrNoPosition)
}
