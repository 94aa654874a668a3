package watcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctos/internal/market"
	"ctos/internal/predicate"
	"ctos/internal/signal"
)

type fakeSource struct {
	history map[market.StreamKey]market.Series
	events  chan market.CandleEvent
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		history: make(map[market.StreamKey]market.Series),
		events:  make(chan market.CandleEvent, 16),
	}
}

func (s *fakeSource) FetchHistory(_ context.Context, symbol, interval string, _ int) (market.Series, error) {
	return s.history[market.StreamKey{Symbol: symbol, Interval: interval}], nil
}

func (s *fakeSource) Subscribe(context.Context, []string, []string, market.SubscribeOptions) (<-chan market.CandleEvent, error) {
	return s.events, nil
}

func (s *fakeSource) FundingRate(context.Context, string) (float64, error) { return 0, nil }

func (s *fakeSource) Positions(context.Context) ([]market.Position, error) { return nil, nil }

func (s *fakeSource) Stats() market.SourceStats { return market.SourceStats{} }

func (s *fakeSource) Close() error { return nil }

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *recordingNotifier) SendText(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.texts))
	copy(out, n.texts)
	return out
}

func bar(i int, close float64) market.Candle {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	closeTime := base.Add(time.Duration(i) * time.Minute)
	return market.Candle{
		OpenTime:  closeTime.Add(-59 * time.Second),
		CloseTime: closeTime,
		Open:      close - 0.5,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    100,
	}
}

func historyOf(t *testing.T, closes ...float64) market.Series {
	t.Helper()
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = bar(i, c)
	}
	s, err := market.NewSeries(candles)
	require.NoError(t, err)
	return s
}

func waitForEmitted(t *testing.T, w *Watcher, want int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return w.Status().SignalsEmitted == want
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWatcherEmitsOnRisingEdgeOnly(t *testing.T) {
	key := market.StreamKey{Symbol: "BTCUSDT", Interval: "1m"}
	src := newFakeSource()
	src.history[key] = historyOf(t, 10, 11, 12)
	notifier := &recordingNotifier{}

	rules := []Rule{{Name: "trend-up", Side: signal.Buy, Predicate: predicate.CloseAboveSMA(3)}}
	w := New(src, notifier, rules)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, []market.StreamKey{key}, 20) }()

	event := func(i int, close float64) market.CandleEvent {
		return market.CandleEvent{Symbol: key.Symbol, Interval: key.Interval, Candle: bar(i, close)}
	}

	// Rising edge: close above the SMA fires once.
	src.events <- event(3, 13)
	waitForEmitted(t, w, 1)

	// Still holding: no second signal.
	src.events <- event(4, 14)
	require.Eventually(t, func() bool { return w.Status().Evaluations == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), w.Status().SignalsEmitted)

	// Dropping below resets the edge; the next cross fires again.
	src.events <- event(5, 5)
	src.events <- event(6, 30)
	waitForEmitted(t, w, 2)

	sent := notifier.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0], "BUY BTCUSDT")
	assert.Contains(t, sent[0], "13 USDT")
	assert.Contains(t, sent[1], "30 USDT")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherRejectsStaleAndUnwatchedEvents(t *testing.T) {
	key := market.StreamKey{Symbol: "BTCUSDT", Interval: "1m"}
	src := newFakeSource()
	src.history[key] = historyOf(t, 10, 11, 12)
	notifier := &recordingNotifier{}

	rules := []Rule{{Name: "trend-up", Side: signal.Buy, Predicate: predicate.CloseAboveSMA(3)}}
	w := New(src, notifier, rules)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, []market.StreamKey{key}, 20)

	// A bar that does not advance the cache is dropped without evaluation.
	src.events <- market.CandleEvent{Symbol: key.Symbol, Interval: key.Interval, Candle: bar(2, 99)}
	// An unwatched stream is ignored entirely.
	src.events <- market.CandleEvent{Symbol: "DOGEUSDT", Interval: "1m", Candle: bar(3, 1)}
	// A valid bar still lands afterwards.
	src.events <- market.CandleEvent{Symbol: key.Symbol, Interval: key.Interval, Candle: bar(3, 13)}
	waitForEmitted(t, w, 1)

	st := w.Status()
	assert.Equal(t, int64(1), st.Evaluations)
	require.Len(t, st.Streams, 1)
	assert.Equal(t, 13.0, st.Streams[0].LastClose)
	assert.Equal(t, 4, st.Streams[0].CacheLen)
}

func TestWatcherViewPublishesStableSnapshots(t *testing.T) {
	key := market.StreamKey{Symbol: "BTCUSDT", Interval: "1m"}
	src := newFakeSource()
	src.history[key] = historyOf(t, 10, 11, 12)

	rules := []Rule{{Name: "trend-up", Side: signal.Buy, Predicate: predicate.CloseAboveSMA(3)}}
	w := New(src, &recordingNotifier{}, rules)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, []market.StreamKey{key}, 20)

	require.Eventually(t, func() bool {
		view, ok := w.View(key)
		return ok && view.Len() == 3
	}, 2*time.Second, 5*time.Millisecond)

	before, ok := w.View(key)
	require.True(t, ok)

	src.events <- market.CandleEvent{Symbol: key.Symbol, Interval: key.Interval, Candle: bar(3, 13)}
	require.Eventually(t, func() bool {
		view, ok := w.View(key)
		return ok && view.Len() == 4
	}, 2*time.Second, 5*time.Millisecond)

	// The earlier snapshot is unaffected by the push.
	assert.Equal(t, 3, before.Len())
	last, ok := before.Last()
	require.True(t, ok)
	assert.Equal(t, 12.0, last.Close)

	_, ok = w.View(market.StreamKey{Symbol: "DOGEUSDT", Interval: "1m"})
	assert.False(t, ok)
}

func TestWatcherReloadSwapsRulesAndStreams(t *testing.T) {
	btc := market.StreamKey{Symbol: "BTCUSDT", Interval: "1m"}
	eth := market.StreamKey{Symbol: "ETHUSDT", Interval: "1m"}
	src := newFakeSource()
	src.history[btc] = historyOf(t, 10, 11, 12)
	src.history[eth] = historyOf(t, 20, 21, 22)
	notifier := &recordingNotifier{}

	w := New(src, notifier, []Rule{{Name: "trend-up", Side: signal.Buy, Predicate: predicate.CloseAboveSMA(3)}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, []market.StreamKey{btc}, 20)

	src.events <- market.CandleEvent{Symbol: btc.Symbol, Interval: btc.Interval, Candle: bar(3, 13)}
	waitForEmitted(t, w, 1)

	require.NoError(t, w.Reload(
		[]Rule{{Name: "eth-up", Side: signal.Buy, Predicate: predicate.CloseAboveSMA(3)}},
		[]market.StreamKey{eth}, 20))

	// The loop reseeds onto the fresh watch list.
	require.Eventually(t, func() bool {
		st := w.Status()
		return len(st.Streams) == 1 && st.Streams[0].Symbol == "ETHUSDT"
	}, 2*time.Second, 5*time.Millisecond)

	_, ok := w.View(btc)
	assert.False(t, ok)
	_, ok = w.View(eth)
	assert.True(t, ok)
	assert.Contains(t, w.WatchedBatch().Key(), "SMA(Close,3)")

	// The dropped stream is ignored; the fresh one evaluates and fires.
	src.events <- market.CandleEvent{Symbol: btc.Symbol, Interval: btc.Interval, Candle: bar(4, 99)}
	src.events <- market.CandleEvent{Symbol: eth.Symbol, Interval: eth.Interval, Candle: bar(3, 30)}
	waitForEmitted(t, w, 2)

	sent := notifier.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1], "BUY ETHUSDT")
}

func TestWatcherReloadRejectsEmptyConfig(t *testing.T) {
	w := New(newFakeSource(), &recordingNotifier{}, nil)

	err := w.Reload(nil, []market.StreamKey{{Symbol: "BTCUSDT", Interval: "1m"}}, 20)
	assert.Error(t, err)

	err = w.Reload([]Rule{{Name: "r", Side: signal.Buy, Predicate: predicate.Always()}}, nil, 20)
	assert.Error(t, err)
}

func TestWatcherRunRequiresStreamsAndRules(t *testing.T) {
	src := newFakeSource()
	w := New(src, &recordingNotifier{}, []Rule{{Name: "r", Side: signal.Buy, Predicate: predicate.Always()}})
	assert.Error(t, w.Run(context.Background(), nil, 20))

	w = New(src, &recordingNotifier{}, nil)
	assert.Error(t, w.Run(context.Background(), []market.StreamKey{{Symbol: "BTCUSDT", Interval: "1m"}}, 20))
}
