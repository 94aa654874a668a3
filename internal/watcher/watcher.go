// Package watcher runs the live evaluation loop: it seeds one candle cache
// per stream, consumes closed bars from the market source, and evaluates the
// configured predicate rules over each cache snapshot, emitting signals on
// rising edges.
package watcher

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ctos/internal/indicator"
	"ctos/internal/logger"
	"ctos/internal/market"
	"ctos/internal/predicate"
	"ctos/internal/signal"
)

// Notifier is the outbound alert hook; the watcher never talks to an
// exchange itself.
type Notifier interface {
	SendText(text string) error
}

// Rule names one predicate and the signal side to emit when it starts
// holding.
type Rule struct {
	Name      string
	Side      signal.Side
	Predicate predicate.Predicate
}

const lastSignalsKept = 50

// Watcher owns the caches and rule state for a set of streams. Candle events
// are consumed by a single goroutine, so each cache has exactly one producer;
// readers (the status API) only see snapshots taken under the status lock.
type Watcher struct {
	source   market.Source
	notifier Notifier
	caches   map[market.StreamKey]*market.CandleCache
	reload   chan runConfig

	mu          sync.Mutex
	rules       []Rule
	fired       map[string]bool
	evaluations int64
	emitted     int64
	lastSignals []signal.Signal
	streams     map[market.StreamKey]StreamStatus
	views       map[market.StreamKey]market.Series
}

// runConfig is one generation of the watch list; Run swaps to a new one when
// Reload delivers it.
type runConfig struct {
	rules     []Rule
	keys      []market.StreamKey
	cacheSize int
}

func New(source market.Source, n Notifier, rules []Rule) *Watcher {
	return &Watcher{
		source:   source,
		notifier: n,
		rules:    rules,
		caches:   make(map[market.StreamKey]*market.CandleCache),
		reload:   make(chan runConfig, 1),
		fired:    make(map[string]bool),
		streams:  make(map[market.StreamKey]StreamStatus),
		views:    make(map[market.StreamKey]market.Series),
	}
}

// Run preheats every stream, subscribes, and processes events until the
// context ends or the stream channel closes. Each event is handled to
// completion before the next one. A Reload tears the subscription down and
// starts over with the fresh rules and watch list.
func (w *Watcher) Run(ctx context.Context, keys []market.StreamKey, cacheSize int) error {
	w.mu.Lock()
	cfg := runConfig{rules: w.rules, keys: keys, cacheSize: cacheSize}
	w.mu.Unlock()
	for {
		next, err := w.runOnce(ctx, cfg)
		if err != nil {
			return err
		}
		logger.Infof("[watcher] applying reloaded config, %d streams, %d rules", len(next.keys), len(next.rules))
		cfg = next
	}
}

// Reload swaps the rule set and watch list. The running loop re-seeds and
// re-subscribes; until then events keep flowing through the old generation.
// Bursts collapse onto the newest config.
func (w *Watcher) Reload(rules []Rule, keys []market.StreamKey, cacheSize int) error {
	if err := validateRunConfig(rules, keys); err != nil {
		return err
	}
	cfg := runConfig{rules: rules, keys: keys, cacheSize: cacheSize}
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.reload:
	default:
	}
	w.reload <- cfg
	return nil
}

func (w *Watcher) runOnce(ctx context.Context, cfg runConfig) (runConfig, error) {
	if err := validateRunConfig(cfg.rules, cfg.keys); err != nil {
		return runConfig{}, err
	}
	caches, err := market.NewPreheater(w.source, cfg.cacheSize).Seed(ctx, cfg.keys)
	if err != nil {
		return runConfig{}, err
	}
	w.caches = caches
	w.mu.Lock()
	w.rules = cfg.rules
	w.streams = make(map[market.StreamKey]StreamStatus, len(caches))
	w.views = make(map[market.StreamKey]market.Series, len(caches))
	for key, cache := range caches {
		w.streams[key] = streamStatus(key, cache)
		w.views[key] = cache.View()
	}
	w.mu.Unlock()

	symbols := make([]string, 0, len(cfg.keys))
	intervals := make([]string, 0, len(cfg.keys))
	for _, key := range cfg.keys {
		symbols = appendUnique(symbols, key.Symbol)
		intervals = appendUnique(intervals, key.Interval)
	}
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, err := w.source.Subscribe(subCtx, symbols, intervals, market.SubscribeOptions{
		OnConnect:    func() { logger.Infof("[watcher] stream connected") },
		OnDisconnect: func(err error) { logger.Warnf("[watcher] stream disconnected: %v", err) },
	})
	if err != nil {
		return runConfig{}, err
	}
	logger.Infof("[watcher] running, %d streams, %d rules", len(cfg.keys), len(cfg.rules))
	for {
		select {
		case <-ctx.Done():
			return runConfig{}, ctx.Err()
		case next := <-w.reload:
			cancel()
			return next, nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return runConfig{}, ctx.Err()
				}
				return runConfig{}, fmt.Errorf("watcher: event stream closed")
			}
			w.handle(ev)
		}
	}
}

func validateRunConfig(rules []Rule, keys []market.StreamKey) error {
	if len(keys) == 0 {
		return fmt.Errorf("watcher: no streams configured")
	}
	if len(rules) == 0 {
		return fmt.Errorf("watcher: no rules configured")
	}
	return nil
}

func (w *Watcher) handle(ev market.CandleEvent) {
	key := market.StreamKey{Symbol: ev.Symbol, Interval: ev.Interval}
	cache, ok := w.caches[key]
	if !ok {
		logger.Debugf("[watcher] ignoring event for unwatched stream %s", key)
		return
	}
	if err := cache.Push(ev.Candle); err != nil {
		// Out-of-order or duplicate bar: a contract violation of the feed,
		// rejected rather than reordered.
		logger.Warnf("[watcher] %s: %v", key, err)
		return
	}
	view := cache.View()
	for _, rule := range w.rules {
		w.evaluate(rule, key, ev.Candle, view)
	}
	w.mu.Lock()
	w.streams[key] = streamStatus(key, cache)
	w.views[key] = view
	w.mu.Unlock()
}

func (w *Watcher) evaluate(rule Rule, key market.StreamKey, latest market.Candle, view market.Series) {
	holds, err := rule.Predicate.Evaluate(view)
	w.mu.Lock()
	w.evaluations++
	w.mu.Unlock()
	if err != nil {
		logger.Errorf("[watcher] rule %q on %s: %v", rule.Name, key, err)
		return
	}
	stateKey := rule.Name + "|" + key.String()
	w.mu.Lock()
	was := w.fired[stateKey]
	w.fired[stateKey] = holds
	w.mu.Unlock()
	if !holds || was {
		return
	}
	sig := signal.New(rule.Side, key.Symbol, latest.Close, latest.CloseTime)
	w.record(sig)
	logger.Infof("[watcher] %s (rule %q, %s)", sig, rule.Name, key.Interval)
	if w.notifier != nil {
		if err := w.notifier.SendText(sig.String()); err != nil {
			logger.Warnf("[watcher] notify failed: %v", err)
		}
	}
}

func (w *Watcher) record(sig signal.Signal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.emitted++
	w.lastSignals = append(w.lastSignals, sig)
	if len(w.lastSignals) > lastSignalsKept {
		w.lastSignals = w.lastSignals[len(w.lastSignals)-lastSignalsKept:]
	}
}

func appendUnique(target []string, val string) []string {
	for _, existing := range target {
		if existing == val {
			return target
		}
	}
	return append(target, val)
}

// StreamStatus is one stream's cache state for the status API.
type StreamStatus struct {
	Symbol        string    `json:"symbol"`
	Interval      string    `json:"interval"`
	CacheLen      int       `json:"cache_len"`
	CacheCap      int       `json:"cache_cap"`
	LastClose     float64   `json:"last_close"`
	LastCloseTime time.Time `json:"last_close_time"`
}

// Status is the watcher's health snapshot.
type Status struct {
	Streams        []StreamStatus     `json:"streams"`
	Source         market.SourceStats `json:"source"`
	Evaluations    int64              `json:"evaluations"`
	SignalsEmitted int64              `json:"signals_emitted"`
	LastSignals    []signal.Signal    `json:"last_signals"`
}

// Status assembles a consistent snapshot for the HTTP status endpoint.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	streams := make([]StreamStatus, 0, len(w.streams))
	for _, st := range w.streams {
		streams = append(streams, st)
	}
	sort.Slice(streams, func(i, j int) bool {
		if streams[i].Symbol != streams[j].Symbol {
			return streams[i].Symbol < streams[j].Symbol
		}
		return streams[i].Interval < streams[j].Interval
	})
	signals := make([]signal.Signal, len(w.lastSignals))
	copy(signals, w.lastSignals)
	var stats market.SourceStats
	if w.source != nil {
		stats = w.source.Stats()
	}
	return Status{
		Streams:        streams,
		Source:         stats,
		Evaluations:    w.evaluations,
		SignalsEmitted: w.emitted,
		LastSignals:    signals,
	}
}

// WatchedBatch unions the current rules' indicator requirements; after a
// reload it reflects the fresh rule set.
func (w *Watcher) WatchedBatch() indicator.Batch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WatchedBatch(w.rules)
}

// PositionFor resolves the signed open-position size of one symbol from the
// source's account endpoint.
func (w *Watcher) PositionFor(ctx context.Context, symbol string) (float64, error) {
	positions, err := w.source.Positions(ctx)
	if err != nil {
		return 0, err
	}
	return market.PositionSize(positions, symbol)
}

// View returns the latest published snapshot of one stream. Snapshots stay
// stable across later pushes, so callers may compute over them freely.
func (w *Watcher) View(key market.StreamKey) (market.Series, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	view, ok := w.views[key]
	return view, ok
}

func streamStatus(key market.StreamKey, cache *market.CandleCache) StreamStatus {
	st := StreamStatus{
		Symbol:   key.Symbol,
		Interval: key.Interval,
		CacheLen: cache.Len(),
		CacheCap: cache.Capacity(),
	}
	if last, ok := cache.View().Last(); ok {
		st.LastClose = last.Close
		st.LastCloseTime = last.CloseTime
	}
	return st
}
