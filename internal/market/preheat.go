package market

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"ctos/internal/logger"
)

// StreamKey identifies one candle stream.
type StreamKey struct {
	Symbol   string
	Interval string
}

func (k StreamKey) String() string { return k.Symbol + "@" + k.Interval }

// Preheater seeds one CandleCache per stream from REST history so live
// evaluation never starts on an empty window.
type Preheater struct {
	Source Source
	Limit  int
}

func NewPreheater(src Source, limit int) *Preheater {
	if limit <= 0 {
		limit = 100
	}
	return &Preheater{Source: src, Limit: limit}
}

// Seed fetches history for every stream in parallel and returns a seeded
// cache per key. A failed fetch fails the whole preheat: starting a watcher
// with holes in its windows is worse than not starting.
func (p *Preheater) Seed(ctx context.Context, keys []StreamKey) (map[StreamKey]*CandleCache, error) {
	if p.Source == nil {
		return nil, fmt.Errorf("market: preheater missing source")
	}
	var mu sync.Mutex
	caches := make(map[StreamKey]*CandleCache, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			series, err := p.Source.FetchHistory(gctx, key.Symbol, key.Interval, p.Limit)
			if err != nil {
				return fmt.Errorf("market: preheat %s: %w", key, err)
			}
			cache, err := NewCandleCache(series, p.Limit)
			if err != nil {
				return err
			}
			logger.Debugf("[preheat] %s seeded with %d candles", key, cache.Len())
			mu.Lock()
			caches[key] = cache
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return caches, nil
}
