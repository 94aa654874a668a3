package market

import (
	"fmt"
)

// CandleCache keeps the most recent candles of one stream inside a fixed
// window. Push is the only mutator and must be called from a single producer;
// View hands out snapshots that stay valid across later pushes, so readers
// never synchronize with the producer.
type CandleCache struct {
	capacity int
	candles  []Candle
}

// NewCandleCache seeds a cache from history. When the seed is longer than
// capacity only the most recent candles are kept.
func NewCandleCache(seed Series, capacity int) (*CandleCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("market: cache capacity must be positive, got %d", capacity)
	}
	rows := seed.Candles()
	if len(rows) > capacity {
		rows = rows[len(rows)-capacity:]
	}
	return &CandleCache{capacity: capacity, candles: rows}, nil
}

func (c *CandleCache) Capacity() int { return c.capacity }

func (c *CandleCache) Len() int { return len(c.candles) }

// Push appends one candle, evicting the oldest entry once the window is full.
// A candle that does not strictly advance the latest close time is a caller
// error and is rejected, never reordered.
func (c *CandleCache) Push(candle Candle) error {
	if err := candle.validate(); err != nil {
		return err
	}
	if n := len(c.candles); n > 0 {
		last := c.candles[n-1].CloseTime
		if !candle.CloseTime.After(last) {
			return fmt.Errorf("%w: push %s, cache already at %s", ErrOutOfOrder, candle.CloseTime, last)
		}
	}
	// Appends only ever write past the range visible to earlier snapshots, and
	// eviction re-slices instead of shifting, so View results stay stable.
	c.candles = append(c.candles, candle)
	if len(c.candles) > c.capacity {
		c.candles = c.candles[len(c.candles)-c.capacity:]
	}
	return nil
}

// View returns the current window as a read-only snapshot. O(1): the snapshot
// shares row storage with the cache and is safe because rows are immutable
// values and the visible range is never rewritten.
func (c *CandleCache) View() Series {
	return newSeriesShared(c.candles)
}
