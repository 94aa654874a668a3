package market

import (
	"errors"
	"fmt"
	"time"
)

// Base column names of every candle series.
const (
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
)

var (
	// ErrOutOfOrder reports a candle whose close time does not advance the series.
	ErrOutOfOrder = errors.New("market: candle out of order")
	// ErrColumnMissing reports a column lookup for a name the series does not carry.
	ErrColumnMissing = errors.New("market: column not found")
	// ErrColumnExists reports an attempt to overwrite an existing column.
	ErrColumnExists = errors.New("market: column already exists")
)

// Candle is one OHLCV bar. CloseTime is the natural key of a series.
type Candle struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (c Candle) validate() error {
	if !c.CloseTime.After(c.OpenTime) {
		return fmt.Errorf("market: candle close time %s not after open time %s", c.CloseTime, c.OpenTime)
	}
	return nil
}

// Series is an immutable run of candles ordered by strictly increasing close
// time. Every transformation returns a new value; the backing rows are plain
// values and are never written after construction, so a Series may be shared
// freely across goroutines.
type Series struct {
	candles []Candle
}

// NewSeries copies candles into a fresh Series. It fails if any candle is
// malformed or if close times are not strictly increasing.
func NewSeries(candles []Candle) (Series, error) {
	owned := make([]Candle, len(candles))
	copy(owned, candles)
	for i, c := range owned {
		if err := c.validate(); err != nil {
			return Series{}, err
		}
		if i > 0 && !c.CloseTime.After(owned[i-1].CloseTime) {
			return Series{}, fmt.Errorf("%w: close time %s at row %d does not advance %s",
				ErrOutOfOrder, c.CloseTime, i, owned[i-1].CloseTime)
		}
	}
	return Series{candles: owned}, nil
}

// newSeriesShared wraps an already-validated slice without copying. The caller
// must guarantee the visible range is never written again.
func newSeriesShared(candles []Candle) Series {
	return Series{candles: candles}
}

func (s Series) Len() int { return len(s.candles) }

// At returns the candle at row i; rows are ordered oldest first.
func (s Series) At(i int) Candle { return s.candles[i] }

// Last returns the most recent candle, or false on an empty series.
func (s Series) Last() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Candles returns a copy of the backing rows.
func (s Series) Candles() []Candle {
	out := make([]Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// Append produces a new Series extended by one candle. The receiver is left
// untouched. Fails when c does not advance the latest close time.
func (s Series) Append(c Candle) (Series, error) {
	if err := c.validate(); err != nil {
		return Series{}, err
	}
	if last, ok := s.Last(); ok && !c.CloseTime.After(last.CloseTime) {
		return Series{}, fmt.Errorf("%w: close time %s does not advance %s",
			ErrOutOfOrder, c.CloseTime, last.CloseTime)
	}
	owned := make([]Candle, len(s.candles)+1)
	copy(owned, s.candles)
	owned[len(owned)-1] = c
	return Series{candles: owned}, nil
}

// Column extracts one base OHLCV column as a fresh slice.
func (s Series) Column(name string) ([]float64, error) {
	pick, err := columnPicker(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(s.candles))
	for i, c := range s.candles {
		out[i] = pick(c)
	}
	return out, nil
}

// IsBaseColumn reports whether name is one of the OHLCV columns.
func IsBaseColumn(name string) bool {
	_, err := columnPicker(name)
	return err == nil
}

func columnPicker(name string) (func(Candle) float64, error) {
	switch name {
	case ColOpen:
		return func(c Candle) float64 { return c.Open }, nil
	case ColHigh:
		return func(c Candle) float64 { return c.High }, nil
	case ColLow:
		return func(c Candle) float64 { return c.Low }, nil
	case ColClose:
		return func(c Candle) float64 { return c.Close }, nil
	case ColVolume:
		return func(c Candle) float64 { return c.Volume }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
}
