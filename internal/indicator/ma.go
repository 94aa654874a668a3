package indicator

import (
	"fmt"

	"ctos/internal/market"
)

// SimpleMovingAverage is the rolling arithmetic mean of one base column.
// The first Window-1 rows are NaN. An empty Name selects the qualified
// default "SMA_<column>_<window>".
type SimpleMovingAverage struct {
	Column string
	Window int
	Name   string
}

func (ind SimpleMovingAverage) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("SMA_%s_%d", ind.Column, ind.Window)
}

func (ind SimpleMovingAverage) Key() string {
	return fmt.Sprintf("SMA(%s,%d)->%s", ind.Column, ind.Window, ind.OutputName())
}

func (ind SimpleMovingAverage) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.Window <= 0 {
		return nil, fmt.Errorf("%w: SMA window %d", ErrBadParams, ind.Window)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	return f.WithColumn(ind.OutputName(), rollingMean(xs, ind.Window))
}

// ExponentialMovingAverage is the span-parameterized exponential mean of one
// base column, seeded at the first row (adjust=false semantics), so it has no
// warm-up NaNs.
type ExponentialMovingAverage struct {
	Column string
	Window int
	Name   string
}

func (ind ExponentialMovingAverage) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("EMA_%s_%d", ind.Column, ind.Window)
}

func (ind ExponentialMovingAverage) Key() string {
	return fmt.Sprintf("EMA(%s,%d)->%s", ind.Column, ind.Window, ind.OutputName())
}

func (ind ExponentialMovingAverage) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.Window <= 0 {
		return nil, fmt.Errorf("%w: EMA window %d", ErrBadParams, ind.Window)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	return f.WithColumn(ind.OutputName(), emaSpan(xs, ind.Window))
}
