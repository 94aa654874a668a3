package indicator

import (
	"fmt"
	"math"

	"ctos/internal/market"
)

// RelativeStrengthIndex maps the ratio of rolling mean gains to rolling mean
// losses through 100 - 100/(1+RS). A window without losses divides by zero;
// the resulting Inf/NaN is propagated as data, not treated as an error. The
// first Window rows are NaN (one row for the price change, Window-1 warm-up).
type RelativeStrengthIndex struct {
	Column string
	Window int
	Name   string
}

func (ind RelativeStrengthIndex) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("RSI_%s_%d", ind.Column, ind.Window)
}

func (ind RelativeStrengthIndex) Key() string {
	return fmt.Sprintf("RSI(%s,%d)->%s", ind.Column, ind.Window, ind.OutputName())
}

func (ind RelativeStrengthIndex) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.Window <= 0 {
		return nil, fmt.Errorf("%w: RSI window %d", ErrBadParams, ind.Window)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	delta := diff(xs)
	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, d := range delta {
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	avgGain := rollingMean(gains, ind.Window)
	avgLoss := rollingMean(losses, ind.Window)
	out := make([]float64, len(xs))
	for i := range out {
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return f.WithColumn(ind.OutputName(), out)
}

// MACD emits three columns: the difference of a short and a long EMA
// (<name>), its signal EMA (<name>_SIGNAL) and their difference
// (<name>_HIST).
type MACD struct {
	Column       string
	ShortWindow  int
	LongWindow   int
	SignalWindow int
	Name         string
}

func (ind MACD) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("MACD_%s_%d_%d_%d", ind.Column, ind.ShortWindow, ind.LongWindow, ind.SignalWindow)
}

func (ind MACD) Key() string {
	return fmt.Sprintf("MACD(%s,%d,%d,%d)->%s",
		ind.Column, ind.ShortWindow, ind.LongWindow, ind.SignalWindow, ind.OutputName())
}

func (ind MACD) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.ShortWindow <= 0 || ind.LongWindow <= 0 || ind.SignalWindow <= 0 {
		return nil, fmt.Errorf("%w: MACD windows %d/%d/%d",
			ErrBadParams, ind.ShortWindow, ind.LongWindow, ind.SignalWindow)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	short := emaSpan(xs, ind.ShortWindow)
	long := emaSpan(xs, ind.LongWindow)
	macd := make([]float64, len(xs))
	for i := range macd {
		macd[i] = short[i] - long[i]
	}
	signal := emaSpan(macd, ind.SignalWindow)
	hist := make([]float64, len(xs))
	for i := range hist {
		hist[i] = macd[i] - signal[i]
	}
	name := ind.OutputName()
	f, err = f.WithColumn(name, macd)
	if err != nil {
		return nil, err
	}
	f, err = f.WithColumn(name+"_SIGNAL", signal)
	if err != nil {
		return nil, err
	}
	return f.WithColumn(name+"_HIST", hist)
}

// TrueStrengthIndex is the double-EMA-smoothed price change over the
// double-EMA-smoothed absolute price change, scaled to ±100.
type TrueStrengthIndex struct {
	Column      string
	LongWindow  int
	ShortWindow int
	Name        string
}

func (ind TrueStrengthIndex) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("TSI_%s_%d_%d", ind.Column, ind.LongWindow, ind.ShortWindow)
}

func (ind TrueStrengthIndex) Key() string {
	return fmt.Sprintf("TSI(%s,%d,%d)->%s", ind.Column, ind.LongWindow, ind.ShortWindow, ind.OutputName())
}

func (ind TrueStrengthIndex) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.LongWindow <= 0 || ind.ShortWindow <= 0 {
		return nil, fmt.Errorf("%w: TSI windows %d/%d", ErrBadParams, ind.LongWindow, ind.ShortWindow)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	mom := diff(xs)
	absMom := make([]float64, len(mom))
	for i, m := range mom {
		absMom[i] = math.Abs(m)
	}
	smoothed := emaSpan(emaSpan(mom, ind.LongWindow), ind.ShortWindow)
	absSmoothed := emaSpan(emaSpan(absMom, ind.LongWindow), ind.ShortWindow)
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = 100 * smoothed[i] / absSmoothed[i]
	}
	return f.WithColumn(ind.OutputName(), out)
}

// RateOfChange is the percentage change of the column versus its value Window
// bars earlier. The first Window rows are NaN.
type RateOfChange struct {
	Column string
	Window int
	Name   string
}

func (ind RateOfChange) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("ROC_%s_%d", ind.Column, ind.Window)
}

func (ind RateOfChange) Key() string {
	return fmt.Sprintf("ROC(%s,%d)->%s", ind.Column, ind.Window, ind.OutputName())
}

func (ind RateOfChange) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.Window <= 0 {
		return nil, fmt.Errorf("%w: ROC window %d", ErrBadParams, ind.Window)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	out := nanSlice(len(xs))
	for i := ind.Window; i < len(xs); i++ {
		out[i] = 100 * (xs[i] - xs[i-ind.Window]) / xs[i-ind.Window]
	}
	return f.WithColumn(ind.OutputName(), out)
}

// AngularMomentumRatio is the ratio of the first differences of a fast and a
// slow EMA of the same column: how steeply the short trend turns relative to
// the long one. The first row is NaN; a flat slow EMA divides by zero and the
// Inf/NaN propagates.
type AngularMomentumRatio struct {
	Column     string
	FastWindow int
	SlowWindow int
	Name       string
}

func (ind AngularMomentumRatio) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("AMR_%s_%d_%d", ind.Column, ind.FastWindow, ind.SlowWindow)
}

func (ind AngularMomentumRatio) Key() string {
	return fmt.Sprintf("AMR(%s,%d,%d)->%s", ind.Column, ind.FastWindow, ind.SlowWindow, ind.OutputName())
}

func (ind AngularMomentumRatio) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.FastWindow <= 0 || ind.SlowWindow <= 0 {
		return nil, fmt.Errorf("%w: AMR windows %d/%d", ErrBadParams, ind.FastWindow, ind.SlowWindow)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	fast := diff(emaSpan(xs, ind.FastWindow))
	slow := diff(emaSpan(xs, ind.SlowWindow))
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = fast[i] / slow[i]
	}
	return f.WithColumn(ind.OutputName(), out)
}
