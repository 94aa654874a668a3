package market

import (
	"fmt"
	"sort"
)

// Indicative is a Series widened with derived numeric columns keyed by
// indicator output name. The base OHLCV columns stay exactly as they were in
// the input series; derived columns are added, never replaced. Widening is
// copy-on-write: WithColumn returns a new frame sharing the series and the
// already-attached column slices.
type Indicative struct {
	series  Series
	derived map[string][]float64
}

// NewIndicative wraps a series with no derived columns yet.
func NewIndicative(s Series) *Indicative {
	return &Indicative{series: s}
}

// Series returns the underlying candle series.
func (f *Indicative) Series() Series { return f.series }

func (f *Indicative) Len() int { return f.series.Len() }

// Column resolves a derived column first and falls back to the base OHLCV
// columns. Derived slices are shared with the frame and must be treated as
// read-only by callers.
func (f *Indicative) Column(name string) ([]float64, error) {
	if vals, ok := f.derived[name]; ok {
		return vals, nil
	}
	return f.series.Column(name)
}

// Last returns the value of the named column at the most recent row.
func (f *Indicative) Last(name string) (float64, error) {
	vals, err := f.Column(name)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("market: column %q is empty", name)
	}
	return vals[len(vals)-1], nil
}

// WithColumn attaches one derived column under name and returns the widened
// frame. Colliding with a base column or an already-attached derived column
// is a configuration error. The values slice must cover every row.
func (f *Indicative) WithColumn(name string, vals []float64) (*Indicative, error) {
	if name == "" {
		return nil, fmt.Errorf("market: derived column name cannot be empty")
	}
	if IsBaseColumn(name) {
		return nil, fmt.Errorf("%w: %q is a base column", ErrColumnExists, name)
	}
	if _, ok := f.derived[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnExists, name)
	}
	if len(vals) != f.series.Len() {
		return nil, fmt.Errorf("market: column %q has %d values for %d rows", name, len(vals), f.series.Len())
	}
	next := make(map[string][]float64, len(f.derived)+1)
	for k, v := range f.derived {
		next[k] = v
	}
	next[name] = vals
	return &Indicative{series: f.series, derived: next}, nil
}

// DerivedNames lists the attached derived columns in sorted order.
func (f *Indicative) DerivedNames() []string {
	names := make([]string, 0, len(f.derived))
	for name := range f.derived {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
