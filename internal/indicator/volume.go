package indicator

import (
	"math"

	"ctos/internal/market"
)

// PriceVolumeRatio is (close - open) / volume per bar: how much price one
// unit of traded volume moved. Zero volume divides by zero and the Inf/NaN
// propagates as data.
type PriceVolumeRatio struct {
	Name string
}

func (ind PriceVolumeRatio) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return "PVR"
}

func (ind PriceVolumeRatio) Key() string {
	return "PVR->" + ind.OutputName()
}

func (ind PriceVolumeRatio) Apply(f *market.Indicative) (*market.Indicative, error) {
	return f.WithColumn(ind.OutputName(), priceVolumeRatio(f.Series()))
}

// AbsPriceVolumeRatio is the absolute value of PriceVolumeRatio.
type AbsPriceVolumeRatio struct {
	Name string
}

func (ind AbsPriceVolumeRatio) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return "APVR"
}

func (ind AbsPriceVolumeRatio) Key() string {
	return "APVR->" + ind.OutputName()
}

func (ind AbsPriceVolumeRatio) Apply(f *market.Indicative) (*market.Indicative, error) {
	out := priceVolumeRatio(f.Series())
	for i, v := range out {
		out[i] = math.Abs(v)
	}
	return f.WithColumn(ind.OutputName(), out)
}

func priceVolumeRatio(s market.Series) []float64 {
	out := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		c := s.At(i)
		out[i] = (c.Close - c.Open) / c.Volume
	}
	return out
}
