package indicator

import (
	"fmt"
	"math"

	"ctos/internal/market"
)

// LinearRegressionChannel fits one least-squares line through the whole input
// window (column against bar index) and emits the fitted midline plus bands
// at Deviation standard deviations of the residuals. Not a rolling
// computation: live use re-fits as the cache window slides. Columns are
// <name>_U, <name>_M, <name>_L.
type LinearRegressionChannel struct {
	Column    string
	Deviation float64
	Name      string
}

func (ind LinearRegressionChannel) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("LRC_%s", ind.Column)
}

func (ind LinearRegressionChannel) Key() string {
	return fmt.Sprintf("LRC(%s,%g)->%s", ind.Column, ind.Deviation, ind.OutputName())
}

func (ind LinearRegressionChannel) Apply(f *market.Indicative) (*market.Indicative, error) {
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	n := len(xs)
	fit := nanSlice(n)
	upper := nanSlice(n)
	lower := nanSlice(n)
	if n >= 2 {
		slope, intercept := leastSquares(xs)
		var ss float64
		for i, x := range xs {
			y := slope*float64(i) + intercept
			fit[i] = y
			r := x - y
			ss += r * r
		}
		// np.std of the residuals: population deviation.
		std := math.Sqrt(ss / float64(n))
		for i := range fit {
			upper[i] = fit[i] + std*ind.Deviation
			lower[i] = fit[i] - std*ind.Deviation
		}
	}
	name := ind.OutputName()
	f, err = f.WithColumn(name+"_U", upper)
	if err != nil {
		return nil, err
	}
	f, err = f.WithColumn(name+"_M", fit)
	if err != nil {
		return nil, err
	}
	return f.WithColumn(name+"_L", lower)
}

// leastSquares fits y = slope*i + intercept over bar indexes 0..n-1.
func leastSquares(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// BollingerBands is the rolling mean of one base column with bands at
// Deviation rolling standard deviations. Columns are <name>_U, <name>_M,
// <name>_L; the first Window-1 rows are NaN.
type BollingerBands struct {
	Column    string
	Window    int
	Deviation float64
	Name      string
}

func (ind BollingerBands) OutputName() string {
	if ind.Name != "" {
		return ind.Name
	}
	return fmt.Sprintf("BB_%s_%d", ind.Column, ind.Window)
}

func (ind BollingerBands) Key() string {
	return fmt.Sprintf("BB(%s,%d,%g)->%s", ind.Column, ind.Window, ind.Deviation, ind.OutputName())
}

func (ind BollingerBands) Apply(f *market.Indicative) (*market.Indicative, error) {
	if ind.Window <= 0 {
		return nil, fmt.Errorf("%w: Bollinger window %d", ErrBadParams, ind.Window)
	}
	xs, err := f.Series().Column(ind.Column)
	if err != nil {
		return nil, err
	}
	mid := rollingMean(xs, ind.Window)
	std := rollingStd(xs, ind.Window)
	upper := make([]float64, len(xs))
	lower := make([]float64, len(xs))
	for i := range xs {
		upper[i] = mid[i] + ind.Deviation*std[i]
		lower[i] = mid[i] - ind.Deviation*std[i]
	}
	name := ind.OutputName()
	f, err = f.WithColumn(name+"_U", upper)
	if err != nil {
		return nil, err
	}
	f, err = f.WithColumn(name+"_M", mid)
	if err != nil {
		return nil, err
	}
	return f.WithColumn(name+"_L", lower)
}
