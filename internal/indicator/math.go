package indicator

import "math"

// Rolling helpers follow pandas semantics: a window containing fewer than
// `window` observations, or any NaN, yields NaN. Warm-up rows are data, not
// errors; comparisons against them are false by convention.

func rollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += xs[j]
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1) over each window.
func rollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += xs[j]
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := xs[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// emaSpan is the span-parameterized exponential mean with alpha=2/(span+1),
// seeded at the first finite observation (ewm adjust=false). Leading NaNs stay
// NaN; a NaN after the seed carries the previous smoothed value forward.
func emaSpan(xs []float64, span int) []float64 {
	out := nanSlice(len(xs))
	if span <= 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	seeded := false
	prev := 0.0
	for i, x := range xs {
		switch {
		case !seeded && math.IsNaN(x):
			continue
		case !seeded:
			prev = x
			seeded = true
		case math.IsNaN(x):
			// keep prev
		default:
			prev = alpha*x + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// diff is the first difference; the first row is NaN.
func diff(xs []float64) []float64 {
	out := nanSlice(len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
