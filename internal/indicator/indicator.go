// Package indicator declares pure candle-series enrichments and the
// deduplicating batch algebra that composes them. Every concrete indicator is
// an immutable value identified by its kind and parameters; two indicators
// with the same Key are interchangeable and a batch computes them once.
package indicator

import (
	"errors"

	"ctos/internal/market"
)

// ErrBadParams reports indicator parameters that cannot produce output, such
// as a non-positive window. A configuration error, surfaced immediately.
var ErrBadParams = errors.New("indicator: invalid parameters")

// Indicator enriches a candle frame with derived columns. Apply must be pure:
// same input, same output, no mutation of the input frame or its series.
// Key is the structural identity (kind + parameters + output name) used for
// deduplication inside a Batch.
type Indicator interface {
	Key() string
	Apply(f *market.Indicative) (*market.Indicative, error)
}
