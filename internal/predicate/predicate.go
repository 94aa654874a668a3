// Package predicate pairs boolean trading decisions with the indicator
// batches they depend on. Logical composition (And/Or/Not) unions the data
// dependencies, so a combined predicate enriches the series once and every
// sub-decision reads the same shared frame.
package predicate

import (
	"ctos/internal/indicator"
	"ctos/internal/market"
)

// Func decides over an enriched frame. It runs only after the predicate's
// full batch has been applied, so every required column is present. NaN
// warm-up values compare false by convention, never error.
type Func func(*market.Indicative) bool

// Predicate is an immutable pair of an indicator batch and a decision.
type Predicate struct {
	batch  indicator.Batch
	decide Func
}

// New binds a decision to the batch it requires. The batch may be empty for
// decisions over raw OHLCV columns.
func New(batch indicator.Batch, decide Func) Predicate {
	if decide == nil {
		decide = func(*market.Indicative) bool { return false }
	}
	return Predicate{batch: batch, decide: decide}
}

// Always holds for any series; Never for none. Both carry an empty batch.
func Always() Predicate { return New(indicator.NewBatch(), func(*market.Indicative) bool { return true }) }

func Never() Predicate { return New(indicator.NewBatch(), func(*market.Indicative) bool { return false }) }

// Batch exposes the predicate's data dependency.
func (p Predicate) Batch() indicator.Batch { return p.batch }

// Evaluate enriches the series with the predicate's batch and applies the
// decision. The input series is never mutated.
func (p Predicate) Evaluate(s market.Series) (bool, error) {
	f, err := p.batch.Enrich(s)
	if err != nil {
		return false, err
	}
	return p.decide(f), nil
}

// Not negates the decision over the same batch.
func (p Predicate) Not() Predicate {
	return Predicate{
		batch:  p.batch,
		decide: func(f *market.Indicative) bool { return !p.decide(f) },
	}
}

// And combines two predicates over the union of their batches. Both
// sub-decisions are evaluated against the shared enriched frame, without
// short-circuiting.
func (p Predicate) And(q Predicate) Predicate {
	return Predicate{
		batch: p.batch.Union(q.batch),
		decide: func(f *market.Indicative) bool {
			left := p.decide(f)
			right := q.decide(f)
			return left && right
		},
	}
}

// Or is the disjunction over the union of both batches.
func (p Predicate) Or(q Predicate) Predicate {
	return Predicate{
		batch: p.batch.Union(q.batch),
		decide: func(f *market.Indicative) bool {
			left := p.decide(f)
			right := q.decide(f)
			return left || right
		},
	}
}
