package indicator

import (
	"sort"
	"strings"

	"ctos/internal/market"
)

// Batch is an unordered, deduplicated set of indicators. Composition never
// mutates the receiver: Extend and Union build new batches, and union is
// commutative and associative over member sets. Applying a batch enriches a
// frame by exactly one application of each distinct member. Members must read
// only base OHLCV columns; a batch composes independent enrichments, not a
// pipeline, so member order is unspecified.
type Batch struct {
	members map[string]Indicator
}

// NewBatch builds a batch from any number of indicators, deduplicating by Key.
func NewBatch(indicators ...Indicator) Batch {
	members := make(map[string]Indicator, len(indicators))
	for _, ind := range indicators {
		if ind != nil {
			members[ind.Key()] = ind
		}
	}
	return Batch{members: members}
}

// Singleton wraps one indicator.
func Singleton(ind Indicator) Batch { return NewBatch(ind) }

// Extend returns the union of the batch and {ind}.
func (b Batch) Extend(ind Indicator) Batch {
	if ind == nil {
		return b
	}
	next := b.clone()
	next.members[ind.Key()] = ind
	return next
}

// Union returns the set union of both batches' members.
func (b Batch) Union(other Batch) Batch {
	next := b.clone()
	for key, ind := range other.members {
		next.members[key] = ind
	}
	return next
}

// Len is the deduplicated member count.
func (b Batch) Len() int { return len(b.members) }

// Members lists the distinct indicators. Iteration order is an implementation
// detail (sorted by key for determinism) and not part of the contract.
func (b Batch) Members() []Indicator {
	keys := make([]string, 0, len(b.members))
	for key := range b.members {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Indicator, 0, len(keys))
	for _, key := range keys {
		out = append(out, b.members[key])
	}
	return out
}

// Key makes a Batch usable wherever a single Indicator is, folding the member
// identities into one.
func (b Batch) Key() string {
	keys := make([]string, 0, len(b.members))
	for key := range b.members {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return "Batch{" + strings.Join(keys, ",") + "}"
}

// Apply folds every member over the frame.
func (b Batch) Apply(f *market.Indicative) (*market.Indicative, error) {
	var err error
	for _, ind := range b.Members() {
		f, err = ind.Apply(f)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Enrich applies the batch to a bare series, producing the indicative frame
// predicates evaluate against. The series itself is never touched.
func (b Batch) Enrich(s market.Series) (*market.Indicative, error) {
	return b.Apply(market.NewIndicative(s))
}

func (b Batch) clone() Batch {
	members := make(map[string]Indicator, len(b.members)+1)
	for key, ind := range b.members {
		members[key] = ind
	}
	return Batch{members: members}
}
