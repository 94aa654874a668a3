package watcher

import (
	"fmt"
	"strings"

	"ctos/internal/config"
	"ctos/internal/indicator"
	"ctos/internal/predicate"
	"ctos/internal/signal"
)

// CompileRules turns declarative rule configs into watcher rules. Composite
// kinds map straight onto the predicate algebra, so a nested config unions
// its indicator requirements and evaluates over one shared enriched frame.
func CompileRules(specs []config.RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		side, err := parseSide(spec.Side)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		pred, err := compilePredicate(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		rules = append(rules, Rule{Name: spec.Name, Side: side, Predicate: pred})
	}
	return rules, nil
}

func compilePredicate(spec config.RuleConfig) (predicate.Predicate, error) {
	switch strings.ToLower(strings.TrimSpace(spec.Kind)) {
	case "close_above_sma":
		if err := requireWindow(spec); err != nil {
			return predicate.Predicate{}, err
		}
		return predicate.CloseAboveSMA(spec.Window), nil
	case "close_below_sma":
		if err := requireWindow(spec); err != nil {
			return predicate.Predicate{}, err
		}
		return predicate.CloseBelowSMA(spec.Window), nil
	case "rsi_below":
		if err := requireWindow(spec); err != nil {
			return predicate.Predicate{}, err
		}
		return predicate.RSIBelow(spec.Window, spec.Threshold), nil
	case "rsi_above":
		if err := requireWindow(spec); err != nil {
			return predicate.Predicate{}, err
		}
		return predicate.RSIAbove(spec.Window, spec.Threshold), nil
	case "macd_bullish":
		short, long, sig := spec.ShortWindow, spec.LongWindow, spec.SignalWindow
		if short <= 0 {
			short = 12
		}
		if long <= 0 {
			long = 26
		}
		if sig <= 0 {
			sig = 9
		}
		return predicate.MACDBullish(short, long, sig), nil
	case "all_of":
		return compileGroup(spec.AllOf, predicate.Predicate.And, "all_of")
	case "any_of":
		return compileGroup(spec.AnyOf, predicate.Predicate.Or, "any_of")
	case "not":
		if spec.Not == nil {
			return predicate.Predicate{}, fmt.Errorf("kind not requires a nested rule")
		}
		inner, err := compilePredicate(*spec.Not)
		if err != nil {
			return predicate.Predicate{}, err
		}
		return inner.Not(), nil
	default:
		return predicate.Predicate{}, fmt.Errorf("unknown rule kind %q", spec.Kind)
	}
}

func compileGroup(specs []config.RuleConfig, combine func(predicate.Predicate, predicate.Predicate) predicate.Predicate, kind string) (predicate.Predicate, error) {
	if len(specs) == 0 {
		return predicate.Predicate{}, fmt.Errorf("kind %s requires nested rules", kind)
	}
	out, err := compilePredicate(specs[0])
	if err != nil {
		return predicate.Predicate{}, err
	}
	for _, spec := range specs[1:] {
		next, err := compilePredicate(spec)
		if err != nil {
			return predicate.Predicate{}, err
		}
		out = combine(out, next)
	}
	return out, nil
}

func requireWindow(spec config.RuleConfig) error {
	if spec.Window <= 0 {
		return fmt.Errorf("kind %s requires a positive window, got %d", spec.Kind, spec.Window)
	}
	return nil
}

func parseSide(raw string) (signal.Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY", "LONG":
		return signal.Buy, nil
	case "SELL", "SHORT":
		return signal.Sell, nil
	default:
		return "", fmt.Errorf("unknown side %q", raw)
	}
}

// WatchedBatch unions every rule's indicator requirements; the chart endpoint
// overlays exactly the columns the predicates read.
func WatchedBatch(rules []Rule) indicator.Batch {
	batch := indicator.NewBatch()
	for _, rule := range rules {
		batch = batch.Union(rule.Predicate.Batch())
	}
	return batch
}
