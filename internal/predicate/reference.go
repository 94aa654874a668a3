package predicate

import (
	"ctos/internal/indicator"
	"ctos/internal/market"
)

// CloseAboveSMA holds when the latest close exceeds its simple moving average
// at the same bar. During the SMA warm-up the comparison against NaN is
// false, so the predicate stays defined on short series.
func CloseAboveSMA(window int) Predicate {
	sma := indicator.SimpleMovingAverage{Column: market.ColClose, Window: window}
	return New(indicator.Singleton(sma), lastAbove(market.ColClose, sma.OutputName()))
}

// CloseBelowSMA is the mirror image of CloseAboveSMA.
func CloseBelowSMA(window int) Predicate {
	sma := indicator.SimpleMovingAverage{Column: market.ColClose, Window: window}
	return New(indicator.Singleton(sma), lastAbove(sma.OutputName(), market.ColClose))
}

// RSIBelow holds when the latest RSI is under threshold (an oversold probe).
func RSIBelow(window int, threshold float64) Predicate {
	rsi := indicator.RelativeStrengthIndex{Column: market.ColClose, Window: window}
	name := rsi.OutputName()
	return New(indicator.Singleton(rsi), func(f *market.Indicative) bool {
		v, err := f.Last(name)
		if err != nil {
			return false
		}
		return v < threshold
	})
}

// RSIAbove holds when the latest RSI is over threshold (an overbought probe).
func RSIAbove(window int, threshold float64) Predicate {
	rsi := indicator.RelativeStrengthIndex{Column: market.ColClose, Window: window}
	name := rsi.OutputName()
	return New(indicator.Singleton(rsi), func(f *market.Indicative) bool {
		v, err := f.Last(name)
		if err != nil {
			return false
		}
		return v > threshold
	})
}

// MACDBullish holds when the latest MACD histogram is positive.
func MACDBullish(short, long, signal int) Predicate {
	macd := indicator.MACD{Column: market.ColClose, ShortWindow: short, LongWindow: long, SignalWindow: signal}
	hist := macd.OutputName() + "_HIST"
	return New(indicator.Singleton(macd), func(f *market.Indicative) bool {
		v, err := f.Last(hist)
		if err != nil {
			return false
		}
		return v > 0
	})
}

// lastAbove compares the latest values of two columns; NaN on either side is
// false.
func lastAbove(left, right string) Func {
	return func(f *market.Indicative) bool {
		lv, err := f.Last(left)
		if err != nil {
			return false
		}
		rv, err := f.Last(right)
		if err != nil {
			return false
		}
		return lv > rv
	}
}
