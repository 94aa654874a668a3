// Package report computes a one-shot market overview with go-talib: the
// classic oscillator/volatility readings used for eyeballing a stream next to
// the predicate engine's own columns. Complementary to the indicator package,
// which owns the exact warm-up semantics the predicates depend on.
package report

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"ctos/internal/market"
)

// Settings bounds the overview computation.
type Settings struct {
	Symbol     string
	Interval   string
	EMAFast    int
	EMASlow    int
	RSIPeriod  int
	ATRPeriod  int
	Overbought float64
	Oversold   float64
}

func (s Settings) withDefaults() Settings {
	if s.EMAFast <= 0 {
		s.EMAFast = 21
	}
	if s.EMASlow <= 0 {
		s.EMASlow = 50
	}
	if s.RSIPeriod <= 0 {
		s.RSIPeriod = 14
	}
	if s.ATRPeriod <= 0 {
		s.ATRPeriod = 14
	}
	if s.Overbought == 0 {
		s.Overbought = 70
	}
	if s.Oversold == 0 {
		s.Oversold = 30
	}
	return s
}

// Value is the latest reading of one metric plus its qualitative state.
type Value struct {
	Latest float64 `json:"latest"`
	State  string  `json:"state,omitempty"`
	Note   string  `json:"note,omitempty"`
}

// Report is the structured overview of one symbol+interval.
type Report struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Count    int              `json:"count"`
	Values   map[string]Value `json:"values"`
}

// Compute derives the overview from a candle series snapshot.
func Compute(s market.Series, cfg Settings) (Report, error) {
	cfg = cfg.withDefaults()
	rep := Report{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Count:    s.Len(),
		Values:   make(map[string]Value),
	}
	if s.Len() == 0 {
		return rep, fmt.Errorf("report: no candles")
	}
	closes, _ := s.Column(market.ColClose)
	highs, _ := s.Column(market.ColHigh)
	lows, _ := s.Column(market.ColLow)
	volumes, _ := s.Column(market.ColVolume)
	lastClose := closes[len(closes)-1]

	emaFast := lastValid(talib.Ema(closes, cfg.EMAFast))
	emaSlow := lastValid(talib.Ema(closes, cfg.EMASlow))
	rep.Values["ema_fast"] = Value{
		Latest: emaFast,
		State:  relativeState(lastClose, emaFast),
		Note:   fmt.Sprintf("EMA%d vs price", cfg.EMAFast),
	}
	rep.Values["ema_slow"] = Value{
		Latest: emaSlow,
		State:  relativeState(lastClose, emaSlow),
		Note:   fmt.Sprintf("EMA%d vs price", cfg.EMASlow),
	}

	rsi := lastValid(talib.Rsi(closes, cfg.RSIPeriod))
	state := "neutral"
	switch {
	case rsi >= cfg.Overbought:
		state = "overbought"
	case rsi <= cfg.Oversold:
		state = "oversold"
	}
	rep.Values["rsi"] = Value{
		Latest: rsi,
		State:  state,
		Note:   fmt.Sprintf("period=%d thresholds=%.1f/%.1f", cfg.RSIPeriod, cfg.Oversold, cfg.Overbought),
	}

	_, macdSignal, macdHist := talib.Macd(closes, 12, 26, 9)
	hist := lastValid(macdHist)
	macdState := "flat"
	switch {
	case hist > 0:
		macdState = "bullish"
	case hist < 0:
		macdState = "bearish"
	}
	rep.Values["macd"] = Value{
		Latest: hist,
		State:  macdState,
		Note:   fmt.Sprintf("signal=%.4f", lastValid(macdSignal)),
	}

	k, d := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
	rep.Values["stoch_k"] = Value{
		Latest: lastValid(k),
		State:  stochasticState(lastValid(k)),
		Note:   fmt.Sprintf("d=%.2f", lastValid(d)),
	}

	will := lastValid(talib.WillR(highs, lows, closes, 14))
	rep.Values["williams_r"] = Value{
		Latest: will,
		State:  stochasticState(-will),
		Note:   "period=14",
	}

	rep.Values["atr"] = Value{
		Latest: lastValid(talib.Atr(highs, lows, closes, cfg.ATRPeriod)),
		State:  "volatility",
		Note:   fmt.Sprintf("period=%d", cfg.ATRPeriod),
	}

	rep.Values["obv"] = Value{
		Latest: lastValid(talib.Obv(closes, volumes)),
		Note:   "volume thrust",
	}

	return rep, nil
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func relativeState(price, ref float64) string {
	if ref == 0 {
		return "unknown"
	}
	switch {
	case price > ref*1.002:
		return "above"
	case price < ref*0.998:
		return "below"
	default:
		return "touch"
	}
}

func stochasticState(v float64) string {
	switch {
	case v >= 80:
		return "overbought"
	case v <= 20:
		return "oversold"
	default:
		return "neutral"
	}
}
