package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// RawKline is one exchange kline record at the connectivity boundary: epoch
// millisecond timestamps plus string-encoded prices and volume. Trailing
// exchange fields (trade counts, taker volumes) are already discarded by the
// gateway before normalization.
type RawKline struct {
	OpenTime  int64
	CloseTime int64
	Open      string
	High      string
	Low       string
	Close     string
	Volume    string
}

// CandleFromRaw normalizes one raw kline. Any non-numeric price or volume
// field fails the call; nothing is silently coerced.
func CandleFromRaw(r RawKline) (Candle, error) {
	c := Candle{
		OpenTime:  fromEpochMilli(r.OpenTime),
		CloseTime: fromEpochMilli(r.CloseTime),
	}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{ColOpen, r.Open, &c.Open},
		{ColHigh, r.High, &c.High},
		{ColLow, r.Low, &c.Low},
		{ColClose, r.Close, &c.Close},
		{ColVolume, r.Volume, &c.Volume},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return Candle{}, fmt.Errorf("market: non-numeric %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d.InexactFloat64()
	}
	if err := c.validate(); err != nil {
		return Candle{}, err
	}
	return c, nil
}

// SeriesFromRaw normalizes a historical batch. One bad record fails the whole
// call: a partially normalized series is unsafe to hand out.
func SeriesFromRaw(raws []RawKline) (Series, error) {
	candles := make([]Candle, 0, len(raws))
	for i, r := range raws {
		c, err := CandleFromRaw(r)
		if err != nil {
			return Series{}, fmt.Errorf("market: kline %d: %w", i, err)
		}
		candles = append(candles, c)
	}
	return NewSeries(candles)
}

// StreamCandle normalizes one kline update from a raw stream payload. It
// accepts either the event envelope ({"e":"kline","k":{...}}) or the bare
// kline object, and reports whether the bar is closed ("x"). Callers on the
// streaming path log and drop the event on error instead of failing the
// stream.
func StreamCandle(payload []byte) (Candle, bool, error) {
	root := gjson.ParseBytes(payload)
	kline := root
	if k := root.Get("k"); k.Exists() {
		if e := root.Get("e"); e.Exists() && e.String() != "kline" {
			return Candle{}, false, fmt.Errorf("market: unexpected stream event %q", e.String())
		}
		kline = k
	}
	openTime := kline.Get("t")
	closeTime := kline.Get("T")
	if !openTime.Exists() || !closeTime.Exists() {
		return Candle{}, false, fmt.Errorf("market: stream payload lacks kline timestamps")
	}
	raw := RawKline{
		OpenTime:  openTime.Int(),
		CloseTime: closeTime.Int(),
		Open:      kline.Get("o").String(),
		High:      kline.Get("h").String(),
		Low:       kline.Get("l").String(),
		Close:     kline.Get("c").String(),
		Volume:    kline.Get("v").String(),
	}
	c, err := CandleFromRaw(raw)
	if err != nil {
		return Candle{}, false, err
	}
	return c, kline.Get("x").Bool(), nil
}

// fromEpochMilli truncates to whole seconds, matching the exchange's
// millisecond bucket boundaries (…999 ms close times collapse to the second).
func fromEpochMilli(ms int64) time.Time {
	return time.Unix(ms/1000, 0).UTC()
}

// ToEpochMilli is the inverse boundary conversion used when persisting.
func ToEpochMilli(t time.Time) int64 {
	return t.Unix() * 1000
}
