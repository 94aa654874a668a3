package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandle(i int, close float64) Candle {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	closeTime := base.Add(time.Duration(i) * time.Minute)
	return Candle{
		OpenTime:  closeTime.Add(-59 * time.Second),
		CloseTime: closeTime,
		Open:      close - 0.5,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    100,
	}
}

func testSeries(t *testing.T, closes ...float64) Series {
	t.Helper()
	candles := make([]Candle, len(closes))
	for i, c := range closes {
		candles[i] = testCandle(i, c)
	}
	s, err := NewSeries(candles)
	require.NoError(t, err)
	return s
}

func TestNewSeriesRejectsUnorderedCandles(t *testing.T) {
	a := testCandle(1, 10)
	b := testCandle(0, 11)
	_, err := NewSeries([]Candle{a, b})
	assert.ErrorIs(t, err, ErrOutOfOrder)

	_, err = NewSeries([]Candle{a, a})
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestNewSeriesRejectsInvertedTimes(t *testing.T) {
	bad := testCandle(0, 10)
	bad.OpenTime = bad.CloseTime.Add(time.Second)
	_, err := NewSeries([]Candle{bad})
	assert.Error(t, err)
}

func TestSeriesAppendLeavesReceiverUntouched(t *testing.T) {
	s := testSeries(t, 10, 11)
	grown, err := s.Append(testCandle(2, 12))
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, grown.Len())

	_, err = s.Append(testCandle(1, 99))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestSeriesColumn(t *testing.T) {
	s := testSeries(t, 10, 11, 12)

	closes, err := s.Column(ColClose)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11, 12}, closes)

	_, err = s.Column("Sentiment")
	assert.ErrorIs(t, err, ErrColumnMissing)
}

func TestIndicativeWithColumn(t *testing.T) {
	s := testSeries(t, 10, 11, 12)
	f := NewIndicative(s)

	widened, err := f.WithColumn("SMA_Close_2", []float64{1, 2, 3})
	require.NoError(t, err)

	// The parent frame is untouched.
	_, err = f.Column("SMA_Close_2")
	assert.ErrorIs(t, err, ErrColumnMissing)

	got, err := widened.Column("SMA_Close_2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	// Base columns can never be shadowed.
	_, err = widened.WithColumn(ColClose, []float64{0, 0, 0})
	assert.ErrorIs(t, err, ErrColumnExists)

	// Derived names can never be replaced.
	_, err = widened.WithColumn("SMA_Close_2", []float64{0, 0, 0})
	assert.ErrorIs(t, err, ErrColumnExists)

	// A column must cover every row.
	_, err = widened.WithColumn("Short", []float64{1})
	assert.Error(t, err)
}

func TestIndicativeLast(t *testing.T) {
	s := testSeries(t, 10, 11, 12)
	f := NewIndicative(s)

	last, err := f.Last(ColClose)
	require.NoError(t, err)
	assert.Equal(t, 12.0, last)

	_, err = f.Last("Missing")
	assert.ErrorIs(t, err, ErrColumnMissing)
}
