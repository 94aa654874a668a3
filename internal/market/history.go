package market

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// historyHeader is the column layout of persisted candle history. Timestamps
// are epoch milliseconds; prices and volume are decimal strings.
var historyHeader = []string{"OpenTime", "CloseTime", "Open", "High", "Low", "Close", "Volume"}

// LoadHistory reads a candle series from a tabular file. Like the batch
// normalization path, one malformed row fails the whole call.
func LoadHistory(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("market: opening history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(historyHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return Series{}, fmt.Errorf("market: reading history %s: %w", path, err)
	}
	if len(rows) == 0 {
		return Series{}, fmt.Errorf("market: history %s is empty", path)
	}
	raws := make([]RawKline, 0, len(rows)-1)
	for i, row := range rows[1:] {
		openTime, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return Series{}, fmt.Errorf("market: history row %d: bad OpenTime %q", i+1, row[0])
		}
		closeTime, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return Series{}, fmt.Errorf("market: history row %d: bad CloseTime %q", i+1, row[1])
		}
		raws = append(raws, RawKline{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      row[2],
			High:      row[3],
			Low:       row[4],
			Close:     row[5],
			Volume:    row[6],
		})
	}
	s, err := SeriesFromRaw(raws)
	if err != nil {
		return Series{}, fmt.Errorf("market: history %s: %w", path, err)
	}
	return s, nil
}

// SaveHistory writes the series in the same tabular layout LoadHistory reads.
func SaveHistory(path string, s Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("market: creating history: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(historyHeader); err != nil {
		return err
	}
	for i := 0; i < s.Len(); i++ {
		c := s.At(i)
		row := []string{
			strconv.FormatInt(ToEpochMilli(c.OpenTime), 10),
			strconv.FormatInt(ToEpochMilli(c.CloseTime), 10),
			decimal.NewFromFloat(c.Open).String(),
			decimal.NewFromFloat(c.High).String(),
			decimal.NewFromFloat(c.Low).String(),
			decimal.NewFromFloat(c.Close).String(),
			decimal.NewFromFloat(c.Volume).String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
