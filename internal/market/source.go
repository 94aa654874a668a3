package market

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoPosition reports a position lookup for a symbol with no open position.
var ErrNoPosition = errors.New("market: no open position")

// CandleEvent is one closed bar delivered by a streaming subscription.
type CandleEvent struct {
	Symbol   string
	Interval string
	Candle   Candle
}

// SubscribeOptions tunes a streaming subscription.
type SubscribeOptions struct {
	Buffer       int
	OnConnect    func()
	OnDisconnect func(error)
}

// SourceStats exposes connectivity health counters.
type SourceStats struct {
	Reconnects      int
	SubscribeErrors int
	DroppedEvents   int
	LastError       string
}

// Position is one open futures position from the account endpoint.
type Position struct {
	Symbol        string
	Amount        float64
	EntryPrice    float64
	UnrealizedPnL float64
}

// PositionSize resolves the signed position amount for symbol; negative means
// a short. A symbol absent from the account list has no open position.
func PositionSize(positions []Position, symbol string) (float64, error) {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p.Amount, nil
		}
	}
	return 0, fmt.Errorf("%w for %q", ErrNoPosition, symbol)
}

// Source is the connectivity boundary the core consumes: historical candles,
// a stream of closed bars, and the few account lookups signals need.
type Source interface {
	FetchHistory(ctx context.Context, symbol, interval string, limit int) (Series, error)

	Subscribe(ctx context.Context, symbols, intervals []string, opts SubscribeOptions) (<-chan CandleEvent, error)

	FundingRate(ctx context.Context, symbol string) (float64, error)

	Positions(ctx context.Context) ([]Position, error)

	Stats() SourceStats

	Close() error
}
