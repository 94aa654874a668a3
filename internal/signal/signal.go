// Package signal defines the directional trading decision emitted once a
// predicate holds. Signals are immutable value objects handed to the
// execution and notification collaborators; the core never places orders.
package signal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Side is the direction of a signal.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Signal is one timestamped trading decision.
type Signal struct {
	ID     uuid.UUID
	Side   Side
	Symbol string
	Price  float64
	At     time.Time
}

// New stamps a fresh signal with a unique ID.
func New(side Side, symbol string, price float64, at time.Time) Signal {
	return Signal{
		ID:     uuid.New(),
		Side:   side,
		Symbol: symbol,
		Price:  price,
		At:     at,
	}
}

func (s Signal) String() string {
	return fmt.Sprintf("%s %s at %s for %g USDT", s.Side, s.Symbol, s.At.UTC().Format(time.RFC3339), s.Price)
}
