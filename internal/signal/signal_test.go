package signal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewAssignsUniqueIDs(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	a := New(Buy, "BTCUSDT", 9642.0, at)
	b := New(Buy, "BTCUSDT", 9642.0, at)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSignalString(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	buy := New(Buy, "BTCUSDT", 9642.0, at)
	assert.Equal(t, "BUY BTCUSDT at 2024-06-01T12:00:00Z for 9642 USDT", buy.String())

	sell := New(Sell, "ETHUSDT", 2450.5, at)
	assert.Equal(t, "SELL ETHUSDT at 2024-06-01T12:00:00Z for 2450.5 USDT", sell.String())
}
