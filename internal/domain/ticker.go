package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ticker last-traded price and OHLCV fields for one pair at one timestamp.
// A pair has exactly one current ticker, so the pair is the ticker identity.
type Ticker struct {
	Pair      Pair
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Last      decimal.Decimal
	Volume    decimal.Decimal
	Timestamp time.Time
}

// UID returns the stable identity used by the flux engine.
func (t Ticker) UID() string {
	return t.Pair.String()
}

// Equal reports value equality over the observed market fields. Any differing
// field makes the ticker a new observation, there is no partial-field diff.
// The timestamp is advisory and excluded: rolling-window stats shift it on
// every poll even when no trade happened.
func (t Ticker) Equal(other Ticker) bool {
	return t.Pair == other.Pair &&
		t.Open.Equal(other.Open) &&
		t.High.Equal(other.High) &&
		t.Low.Equal(other.Low) &&
		t.Last.Equal(other.Last) &&
		t.Volume.Equal(other.Volume)
}

// String returns a human-readable string representation.
func (t Ticker) String() string {
	return fmt.Sprintf("%s last: %s", t.Pair.String(), t.Last.String())
}
