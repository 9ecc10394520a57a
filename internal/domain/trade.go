package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Trade a single execution of an order, reported by the exchange.
// Immutable once observed; the identity is assigned by the exchange.
type Trade struct {
	ID          string
	OrderID     string
	Pair        Pair
	Side        OrderSide
	Amount      decimal.Decimal
	Price       decimal.Decimal
	Fee         decimal.Decimal
	FeeCurrency string
	Timestamp   time.Time
}

// UID returns the stable identity used by the flux engine.
func (t Trade) UID() string {
	return t.ID
}

// Equal reports full value equality.
func (t Trade) Equal(other Trade) bool {
	return t.ID == other.ID &&
		t.OrderID == other.OrderID &&
		t.Pair == other.Pair &&
		t.Side == other.Side &&
		t.Amount.Equal(other.Amount) &&
		t.Price.Equal(other.Price) &&
		t.Fee.Equal(other.Fee) &&
		t.FeeCurrency == other.FeeCurrency &&
		t.Timestamp.Equal(other.Timestamp)
}

// String returns a human-readable string representation.
func (t Trade) String() string {
	return fmt.Sprintf("trade %s order: %s %s %s amount: %s price: %s",
		t.ID, t.OrderID, t.Pair.String(), t.Side.String(), t.Amount.String(), t.Price.String())
}
