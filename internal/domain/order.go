package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide bid or ask.
type OrderSide int

const (
	// SideBuy buy order.
	SideBuy OrderSide = iota
	// SideSell sell order.
	SideSell
)

// String returns the side name.
func (s OrderSide) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// Opposite returns the side that closes an exposure opened with s.
func (s OrderSide) Opposite() OrderSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus exchange-defined order state.
type OrderStatus int

const (
	// OrderStatusNew accepted by the exchange, nothing filled yet.
	OrderStatusNew OrderStatus = iota
	// OrderStatusPartiallyFilled partially executed, still active.
	OrderStatusPartiallyFilled
	// OrderStatusFilled fully executed.
	OrderStatusFilled
	// OrderStatusCanceled canceled before completion.
	OrderStatusCanceled
	// OrderStatusRejected refused by the exchange.
	OrderStatusRejected
	// OrderStatusExpired expired per its time-in-force.
	OrderStatusExpired
)

// String returns the status name.
func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "NEW"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCanceled:
		return "CANCELED"
	case OrderStatusRejected:
		return "REJECTED"
	case OrderStatusExpired:
		return "EXPIRED"
	default:
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
}

// Failed reports whether the order terminated without filling completely.
func (s OrderStatus) Failed() bool {
	return s == OrderStatusCanceled || s == OrderStatusRejected || s == OrderStatusExpired
}

// Order an execution-side entity fetched from the exchange. The identity is
// assigned by the exchange and treated as an opaque string.
type Order struct {
	ID            string
	ClientOrderID string
	Pair          Pair
	Side          OrderSide
	Amount        decimal.Decimal
	Filled        decimal.Decimal
	Price         decimal.Decimal
	Status        OrderStatus
	Timestamp     time.Time
}

// UID returns the stable identity used by the flux engine.
func (o Order) UID() string {
	return o.ID
}

// Equal reports full value equality.
func (o Order) Equal(other Order) bool {
	return o.ID == other.ID &&
		o.ClientOrderID == other.ClientOrderID &&
		o.Pair == other.Pair &&
		o.Side == other.Side &&
		o.Amount.Equal(other.Amount) &&
		o.Filled.Equal(other.Filled) &&
		o.Price.Equal(other.Price) &&
		o.Status == other.Status &&
		o.Timestamp.Equal(other.Timestamp)
}

// Fulfilled reports whether the order is fully filled.
func (o Order) Fulfilled() bool {
	return o.Status == OrderStatusFilled
}

// String returns a human-readable string representation.
func (o Order) String() string {
	return fmt.Sprintf("order %s %s %s amount: %s status: %s",
		o.ID, o.Pair.String(), o.Side.String(), o.Amount.String(), o.Status.String())
}
