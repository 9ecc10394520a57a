// Package gateway defines the exchange capability contracts the engine polls,
// plus adapters for the supported platforms. Connectivity concerns such as
// authentication and rate limiting live behind these interfaces.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeflux/internal/domain"
)

// OrderSpec describes an order to submit to the exchange.
type OrderSpec struct {
	Pair   domain.Pair
	Side   domain.OrderSide
	Amount decimal.Decimal
	// ClientOrderID lets the caller correlate the submitted order with later
	// order/trade flux observations.
	ClientOrderID string
}

// AccountGateway reads account state from the exchange.
type AccountGateway interface {
	FetchAccounts(ctx context.Context) ([]domain.Account, error)
}

// MarketGateway reads market data from the exchange.
type MarketGateway interface {
	FetchTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}

// TradeGateway reads execution state and submits orders.
type TradeGateway interface {
	FetchOpenOrders(ctx context.Context) ([]domain.Order, error)
	FetchTrades(ctx context.Context) ([]domain.Trade, error)
	// SubmitOrder places an order and returns the exchange-assigned order id.
	SubmitOrder(ctx context.Context, spec OrderSpec) (string, error)
}

// PositionGateway reads tracked positions. The position engine itself is the
// default implementation; an externally-persisted source can replace it.
type PositionGateway interface {
	FetchPositions(ctx context.Context) ([]domain.Position, error)
}

// Gateway is the full capability set of an exchange adapter.
type Gateway interface {
	AccountGateway
	MarketGateway
	TradeGateway
}
