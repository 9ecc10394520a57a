// Package strategy defines the contract between the engine and user trading
// strategies, and the dispatcher that routes entity updates to them.
package strategy

import "github.com/vadiminshakov/tradeflux/internal/domain"

// Strategy is the capability set a trading algorithm implements to receive
// updates from the flux engine. Callbacks are one-way notifications invoked
// synchronously from the flux cycle; a slow callback delays that cycle.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// RequestedPairs declares the currency pairs whose tickers the strategy
	// wants. Queried once at registration; the result is treated as static
	// for the strategy's lifetime.
	RequestedPairs() []domain.Pair

	// OnAccountUpdate is called on every account change.
	OnAccountUpdate(account domain.Account)

	// OnTickerUpdate is called on every ticker change for a requested pair.
	OnTickerUpdate(ticker domain.Ticker)

	// OnOrderUpdate is called on every order change.
	OnOrderUpdate(order domain.Order)

	// OnTradeUpdate is called on every new or changed trade.
	OnTradeUpdate(trade domain.Trade)

	// OnPositionUpdate is called on every position change, including status
	// transitions the strategy did not initiate.
	OnPositionUpdate(position domain.Position)
}
