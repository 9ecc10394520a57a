package strategy

import (
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

type registration struct {
	strategy Strategy
	// pairs is the strategy's interest set, captured once at registration.
	pairs map[string]struct{}
}

// Dispatcher routes changed entities to registered strategies. Delivery is
// synchronous, in registration order, with no isolation between strategies.
// Ticker updates are filtered by each strategy's declared pair interest;
// every other entity family is delivered unfiltered.
//
// Register is not safe to call concurrently with notifications: the registry
// is populated at startup, before the scheduler starts.
type Dispatcher struct {
	registry []registration
	logger   *zap.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Register appends the strategy to the registry and captures its requested
// pairs once.
func (d *Dispatcher) Register(s Strategy) {
	pairs := make(map[string]struct{})
	for _, pair := range s.RequestedPairs() {
		pairs[pair.String()] = struct{}{}
	}
	d.registry = append(d.registry, registration{strategy: s, pairs: pairs})
	d.logger.Info("strategy registered",
		zap.String("strategy", s.Name()), zap.Int("pairs", len(pairs)))
}

// RequestedPairs returns the union of every registered strategy's pairs, in
// first-seen order. The ticker flux polls exactly this set.
func (d *Dispatcher) RequestedPairs() []domain.Pair {
	seen := make(map[string]struct{})
	var union []domain.Pair
	for _, reg := range d.registry {
		for _, pair := range reg.strategy.RequestedPairs() {
			if _, ok := seen[pair.String()]; ok {
				continue
			}
			seen[pair.String()] = struct{}{}
			union = append(union, pair)
		}
	}
	return union
}

// NotifyAccount delivers the account to every registered strategy.
func (d *Dispatcher) NotifyAccount(account domain.Account) {
	for _, reg := range d.registry {
		reg.strategy.OnAccountUpdate(account)
	}
}

// NotifyTicker delivers the ticker only to strategies whose interest set
// contains its pair.
func (d *Dispatcher) NotifyTicker(ticker domain.Ticker) {
	for _, reg := range d.registry {
		if _, ok := reg.pairs[ticker.Pair.String()]; !ok {
			continue
		}
		reg.strategy.OnTickerUpdate(ticker)
	}
}

// NotifyOrder delivers the order to every registered strategy.
func (d *Dispatcher) NotifyOrder(order domain.Order) {
	for _, reg := range d.registry {
		reg.strategy.OnOrderUpdate(order)
	}
}

// NotifyTrade delivers the trade to every registered strategy.
func (d *Dispatcher) NotifyTrade(trade domain.Trade) {
	for _, reg := range d.registry {
		reg.strategy.OnTradeUpdate(trade)
	}
}

// NotifyPosition delivers the position to every registered strategy.
func (d *Dispatcher) NotifyPosition(position domain.Position) {
	for _, reg := range d.registry {
		reg.strategy.OnPositionUpdate(position)
	}
}
