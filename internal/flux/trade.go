package flux

import (
	"context"

	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/internal/gateway"
)

// TradeNotifier receives changed trades.
type TradeNotifier interface {
	NotifyTrade(trade domain.Trade)
}

// TradeReactor lets the position engine confirm fills from executions.
type TradeReactor interface {
	ReactTrade(ctx context.Context, trade domain.Trade)
}

// TradeFlux polls executions and forwards new trades to the position engine
// and strategies.
type TradeFlux struct {
	gateway  gateway.TradeGateway
	snapshot *Snapshot[domain.Trade]
	reactor  TradeReactor
	notifier TradeNotifier
	logger   *zap.Logger
}

// NewTradeFlux creates the trade flux controller.
func NewTradeFlux(gw gateway.TradeGateway, reactor TradeReactor, notifier TradeNotifier, logger *zap.Logger) *TradeFlux {
	return &TradeFlux{
		gateway:  gw,
		snapshot: NewSnapshot[domain.Trade](),
		reactor:  reactor,
		notifier: notifier,
		logger:   logger,
	}
}

// Name returns the controller name used by the scheduler and logs.
func (f *TradeFlux) Name() string { return "trade-flux" }

// Update runs one poll cycle. A fetch failure skips the cycle and leaves the
// snapshot untouched; it never propagates.
func (f *TradeFlux) Update(ctx context.Context) {
	trades, err := f.gateway.FetchTrades(ctx)
	if err != nil {
		f.logger.Warn("trade fetch failed, skipping cycle", zap.Error(err))
		return
	}

	changed, conflicting := Changes(f.snapshot, trades)
	for _, trade := range conflicting {
		f.logger.Error("conflicting duplicate trade in fetch, update dropped",
			zap.String("trade", trade.UID()))
	}
	for _, trade := range changed {
		f.reactor.ReactTrade(ctx, trade)
		f.notifier.NotifyTrade(trade)
	}
}
