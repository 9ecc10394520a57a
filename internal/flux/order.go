package flux

import (
	"context"

	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/internal/gateway"
)

// OrderNotifier receives changed orders.
type OrderNotifier interface {
	NotifyOrder(order domain.Order)
}

// OrderReactor lets the position engine transition positions when the orders
// that opened or closed them change state.
type OrderReactor interface {
	ReactOrder(ctx context.Context, order domain.Order)
}

// OrderFlux polls open orders and forwards changed orders to the position
// engine and strategies.
type OrderFlux struct {
	gateway  gateway.TradeGateway
	snapshot *Snapshot[domain.Order]
	reactor  OrderReactor
	notifier OrderNotifier
	logger   *zap.Logger
}

// NewOrderFlux creates the order flux controller.
func NewOrderFlux(gw gateway.TradeGateway, reactor OrderReactor, notifier OrderNotifier, logger *zap.Logger) *OrderFlux {
	return &OrderFlux{
		gateway:  gw,
		snapshot: NewSnapshot[domain.Order](),
		reactor:  reactor,
		notifier: notifier,
		logger:   logger,
	}
}

// Name returns the controller name used by the scheduler and logs.
func (f *OrderFlux) Name() string { return "order-flux" }

// Update runs one poll cycle. A fetch failure skips the cycle and leaves the
// snapshot untouched; it never propagates.
func (f *OrderFlux) Update(ctx context.Context) {
	orders, err := f.gateway.FetchOpenOrders(ctx)
	if err != nil {
		f.logger.Warn("order fetch failed, skipping cycle", zap.Error(err))
		return
	}

	changed, conflicting := Changes(f.snapshot, orders)
	for _, order := range conflicting {
		f.logger.Error("conflicting duplicate order in fetch, update dropped",
			zap.String("order", order.UID()))
	}
	for _, order := range changed {
		f.reactor.ReactOrder(ctx, order)
		f.notifier.NotifyOrder(order)
	}
}
