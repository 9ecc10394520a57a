package flux

import (
	"context"

	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/internal/gateway"
)

// TickerNotifier receives changed tickers.
type TickerNotifier interface {
	NotifyTicker(ticker domain.Ticker)
}

// TickerReactor lets the position engine evaluate rules on every ticker
// change. It runs before strategy notification so risk evaluation sees the
// update at least as promptly as the strategies do.
type TickerReactor interface {
	ReactTicker(ctx context.Context, ticker domain.Ticker)
}

// TickerFlux polls one ticker per tracked pair and forwards changed tickers
// to the position engine and strategies.
type TickerFlux struct {
	gateway  gateway.MarketGateway
	pairs    []domain.Pair
	snapshot *Snapshot[domain.Ticker]
	reactor  TickerReactor
	notifier TickerNotifier
	logger   *zap.Logger
}

// NewTickerFlux creates the ticker flux controller. The pair set is the union
// of every registered strategy's requested pairs, computed once at startup.
func NewTickerFlux(gw gateway.MarketGateway, pairs []domain.Pair, reactor TickerReactor, notifier TickerNotifier, logger *zap.Logger) *TickerFlux {
	return &TickerFlux{
		gateway:  gw,
		pairs:    pairs,
		snapshot: NewSnapshot[domain.Ticker](),
		reactor:  reactor,
		notifier: notifier,
		logger:   logger,
	}
}

// Name returns the controller name used by the scheduler and logs.
func (f *TickerFlux) Name() string { return "ticker-flux" }

// Update fetches the current ticker for every tracked pair. A fetch failure
// for one pair does not block fetching the others.
func (f *TickerFlux) Update(ctx context.Context) {
	fresh := make([]domain.Ticker, 0, len(f.pairs))
	for _, pair := range f.pairs {
		ticker, err := f.gateway.FetchTicker(ctx, pair)
		if err != nil {
			f.logger.Warn("ticker fetch failed, skipping pair",
				zap.String("pair", pair.String()), zap.Error(err))
			continue
		}
		fresh = append(fresh, ticker)
	}

	changed, conflicting := Changes(f.snapshot, fresh)
	for _, ticker := range conflicting {
		f.logger.Error("conflicting duplicate ticker in fetch, update dropped",
			zap.String("pair", ticker.UID()))
	}
	for _, ticker := range changed {
		f.reactor.ReactTicker(ctx, ticker)
		f.notifier.NotifyTicker(ticker)
	}
}
