package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/pkg/retrier"
)

// binanceAccountID identifies the single spot account a client sees.
const binanceAccountID = "binance-spot"

// Binance adapts the Binance spot API to the gateway contracts. Fetches are
// retried through the retrier; order submission is not.
type Binance struct {
	client  *binance.Client
	pairs   []domain.Pair
	bySym   map[string]domain.Pair
	retrier *retrier.Retrier
}

// NewBinance creates the adapter for the given tracked pairs. Order and trade
// queries are symbol-scoped on Binance, so the adapter iterates the tracked
// pairs on every fetch.
func NewBinance(client *binance.Client, pairs []domain.Pair) *Binance {
	bySym := make(map[string]domain.Pair, len(pairs))
	for _, p := range pairs {
		bySym[p.Symbol()] = p
	}
	return &Binance{
		client:  client,
		pairs:   pairs,
		bySym:   bySym,
		retrier: retrier.New(),
	}
}

// FetchAccounts returns the spot account with its non-empty balances.
func (b *Binance) FetchAccounts(ctx context.Context) ([]domain.Account, error) {
	res, err := retrier.DoWithData(b.retrier, ctx, func(ctx context.Context) (*binance.Account, error) {
		return b.client.NewGetAccountService().Do(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch binance account")
	}

	balances := make(map[string]domain.Balance, len(res.Balances))
	for _, bal := range res.Balances {
		free, err := decimal.NewFromString(bal.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse free balance for %s", bal.Asset)
		}
		locked, err := decimal.NewFromString(bal.Locked)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse locked balance for %s", bal.Asset)
		}
		if free.IsZero() && locked.IsZero() {
			continue
		}
		balances[bal.Asset] = domain.Balance{Currency: bal.Asset, Available: free, Frozen: locked}
	}

	return []domain.Account{{ID: binanceAccountID, Name: res.AccountType, Balances: balances}}, nil
}

// FetchTicker returns the 24h rolling stats for the pair mapped to a ticker.
func (b *Binance) FetchTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	stats, err := retrier.DoWithData(b.retrier, ctx, func(ctx context.Context) ([]*binance.PriceChangeStats, error) {
		return b.client.NewListPriceChangeStatsService().Symbol(pair.Symbol()).Do(ctx)
	})
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "failed to fetch binance ticker for %s", pair.String())
	}
	if len(stats) == 0 {
		return domain.Ticker{}, fmt.Errorf("binance returned no ticker for %s", pair.String())
	}

	s := stats[0]
	ticker := domain.Ticker{Pair: pair, Timestamp: time.UnixMilli(s.CloseTime)}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&ticker.Open, s.OpenPrice},
		{&ticker.High, s.HighPrice},
		{&ticker.Low, s.LowPrice},
		{&ticker.Last, s.LastPrice},
		{&ticker.Volume, s.Volume},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.src)
		if err != nil {
			return domain.Ticker{}, errors.Wrapf(err, "failed to parse binance ticker for %s", pair.String())
		}
		*f.dst = v
	}
	return ticker, nil
}

// FetchOpenOrders returns open orders across every tracked pair.
func (b *Binance) FetchOpenOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	for _, pair := range b.pairs {
		res, err := retrier.DoWithData(b.retrier, ctx, func(ctx context.Context) ([]*binance.Order, error) {
			return b.client.NewListOpenOrdersService().Symbol(pair.Symbol()).Do(ctx)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch binance open orders for %s", pair.String())
		}
		for _, o := range res {
			order, err := b.mapOrder(o)
			if err != nil {
				return nil, err
			}
			out = append(out, order)
		}
	}
	return out, nil
}

// FetchTrades returns account trade history across every tracked pair.
func (b *Binance) FetchTrades(ctx context.Context) ([]domain.Trade, error) {
	var out []domain.Trade
	for _, pair := range b.pairs {
		res, err := retrier.DoWithData(b.retrier, ctx, func(ctx context.Context) ([]*binance.TradeV3, error) {
			return b.client.NewListTradesService().Symbol(pair.Symbol()).Do(ctx)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch binance trades for %s", pair.String())
		}
		for _, t := range res {
			trade, err := mapBinanceTrade(t, pair)
			if err != nil {
				return nil, err
			}
			out = append(out, trade)
		}
	}
	return out, nil
}

// SubmitOrder places a market order and returns the exchange order id.
// Submission is deliberately not retried.
func (b *Binance) SubmitOrder(ctx context.Context, spec OrderSpec) (string, error) {
	side := binance.SideTypeBuy
	if spec.Side == domain.SideSell {
		side = binance.SideTypeSell
	}

	svc := b.client.NewCreateOrderService().
		Symbol(spec.Pair.Symbol()).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(spec.Amount.String())
	if spec.ClientOrderID != "" {
		svc = svc.NewClientOrderID(spec.ClientOrderID)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "failed to submit binance order for %s", spec.Pair.String())
	}
	return strconv.FormatInt(res.OrderID, 10), nil
}

func (b *Binance) mapOrder(o *binance.Order) (domain.Order, error) {
	pair, ok := b.bySym[o.Symbol]
	if !ok {
		pair = domain.Pair{From: o.Symbol}
	}

	amount, err := decimal.NewFromString(o.OrigQuantity)
	if err != nil {
		return domain.Order{}, errors.Wrapf(err, "failed to parse binance order %d", o.OrderID)
	}
	filled, err := decimal.NewFromString(o.ExecutedQuantity)
	if err != nil {
		return domain.Order{}, errors.Wrapf(err, "failed to parse binance order %d", o.OrderID)
	}
	price, err := decimal.NewFromString(o.Price)
	if err != nil {
		return domain.Order{}, errors.Wrapf(err, "failed to parse binance order %d", o.OrderID)
	}

	side := domain.SideBuy
	if o.Side == binance.SideTypeSell {
		side = domain.SideSell
	}

	return domain.Order{
		ID:            strconv.FormatInt(o.OrderID, 10),
		ClientOrderID: o.ClientOrderID,
		Pair:          pair,
		Side:          side,
		Amount:        amount,
		Filled:        filled,
		Price:         price,
		Status:        mapBinanceOrderStatus(o.Status),
		Timestamp:     time.UnixMilli(o.Time),
	}, nil
}

func mapBinanceTrade(t *binance.TradeV3, pair domain.Pair) (domain.Trade, error) {
	amount, err := decimal.NewFromString(t.Quantity)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "failed to parse binance trade %d", t.ID)
	}
	price, err := decimal.NewFromString(t.Price)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "failed to parse binance trade %d", t.ID)
	}
	fee, err := decimal.NewFromString(t.Commission)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "failed to parse binance trade %d", t.ID)
	}

	side := domain.SideSell
	if t.IsBuyer {
		side = domain.SideBuy
	}

	return domain.Trade{
		ID:          strconv.FormatInt(t.ID, 10),
		OrderID:     strconv.FormatInt(t.OrderID, 10),
		Pair:        pair,
		Side:        side,
		Amount:      amount,
		Price:       price,
		Fee:         fee,
		FeeCurrency: t.CommissionAsset,
		Timestamp:   time.UnixMilli(t.Time),
	}, nil
}

func mapBinanceOrderStatus(status binance.OrderStatusType) domain.OrderStatus {
	switch status {
	case binance.OrderStatusTypePartiallyFilled:
		return domain.OrderStatusPartiallyFilled
	case binance.OrderStatusTypeFilled:
		return domain.OrderStatusFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypePendingCancel:
		return domain.OrderStatusCanceled
	case binance.OrderStatusTypeRejected:
		return domain.OrderStatusRejected
	case binance.OrderStatusTypeExpired:
		return domain.OrderStatusExpired
	default:
		return domain.OrderStatusNew
	}
}
