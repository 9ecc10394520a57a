package gateway

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/pkg/retrier"
)

const bybitAccountID = "bybit-unified"

// Bybit adapts the Bybit V5 spot API to the gateway contracts.
type Bybit struct {
	client  *bybit.Client
	pairs   []domain.Pair
	bySym   map[string]domain.Pair
	retrier *retrier.Retrier
}

// NewBybit creates the adapter for the given tracked pairs.
func NewBybit(client *bybit.Client, pairs []domain.Pair) *Bybit {
	bySym := make(map[string]domain.Pair, len(pairs))
	for _, p := range pairs {
		bySym[p.Symbol()] = p
	}
	return &Bybit{
		client:  client,
		pairs:   pairs,
		bySym:   bySym,
		retrier: retrier.New(),
	}
}

// FetchAccounts returns the unified account with its non-empty balances.
func (b *Bybit) FetchAccounts(ctx context.Context) ([]domain.Account, error) {
	res, err := retrier.DoWithData(b.retrier, ctx, func(_ context.Context) (*bybit.V5GetWalletBalanceResponse, error) {
		return b.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch bybit wallet balance")
	}
	if len(res.Result.List) == 0 {
		return []domain.Account{{ID: bybitAccountID, Balances: map[string]domain.Balance{}}}, nil
	}

	balances := make(map[string]domain.Balance)
	for _, coin := range res.Result.List[0].Coin {
		wallet, err := decimal.NewFromString(coin.WalletBalance)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse bybit balance for %s", string(coin.Coin))
		}
		if wallet.IsZero() {
			continue
		}
		balances[string(coin.Coin)] = domain.Balance{Currency: string(coin.Coin), Available: wallet}
	}

	return []domain.Account{{ID: bybitAccountID, Name: "UNIFIED", Balances: balances}}, nil
}

// FetchTicker returns the spot ticker for the pair.
func (b *Bybit) FetchTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := retrier.DoWithData(b.retrier, ctx, func(_ context.Context) (*bybit.V5GetTickersResponse, error) {
		return b.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
			Category: bybit.CategoryV5Spot,
			Symbol:   &symbol,
		})
	})
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "failed to fetch bybit ticker for %s", pair.String())
	}
	if len(res.Result.Spot.List) == 0 {
		return domain.Ticker{}, fmt.Errorf("bybit returned no ticker for %s", pair.String())
	}

	t := res.Result.Spot.List[0]
	ticker := domain.Ticker{Pair: pair, Timestamp: time.Now().UTC()}
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&ticker.Open, t.PrevPrice24H},
		{&ticker.High, t.HighPrice24H},
		{&ticker.Low, t.LowPrice24H},
		{&ticker.Last, t.LastPrice},
		{&ticker.Volume, t.Volume24H},
	}
	for _, f := range fields {
		v, err := decimal.NewFromString(f.src)
		if err != nil {
			return domain.Ticker{}, errors.Wrapf(err, "failed to parse bybit ticker for %s", pair.String())
		}
		*f.dst = v
	}
	return ticker, nil
}

// FetchOpenOrders returns open spot orders across every tracked pair.
func (b *Bybit) FetchOpenOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	for _, pair := range b.pairs {
		symbol := bybit.SymbolV5(pair.Symbol())
		res, err := retrier.DoWithData(b.retrier, ctx, func(_ context.Context) (*bybit.V5GetOrdersResponse, error) {
			return b.client.V5().Order().GetOpenOrders(bybit.V5GetOpenOrdersParam{
				Category: bybit.CategoryV5Spot,
				Symbol:   &symbol,
			})
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch bybit open orders for %s", pair.String())
		}
		for _, o := range res.Result.List {
			order, err := b.mapOrder(o, pair)
			if err != nil {
				return nil, err
			}
			out = append(out, order)
		}
	}
	return out, nil
}

// FetchTrades returns spot executions across every tracked pair.
func (b *Bybit) FetchTrades(ctx context.Context) ([]domain.Trade, error) {
	var out []domain.Trade
	for _, pair := range b.pairs {
		symbol := bybit.SymbolV5(pair.Symbol())
		res, err := retrier.DoWithData(b.retrier, ctx, func(_ context.Context) (*bybit.V5GetExecutionListResponse, error) {
			return b.client.V5().Execution().GetExecutionList(bybit.V5GetExecutionParam{
				Category: bybit.CategoryV5Spot,
				Symbol:   &symbol,
			})
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch bybit executions for %s", pair.String())
		}
		for _, e := range res.Result.List {
			trade, err := mapBybitExecution(e, pair)
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
func (b *Bybit) SubmitOrder(ctx context.Context, spec OrderSpec) (string, error) {
	side := bybit.SideBuy
	if spec.Side == domain.SideSell {
		side = bybit.SideSell
	}

	param := bybit.V5CreateOrderParam{
		Category:  bybit.CategoryV5Spot,
		Symbol:    bybit.SymbolV5(spec.Pair.Symbol()),
		Side:      side,
		OrderType: bybit.OrderTypeMarket,
		Qty:       spec.Amount.String(),
	}
	if spec.ClientOrderID != "" {
		linkID := spec.ClientOrderID
		param.OrderLinkID = &linkID
	}

	res, err := b.client.V5().Order().CreateOrder(param)
	if err != nil {
		return "", errors.Wrapf(err, "failed to submit bybit order for %s", spec.Pair.String())
	}
	return res.Result.OrderID, nil
}

func (b *Bybit) mapOrder(o bybit.V5GetOrder, pair domain.Pair) (domain.Order, error) {
	amount, err := decimal.NewFromString(o.Qty)
	if err != nil {
		return domain.Order{}, errors.Wrapf(err, "failed to parse bybit order %s", o.OrderID)
	}
	filled := decimal.Zero
	if o.CumExecQty != "" {
		if filled, err = decimal.NewFromString(o.CumExecQty); err != nil {
			return domain.Order{}, errors.Wrapf(err, "failed to parse bybit order %s", o.OrderID)
		}
	}
	price := decimal.Zero
	if o.Price != "" {
		if price, err = decimal.NewFromString(o.Price); err != nil {
			return domain.Order{}, errors.Wrapf(err, "failed to parse bybit order %s", o.OrderID)
		}
	}

	side := domain.SideBuy
	if o.Side == bybit.SideSell {
		side = domain.SideSell
	}

	return domain.Order{
		ID:            o.OrderID,
		ClientOrderID: o.OrderLinkID,
		Pair:          pair,
		Side:          side,
		Amount:        amount,
		Filled:        filled,
		Price:         price,
		Status:        mapBybitOrderStatus(string(o.OrderStatus)),
		Timestamp:     parseMilliString(o.CreatedTime),
	}, nil
}

func mapBybitExecution(e bybit.V5GetExecutionListItem, pair domain.Pair) (domain.Trade, error) {
	amount, err := decimal.NewFromString(e.ExecQty)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "failed to parse bybit execution %s", e.ExecID)
	}
	price, err := decimal.NewFromString(e.ExecPrice)
	if err != nil {
		return domain.Trade{}, errors.Wrapf(err, "failed to parse bybit execution %s", e.ExecID)
	}
	fee := decimal.Zero
	if e.ExecFee != "" {
		if fee, err = decimal.NewFromString(e.ExecFee); err != nil {
			return domain.Trade{}, errors.Wrapf(err, "failed to parse bybit execution %s", e.ExecID)
		}
	}

	side := domain.SideBuy
	if e.Side == bybit.SideSell {
		side = domain.SideSell
	}

	return domain.Trade{
		ID:        e.ExecID,
		OrderID:   e.OrderID,
		Pair:      pair,
		Side:      side,
		Amount:    amount,
		Price:     price,
		Fee:       fee,
		Timestamp: parseMilliString(e.ExecTime),
	}, nil
}

func mapBybitOrderStatus(status string) domain.OrderStatus {
	switch status {
	case "PartiallyFilled":
		return domain.OrderStatusPartiallyFilled
	case "Filled":
		return domain.OrderStatusFilled
	case "Cancelled", "PartiallyFilledCanceled":
		return domain.OrderStatusCanceled
	case "Rejected":
		return domain.OrderStatusRejected
	case "Deactivated":
		return domain.OrderStatusExpired
	default:
		return domain.OrderStatusNew
	}
}

func parseMilliString(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
