package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/pkg/retrier"
)

// Hyperliquid adapts the Hyperliquid spot API to the gateway contracts.
// Market orders are emulated with IOC limit orders priced with slippage,
// the same way the reference SDK does.
type Hyperliquid struct {
	ex          *hyperliquid.Exchange
	info        *hyperliquid.Info
	accountAddr string
	pairs       []domain.Pair
	byCoin      map[string]domain.Pair
	retrier     *retrier.Retrier
}

// NewHyperliquid creates the adapter for the given tracked pairs.
func NewHyperliquid(ex *hyperliquid.Exchange, accountAddr string, pairs []domain.Pair) *Hyperliquid {
	byCoin := make(map[string]domain.Pair, len(pairs))
	for _, p := range pairs {
		byCoin[p.From] = p
	}
	return &Hyperliquid{
		ex:          ex,
		info:        ex.Info(),
		accountAddr: accountAddr,
		pairs:       pairs,
		byCoin:      byCoin,
		retrier:     retrier.New(),
	}
}

// FetchAccounts returns the spot account state with its non-empty balances.
func (g *Hyperliquid) FetchAccounts(ctx context.Context) ([]domain.Account, error) {
	state, err := retrier.DoWithData(g.retrier, ctx, func(ctx context.Context) (*hyperliquid.SpotUserState, error) {
		return g.info.SpotUserState(ctx, g.accountAddr)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch hyperliquid spot state")
	}

	balances := make(map[string]domain.Balance)
	for _, bal := range state.Balances {
		total, err := decimal.NewFromString(bal.Total)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse hyperliquid balance for %s", bal.Coin)
		}
		hold, err := decimal.NewFromString(bal.Hold)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse hyperliquid balance for %s", bal.Coin)
		}
		if total.IsZero() {
			continue
		}
		balances[bal.Coin] = domain.Balance{
			Currency:  bal.Coin,
			Available: total.Sub(hold),
			Frozen:    hold,
		}
	}

	return []domain.Account{{ID: "hyperliquid-" + g.accountAddr, Balances: balances}}, nil
}

// FetchTicker returns the current mid price for the pair's base coin.
// Hyperliquid mids carry no OHLCV fields, so only Last is populated.
func (g *Hyperliquid) FetchTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	mids, err := retrier.DoWithData(g.retrier, ctx, func(ctx context.Context) (map[string]string, error) {
		return g.info.AllMids(ctx)
	})
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "failed to fetch hyperliquid mids for %s", pair.String())
	}

	mid, ok := mids[pair.From]
	if !ok || mid == "" {
		return domain.Ticker{}, fmt.Errorf("hyperliquid returned no mid price for %s", pair.From)
	}
	last, err := decimal.NewFromString(mid)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "failed to parse hyperliquid mid for %s", pair.From)
	}

	return domain.Ticker{Pair: pair, Last: last, Timestamp: time.Now().UTC()}, nil
}

// FetchOpenOrders returns resting orders for the tracked pairs.
func (g *Hyperliquid) FetchOpenOrders(ctx context.Context) ([]domain.Order, error) {
	open, err := retrier.DoWithData(g.retrier, ctx, func(ctx context.Context) ([]hyperliquid.OpenOrder, error) {
		return g.info.OpenOrders(ctx, g.accountAddr)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch hyperliquid open orders")
	}

	var out []domain.Order
	for _, o := range open {
		pair, ok := g.byCoin[o.Coin]
		if !ok {
			continue
		}
		out = append(out, domain.Order{
			ID:        strconv.FormatInt(o.Oid, 10),
			Pair:      pair,
			Side:      hyperliquidSide(o.Side),
			Amount:    decimal.NewFromFloat(o.Size),
			Price:     decimal.NewFromFloat(o.LimitPx),
			Status:    domain.OrderStatusNew,
			Timestamp: time.UnixMilli(o.Timestamp),
		})
	}
	return out, nil
}

// FetchTrades returns the account's fills for the tracked pairs.
func (g *Hyperliquid) FetchTrades(ctx context.Context) ([]domain.Trade, error) {
	fills, err := retrier.DoWithData(g.retrier, ctx, func(ctx context.Context) ([]hyperliquid.Fill, error) {
		return g.info.UserFills(ctx, g.accountAddr)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch hyperliquid fills")
	}

	var out []domain.Trade
	for _, f := range fills {
		pair, ok := g.byCoin[f.Coin]
		if !ok {
			continue
		}
		amount, err := decimal.NewFromString(f.Size)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse hyperliquid fill %d", f.Tid)
		}
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse hyperliquid fill %d", f.Tid)
		}
		fee := decimal.Zero
		if f.Fee != "" {
			if fee, err = decimal.NewFromString(f.Fee); err != nil {
				return nil, errors.Wrapf(err, "failed to parse hyperliquid fill %d", f.Tid)
			}
		}

		out = append(out, domain.Trade{
			ID:        strconv.FormatInt(f.Tid, 10),
			OrderID:   strconv.FormatInt(f.Oid, 10),
			Pair:      pair,
			Side:      hyperliquidSide(f.Side),
			Amount:    amount,
			Price:     price,
			Fee:       fee,
			Timestamp: time.UnixMilli(f.Time),
		})
	}
	return out, nil
}

// SubmitOrder emulates a market order with an IOC limit order priced with a
// small slippage and returns the exchange order id. Submission is
// deliberately not retried.
func (g *Hyperliquid) SubmitOrder(ctx context.Context, spec OrderSpec) (string, error) {
	isBuy := spec.Side == domain.SideBuy
	size, _ := spec.Amount.Round(8).Float64()

	px, err := g.ex.SlippagePrice(ctx, spec.Pair.From, isBuy, 0.005, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to compute hyperliquid slippage price")
	}

	cloid := cloidFromID(spec.ClientOrderID)
	req := hyperliquid.CreateOrderRequest{
		Coin:          spec.Pair.From,
		IsBuy:         isBuy,
		Price:         px,
		Size:          size,
		ClientOrderID: &cloid,
		OrderType: hyperliquid.OrderType{
			Limit: &hyperliquid.LimitOrderType{Tif: hyperliquid.TifIoc},
		},
	}

	res, err := g.ex.Order(ctx, req, nil)
	if err != nil {
		return "", errors.Wrapf(err, "failed to submit hyperliquid order for %s", spec.Pair.String())
	}

	if res.Resting != nil {
		return strconv.FormatInt(int64(res.Resting.Oid), 10), nil
	}
	if res.Filled != nil {
		return strconv.FormatInt(int64(res.Filled.Oid), 10), nil
	}
	return "", fmt.Errorf("hyperliquid order response carried no order id for %s", spec.Pair.String())
}

func hyperliquidSide(side string) domain.OrderSide {
	// Hyperliquid encodes bid as "B" and ask as "A".
	if side == "B" {
		return domain.SideBuy
	}
	return domain.SideSell
}

// cloidFromID converts a free-form client id into a valid Hyperliquid cloid
// (0x + 32 hex chars).
func cloidFromID(id string) string {
	if id == "" {
		id = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	sum := sha256.Sum256([]byte(id))
	return "0x" + hex.EncodeToString(sum[:16])
}
