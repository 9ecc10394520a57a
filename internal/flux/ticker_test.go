package flux

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

type fakeMarketGateway struct {
	prices  map[string]decimal.Decimal
	failing map[string]bool
	fetched []string
}

func (g *fakeMarketGateway) FetchTicker(_ context.Context, pair domain.Pair) (domain.Ticker, error) {
	g.fetched = append(g.fetched, pair.String())
	if g.failing[pair.String()] {
		return domain.Ticker{}, errors.New("rate limited")
	}
	return domain.Ticker{Pair: pair, Last: g.prices[pair.String()]}, nil
}

type tickerRecorder struct {
	reacted  []domain.Ticker
	notified []domain.Ticker
}

func (r *tickerRecorder) ReactTicker(_ context.Context, t domain.Ticker) {
	r.reacted = append(r.reacted, t)
}

func (r *tickerRecorder) NotifyTicker(t domain.Ticker) {
	r.notified = append(r.notified, t)
}

func TestTickerFlux_PollsOnlyTrackedPairs(t *testing.T) {
	btc := domain.Pair{From: "BTC", To: "USDT"}
	eth := domain.Pair{From: "ETH", To: "USDT"}

	gw := &fakeMarketGateway{prices: map[string]decimal.Decimal{
		"BTC_USDT": decimal.NewFromInt(50000),
		"ETH_USDT": decimal.NewFromInt(3000),
	}}
	rec := &tickerRecorder{}
	f := NewTickerFlux(gw, []domain.Pair{btc, eth}, rec, rec, zap.NewNop())

	f.Update(context.Background())

	assert.Equal(t, []string{"BTC_USDT", "ETH_USDT"}, gw.fetched)
	require.Len(t, rec.notified, 2)
}

func TestTickerFlux_ReactorRunsBeforeNotifier(t *testing.T) {
	btc := domain.Pair{From: "BTC", To: "USDT"}
	gw := &fakeMarketGateway{prices: map[string]decimal.Decimal{
		"BTC_USDT": decimal.NewFromInt(50000),
	}}
	rec := &tickerRecorder{}
	f := NewTickerFlux(gw, []domain.Pair{btc}, rec, rec, zap.NewNop())

	f.Update(context.Background())

	require.Len(t, rec.reacted, 1)
	require.Len(t, rec.notified, 1)
}

func TestTickerFlux_OnePairFailureDoesNotBlockOthers(t *testing.T) {
	btc := domain.Pair{From: "BTC", To: "USDT"}
	eth := domain.Pair{From: "ETH", To: "USDT"}

	gw := &fakeMarketGateway{
		prices:  map[string]decimal.Decimal{"ETH_USDT": decimal.NewFromInt(3000)},
		failing: map[string]bool{"BTC_USDT": true},
	}
	rec := &tickerRecorder{}
	f := NewTickerFlux(gw, []domain.Pair{btc, eth}, rec, rec, zap.NewNop())

	f.Update(context.Background())

	require.Len(t, rec.notified, 1)
	assert.Equal(t, "ETH_USDT", rec.notified[0].UID())
}

func TestTickerFlux_PriceChangeNotifiedOnce(t *testing.T) {
	btc := domain.Pair{From: "BTC", To: "USDT"}
	gw := &fakeMarketGateway{prices: map[string]decimal.Decimal{
		"BTC_USDT": decimal.NewFromInt(50000),
	}}
	rec := &tickerRecorder{}
	f := NewTickerFlux(gw, []domain.Pair{btc}, rec, rec, zap.NewNop())

	ctx := context.Background()
	f.Update(ctx)
	f.Update(ctx) // same price, no notification
	gw.prices["BTC_USDT"] = decimal.NewFromInt(51000)
	f.Update(ctx)
	f.Update(ctx)

	require.Len(t, rec.notified, 2)
	assert.True(t, rec.notified[1].Last.Equal(decimal.NewFromInt(51000)))
}
