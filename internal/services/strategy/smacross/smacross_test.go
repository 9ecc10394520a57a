package smacross

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

type fakeOpener struct {
	opened int
	err    error
}

func (o *fakeOpener) Open(_ context.Context, pair domain.Pair, amount decimal.Decimal, rules domain.PositionRules) (domain.Position, error) {
	if o.err != nil {
		return domain.Position{}, o.err
	}
	o.opened++
	return domain.Position{
		ID:     strconv.Itoa(o.opened),
		Pair:   pair,
		Amount: amount,
		Rules:  rules,
		Status: domain.PositionOpening,
	}, nil
}

var btcUsdt = domain.Pair{From: "BTC", To: "USDT"}

func newTestStrategy(opener *fakeOpener) *Strategy {
	return New(btcUsdt, decimal.NewFromInt(1), domain.NewStopGainRule(decimal.NewFromInt(10)), opener, zap.NewNop())
}

func tick(price int64) domain.Ticker {
	return domain.Ticker{Pair: btcUsdt, Last: decimal.NewFromInt(price)}
}

// feedFlat sends n ticks at the same price, enough history with both moving
// averages equal.
func feedFlat(s *Strategy, n int, price int64) {
	for i := 0; i < n; i++ {
		s.OnTickerUpdate(tick(price))
	}
}

func TestStrategy_OpensOnGoldenCross(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestStrategy(opener)

	feedFlat(s, 40, 100)
	require.Zero(t, opener.opened, "flat prices produce no cross")

	// a jump lifts the short average above the long one
	s.OnTickerUpdate(tick(200))
	assert.Equal(t, 1, opener.opened)
}

func TestStrategy_NoOpenBeforeEnoughHistory(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestStrategy(opener)

	feedFlat(s, 20, 100)
	s.OnTickerUpdate(tick(200))

	assert.Zero(t, opener.opened)
}

func TestStrategy_AtMostOneLivePosition(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestStrategy(opener)

	feedFlat(s, 40, 100)
	s.OnTickerUpdate(tick(200))
	require.Equal(t, 1, opener.opened)

	// keep rising while the position is live
	for price := int64(210); price <= 300; price += 10 {
		s.OnTickerUpdate(tick(price))
	}
	assert.Equal(t, 1, opener.opened)
}

func TestStrategy_ReopensAfterPositionClosed(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestStrategy(opener)

	feedFlat(s, 40, 100)
	s.OnTickerUpdate(tick(200))
	require.Equal(t, 1, opener.opened)

	s.OnPositionUpdate(domain.Position{ID: "1", Pair: btcUsdt, Status: domain.PositionClosed})

	// reset to flat and cross again
	feedFlat(s, 40, 100)
	s.OnTickerUpdate(tick(200))
	assert.Equal(t, 2, opener.opened)
}

func TestStrategy_IgnoresOtherPairsPositions(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestStrategy(opener)

	feedFlat(s, 40, 100)
	s.OnTickerUpdate(tick(200))
	require.Equal(t, 1, opener.opened)

	eth := domain.Pair{From: "ETH", To: "USDT"}
	s.OnPositionUpdate(domain.Position{ID: "1", Pair: eth, Status: domain.PositionClosed})

	// own position still live, no reopen
	feedFlat(s, 40, 100)
	s.OnTickerUpdate(tick(200))
	assert.Equal(t, 1, opener.opened)
}

func TestStrategy_RequestedPairs(t *testing.T) {
	s := newTestStrategy(&fakeOpener{})
	assert.Equal(t, []domain.Pair{btcUsdt}, s.RequestedPairs())
}

// Ticker updates and position updates arrive from different controller
// goroutines; run both concurrently so the race detector checks the locking.
func TestStrategy_ConcurrentTickerAndPositionUpdates(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestStrategy(opener)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.OnTickerUpdate(tick(100))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.OnPositionUpdate(domain.Position{ID: "1", Pair: btcUsdt, Status: domain.PositionClosed})
		}
	}()
	wg.Wait()
}
