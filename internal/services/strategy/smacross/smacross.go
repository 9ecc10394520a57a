// Package smacross ships an example strategy: it opens a position when the
// short simple moving average crosses above the long one, and lets the
// position engine's stop rules manage the exit.
package smacross

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/pkg/indicators"
)

const (
	defaultShortPeriod = 10
	defaultLongPeriod  = 30
	maxHistory         = 200
	openTimeout        = 10 * time.Second
)

// PositionOpener is the slice of the position engine the strategy needs.
type PositionOpener interface {
	Open(ctx context.Context, pair domain.Pair, amount decimal.Decimal, rules domain.PositionRules) (domain.Position, error)
}

// Strategy reacts to ticker updates for one pair and opens rule-managed
// positions on golden crosses. Exits are not decided here: the position
// engine closes on stop-gain/stop-loss.
type Strategy struct {
	pair   domain.Pair
	amount decimal.Decimal
	rules  domain.PositionRules
	opener PositionOpener
	logger *zap.Logger

	shortPeriod int
	longPeriod  int

	// mu guards closes and live: ticker updates and position updates
	// arrive from different controller goroutines.
	mu     sync.Mutex
	closes []decimal.Decimal
	// live tracks this strategy's non-terminal positions, keyed by id.
	live map[string]struct{}
}

// New creates the strategy for one pair.
func New(pair domain.Pair, amount decimal.Decimal, rules domain.PositionRules, opener PositionOpener, logger *zap.Logger) *Strategy {
	return &Strategy{
		pair:        pair,
		amount:      amount,
		rules:       rules,
		opener:      opener,
		logger:      logger.With(zap.String("pair", pair.String())),
		shortPeriod: defaultShortPeriod,
		longPeriod:  defaultLongPeriod,
		live:        make(map[string]struct{}),
	}
}

// Name identifies the strategy in logs.
func (s *Strategy) Name() string { return "sma-cross-" + s.pair.String() }

// RequestedPairs declares the single pair the strategy trades.
func (s *Strategy) RequestedPairs() []domain.Pair { return []domain.Pair{s.pair} }

// OnTickerUpdate accumulates closes and opens a position on a golden cross.
// The lock is dropped before Open: the engine pushes the new position back
// into OnPositionUpdate on this same goroutine.
func (s *Strategy) OnTickerUpdate(ticker domain.Ticker) {
	s.mu.Lock()
	s.closes = append(s.closes, ticker.Last)
	if len(s.closes) > maxHistory {
		s.closes = s.closes[len(s.closes)-maxHistory:]
	}
	if len(s.closes) < s.longPeriod+1 || len(s.live) > 0 {
		s.mu.Unlock()
		return
	}
	closes := append([]decimal.Decimal(nil), s.closes...)
	s.mu.Unlock()

	short, err := indicators.CalculateSMA(closes, s.shortPeriod)
	if err != nil {
		s.logger.Warn("failed to compute short SMA", zap.Error(err))
		return
	}
	long, err := indicators.CalculateSMA(closes, s.longPeriod)
	if err != nil {
		s.logger.Warn("failed to compute long SMA", zap.Error(err))
		return
	}
	if len(short) < 2 || len(long) < 2 {
		return
	}

	prevShort, curShort := short[len(short)-2], short[len(short)-1]
	prevLong, curLong := long[len(long)-2], long[len(long)-1]

	crossedUp := prevShort.LessThanOrEqual(prevLong) && curShort.GreaterThan(curLong)
	if !crossedUp {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	pos, err := s.opener.Open(ctx, s.pair, s.amount, s.rules)
	if err != nil {
		s.logger.Error("failed to open position on golden cross", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.live[pos.ID] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("position opened on golden cross",
		zap.String("position", pos.ID),
		zap.String("price", ticker.Last.String()))
}

// OnPositionUpdate keeps the live position set current so the strategy opens
// at most one position at a time.
func (s *Strategy) OnPositionUpdate(position domain.Position) {
	if position.Pair != s.pair {
		return
	}
	if position.Status.Terminal() {
		s.mu.Lock()
		delete(s.live, position.ID)
		s.mu.Unlock()
	}
}

// OnAccountUpdate is a no-op for this strategy.
func (s *Strategy) OnAccountUpdate(domain.Account) {}

// OnOrderUpdate is a no-op for this strategy.
func (s *Strategy) OnOrderUpdate(domain.Order) {}

// OnTradeUpdate is a no-op for this strategy.
func (s *Strategy) OnTradeUpdate(domain.Trade) {}
