// Package position implements the position rule engine: it owns the lifecycle
// of positions, evaluates stop-gain/stop-loss rules on ticker updates and
// issues closing orders when a rule is breached.
package position

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/internal/gateway"
)

// Store persists positions. Every status transition is written through it.
type Store interface {
	Save(position domain.Position) error
}

// Notifier forwards position updates to registered strategies.
type Notifier interface {
	NotifyPosition(position domain.Position)
}

// OrderSubmitter is the slice of the trade gateway the engine needs.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, spec gateway.OrderSpec) (string, error)
}

// Engine tracks every position and drives its state machine:
// OPENING -> OPENED -> CLOSING -> CLOSED, with ERROR absorbing from any
// non-terminal state.
//
// Per-position state is shared between the ticker flux reaction and the
// order/trade flux reactions, which run on different controllers and may run
// concurrently. A single engine-level mutex guarantees exactly one transition
// attempt proceeds at a time. Store writes and strategy notifications happen
// outside the lock so a strategy callback can call back into the engine.
type Engine struct {
	mu        sync.Mutex
	positions map[string]domain.Position
	// byOpenOrder and byCloseOrder map exchange order ids to position ids.
	byOpenOrder  map[string]string
	byCloseOrder map[string]string
	// orderFills accumulates executed base amount per order id,
	// deduplicated by trade id. orderFillPrice holds the last observed
	// execution price per order id.
	orderFills      map[string]decimal.Decimal
	orderFillPrice  map[string]decimal.Decimal
	processedTrades map[string]struct{}

	trader   OrderSubmitter
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine creates the position rule engine.
func NewEngine(trader OrderSubmitter, store Store, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		positions:       make(map[string]domain.Position),
		byOpenOrder:     make(map[string]string),
		byCloseOrder:    make(map[string]string),
		orderFills:      make(map[string]decimal.Decimal),
		orderFillPrice:  make(map[string]decimal.Decimal),
		processedTrades: make(map[string]struct{}),
		trader:          trader,
		store:           store,
		notifier:        notifier,
		logger:          logger,
	}
}

// SetNotifier installs the update sink. It exists because the engine and the
// position flux reference each other: the flux polls the engine, the engine
// pushes transitions into the flux. Call it before the scheduler starts.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// Restore loads previously persisted positions at startup, without
// notifications.
func (e *Engine) Restore(positions []domain.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range positions {
		e.positions[p.ID] = p
		if p.OpenOrderID != "" {
			e.byOpenOrder[p.OpenOrderID] = p.ID
		}
		if p.CloseOrderID != "" {
			e.byCloseOrder[p.CloseOrderID] = p.ID
		}
	}
}

// Open submits a buy order sized to the given amount and registers an OPENING
// position carrying the rules. The position reaches OPENED when the order is
// observed fully filled on a later order/trade flux cycle.
func (e *Engine) Open(ctx context.Context, pair domain.Pair, amount decimal.Decimal, rules domain.PositionRules) (domain.Position, error) {
	id := uuid.NewString()

	orderID, err := e.trader.SubmitOrder(ctx, gateway.OrderSpec{
		Pair:          pair,
		Side:          domain.SideBuy,
		Amount:        amount,
		ClientOrderID: "tradeflux-open-" + id,
	})
	if err != nil {
		return domain.Position{}, errors.Wrap(err, "failed to submit opening order")
	}

	pos, err := domain.NewPosition(id, pair, amount, rules, orderID)
	if err != nil {
		return domain.Position{}, err
	}

	e.logger.Info("position opening",
		zap.String("position", pos.ID),
		zap.String("pair", pair.String()),
		zap.String("amount", amount.String()),
		zap.String("order", orderID))

	e.mu.Lock()
	e.positions[pos.ID] = pos
	e.byOpenOrder[orderID] = pos.ID
	// The trade flux may observe the order's fills before this registration.
	// Those fills were banked by order id and will never be re-reported, so
	// consume them here or the position would stay OPENING forever.
	if e.orderFills[orderID].GreaterThanOrEqual(pos.Amount) {
		e.markOpened(&pos, e.orderFillPrice[orderID], time.Now().UTC())
	}
	e.mu.Unlock()

	e.persistAndNotify(pos)
	return pos, nil
}

// ReactOrder transitions positions whose opening or closing order changed
// state.
func (e *Engine) ReactOrder(_ context.Context, order domain.Order) {
	e.mu.Lock()
	var updated []domain.Position

	if id, ok := e.byOpenOrder[order.ID]; ok {
		if pos, ok := e.positions[id]; ok && pos.Status == domain.PositionOpening {
			switch {
			case order.Fulfilled():
				e.markOpened(&pos, order.Price, order.Timestamp)
				updated = append(updated, pos)
			case order.Status.Failed():
				e.markError(&pos, "opening order "+order.Status.String())
				updated = append(updated, pos)
			}
		}
	}
	if id, ok := e.byCloseOrder[order.ID]; ok {
		if pos, ok := e.positions[id]; ok && pos.Status == domain.PositionClosing {
			switch {
			case order.Fulfilled():
				e.markClosed(&pos, order.Price, order.Timestamp)
				updated = append(updated, pos)
			case order.Status.Failed():
				e.markError(&pos, "closing order "+order.Status.String())
				updated = append(updated, pos)
			}
		}
	}
	e.mu.Unlock()

	for _, pos := range updated {
		e.persistAndNotify(pos)
	}
}

// ReactTrade confirms fills from executions: once the accumulated executed
// amount of an opening or closing order covers the position amount, the
// position transitions even if the order status was not yet observed.
func (e *Engine) ReactTrade(_ context.Context, trade domain.Trade) {
	e.mu.Lock()
	var updated []domain.Position

	if _, done := e.processedTrades[trade.ID]; !done {
		e.processedTrades[trade.ID] = struct{}{}
		e.orderFills[trade.OrderID] = e.orderFills[trade.OrderID].Add(trade.Amount)
		e.orderFillPrice[trade.OrderID] = trade.Price
	}
	filled := e.orderFills[trade.OrderID]

	if id, ok := e.byOpenOrder[trade.OrderID]; ok {
		if pos, ok := e.positions[id]; ok && pos.Status == domain.PositionOpening && filled.GreaterThanOrEqual(pos.Amount) {
			e.markOpened(&pos, trade.Price, trade.Timestamp)
			updated = append(updated, pos)
		}
	}
	if id, ok := e.byCloseOrder[trade.OrderID]; ok {
		if pos, ok := e.positions[id]; ok && pos.Status == domain.PositionClosing && filled.GreaterThanOrEqual(pos.Amount) {
			e.markClosed(&pos, trade.Price, trade.Timestamp)
			updated = append(updated, pos)
		}
	}
	e.mu.Unlock()

	for _, pos := range updated {
		e.persistAndNotify(pos)
	}
}

// ReactTicker updates price extrema of every OPENED position on the ticker's
// pair and evaluates its rules. A breach submits exactly one closing order:
// re-evaluation while CLOSING is a no-op, and a failed submission moves the
// position to ERROR without retry to avoid double-closing.
func (e *Engine) ReactTicker(ctx context.Context, ticker domain.Ticker) {
	e.mu.Lock()
	var updated []domain.Position

	for id, pos := range e.positions {
		if pos.Pair != ticker.Pair || pos.Status != domain.PositionOpened {
			continue
		}

		pos.RecordPrice(ticker.Last)

		if pos.RuleTriggered(ticker.Last) {
			closeOrderID, err := e.trader.SubmitOrder(ctx, gateway.OrderSpec{
				Pair:          pos.Pair,
				Side:          domain.SideSell,
				Amount:        pos.Amount,
				ClientOrderID: "tradeflux-close-" + pos.ID,
			})
			if err != nil {
				e.markError(&pos, "closing order submission failed: "+err.Error())
				e.logger.Error("closing order submission failed",
					zap.String("position", pos.ID),
					zap.String("pair", pos.Pair.String()),
					zap.Error(err))
				updated = append(updated, pos)
				continue
			}

			pos.Status = domain.PositionClosing
			pos.CloseOrderID = closeOrderID
			e.byCloseOrder[closeOrderID] = pos.ID
			e.logger.Info("position closing, rule triggered",
				zap.String("position", pos.ID),
				zap.String("pair", pos.Pair.String()),
				zap.String("price", ticker.Last.String()),
				zap.String("order", closeOrderID))
			updated = append(updated, pos)
		}

		e.positions[id] = pos
	}
	e.mu.Unlock()

	for _, pos := range updated {
		e.persistAndNotify(pos)
	}
}

// FetchPositions returns a copy of every tracked position. It makes the
// engine the position gateway polled by the position flux.
func (e *Engine) FetchPositions(_ context.Context) ([]domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	positions := make([]domain.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		positions = append(positions, pos)
	}
	return positions, nil
}

// Position returns a read-only copy of one position.
func (e *Engine) Position(id string) (domain.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.positions[id]
	return pos, ok
}

// markOpened, markClosed and markError mutate the copy in place and write it
// back; callers hold the engine lock.

func (e *Engine) markOpened(pos *domain.Position, price decimal.Decimal, at time.Time) {
	pos.Status = domain.PositionOpened
	if pos.OpenPrice.IsZero() && price.GreaterThan(decimal.Zero) {
		pos.OpenPrice = price
	}
	pos.OpenedAt = at
	if pos.OpenPrice.GreaterThan(decimal.Zero) {
		pos.RecordPrice(pos.OpenPrice)
	}
	e.positions[pos.ID] = *pos
	e.logger.Info("position opened",
		zap.String("position", pos.ID),
		zap.String("pair", pos.Pair.String()),
		zap.String("open_price", pos.OpenPrice.String()))
}

func (e *Engine) markClosed(pos *domain.Position, price decimal.Decimal, at time.Time) {
	pos.Status = domain.PositionClosed
	if pos.ClosePrice.IsZero() && price.GreaterThan(decimal.Zero) {
		pos.ClosePrice = price
	}
	pos.ClosedAt = at
	e.positions[pos.ID] = *pos
	e.logger.Info("position closed",
		zap.String("position", pos.ID),
		zap.String("pair", pos.Pair.String()),
		zap.String("close_price", pos.ClosePrice.String()),
		zap.String("gain", pos.GainAmount(pos.ClosePrice).String()))
}

func (e *Engine) markError(pos *domain.Position, reason string) {
	pos.Status = domain.PositionError
	pos.Reason = reason
	e.positions[pos.ID] = *pos
	e.logger.Error("position moved to error state",
		zap.String("position", pos.ID),
		zap.String("pair", pos.Pair.String()),
		zap.String("reason", reason))
}

func (e *Engine) persistAndNotify(pos domain.Position) {
	if err := e.store.Save(pos); err != nil {
		e.logger.Error("failed to persist position",
			zap.String("position", pos.ID), zap.Error(err))
	}
	if e.notifier != nil {
		e.notifier.NotifyPosition(pos)
	}
}
