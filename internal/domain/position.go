package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PositionStatus lifecycle state of a position.
//
// The normal path is OPENING -> OPENED -> CLOSING -> CLOSED. ERROR is an
// absorbing state reachable from any non-terminal state on unrecoverable
// failure. CLOSED and ERROR are terminal; the position is kept for history.
type PositionStatus int

const (
	// PositionOpening the opening order was submitted but is not yet fully filled.
	PositionOpening PositionStatus = iota
	// PositionOpened the opening order filled; rules are evaluated on every ticker.
	PositionOpened
	// PositionClosing a rule triggered and the closing order was submitted.
	PositionClosing
	// PositionClosed the closing order filled.
	PositionClosed
	// PositionError unrecoverable failure; no further rule evaluation.
	PositionError
)

// String returns the status name.
func (s PositionStatus) String() string {
	switch s {
	case PositionOpening:
		return "OPENING"
	case PositionOpened:
		return "OPENED"
	case PositionClosing:
		return "CLOSING"
	case PositionClosed:
		return "CLOSED"
	case PositionError:
		return "ERROR"
	default:
		return fmt.Sprintf("PositionStatus(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s PositionStatus) Terminal() bool {
	return s == PositionClosed || s == PositionError
}

// PositionRules stop-gain/stop-loss thresholds, both optional and
// independently configurable. Immutable once a position is created.
type PositionRules struct {
	StopGainPercent decimal.Decimal
	StopLossPercent decimal.Decimal
	StopGainEnabled bool
	StopLossEnabled bool
}

// NewStopGainRule returns rules with only a stop-gain threshold.
func NewStopGainRule(percent decimal.Decimal) PositionRules {
	return PositionRules{StopGainPercent: percent, StopGainEnabled: true}
}

// NewStopLossRule returns rules with only a stop-loss threshold.
func NewStopLossRule(percent decimal.Decimal) PositionRules {
	return PositionRules{StopLossPercent: percent, StopLossEnabled: true}
}

// NewRules returns rules with both thresholds enabled.
func NewRules(stopGainPercent, stopLossPercent decimal.Decimal) PositionRules {
	return PositionRules{
		StopGainPercent: stopGainPercent,
		StopLossPercent: stopLossPercent,
		StopGainEnabled: true,
		StopLossEnabled: true,
	}
}

// Equal reports full value equality.
func (r PositionRules) Equal(other PositionRules) bool {
	return r.StopGainEnabled == other.StopGainEnabled &&
		r.StopLossEnabled == other.StopLossEnabled &&
		r.StopGainPercent.Equal(other.StopGainPercent) &&
		r.StopLossPercent.Equal(other.StopLossPercent)
}

// Position one open-or-closed trading exposure, owned by the position engine.
// Only Status, price extrema and the closing order reference mutate after
// creation; everything else is fixed at open time.
type Position struct {
	ID     string
	Pair   Pair
	Amount decimal.Decimal
	Rules  PositionRules
	Status PositionStatus

	// OpenOrderID references the order that opened the position.
	OpenOrderID string
	// CloseOrderID references the closing order once a rule triggered.
	CloseOrderID string

	// OpenPrice is the fill price of the opening order.
	OpenPrice decimal.Decimal
	// ClosePrice is the fill price of the closing order.
	ClosePrice decimal.Decimal
	// LowestPrice and HighestPrice track extrema observed since opening.
	LowestPrice  decimal.Decimal
	HighestPrice decimal.Decimal

	OpenedAt time.Time
	ClosedAt time.Time

	// Reason carries the failure description when Status is ERROR.
	Reason string
}

// NewPosition creates a position in OPENING state for the given opening order.
func NewPosition(id string, pair Pair, amount decimal.Decimal, rules PositionRules, openOrderID string) (Position, error) {
	if id == "" {
		return Position{}, errors.New("position id is required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return Position{}, errors.New("position amount must be greater than zero")
	}
	if openOrderID == "" {
		return Position{}, errors.New("opening order id is required")
	}
	if rules.StopGainEnabled && rules.StopGainPercent.LessThanOrEqual(decimal.Zero) {
		return Position{}, errors.New("stop gain percent must be greater than zero")
	}
	if rules.StopLossEnabled && rules.StopLossPercent.LessThanOrEqual(decimal.Zero) {
		return Position{}, errors.New("stop loss percent must be greater than zero")
	}

	return Position{
		ID:          id,
		Pair:        pair,
		Amount:      amount,
		Rules:       rules,
		Status:      PositionOpening,
		OpenOrderID: openOrderID,
	}, nil
}

// UID returns the stable identity used by the flux engine.
func (p Position) UID() string {
	return p.ID
}

// Equal reports full value equality.
func (p Position) Equal(other Position) bool {
	return p.ID == other.ID &&
		p.Pair == other.Pair &&
		p.Amount.Equal(other.Amount) &&
		p.Rules.Equal(other.Rules) &&
		p.Status == other.Status &&
		p.OpenOrderID == other.OpenOrderID &&
		p.CloseOrderID == other.CloseOrderID &&
		p.OpenPrice.Equal(other.OpenPrice) &&
		p.ClosePrice.Equal(other.ClosePrice) &&
		p.LowestPrice.Equal(other.LowestPrice) &&
		p.HighestPrice.Equal(other.HighestPrice) &&
		p.OpenedAt.Equal(other.OpenedAt) &&
		p.ClosedAt.Equal(other.ClosedAt) &&
		p.Reason == other.Reason
}

// RecordPrice updates the lowest/highest observed price. Returns true when
// either extremum moved.
func (p *Position) RecordPrice(last decimal.Decimal) bool {
	changed := false
	if p.LowestPrice.IsZero() || last.LessThan(p.LowestPrice) {
		p.LowestPrice = last
		changed = true
	}
	if last.GreaterThan(p.HighestPrice) {
		p.HighestPrice = last
		changed = true
	}
	return changed
}

// RuleTriggered reports whether the configured stop-gain or stop-loss
// threshold is breached at the given price. Only meaningful for OPENED
// positions with a known open price.
func (p Position) RuleTriggered(last decimal.Decimal) bool {
	if p.OpenPrice.LessThanOrEqual(decimal.Zero) {
		return false
	}

	hundred := decimal.NewFromInt(100)
	if p.Rules.StopGainEnabled {
		gainThreshold := p.OpenPrice.Mul(decimal.NewFromInt(1).Add(p.Rules.StopGainPercent.Div(hundred)))
		if last.GreaterThanOrEqual(gainThreshold) {
			return true
		}
	}
	if p.Rules.StopLossEnabled {
		lossThreshold := p.OpenPrice.Mul(decimal.NewFromInt(1).Sub(p.Rules.StopLossPercent.Div(hundred)))
		if last.LessThanOrEqual(lossThreshold) {
			return true
		}
	}
	return false
}

// GainAmount returns the quote-currency gain at the given price.
func (p Position) GainAmount(current decimal.Decimal) decimal.Decimal {
	if p.OpenPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return current.Sub(p.OpenPrice).Mul(p.Amount)
}

// GainPercentage returns the relative gain at the given price, in percent.
func (p Position) GainPercentage(current decimal.Decimal) decimal.Decimal {
	if p.OpenPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return current.Sub(p.OpenPrice).Div(p.OpenPrice).Mul(decimal.NewFromInt(100))
}

// String returns a human-readable string representation.
func (p Position) String() string {
	return fmt.Sprintf("position %s %s amount: %s status: %s", p.ID, p.Pair.String(), p.Amount.String(), p.Status.String())
}
