package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewPosition_Validation(t *testing.T) {
	pair := Pair{From: "BTC", To: "USDT"}
	rules := NewStopGainRule(dec("10"))

	tests := []struct {
		name    string
		id      string
		amount  decimal.Decimal
		rules   PositionRules
		orderID string
		wantErr bool
	}{
		{"valid", "p1", dec("1"), rules, "o1", false},
		{"empty id", "", dec("1"), rules, "o1", true},
		{"zero amount", "p1", dec("0"), rules, "o1", true},
		{"negative amount", "p1", dec("-1"), rules, "o1", true},
		{"missing order id", "p1", dec("1"), rules, "", true},
		{"zero gain percent", "p1", dec("1"), NewStopGainRule(dec("0")), "o1", true},
		{"negative loss percent", "p1", dec("1"), NewStopLossRule(dec("-5")), "o1", true},
		{"no rules at all", "p1", dec("1"), PositionRules{}, "o1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.id, pair, tt.amount, tt.rules, tt.orderID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PositionOpening, pos.Status)
		})
	}
}

func TestPosition_RuleTriggered(t *testing.T) {
	base := Position{
		ID:        "p1",
		Pair:      Pair{From: "BTC", To: "USDT"},
		Amount:    dec("1"),
		Status:    PositionOpened,
		OpenPrice: dec("100"),
	}

	tests := []struct {
		name  string
		rules PositionRules
		last  string
		want  bool
	}{
		{"gain exactly at threshold", NewStopGainRule(dec("10")), "110", true},
		{"gain above threshold", NewStopGainRule(dec("10")), "150", true},
		{"gain just below threshold", NewStopGainRule(dec("10")), "109.99", false},
		{"gain rule ignores drop", NewStopGainRule(dec("10")), "10", false},
		{"loss exactly at threshold", NewStopLossRule(dec("5")), "95", true},
		{"loss below threshold", NewStopLossRule(dec("5")), "50", true},
		{"loss just above threshold", NewStopLossRule(dec("5")), "95.01", false},
		{"loss rule ignores rise", NewStopLossRule(dec("5")), "1000", false},
		{"both rules, gain side", NewRules(dec("10"), dec("5")), "110", true},
		{"both rules, loss side", NewRules(dec("10"), dec("5")), "95", true},
		{"both rules, between", NewRules(dec("10"), dec("5")), "100", false},
		{"no rules never trigger", PositionRules{}, "1000000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := base
			pos.Rules = tt.rules
			assert.Equal(t, tt.want, pos.RuleTriggered(dec(tt.last)))
		})
	}
}

func TestPosition_RuleTriggeredWithoutOpenPrice(t *testing.T) {
	pos := Position{
		ID:     "p1",
		Status: PositionOpening,
		Rules:  NewRules(dec("10"), dec("5")),
	}
	assert.False(t, pos.RuleTriggered(dec("1000")), "no open price means no threshold to breach")
}

func TestPosition_RecordPrice(t *testing.T) {
	pos := Position{ID: "p1"}

	assert.True(t, pos.RecordPrice(dec("100")), "first observation sets both extrema")
	assert.True(t, pos.LowestPrice.Equal(dec("100")))
	assert.True(t, pos.HighestPrice.Equal(dec("100")))

	assert.False(t, pos.RecordPrice(dec("100")), "same price moves nothing")

	assert.True(t, pos.RecordPrice(dec("90")))
	assert.True(t, pos.LowestPrice.Equal(dec("90")))

	assert.True(t, pos.RecordPrice(dec("120")))
	assert.True(t, pos.HighestPrice.Equal(dec("120")))
	assert.True(t, pos.LowestPrice.Equal(dec("90")))
}

func TestPosition_Gain(t *testing.T) {
	pos := Position{
		ID:        "p1",
		Amount:    dec("2"),
		OpenPrice: dec("100"),
	}

	assert.True(t, pos.GainAmount(dec("110")).Equal(dec("20")))
	assert.True(t, pos.GainPercentage(dec("110")).Equal(dec("10")))
	assert.True(t, pos.GainAmount(dec("90")).Equal(dec("-20")))

	unopened := Position{ID: "p2", Amount: dec("1")}
	assert.True(t, unopened.GainAmount(dec("110")).IsZero())
	assert.True(t, unopened.GainPercentage(dec("110")).IsZero())
}

func TestPositionStatus_Terminal(t *testing.T) {
	assert.False(t, PositionOpening.Terminal())
	assert.False(t, PositionOpened.Terminal())
	assert.False(t, PositionClosing.Terminal())
	assert.True(t, PositionClosed.Terminal())
	assert.True(t, PositionError.Terminal())
}
