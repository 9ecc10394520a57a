package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	sma, err := CalculateSMA(series(1, 2, 3, 4, 5), 2)
	require.NoError(t, err)
	require.Len(t, sma, 4)
	assert.True(t, sma[0].Equal(decimal.NewFromFloat(1.5)))
	assert.True(t, sma[3].Equal(decimal.NewFromFloat(4.5)))
}

func TestCalculateSMA_NotEnoughData(t *testing.T) {
	_, err := CalculateSMA(series(1, 2), 5)
	assert.Error(t, err)
}

func TestCalculateEMA(t *testing.T) {
	ema, err := CalculateEMA(series(10, 10, 10, 10, 10), 3)
	require.NoError(t, err)
	require.NotEmpty(t, ema)
	// a constant series has a constant average
	for _, v := range ema {
		assert.True(t, v.Equal(decimal.NewFromInt(10)))
	}
}

func TestCalculateRSI_NotEnoughData(t *testing.T) {
	_, err := CalculateRSI(series(1, 2, 3), 14)
	assert.Error(t, err)
}

func TestCalculateRSI_PureUptrend(t *testing.T) {
	rsi, err := CalculateRSI(series(1, 2, 3, 4, 5, 6, 7, 8), 3)
	require.NoError(t, err)
	require.NotEmpty(t, rsi)
	// only gains, so the index sits at its ceiling
	last := rsi[len(rsi)-1]
	assert.True(t, last.Equal(decimal.NewFromInt(100)))
}
