package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairFromString(t *testing.T) {
	pair, err := PairFromString("BTC_USDT")
	require.NoError(t, err)
	assert.Equal(t, Pair{From: "BTC", To: "USDT"}, pair)
	assert.Equal(t, "BTC_USDT", pair.String())
	assert.Equal(t, "BTCUSDT", pair.Symbol())
}

func TestPairFromString_Invalid(t *testing.T) {
	for _, s := range []string{"", "BTC", "BTC_", "_USDT", "BTC_USDT_X"} {
		_, err := PairFromString(s)
		assert.Error(t, err, s)
	}
}
