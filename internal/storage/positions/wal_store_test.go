package positions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

func testPosition(id string, status domain.PositionStatus) domain.Position {
	return domain.Position{
		ID:          id,
		Pair:        domain.Pair{From: "BTC", To: "USDT"},
		Amount:      decimal.NewFromInt(1),
		Rules:       domain.NewStopGainRule(decimal.NewFromInt(10)),
		Status:      status,
		OpenOrderID: "order-1",
		OpenPrice:   decimal.NewFromInt(100),
		OpenedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestWALStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)

	pos := testPosition("p1", domain.PositionOpened)
	require.NoError(t, store.Save(pos))
	require.NoError(t, store.Close())

	reopened, err := NewWALStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, pos.Equal(loaded[0]))
}

func TestWALStore_LatestRecordWins(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testPosition("p1", domain.PositionOpening)))
	require.NoError(t, store.Save(testPosition("p1", domain.PositionOpened)))
	closed := testPosition("p1", domain.PositionClosed)
	closed.ClosePrice = decimal.NewFromInt(110)
	require.NoError(t, store.Save(closed))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.PositionClosed, loaded[0].Status)
	assert.True(t, loaded[0].ClosePrice.Equal(decimal.NewFromInt(110)))
}

func TestWALStore_MultiplePositions(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testPosition("p1", domain.PositionOpened)))
	require.NoError(t, store.Save(testPosition("p2", domain.PositionOpening)))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestWALStore_RejectsEmptyID(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.Save(domain.Position{}))
}

func TestWALStore_EmptyLog(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
