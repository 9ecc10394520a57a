package flux

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

type fakePositionGateway struct {
	positions []domain.Position
}

func (g *fakePositionGateway) FetchPositions(_ context.Context) ([]domain.Position, error) {
	return g.positions, nil
}

type positionRecorder struct {
	notified []domain.Position
}

func (r *positionRecorder) NotifyPosition(p domain.Position) {
	r.notified = append(r.notified, p)
}

func openingPosition(id string) domain.Position {
	return domain.Position{
		ID:     id,
		Pair:   domain.Pair{From: "BTC", To: "USDT"},
		Amount: decimal.NewFromInt(1),
		Status: domain.PositionOpening,
	}
}

func TestPositionFlux_PushedUpdateNotRepeatedByPoll(t *testing.T) {
	pos := openingPosition("p1")
	gw := &fakePositionGateway{positions: []domain.Position{pos}}
	rec := &positionRecorder{}
	f := NewPositionFlux(gw, rec, zap.NewNop())

	// the engine pushes a transition, then the poll observes the same state
	f.NotifyPosition(pos)
	f.Update(context.Background())

	require.Len(t, rec.notified, 1)
	assert.Equal(t, "p1", rec.notified[0].ID)
}

func TestPositionFlux_PushDropsUnchangedValue(t *testing.T) {
	pos := openingPosition("p1")
	gw := &fakePositionGateway{}
	rec := &positionRecorder{}
	f := NewPositionFlux(gw, rec, zap.NewNop())

	f.NotifyPosition(pos)
	f.NotifyPosition(pos)

	assert.Len(t, rec.notified, 1)
}

func TestPositionFlux_PollReportsTransitionAfterPush(t *testing.T) {
	pos := openingPosition("p1")
	gw := &fakePositionGateway{positions: []domain.Position{pos}}
	rec := &positionRecorder{}
	f := NewPositionFlux(gw, rec, zap.NewNop())

	f.Update(context.Background())

	opened := pos
	opened.Status = domain.PositionOpened
	gw.positions = []domain.Position{opened}
	f.Update(context.Background())

	require.Len(t, rec.notified, 2)
	assert.Equal(t, domain.PositionOpened, rec.notified[1].Status)
}
