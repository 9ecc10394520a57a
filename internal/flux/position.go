package flux

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vadiminshakov/tradeflux/internal/domain"
	"github.com/vadiminshakov/tradeflux/internal/gateway"
)

// PositionNotifier receives changed positions.
type PositionNotifier interface {
	NotifyPosition(position domain.Position)
}

// PositionFlux polls tracked positions and forwards changed ones to
// strategies. The position engine is the usual gateway, so price extrema
// updates reach strategies even when no status transition happened.
//
// Unlike the other controllers it also accepts pushed updates via Emit: the
// engine emits a position right after a status transition instead of waiting
// for the next poll. Pushed values land in the same snapshot, so the poll
// never re-reports them. The snapshot is therefore guarded by a mutex here.
type PositionFlux struct {
	gateway  gateway.PositionGateway
	notifier PositionNotifier
	logger   *zap.Logger

	mu       sync.Mutex
	snapshot *Snapshot[domain.Position]
}

// NewPositionFlux creates the position flux controller.
func NewPositionFlux(gw gateway.PositionGateway, notifier PositionNotifier, logger *zap.Logger) *PositionFlux {
	return &PositionFlux{
		gateway:  gw,
		snapshot: NewSnapshot[domain.Position](),
		notifier: notifier,
		logger:   logger,
	}
}

// Name returns the controller name used by the scheduler and logs.
func (f *PositionFlux) Name() string { return "position-flux" }

// Update runs one poll cycle. A fetch failure skips the cycle and leaves the
// snapshot untouched; it never propagates.
func (f *PositionFlux) Update(ctx context.Context) {
	positions, err := f.gateway.FetchPositions(ctx)
	if err != nil {
		f.logger.Warn("position fetch failed, skipping cycle", zap.Error(err))
		return
	}

	f.mu.Lock()
	changed, conflicting := Changes(f.snapshot, positions)
	f.mu.Unlock()

	for _, position := range conflicting {
		f.logger.Error("conflicting duplicate position in fetch, update dropped",
			zap.String("position", position.UID()))
	}
	for _, position := range changed {
		f.notifier.NotifyPosition(position)
	}
}

// NotifyPosition pushes a single position update, bypassing the poll cycle.
// Unchanged values are dropped. The lock is released before notifying so a
// strategy callback may open a new position without deadlocking.
func (f *PositionFlux) NotifyPosition(position domain.Position) {
	f.mu.Lock()
	if prev, ok := f.snapshot.Get(position.UID()); ok && prev.Equal(position) {
		f.mu.Unlock()
		return
	}
	f.snapshot.put(position)
	f.mu.Unlock()

	f.notifier.NotifyPosition(position)
}
