// Package positions persists position state in a write-ahead log so position
// history survives restarts and open positions are resumed.
package positions

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

const (
	// DefaultDir is the WAL location when none is configured.
	DefaultDir = "./wal/positions"

	segmentThreshold  = 1000
	maxSegments       = 100
	positionKeyPrefix = "position_"
)

// WALStore writes every position transition to a WAL. The latest record per
// position id wins on replay.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewWALStore opens (or creates) the WAL in the given directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "log_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init position WAL")
	}
	return &WALStore{wal: wal}, nil
}

// Save appends the position's current state to the WAL.
func (s *WALStore) Save(position domain.Position) error {
	if position.ID == "" {
		return errors.New("position id is required")
	}

	payload, err := json.Marshal(position)
	if err != nil {
		return errors.Wrap(err, "failed to marshal position")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, positionKeyPrefix+position.ID, payload)
}

// Load replays the WAL and returns the latest state of every position.
func (s *WALStore) Load() ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := make(map[string]domain.Position)
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, positionKeyPrefix) {
			continue
		}
		var position domain.Position
		if err := json.Unmarshal(msg.Value, &position); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal position record %s", msg.Key)
		}
		latest[position.ID] = position
	}

	out := make([]domain.Position, 0, len(latest))
	for _, position := range latest {
		out = append(out, position)
	}
	return out, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	return s.wal.Close()
}
