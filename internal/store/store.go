// Package store persists the price snapshot and the time of the last
// completed cycle.
package store

import (
	"context"
	"errors"
	"time"

	"pricewatch/internal/snapshot"
)

// ErrCorrupt is reported when persisted state cannot be decoded, the state
// is then treated as empty.
var ErrCorrupt = errors.New("persisted state is corrupt")

// Store is the durable state of the monitor.
type Store interface {
	// LoadSnapshot returns the persisted snapshot. Missing or corrupt state
	// yields an empty snapshot, corruption is reported but never returned.
	LoadSnapshot(ctx context.Context) (*snapshot.Snapshot, error)
	// LastRun returns the time of the last committed cycle, ok is false when
	// no cycle has completed yet.
	LastRun(ctx context.Context) (lastRun time.Time, ok bool, err error)
	// Commit persists the snapshot and the cycle completion time, it is
	// called once at the end of every successful cycle.
	Commit(ctx context.Context, snap *snapshot.Snapshot, completedAt time.Time) error
	Close() error
}
