package controllers

import (
	"fmt"
	"time"
)

// StaleAfter is how long a successful sync keeps the mirror fresh
const StaleAfter = 24 * time.Hour

// SyncTracker evaluates staleness of the single global sync state
type SyncTracker struct {
	store SyncStateStore
	now   func() time.Time
}

// NewSyncTracker creates a tracker backed by store
func NewSyncTracker(store SyncStateStore) *SyncTracker {
	return &SyncTracker{store: store, now: time.Now}
}

// IsStale is true when no sync was ever recorded or at least ttl has
// elapsed since the last one.
func (t *SyncTracker) IsStale(ttl time.Duration) (bool, error) {
	last, ok, err := t.store.LastSync()
	if err != nil {
		return false, fmt.Errorf("failed to read sync state: %w", err)
	}
	if !ok {
		return true, nil
	}
	return t.now().Sub(last) >= ttl, nil
}

// MarkSynced records now as the last successful sync
func (t *SyncTracker) MarkSynced() error {
	if err := t.store.SetLastSync(t.now()); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	return nil
}

// LastSync exposes the recorded sync time for status reporting
func (t *SyncTracker) LastSync() (time.Time, bool, error) {
	return t.store.LastSync()
}
