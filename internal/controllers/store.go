package controllers

import (
	"context"
	"time"

	"github.com/amaumene/gorated/internal/models"
)

// RecordStore persists media records keyed by TMDB id
type RecordStore interface {
	UpsertIfAbsent(medias []*models.Media) (int, error)
	QueryRecent(scope models.Scope, limit int) ([]*models.Media, error)
}

// SyncStateStore persists the single last-sync timestamp
type SyncStateStore interface {
	LastSync() (time.Time, bool, error)
	SetLastSync(t time.Time) error
}

// Syncer refreshes the mirror for a scope when it is stale
type Syncer interface {
	Sync(ctx context.Context, scope models.Scope) error
}
