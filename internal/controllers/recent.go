package controllers

import (
	"context"

	"github.com/amaumene/gorated/internal/models"
	"github.com/sirupsen/logrus"
)

// RecentController answers "recently rated" queries. Every query may sync
// with TMDB first, so it is not side-effect free.
type RecentController struct {
	syncer Syncer
	store  RecordStore
	logger *logrus.Logger
}

// NewRecentController creates a new recent controller
func NewRecentController(syncer Syncer, store RecordStore, logger *logrus.Logger) *RecentController {
	return &RecentController{
		syncer: syncer,
		store:  store,
		logger: logger,
	}
}

// RecentlyRated syncs scope if stale, then returns up to limit records of
// scope, most recently added first. A zero limit returns everything.
// Sync failures are returned as errors.
func (c *RecentController) RecentlyRated(ctx context.Context, scope models.Scope, limit int) ([]*models.Media, error) {
	if limit < 0 {
		return nil, models.ErrInvalidLimit
	}
	if err := c.syncer.Sync(ctx, scope); err != nil {
		return nil, err
	}
	return c.store.QueryRecent(scope, limit)
}

// RecentlyRatedOrCached behaves like RecentlyRated but still serves the
// current store contents when the sync fails. The sync failure is returned
// separately from err, which only reports a failed read.
func (c *RecentController) RecentlyRatedOrCached(ctx context.Context, scope models.Scope, limit int) (medias []*models.Media, syncErr error, err error) {
	if limit < 0 {
		return nil, nil, models.ErrInvalidLimit
	}

	syncErr = c.syncer.Sync(ctx, scope)
	if syncErr != nil {
		c.logger.WithError(syncErr).WithField("scope", scope).Warn("Sync failed, serving last known data")
	}

	medias, err = c.store.QueryRecent(scope, limit)
	if err != nil {
		return nil, syncErr, err
	}
	return medias, syncErr, nil
}
