package controllers

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/amaumene/gorated/internal/metrics"
	"github.com/amaumene/gorated/internal/models"
	"github.com/amaumene/gorated/internal/services/tmdb"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/amaumene/gorated/internal/controllers")

// Fetchers are the remote sources of rated media, one per media type.
// Each call starts a fresh walk of the remote list.
type Fetchers struct {
	RatedMovies func(ctx context.Context) iter.Seq2[tmdb.Movie, error]
	RatedSeries func(ctx context.Context) iter.Seq2[tmdb.Series, error]
}

// ClientFetchers binds the fetchers to a TMDB client
func ClientFetchers(client *tmdb.Client) Fetchers {
	return Fetchers{
		RatedMovies: client.RatedMovies,
		RatedSeries: client.RatedSeries,
	}
}

// SyncController refreshes the local mirror from TMDB when it is stale
type SyncController struct {
	store       RecordStore
	tracker     *SyncTracker
	fetchers    Fetchers
	skipInvalid bool
	logger      *logrus.Logger

	// serializes check-stale through mark-synced within the process
	mu sync.Mutex
}

// NewSyncController creates a new sync controller. With skipInvalid set,
// descriptors that fail mapping are logged and dropped instead of failing
// the whole sync.
func NewSyncController(store RecordStore, tracker *SyncTracker, fetchers Fetchers, skipInvalid bool, logger *logrus.Logger) *SyncController {
	return &SyncController{
		store:       store,
		tracker:     tracker,
		fetchers:    fetchers,
		skipInvalid: skipInvalid,
		logger:      logger,
	}
}

// Sync refetches every media type in scope if the mirror is stale, and
// does nothing otherwise. The sync state is only stamped when every pass
// succeeded.
func (c *SyncController) Sync(ctx context.Context, scope models.Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stale, err := c.tracker.IsStale(StaleAfter)
	if err != nil {
		metrics.SyncRuns.WithLabelValues(string(scope), "failure").Inc()
		return err
	}
	if !stale {
		c.logger.WithField("scope", scope).Debug("Local mirror is fresh, skipping TMDB sync")
		metrics.SyncRuns.WithLabelValues(string(scope), "fresh").Inc()
		return nil
	}

	return c.run(ctx, scope)
}

// ForceSync refetches every media type in scope regardless of staleness
func (c *SyncController) ForceSync(ctx context.Context, scope models.Scope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.run(ctx, scope)
}

func (c *SyncController) run(ctx context.Context, scope models.Scope) error {
	ctx, span := tracer.Start(ctx, "gorated.sync", trace.WithAttributes(attribute.String("scope", string(scope))))
	defer span.End()

	start := time.Now()
	c.logger.WithField("scope", scope).Info("Starting TMDB sync")

	// Passes are independent; one failing does not cancel the other
	var g errgroup.Group
	if scope.Includes(models.MediaTypeMovie) {
		g.Go(func() error {
			return syncPass(ctx, c, models.MediaTypeMovie, c.fetchers.RatedMovies, MapMovie)
		})
	}
	if scope.Includes(models.MediaTypeSeries) {
		g.Go(func() error {
			return syncPass(ctx, c, models.MediaTypeSeries, c.fetchers.RatedSeries, MapSeries)
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sync failed")
		metrics.SyncRuns.WithLabelValues(string(scope), "failure").Inc()
		c.logger.WithError(err).WithField("scope", scope).Error("TMDB sync failed, mirror stays stale")
		return fmt.Errorf("sync %s: %w", scope, err)
	}

	if err := c.tracker.MarkSynced(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark synced failed")
		metrics.SyncRuns.WithLabelValues(string(scope), "failure").Inc()
		return err
	}

	elapsed := time.Since(start)
	metrics.SyncRuns.WithLabelValues(string(scope), "success").Inc()
	metrics.SyncDuration.WithLabelValues(string(scope)).Observe(elapsed.Seconds())
	metrics.LastSyncTimestamp.SetToCurrentTime()

	c.logger.WithFields(logrus.Fields{
		"scope":       scope,
		"duration_ms": elapsed.Milliseconds(),
	}).Info("TMDB sync completed")
	return nil
}

// syncPass drains one fetcher, maps every descriptor and stores the batch
// in a single write.
func syncPass[T any](ctx context.Context, c *SyncController, mediaType models.MediaType, fetch func(context.Context) iter.Seq2[T, error], mapFn func(T) (*models.Media, error)) error {
	if fetch == nil {
		return fmt.Errorf("no fetcher configured for %s", mediaType)
	}

	_, span := tracer.Start(ctx, "gorated.sync.pass", trace.WithAttributes(attribute.String("media_type", string(mediaType))))
	defer span.End()

	logger := c.logger.WithField("type", mediaType)
	logger.Debug("Fetching rated media")

	var batch []*models.Media
	fetched := 0
	for descriptor, err := range fetch(ctx) {
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to fetch rated %s: %w", mediaType, err)
		}
		fetched++

		media, err := mapFn(descriptor)
		if err != nil {
			var mappingErr *MappingError
			if c.skipInvalid && errors.As(err, &mappingErr) {
				logger.WithError(err).Warn("Skipping descriptor that cannot be mapped")
				metrics.SyncDescriptorsSkipped.WithLabelValues(string(mediaType)).Inc()
				continue
			}
			span.RecordError(err)
			return err
		}
		batch = append(batch, media)
	}

	inserted, err := c.store.UpsertIfAbsent(batch)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to store rated %s: %w", mediaType, err)
	}
	metrics.SyncRecordsInserted.WithLabelValues(string(mediaType)).Add(float64(inserted))
	span.SetAttributes(attribute.Int("fetched", fetched), attribute.Int("inserted", inserted))

	logger.WithFields(logrus.Fields{
		"fetched":  fetched,
		"inserted": inserted,
	}).Info("Synced rated media")
	return nil
}
