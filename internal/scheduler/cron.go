package scheduler

import (
	"context"
	"fmt"

	"github.com/amaumene/gorated/internal/controllers"
	"github.com/amaumene/gorated/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler keeps the local mirror warm in the background
type Scheduler struct {
	cron     *cron.Cron
	syncer   controllers.Syncer
	schedule string
	logger   *logrus.Logger
}

// NewScheduler creates a new scheduler running syncs on the given cron spec
func NewScheduler(syncer controllers.Syncer, schedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		syncer:   syncer,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the sync job, starts the cron and runs a first sync
// immediately. The staleness gate still applies to every run.
func (s *Scheduler) Start() error {
	s.logger.WithField("schedule", s.schedule).Info("Starting scheduler")

	if _, err := s.cron.AddFunc(s.schedule, s.runSync); err != nil {
		return fmt.Errorf("failed to add sync job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	go s.runSync()

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSync() {
	s.logger.Debug("Running scheduled sync")

	if err := s.syncer.Sync(context.Background(), models.ScopeAll); err != nil {
		s.logger.WithError(err).Error("Sync job failed")
		return
	}
	s.logger.Debug("Sync job completed")
}
