package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/amaumene/gorated/internal/config"
	"github.com/amaumene/gorated/internal/controllers"
	"github.com/amaumene/gorated/internal/models"
	"github.com/amaumene/gorated/internal/services/tmdb"
	"github.com/amaumene/gorated/internal/utils"
	"github.com/sirupsen/logrus"
)

// app holds the wired components shared by every command
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	store   models.Store
	tracker *controllers.SyncTracker
	sync    *controllers.SyncController
	recent  *controllers.RecentController
}

// newApp wires every component; logs go to logOut so command output stays clean
func newApp(logOut io.Writer) (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Debug("Configuration loaded")

	// 3. Initialize database
	store, err := models.Open(cfg.StorageDriver, cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"driver": cfg.StorageDriver,
		"path":   cfg.DatabaseFile,
	}).Debug("Database initialized")

	// 4. Initialize TMDB client
	client, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize TMDB client: %w", err)
	}

	// 5. Initialize controllers
	tracker := controllers.NewSyncTracker(store)
	syncCtrl := controllers.NewSyncController(store, tracker, controllers.ClientFetchers(client), cfg.SyncSkipInvalid, logger)
	recentCtrl := controllers.NewRecentController(syncCtrl, store, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		tracker: tracker,
		sync:    syncCtrl,
		recent:  recentCtrl,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Error("Failed to close database")
	}
}
