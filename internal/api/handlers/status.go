package handlers

import (
	"net/http"
	"time"

	"github.com/amaumene/gorated/internal/models"
	"github.com/sirupsen/logrus"
)

// MediaCounter counts stored records per media type
type MediaCounter interface {
	CountByType() (map[models.MediaType]int, error)
}

// SyncStatus reports the state of the sync clock
type SyncStatus interface {
	LastSync() (time.Time, bool, error)
	IsStale(ttl time.Duration) (bool, error)
}

// StatusHandler handles status requests
type StatusHandler struct {
	counter MediaCounter
	sync    SyncStatus
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(counter MediaCounter, sync SyncStatus, ttl time.Duration, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		counter: counter,
		sync:    sync,
		ttl:     ttl,
		logger:  logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalMedias  int            `json:"total_medias"`
	MediasByType map[string]int `json:"medias_by_type"`
	LastSync     *time.Time     `json:"last_sync"`
	Stale        bool           `json:"stale"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	counts, err := h.counter.CountByType()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count medias")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	last, synced, err := h.sync.LastSync()
	if err != nil {
		h.logger.WithError(err).Error("Failed to read sync state")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	stale, err := h.sync.IsStale(h.ttl)
	if err != nil {
		h.logger.WithError(err).Error("Failed to evaluate staleness")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := StatusResponse{
		MediasByType: make(map[string]int),
		Stale:        stale,
	}
	for _, mediaType := range models.ScopeAll.MediaTypes() {
		response.MediasByType[string(mediaType)] = counts[mediaType]
		response.TotalMedias += counts[mediaType]
	}
	if synced {
		last = last.UTC()
		response.LastSync = &last
	}

	writeJSON(w, http.StatusOK, response)
}
