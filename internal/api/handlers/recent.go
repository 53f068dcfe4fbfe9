package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/amaumene/gorated/internal/models"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// RecentSource serves recently rated media, falling back to stored data
// when a sync fails
type RecentSource interface {
	RecentlyRatedOrCached(ctx context.Context, scope models.Scope, limit int) ([]*models.Media, error, error)
}

// RecentHandler handles /api/recent
type RecentHandler struct {
	source       RecentSource
	defaultLimit int
	logger       *logrus.Logger
}

// NewRecentHandler creates a new recent handler
func NewRecentHandler(source RecentSource, defaultLimit int, logger *logrus.Logger) *RecentHandler {
	return &RecentHandler{
		source:       source,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// MediaResponse is one recently rated item
type MediaResponse struct {
	ID          int64  `json:"id"`
	MediaType   string `json:"type"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterURL   string `json:"poster_url"`
	AddedDate   string `json:"added_date"`
}

// RecentResponse represents the /api/recent response
type RecentResponse struct {
	Scope     string          `json:"scope"`
	Count     int             `json:"count"`
	Items     []MediaResponse `json:"items"`
	SyncError string          `json:"sync_error,omitempty"`
}

// ServeHTTP handles GET /api/recent?type=all|movie|series&limit=N
func (h *RecentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	scope, err := models.ParseScope(query.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := h.defaultLimit
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
	}

	medias, syncErr, err := h.source.RecentlyRatedOrCached(r.Context(), scope, limit)
	if errors.Is(err, models.ErrInvalidLimit) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to query recent medias")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := RecentResponse{
		Scope: string(scope),
		Count: len(medias),
		Items: make([]MediaResponse, 0, len(medias)),
	}
	if syncErr != nil {
		response.SyncError = syncErr.Error()
	}
	for _, media := range medias {
		response.Items = append(response.Items, MediaResponse{
			ID:          media.ID,
			MediaType:   string(media.MediaType),
			Title:       media.Title,
			ReleaseDate: media.Release.Format(dateLayout),
			PosterURL:   media.PosterURL,
			AddedDate:   media.Added.Format(dateLayout),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
