package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/gorated/internal/models"
	"github.com/amaumene/gorated/internal/services/tmdb"
)

// PosterSource exposes the poster sizes of a descriptor, smallest first
type PosterSource interface {
	Sizes() []string
	URL(size string) string
}

// MappingError reports a remote descriptor that cannot become a Media
type MappingError struct {
	ID        int64
	MediaType models.MediaType
	Reason    string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("cannot map %s %d: %s", e.MediaType, e.ID, e.Reason)
}

// MapMovie converts a rated movie into a local record
func MapMovie(movie tmdb.Movie) (*models.Media, error) {
	return mapDescriptor(models.MediaTypeMovie, movie.ID, movie.Title, movie.ReleaseDate, movie.Poster)
}

// MapSeries converts a rated series into a local record
func MapSeries(series tmdb.Series) (*models.Media, error) {
	return mapDescriptor(models.MediaTypeSeries, series.ID, series.Name, series.FirstAirDate, series.Poster)
}

// SmallestPosterURL resolves the first (smallest) poster size to a URL
func SmallestPosterURL(poster PosterSource) (string, error) {
	sizes := poster.Sizes()
	if len(sizes) == 0 {
		return "", &MappingError{Reason: "no poster sizes available"}
	}
	return poster.URL(sizes[0]), nil
}

func mapDescriptor(mediaType models.MediaType, id int64, title string, release time.Time, poster PosterSource) (*models.Media, error) {
	if id <= 0 {
		return nil, &MappingError{ID: id, MediaType: mediaType, Reason: "missing id"}
	}
	if release.IsZero() {
		return nil, &MappingError{ID: id, MediaType: mediaType, Reason: "missing release date"}
	}

	posterURL, err := SmallestPosterURL(poster)
	if err != nil {
		var mappingErr *MappingError
		if errors.As(err, &mappingErr) {
			mappingErr.ID = id
			mappingErr.MediaType = mediaType
		}
		return nil, err
	}

	return &models.Media{
		ID:        id,
		MediaType: mediaType,
		Title:     title,
		Release:   models.DateOf(release),
		PosterURL: posterURL,
	}, nil
}
