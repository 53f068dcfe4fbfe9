package tmdb

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

// Movie is a rated movie as described by TMDB
type Movie struct {
	ID          int64
	Title       string
	ReleaseDate time.Time // zero when TMDB has no date
	Rating      float64
	Poster      Poster
}

// Series is a rated TV series as described by TMDB
type Series struct {
	ID           int64
	Name         string
	FirstAirDate time.Time // zero when TMDB has no date
	Rating       float64
	Poster       Poster
}

type ratedPage[R any] struct {
	Page         int `json:"page"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
	Results      []R `json:"results"`
}

type movieResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Rating      float64 `json:"rating"`
}

type tvResult struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Rating       float64 `json:"rating"`
}

// RatedMovies lazily walks every page of the account's rated movies.
// The sequence can be ranged over once; call RatedMovies again to restart.
func (c *Client) RatedMovies(ctx context.Context) iter.Seq2[Movie, error] {
	return rated(ctx, c, "movies", func(r movieResult, images *imageConfig) Movie {
		return Movie{
			ID:          r.ID,
			Title:       r.Title,
			ReleaseDate: parseDate(r.ReleaseDate),
			Rating:      r.Rating,
			Poster:      NewPoster(images.base(), r.PosterPath, images.PosterSizes),
		}
	})
}

// RatedSeries lazily walks every page of the account's rated TV series.
// The sequence can be ranged over once; call RatedSeries again to restart.
func (c *Client) RatedSeries(ctx context.Context) iter.Seq2[Series, error] {
	return rated(ctx, c, "tv", func(r tvResult, images *imageConfig) Series {
		return Series{
			ID:           r.ID,
			Name:         r.Name,
			FirstAirDate: parseDate(r.FirstAirDate),
			Rating:       r.Rating,
			Poster:       NewPoster(images.base(), r.PosterPath, images.PosterSizes),
		}
	})
}

func rated[R, T any](ctx context.Context, c *Client, kind string, convert func(R, *imageConfig) T) iter.Seq2[T, error] {
	var consumed atomic.Bool

	return func(yield func(T, error) bool) {
		var zero T
		if !consumed.CompareAndSwap(false, true) {
			yield(zero, ErrSequenceConsumed)
			return
		}

		images, err := c.images(ctx)
		if err != nil {
			yield(zero, err)
			return
		}
		accountID, err := c.AccountID(ctx)
		if err != nil {
			yield(zero, err)
			return
		}

		path := fmt.Sprintf("/account/%d/rated/%s", accountID, kind)
		for page := 1; ; page++ {
			query := url.Values{}
			query.Set("page", strconv.Itoa(page))
			query.Set("sort_by", "created_at.asc")

			var resp ratedPage[R]
			if err := c.get(ctx, path, query, &resp); err != nil {
				yield(zero, fmt.Errorf("failed to get rated %s page %d: %w", kind, page, err))
				return
			}

			c.logger.WithFields(logrus.Fields{
				"kind":        kind,
				"page":        page,
				"total_pages": resp.TotalPages,
				"count":       len(resp.Results),
			}).Debug("Retrieved rated page")

			for _, result := range resp.Results {
				if !yield(convert(result, images), nil) {
					return
				}
			}
			if page >= resp.TotalPages {
				return
			}
		}
	}
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}
	}
	return date
}
