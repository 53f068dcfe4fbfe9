package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amaumene/gorated/internal/config"
	"github.com/amaumene/gorated/internal/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configurationBody = `{"images":{"base_url":"http://image.tmdb.org/t/p/","secure_base_url":"https://image.tmdb.org/t/p/","poster_sizes":["w92","w154","w185","original"]}}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.Config{
		TMDBAPIKey:    "key",
		TMDBSessionID: "session",
		TMDBBaseURL:   server.URL,
	}, utils.NopLogger())
	require.NoError(t, err)
	client.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
	}
	return client
}

func ratedAPI(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/configuration", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, configurationBody)
	})
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "session", r.URL.Query().Get("session_id"))
		fmt.Fprint(w, `{"id":42,"username":"someone"}`)
	})
	mux.HandleFunc("/account/42/rated/movies", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"page":1,"total_pages":2,"total_results":3,"results":[
				{"id":927,"title":"Gremlins","release_date":"1984-06-08","poster_path":"/gremlins.jpg","rating":8},
				{"id":928,"title":"Gremlins 2","release_date":"1990-06-15","poster_path":"/g2.jpg","rating":6}]}`)
		case "2":
			fmt.Fprint(w, `{"page":2,"total_pages":2,"total_results":3,"results":[
				{"id":929,"title":"No Poster","release_date":"","poster_path":null,"rating":5}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/account/42/rated/tv", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1,"total_pages":1,"total_results":1,"results":[
			{"id":2153,"name":"Arthur","first_air_date":"1996-10-07","poster_path":"/arthur.jpg","rating":9}]}`)
	})
	return mux
}

func TestRatedMoviesWalksEveryPage(t *testing.T) {
	client := newTestClient(t, ratedAPI(t))

	var movies []Movie
	for movie, err := range client.RatedMovies(context.Background()) {
		require.NoError(t, err)
		movies = append(movies, movie)
	}

	require.Len(t, movies, 3)
	assert.Equal(t, int64(927), movies[0].ID)
	assert.Equal(t, "Gremlins", movies[0].Title)
	assert.Equal(t, time.Date(1984, 6, 8, 0, 0, 0, 0, time.UTC), movies[0].ReleaseDate)
	assert.Equal(t, []string{"w92", "w154", "w185", "original"}, movies[0].Poster.Sizes())
	assert.Equal(t, "https://image.tmdb.org/t/p/w92/gremlins.jpg", movies[0].Poster.URL("w92"))

	assert.True(t, movies[2].ReleaseDate.IsZero())
	assert.Empty(t, movies[2].Poster.Sizes())
}

func TestRatedSeries(t *testing.T) {
	client := newTestClient(t, ratedAPI(t))

	var shows []Series
	for show, err := range client.RatedSeries(context.Background()) {
		require.NoError(t, err)
		shows = append(shows, show)
	}

	require.Len(t, shows, 1)
	assert.Equal(t, int64(2153), shows[0].ID)
	assert.Equal(t, "Arthur", shows[0].Name)
	assert.Equal(t, time.Date(1996, 10, 7, 0, 0, 0, 0, time.UTC), shows[0].FirstAirDate)
}

func TestRatedSequenceIsSingleUse(t *testing.T) {
	client := newTestClient(t, ratedAPI(t))
	seq := client.RatedSeries(context.Background())

	for _, err := range seq {
		require.NoError(t, err)
	}

	var secondErr error
	for _, err := range seq {
		secondErr = err
	}
	assert.ErrorIs(t, secondErr, ErrSequenceConsumed)

	count := 0
	for _, err := range client.RatedSeries(context.Background()) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 1, count, "calling the fetcher again restarts the walk")
}

func TestRatedStopsFetchingWhenConsumerBreaks(t *testing.T) {
	var pages atomic.Int32
	mux := ratedAPI(t)
	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/account/42/rated/movies" {
			pages.Add(1)
		}
		mux.ServeHTTP(w, r)
	})
	client := newTestClient(t, counting)

	for _, err := range client.RatedMovies(context.Background()) {
		require.NoError(t, err)
		break
	}
	assert.Equal(t, int32(1), pages.Load())
}

func TestConfiguredAccountIDSkipsLookup(t *testing.T) {
	mux := ratedAPI(t)
	mux.HandleFunc("/account/7/rated/tv", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1,"total_pages":1,"results":[]}`)
	})
	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/account" {
			t.Errorf("account lookup should not happen")
		}
		mux.ServeHTTP(w, r)
	})
	client := newTestClient(t, guarded)
	client.accountID = 7

	for _, err := range client.RatedSeries(context.Background()) {
		require.NoError(t, err)
	}
}

func TestUnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status_code":3,"status_message":"Authentication failed"}`)
	}))

	var lastErr error
	for _, err := range client.RatedMovies(context.Background()) {
		lastErr = err
	}

	assert.ErrorIs(t, lastErr, ErrUnauthorized)
	assert.Equal(t, int32(1), calls.Load())
}

func TestServerErrorsAreRetried(t *testing.T) {
	var failures atomic.Int32
	mux := ratedAPI(t)
	flaky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/configuration" && failures.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		mux.ServeHTTP(w, r)
	})
	client := newTestClient(t, flaky)

	count := 0
	for _, err := range client.RatedSeries(context.Background()) {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 1, count)
}

func TestPersistentFailureEndsSequenceWithError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	var errs []error
	for _, err := range client.RatedMovies(context.Background()) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	var statusErr *StatusError
	assert.True(t, errors.As(errs[0], &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient(&config.Config{TMDBBaseURL: "http://localhost"}, utils.NopLogger())
	assert.Error(t, err)
}

func TestPosterURL(t *testing.T) {
	poster := NewPoster("http://something.com/", "/img.png", []string{"100", "200"})
	assert.Equal(t, []string{"100", "200"}, poster.Sizes())
	assert.Equal(t, "http://something.com/100/img.png", poster.URL("100"))
}
