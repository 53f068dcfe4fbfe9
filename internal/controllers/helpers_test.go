package controllers

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/gorated/internal/models"
	"github.com/amaumene/gorated/internal/services/tmdb"
	"github.com/amaumene/gorated/internal/utils"
	"github.com/stretchr/testify/require"
)

var testPoster = tmdb.NewPoster("http://something.com", "img.png", []string{"100", "200"})

// fakeRated mimics a remote rated list: each full walk yields three new ids
// starting at next, then advances next by three. A zero next yields nothing.
type fakeRated struct {
	mu    sync.Mutex
	next  int64
	calls int
	err   error // yielded after the first descriptor when set
}

func (f *fakeRated) begin() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.next, f.err
}

func (f *fakeRated) advance(start int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == start {
		f.next += 3
	}
}

func (f *fakeRated) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRated) movies(ctx context.Context) iter.Seq2[tmdb.Movie, error] {
	start, failure := f.begin()
	return func(yield func(tmdb.Movie, error) bool) {
		if start == 0 {
			return
		}
		for id := start; id < start+3; id++ {
			if !yield(tmdb.Movie{ID: id, Title: "A Movie or TV show", ReleaseDate: time.Now(), Poster: testPoster}, nil) {
				return
			}
			if failure != nil {
				yield(tmdb.Movie{}, failure)
				return
			}
		}
		f.advance(start)
	}
}

func (f *fakeRated) series(ctx context.Context) iter.Seq2[tmdb.Series, error] {
	start, failure := f.begin()
	return func(yield func(tmdb.Series, error) bool) {
		if start == 0 {
			return
		}
		for id := start; id < start+3; id++ {
			if !yield(tmdb.Series{ID: id, Name: "A Movie or TV show", FirstAirDate: time.Now(), Poster: testPoster}, nil) {
				return
			}
			if failure != nil {
				yield(tmdb.Series{}, failure)
				return
			}
		}
		f.advance(start)
	}
}

type testEnv struct {
	db      *models.Database
	tracker *SyncTracker
	movies  *fakeRated
	series  *fakeRated
	sync    *SyncController
	recent  *RecentController
}

func newTestEnv(t *testing.T, movieStart, seriesStart int64) *testEnv {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "gorated.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:      db,
		tracker: NewSyncTracker(db),
		movies:  &fakeRated{next: movieStart},
		series:  &fakeRated{next: seriesStart},
	}
	env.sync = NewSyncController(db, env.tracker, Fetchers{
		RatedMovies: env.movies.movies,
		RatedSeries: env.series.series,
	}, false, utils.NopLogger())
	env.recent = NewRecentController(env.sync, db, utils.NopLogger())
	return env
}

func (env *testEnv) setLastSync(t *testing.T, ago time.Duration) {
	t.Helper()
	require.NoError(t, env.db.SetLastSync(time.Now().Add(-ago)))
}

func mediaIDs(medias []*models.Media) []int64 {
	out := make([]int64, 0, len(medias))
	for _, media := range medias {
		out = append(out, media.ID)
	}
	return out
}

// memoryStore is an in-memory RecordStore and SyncStateStore with failure injection
type memoryStore struct {
	mu        sync.Mutex
	medias    map[int64]*models.Media
	order     []int64
	last      *time.Time
	upsertErr error
	stateErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{medias: map[int64]*models.Media{}}
}

func (s *memoryStore) UpsertIfAbsent(medias []*models.Media) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	inserted := 0
	for _, media := range medias {
		if _, ok := s.medias[media.ID]; ok {
			continue
		}
		record := *media
		s.medias[media.ID] = &record
		s.order = append(s.order, media.ID)
		inserted++
	}
	return inserted, nil
}

func (s *memoryStore) QueryRecent(scope models.Scope, limit int) ([]*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Media
	for _, id := range s.order {
		if media := s.medias[id]; scope.Includes(media.MediaType) {
			out = append(out, media)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) LastSync() (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateErr != nil {
		return time.Time{}, false, s.stateErr
	}
	if s.last == nil {
		return time.Time{}, false, nil
	}
	return *s.last, true, nil
}

func (s *memoryStore) SetLastSync(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateErr != nil {
		return s.stateErr
	}
	s.last = &t
	return nil
}

var errRemote = errors.New("connection reset by peer")
