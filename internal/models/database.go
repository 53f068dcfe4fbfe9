package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

const syncStateKey = "sync_state"

// sequenceBucket holds the counter used to stamp Media.Seq
var sequenceBucket = []byte("media_sequence")

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
	now   func() time.Time
}

// NewDatabase opens (or creates) the bolt file at path
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store, now: time.Now}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Media operations

// UpsertIfAbsent inserts every media whose ID is not stored yet and leaves
// existing ones untouched. The batch is written in one transaction.
func (db *Database) UpsertIfAbsent(medias []*Media) (int, error) {
	added := DateOf(db.now())
	inserted := 0

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		sequence, err := tx.CreateBucketIfNotExists(sequenceBucket)
		if err != nil {
			return fmt.Errorf("failed to open sequence bucket: %w", err)
		}

		for _, media := range medias {
			if media == nil {
				continue
			}
			if err := media.Validate(); err != nil {
				return err
			}

			var existing Media
			err := db.store.TxGet(tx, media.ID, &existing)
			if err == nil {
				continue
			}
			if !errors.Is(err, bolthold.ErrNotFound) {
				return fmt.Errorf("failed to look up media %d: %w", media.ID, err)
			}

			seq, err := sequence.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to allocate sequence: %w", err)
			}

			record := *media
			record.Added = added
			record.Seq = seq
			if err := db.store.TxInsert(tx, record.ID, &record); err != nil {
				return fmt.Errorf("failed to insert media %d: %w", record.ID, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetMedia retrieves a media item by TMDB ID
func (db *Database) GetMedia(id int64) (*Media, error) {
	var media Media
	err := db.store.Get(id, &media)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// QueryRecent returns the most recently added medias within scope.
// A zero limit returns every match.
func (db *Database) QueryRecent(scope Scope, limit int) ([]*Media, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	var query *bolthold.Query
	if scope != ScopeAll {
		query = bolthold.Where("MediaType").Eq(MediaType(scope)).Index("MediaType")
	}

	var medias []*Media
	if err := db.store.Find(&medias, query); err != nil {
		return nil, err
	}

	SortRecent(medias)
	return limitMedias(medias, limit), nil
}

// CountByType counts stored medias per media type
func (db *Database) CountByType() (map[MediaType]int, error) {
	var medias []*Media
	if err := db.store.Find(&medias, nil); err != nil {
		return nil, err
	}

	counts := map[MediaType]int{MediaTypeMovie: 0, MediaTypeSeries: 0}
	for _, media := range medias {
		counts[media.MediaType]++
	}
	return counts, nil
}

// Sync state operations

// LastSync returns the last successful sync time, or false if none was recorded
func (db *Database) LastSync() (time.Time, bool, error) {
	var state SyncState
	err := db.store.Get(syncStateKey, &state)
	if errors.Is(err, bolthold.ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return state.LastSyncTime, true, nil
}

// SetLastSync creates or replaces the sync state
func (db *Database) SetLastSync(t time.Time) error {
	return db.store.Upsert(syncStateKey, &SyncState{ID: syncStateID, LastSyncTime: t})
}
