package models

import (
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLDatabase stores the mirror in SQLite through gorm
type SQLDatabase struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLDatabase opens the SQLite file at path and migrates the schema
func NewSQLDatabase(path string) (*SQLDatabase, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Media{}, &SyncState{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLDatabase{db: db, now: time.Now}, nil
}

// Close closes the underlying connection pool
func (s *SQLDatabase) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertIfAbsent inserts every media whose ID is not stored yet, in one transaction
func (s *SQLDatabase) UpsertIfAbsent(medias []*Media) (int, error) {
	added := DateOf(s.now())
	inserted := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var seq uint64
		if err := tx.Model(&Media{}).Select("COALESCE(MAX(seq), 0)").Scan(&seq).Error; err != nil {
			return fmt.Errorf("failed to read sequence: %w", err)
		}

		for _, media := range medias {
			if media == nil {
				continue
			}
			if err := media.Validate(); err != nil {
				return err
			}

			record := *media
			record.Added = added
			record.Seq = seq + 1
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
			if result.Error != nil {
				return fmt.Errorf("failed to insert media %d: %w", record.ID, result.Error)
			}
			if result.RowsAffected > 0 {
				seq++
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetMedia retrieves a media item by TMDB ID
func (s *SQLDatabase) GetMedia(id int64) (*Media, error) {
	var media Media
	err := s.db.Take(&media, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// QueryRecent returns the most recently added medias within scope
func (s *SQLDatabase) QueryRecent(scope Scope, limit int) ([]*Media, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	query := s.db.Order("added_date DESC").Order("release_date DESC").Order("seq ASC")
	if scope != ScopeAll {
		query = query.Where("media_type = ?", string(scope))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var medias []*Media
	if err := query.Find(&medias).Error; err != nil {
		return nil, err
	}
	return medias, nil
}

// CountByType counts stored medias per media type
func (s *SQLDatabase) CountByType() (map[MediaType]int, error) {
	var rows []struct {
		MediaType MediaType
		Total     int
	}
	err := s.db.Model(&Media{}).
		Select("media_type, COUNT(*) AS total").
		Group("media_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[MediaType]int{MediaTypeMovie: 0, MediaTypeSeries: 0}
	for _, row := range rows {
		counts[row.MediaType] = row.Total
	}
	return counts, nil
}

// LastSync returns the last successful sync time, or false if none was recorded
func (s *SQLDatabase) LastSync() (time.Time, bool, error) {
	var state SyncState
	err := s.db.Take(&state, syncStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return state.LastSyncTime, true, nil
}

// SetLastSync creates or replaces the sync state
func (s *SQLDatabase) SetLastSync(t time.Time) error {
	state := SyncState{ID: syncStateID, LastSyncTime: t}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&state).Error
}
