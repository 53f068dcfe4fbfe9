package models

import (
	"fmt"
	"time"
)

// Storage drivers accepted by Open
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Store is the persistence boundary shared by the bolt and sqlite backends
type Store interface {
	UpsertIfAbsent(medias []*Media) (int, error)
	QueryRecent(scope Scope, limit int) ([]*Media, error)
	GetMedia(id int64) (*Media, error)
	CountByType() (map[MediaType]int, error)

	LastSync() (time.Time, bool, error)
	SetLastSync(t time.Time) error

	Close() error
}

// Open opens the store selected by driver at path
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverBolt, "":
		return NewDatabase(path)
	case DriverSQLite:
		return NewSQLDatabase(path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
