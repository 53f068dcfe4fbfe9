package models

import "time"

const syncStateID = 1

// SyncState records the last successful sync with TMDB. There is at most one.
type SyncState struct {
	ID           uint      `gorm:"primaryKey;autoIncrement:false"`
	LastSyncTime time.Time `gorm:"not null"`
}

// TableName pins the SQL table name
func (SyncState) TableName() string {
	return "sync_state"
}
