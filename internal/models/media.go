package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Media is the local mirror of one rated TMDB movie or series.
// Everything except the bookkeeping fields is frozen at first insert.
type Media struct {
	ID        int64     `boltholdKey:"ID" gorm:"primaryKey;autoIncrement:false" json:"id"`
	MediaType MediaType `boltholdIndex:"MediaType" gorm:"size:6;not null;index" json:"media_type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Release   time.Time `gorm:"column:release_date;not null" json:"release"`
	PosterURL string    `gorm:"column:poster_url;not null" json:"poster_url"`

	// Bookkeeping, stamped by the store on insert
	Added time.Time `gorm:"column:added_date;not null;index" json:"added"`
	Seq   uint64    `gorm:"not null" json:"-"`
}

// TableName pins the SQL table name
func (Media) TableName() string {
	return "media"
}

func (m *Media) String() string {
	if m == nil {
		return "<TMDB nil>"
	}
	label := string(m.MediaType)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return fmt.Sprintf("<TMDB %s: %s>", label, m.Title)
}

// Validate checks the fields a record needs before it can be stored
func (m *Media) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidMedia, m.ID)
	}
	if !m.MediaType.Valid() {
		return fmt.Errorf("%w: unknown media type %q for id %d", ErrInvalidMedia, m.MediaType, m.ID)
	}
	return nil
}

// DateOf truncates t to its calendar date, expressed as UTC midnight
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SortRecent orders medias by added date desc, release date desc, then
// insertion order.
func SortRecent(medias []*Media) {
	sort.SliceStable(medias, func(i, j int) bool {
		a, b := medias[i], medias[j]
		if !a.Added.Equal(b.Added) {
			return a.Added.After(b.Added)
		}
		if !a.Release.Equal(b.Release) {
			return a.Release.After(b.Release)
		}
		return a.Seq < b.Seq
	})
}

func limitMedias(medias []*Media, limit int) []*Media {
	if limit > 0 && len(medias) > limit {
		return medias[:limit]
	}
	return medias
}
