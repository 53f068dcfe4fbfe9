package models

import (
	"fmt"
	"strings"
)

// MediaType represents the type of media (movie or tv series)
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Valid reports whether t is a known media type
func (t MediaType) Valid() bool {
	return t == MediaTypeMovie || t == MediaTypeSeries
}

// Scope is the media-type subset a sync or query operation targets
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeMovies Scope = Scope(MediaTypeMovie)
	ScopeSeries Scope = Scope(MediaTypeSeries)
)

// ParseScope accepts the names used on the command line and in query strings.
// An empty value selects every media type.
func ParseScope(value string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return ScopeAll, nil
	case "movie", "movies":
		return ScopeMovies, nil
	case "series", "tv", "show", "shows":
		return ScopeSeries, nil
	default:
		return "", fmt.Errorf("unknown media type %q", value)
	}
}

// MediaTypes lists the media types covered by the scope, movies first
func (s Scope) MediaTypes() []MediaType {
	switch s {
	case ScopeMovies:
		return []MediaType{MediaTypeMovie}
	case ScopeSeries:
		return []MediaType{MediaTypeSeries}
	default:
		return []MediaType{MediaTypeMovie, MediaTypeSeries}
	}
}

// Includes reports whether records of type t fall inside the scope
func (s Scope) Includes(t MediaType) bool {
	for _, mediaType := range s.MediaTypes() {
		if mediaType == t {
			return true
		}
	}
	return false
}
