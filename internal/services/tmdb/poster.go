package tmdb

import "strings"

// Poster is the poster image of a movie or series
type Poster struct {
	baseURL string
	path    string
	sizes   []string
}

// NewPoster builds a poster from an image base URL, the item's poster path
// and the sizes TMDB serves, smallest first.
func NewPoster(baseURL, path string, sizes []string) Poster {
	return Poster{baseURL: baseURL, path: path, sizes: sizes}
}

// Sizes lists the available sizes, smallest first. Items without a poster
// have none.
func (p Poster) Sizes() []string {
	if p.path == "" {
		return nil
	}
	return append([]string(nil), p.sizes...)
}

// URL resolves a size to an image URL
func (p Poster) URL(size string) string {
	return strings.TrimRight(p.baseURL, "/") + "/" + size + "/" + strings.TrimLeft(p.path, "/")
}
