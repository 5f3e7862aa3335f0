// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/royalty/internal/domain/pipeline"
	"github.com/okian/royalty/internal/domain/revenue"
)

// ErrMissingCatalogID is returned when a catalog has no identifier.
var ErrMissingCatalogID = errors.New("catalog id is required")

// Catalog is a music catalog offered for valuation: the songs whose
// registrations drive the royalty pipeline and any additional reported
// revenue streams.
type Catalog struct {
	ID      string           `json:"id"`
	Name    string           `json:"name,omitempty"`
	Songs   []pipeline.Song  `json:"songs"`
	Sources []revenue.Source `json:"sources"`
}

// RawCatalog mirrors a catalog document as submitted by clients.
type RawCatalog struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Songs   []pipeline.RawSong  `json:"songs"`
	Sources []revenue.RawSource `json:"sources"`
}

// Parse validates r and converts it into a Catalog.
func (r RawCatalog) Parse() (Catalog, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return Catalog{}, ErrMissingCatalogID
	}
	songs, err := pipeline.ParseSongs(r.Songs)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", id, err)
	}
	sources, err := revenue.ParseSources(r.Sources)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", id, err)
	}
	return Catalog{ID: id, Name: strings.TrimSpace(r.Name), Songs: songs, Sources: sources}, nil
}
