package album

import (
	"strings"
	"time"
)

// Field is a tri-state string used where a candidate must distinguish
// "explicitly cleared" from "not supplied". The zero value is unset.
type Field struct {
	present bool
	value   string
}

// FieldValue returns a Field carrying an explicit value.
func FieldValue(value string) Field {
	return Field{present: true, value: value}
}

// FieldClear returns a Field that explicitly clears the stored value.
func FieldClear() Field {
	return Field{present: true}
}

// Present reports whether the candidate supplied this field at all.
func (f Field) Present() bool { return f.present }

// Value returns the supplied value; empty for unset or cleared fields.
func (f Field) Value() string { return f.value }

// Candidate is a partial album record contributed by any source. No field is
// required beyond enough identity to address a canonical row: either an
// album ID or an artist+album pair.
type Candidate struct {
	AlbumID     string
	Artist      string
	Album       string
	ReleaseDate string
	Country     string
	Genre1      Field
	Genre2      Field
	Tracks      []Track
	Cover       *CoverImage

	// Summary fields are carried for completeness but never written by
	// merges; the summary enrichment pass owns them.
	Summary          string
	SummarySource    string
	SummaryFetchedAt *time.Time
}

// Sanitize cleans the candidate's display strings in place.
func (c *Candidate) Sanitize() {
	c.AlbumID = strings.TrimSpace(c.AlbumID)
	c.Artist = Sanitize(c.Artist)
	c.Album = Sanitize(c.Album)
	c.ReleaseDate = Sanitize(c.ReleaseDate)
	c.Country = Sanitize(c.Country)
	if c.Genre1.present {
		c.Genre1.value = Sanitize(c.Genre1.value)
	}
	if c.Genre2.present {
		c.Genre2.value = Sanitize(c.Genre2.value)
	}
	for i := range c.Tracks {
		c.Tracks[i].Name = Sanitize(c.Tracks[i].Name)
		c.Tracks[i].Length = strings.TrimSpace(c.Tracks[i].Length)
	}
}

// Key returns the normalized name identity for the candidate.
func (c *Candidate) Key() Key {
	return NormalizeKey(c.Artist, c.Album)
}

// HasExternalID reports whether the candidate supplies an authoritative ID.
func (c *Candidate) HasExternalID() bool {
	return IsExternalID(c.AlbumID)
}

// ToAlbum materializes the candidate as a fresh canonical row.
func (c *Candidate) ToAlbum(now time.Time) *Album {
	a := &Album{
		AlbumID:          c.AlbumID,
		Artist:           c.Artist,
		Title:            c.Album,
		ReleaseDate:      c.ReleaseDate,
		Country:          c.Country,
		Genre1:           c.Genre1.Value(),
		Genre2:           c.Genre2.Value(),
		Summary:          c.Summary,
		SummarySource:    c.SummarySource,
		SummaryFetchedAt: c.SummaryFetchedAt,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
	if len(c.Tracks) > 0 {
		a.Tracks = append([]Track(nil), c.Tracks...)
	}
	if c.Cover.Size() > 0 {
		a.Cover = &CoverImage{Data: append([]byte(nil), c.Cover.Data...), Format: c.Cover.Format}
	}
	return a
}
