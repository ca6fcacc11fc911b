// Package providers defines the contract external metadata sources implement.
// A provider is asked for whatever it can contribute to one album record and
// answers with a payload, a nil payload when it has no confident match, or an
// error when the source itself failed.
package providers

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"platter/internal/album"
	"platter/internal/textutil"
)

// Payload carries the fields one provider contributed for an album.
type Payload struct {
	Cover  *album.CoverImage
	Tracks []album.Track
}

// Empty reports whether the payload contributes nothing.
func (p *Payload) Empty() bool {
	return p == nil || (p.Cover.Size() == 0 && len(p.Tracks) == 0)
}

// Provider is one external metadata source. Fetch returns nil with a nil
// error when the source has no confident match for the record.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, rec *album.Album) (*Payload, error)
}

// IsMBID reports whether id has the UUID shape MusicBrainz release IDs use.
// Only such IDs are eligible for direct catalog lookups.
func IsMBID(id string) bool {
	id = strings.TrimSpace(id)
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Acceptable gates a search result against the record it was searched for.
// Both the artist and the title halves must clear the threshold so a popular
// album by the wrong artist cannot win on title alone.
func Acceptable(threshold float64, rec *album.Album, artist, title string) bool {
	if threshold <= 0 {
		return true
	}
	return textutil.Similarity(rec.Artist, artist) >= threshold &&
		textutil.Similarity(rec.Title, title) >= threshold
}
