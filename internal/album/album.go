package album

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// InternalIDPrefix marks generated, non-authoritative album identifiers.
const InternalIDPrefix = "internal-"

// Track is a single entry in an album's track list.
type Track struct {
	Name   string `json:"name"`
	Length string `json:"length,omitempty"`
}

// FormatTrackLength renders a track duration in the minutes:seconds form the
// store and display layers use. Zero and negative durations render empty.
func FormatTrackLength(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// CoverImage holds fetched cover art together with its encoded format.
type CoverImage struct {
	Data   []byte
	Format string
}

// Size returns the payload size in bytes. A nil cover has size zero.
func (c *CoverImage) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

// Album is the canonical record for one real-world album.
type Album struct {
	AlbumID     string
	Artist      string
	Title       string
	ReleaseDate string
	Country     string
	Genre1      string
	Genre2      string
	Tracks      []Track
	Cover       *CoverImage

	// Summary fields are owned by a separate enrichment pass and are never
	// modified by merges.
	Summary          string
	SummarySource    string
	SummaryFetchedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasExternalID reports whether the record carries an authoritative catalog ID.
func (a *Album) HasExternalID() bool {
	return IsExternalID(a.AlbumID)
}

// NeedsCover reports whether cover enrichment is still outstanding.
func (a *Album) NeedsCover() bool {
	return a.Cover.Size() == 0
}

// NeedsTracks reports whether the track list is still outstanding.
func (a *Album) NeedsTracks() bool {
	return len(a.Tracks) == 0
}

// NeedsSummary reports whether the summary enrichment is still outstanding.
func (a *Album) NeedsSummary() bool {
	return strings.TrimSpace(a.Summary) == ""
}

// NormalizedKey returns the fallback identity for this record.
func (a *Album) NormalizedKey() Key {
	return NormalizeKey(a.Artist, a.Title)
}

// NewInternalID generates a fresh non-authoritative album identifier.
func NewInternalID() string {
	return InternalIDPrefix + uuid.NewString()
}

// IsExternalID reports whether id is a nonempty, externally assigned
// identifier rather than a generated internal one.
func IsExternalID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && !strings.HasPrefix(id, InternalIDPrefix)
}

// Key is the normalized artist+album identity used for records that arrive
// without an external ID.
type Key struct {
	Artist string
	Album  string
}

// IsZero reports whether either half of the key is missing.
func (k Key) IsZero() bool {
	return k.Artist == "" || k.Album == ""
}

// String renders the key for use as a map key or log field.
func (k Key) String() string {
	return k.Artist + "\x1f" + k.Album
}

var keyFolder = cases.Fold()

// NormalizeKey lowercases and trims both halves of the name identity.
func NormalizeKey(artist, title string) Key {
	return Key{
		Artist: keyFolder.String(strings.TrimSpace(Sanitize(artist))),
		Album:  keyFolder.String(strings.TrimSpace(Sanitize(title))),
	}
}

// Sanitize trims surrounding whitespace and strips control characters so
// display strings are safe to store and render.
func Sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
}
