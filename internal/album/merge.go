package album

import "time"

// Merge applies the smart-merge policy to an existing canonical row and an
// incoming candidate, returning the merged row and whether anything changed.
// The policy is deterministic and field-by-field:
//
//   - identity: an external ID is never replaced; an internal ID is promoted
//     to an incoming external ID exactly once
//   - display metadata: the longer value wins, ties keep existing
//   - genres: an incoming value wins whenever supplied, including an explicit
//     empty value meant to clear the genre
//   - tracks: the longer list wins, absence never clears
//   - cover: the larger payload wins, absence never clears
//   - summary fields: existing always wins
//
// The existing row is not modified.
func Merge(existing *Album, incoming *Candidate, now time.Time) (*Album, bool) {
	merged := cloneAlbum(existing)
	changed := false

	if !IsExternalID(merged.AlbumID) {
		switch {
		case incoming.HasExternalID():
			merged.AlbumID = incoming.AlbumID
			changed = true
		case merged.AlbumID == "" && incoming.AlbumID != "":
			merged.AlbumID = incoming.AlbumID
			changed = true
		}
	}

	changed = mergeLonger(&merged.Artist, incoming.Artist) || changed
	changed = mergeLonger(&merged.Title, incoming.Album) || changed
	changed = mergeLonger(&merged.ReleaseDate, incoming.ReleaseDate) || changed
	changed = mergeLonger(&merged.Country, incoming.Country) || changed

	if incoming.Genre1.Present() && incoming.Genre1.Value() != merged.Genre1 {
		merged.Genre1 = incoming.Genre1.Value()
		changed = true
	}
	if incoming.Genre2.Present() && incoming.Genre2.Value() != merged.Genre2 {
		merged.Genre2 = incoming.Genre2.Value()
		changed = true
	}

	if len(incoming.Tracks) > len(merged.Tracks) {
		merged.Tracks = append([]Track(nil), incoming.Tracks...)
		changed = true
	}

	if incoming.Cover.Size() > merged.Cover.Size() {
		merged.Cover = &CoverImage{
			Data:   append([]byte(nil), incoming.Cover.Data...),
			Format: incoming.Cover.Format,
		}
		changed = true
	}

	if changed {
		merged.UpdatedAt = now.UTC()
	}
	return merged, changed
}

// mergeLonger replaces dst when the incoming value is strictly longer. A tie
// or a shorter incoming value keeps the existing value.
func mergeLonger(dst *string, incoming string) bool {
	if len(incoming) > len(*dst) {
		*dst = incoming
		return true
	}
	return false
}

func cloneAlbum(a *Album) *Album {
	clone := *a
	if len(a.Tracks) > 0 {
		clone.Tracks = append([]Track(nil), a.Tracks...)
	}
	if a.Cover != nil {
		clone.Cover = &CoverImage{Data: append([]byte(nil), a.Cover.Data...), Format: a.Cover.Format}
	}
	if a.SummaryFetchedAt != nil {
		ts := *a.SummaryFetchedAt
		clone.SummaryFetchedAt = &ts
	}
	return &clone
}
