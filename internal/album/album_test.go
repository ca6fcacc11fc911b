package album_test

import (
	"strings"
	"testing"

	"platter/internal/album"
)

func TestNormalizeKeyFoldsCaseAndWhitespace(t *testing.T) {
	a := album.NormalizeKey("  Metallica ", "Master Of Puppets")
	b := album.NormalizeKey("METALLICA", "  master of puppets  ")
	if a != b {
		t.Fatalf("keys should match: %v vs %v", a, b)
	}
	if a.IsZero() {
		t.Fatal("key with both halves should not be zero")
	}
	if !album.NormalizeKey("Metallica", "").IsZero() {
		t.Fatal("key missing the album half should be zero")
	}
}

func TestSanitizeStripsControlCharacters(t *testing.T) {
	got := album.Sanitize("  Master\x00 of Puppets\n ")
	if strings.ContainsAny(got, "\x00\t\n") {
		t.Fatalf("control characters survived: %q", got)
	}
	if got != "Master of Puppets" {
		t.Fatalf("unexpected sanitized value: %q", got)
	}
}

func TestInternalIDClassification(t *testing.T) {
	id := album.NewInternalID()
	if !strings.HasPrefix(id, album.InternalIDPrefix) {
		t.Fatalf("internal ID missing prefix: %q", id)
	}
	if album.IsExternalID(id) {
		t.Fatal("generated internal ID classified as external")
	}
	if album.IsExternalID("") {
		t.Fatal("empty ID classified as external")
	}
	if !album.IsExternalID("69a8ca83-a182-3375-9025-fb96e0b25e2e") {
		t.Fatal("catalog ID classified as internal")
	}
}

func TestCandidateSanitizeAndFields(t *testing.T) {
	cand := &album.Candidate{
		AlbumID: " abc ",
		Artist:  " Metallica\x07",
		Album:   "Ride the Lightning ",
		Genre1:  album.FieldValue(" Thrash "),
	}
	cand.Sanitize()
	if cand.AlbumID != "abc" || cand.Artist != "Metallica" || cand.Album != "Ride the Lightning" {
		t.Fatalf("sanitize failed: %+v", cand)
	}
	if cand.Genre1.Value() != "Thrash" {
		t.Fatalf("genre not sanitized: %q", cand.Genre1.Value())
	}

	var unset album.Field
	if unset.Present() {
		t.Fatal("zero Field must be unset")
	}
	if !album.FieldClear().Present() || album.FieldClear().Value() != "" {
		t.Fatal("FieldClear must be present and empty")
	}
}
