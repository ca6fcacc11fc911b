package textutil_test

import (
	"testing"

	"platter/internal/textutil"
)

func TestSimilarityIdenticalText(t *testing.T) {
	score := textutil.Similarity("Metallica Master of Puppets", "metallica MASTER OF puppets")
	if score < 0.999 {
		t.Fatalf("identical text should score ~1.0, got %f", score)
	}
}

func TestSimilarityDisjointText(t *testing.T) {
	score := textutil.Similarity("Metallica Master of Puppets", "Enya Watermark")
	if score != 0 {
		t.Fatalf("disjoint text should score 0, got %f", score)
	}
}

func TestSimilarityPartialOverlap(t *testing.T) {
	full := "Metallica Master of Puppets"
	partial := "Metallica Master of Puppets Remastered Deluxe"
	score := textutil.Similarity(full, partial)
	if score <= 0.5 || score >= 1.0 {
		t.Fatalf("expected partial overlap between 0.5 and 1.0, got %f", score)
	}
}

func TestSimilarityEmptyInput(t *testing.T) {
	if got := textutil.Similarity("", "anything at all"); got != 0 {
		t.Fatalf("empty input should score 0, got %f", got)
	}
	if fp := textutil.NewFingerprint("!!!"); fp.TokenCount() != 0 {
		t.Fatal("punctuation-only text should produce no tokens")
	}
}

func TestTokenizeKeepsShortAlbumWords(t *testing.T) {
	tokens := textutil.Tokenize("OK Computer")
	if len(tokens) != 2 || tokens[0] != "ok" || tokens[1] != "computer" {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}
