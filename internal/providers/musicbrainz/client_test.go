package musicbrainz_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"platter/internal/album"
	"platter/internal/logging"
	"platter/internal/metrics"
	"platter/internal/providers/musicbrainz"
	"platter/internal/sequencer"
)

const releaseID = "76df3287-6cda-33eb-8e9a-044b5e15ffdd"

const releaseJSON = `{
	"id": "` + releaseID + `",
	"title": "Master of Puppets",
	"artist-credit": [{"name": "Metallica"}],
	"media": [{"tracks": [
		{"position": 1, "title": "Battery", "length": 312000},
		{"position": 2, "title": "Master of Puppets", "length": 515000}
	]}]
}`

func TestNewRequiresUserAgent(t *testing.T) {
	if _, err := musicbrainz.New("https://example.com", "", 0.55); err == nil {
		t.Fatal("expected error when user agent missing")
	}
}

func TestFetchLooksUpCatalogIDDirectly(t *testing.T) {
	var searched bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release":
			searched = true
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"releases":[]}`))
		case "/release/" + releaseID:
			if r.Header.Get("User-Agent") != "platter/1.0" {
				t.Fatalf("expected user agent header, got %q", r.Header.Get("User-Agent"))
			}
			if r.URL.Query().Get("inc") != "recordings" {
				t.Fatalf("expected recordings include, got %q", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(releaseJSON))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, err := musicbrainz.New(server.URL, "platter/1.0", 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{AlbumID: releaseID, Artist: "Metallica", Title: "Master of Puppets"}
	payload, err := client.Fetch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if searched {
		t.Error("catalog-shaped IDs should not trigger a search")
	}
	if payload == nil || len(payload.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %#v", payload)
	}
	if payload.Tracks[0].Name != "Battery" || payload.Tracks[0].Length != "5:12" {
		t.Errorf("unexpected first track: %#v", payload.Tracks[0])
	}
}

func TestFetchSearchesWhenIDIsInternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release":
			if r.URL.Query().Get("fmt") != "json" {
				t.Fatalf("expected json format, got %q", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"releases":[{"id":"` + releaseID + `","title":"Master of Puppets","artist-credit":[{"name":"Metallica"}]}]}`))
		case "/release/" + releaseID:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(releaseJSON))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, err := musicbrainz.New(server.URL, "platter/1.0", 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{AlbumID: "internal-abc", Artist: "Metallica", Title: "Master of Puppets"}
	payload, err := client.Fetch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if payload == nil || len(payload.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %#v", payload)
	}
}

func TestFetchRejectsDissimilarSearchMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/release" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"releases":[{"id":"` + releaseID + `","title":"Unrelated Record","artist-credit":[{"name":"Completely Different Band"}]}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := musicbrainz.New(server.URL, "platter/1.0", 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{Artist: "Metallica", Title: "Master of Puppets"}
	payload, err := client.Fetch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if payload != nil {
		t.Fatal("expected dissimilar match to be rejected")
	}
}

func TestLookupUnknownReleaseIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client, err := musicbrainz.New(server.URL, "platter/1.0", 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	release, err := client.LookupRelease(context.Background(), releaseID)
	if err != nil {
		t.Fatalf("LookupRelease returned error: %v", err)
	}
	if release != nil {
		t.Fatal("expected nil release for 404")
	}
}

func TestFetchRoutesThroughSequencer(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	seq := sequencer.New(sequencer.Config{
		MinInterval:    time.Millisecond,
		RequestTimeout: time.Second,
		MaxRetries:     2,
		BackoffBase:    time.Millisecond,
	}, logging.NewNop(), metrics.Nop())
	t.Cleanup(seq.Close)

	client, err := musicbrainz.New(server.URL, "platter/1.0", 0.55,
		musicbrainz.WithSequencer(seq))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{Artist: "Metallica", Title: "Master of Puppets"}
	if _, err := client.Fetch(context.Background(), rec); err == nil {
		t.Fatal("expected error when service is unavailable")
	}
	if requests != 3 {
		t.Errorf("expected 3 attempts through the sequencer, got %d", requests)
	}
}
