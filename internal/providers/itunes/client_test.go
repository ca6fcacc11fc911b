package itunes_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"platter/internal/album"
	"platter/internal/providers/itunes"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := itunes.New("", 0.55); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestFetchDownloadsUpscaledArtwork(t *testing.T) {
	var artworkPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("entity") != "album" {
				t.Fatalf("expected album entity, got %q", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"resultCount":1,"results":[{"collectionId":7,"artistName":"Metallica","collectionName":"Master of Puppets","artworkUrl100":%q}]}`,
				artworkBase(r)+"/art/100x100bb.jpg")
		case "/art/1200x1200bb.jpg":
			artworkPath = r.URL.Path
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, err := itunes.New(server.URL, 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{Artist: "Metallica", Title: "Master of Puppets"}
	payload, err := client.Fetch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if payload == nil || payload.Cover == nil {
		t.Fatal("expected a cover payload")
	}
	if artworkPath != "/art/1200x1200bb.jpg" {
		t.Errorf("artwork fetched from %q, want upscaled rendition", artworkPath)
	}
	if string(payload.Cover.Data) != "jpeg-bytes" {
		t.Errorf("unexpected cover bytes: %q", payload.Cover.Data)
	}
}

func TestFetchRejectsDissimilarMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCount":1,"results":[{"collectionId":7,"artistName":"Completely Different Band","collectionName":"Unrelated Record","artworkUrl100":"http://127.0.0.1/art.jpg"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := itunes.New(server.URL, 0.55)
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

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := itunes.New(server.URL, 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{Artist: "Metallica", Title: "Master of Puppets"}
	if _, err := client.Fetch(context.Background(), rec); err == nil {
		t.Fatal("expected error when search returns non-200")
	}
}

func artworkBase(r *http.Request) string {
	return "http://" + r.Host
}
