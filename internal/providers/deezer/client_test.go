package deezer_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"platter/internal/album"
	"platter/internal/providers/deezer"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := deezer.New("", 0.55); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestFetchReturnsCoverAndTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/album":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"data":[{"id":42,"title":"Master of Puppets","cover_xl":%q,"artist":{"name":"Metallica"}}]}`,
				"http://"+r.Host+"/cover.jpg")
		case "/album/42/tracks":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"title":"Battery","duration":312},{"title":"Master of Puppets","duration":515}]}`))
		case "/cover.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, err := deezer.New(server.URL, 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{Artist: "Metallica", Title: "Master of Puppets"}
	payload, err := client.Fetch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if payload == nil {
		t.Fatal("expected a payload")
	}
	if payload.Cover == nil || string(payload.Cover.Data) != "jpeg-bytes" {
		t.Errorf("unexpected cover: %#v", payload.Cover)
	}
	if len(payload.Tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(payload.Tracks))
	}
	if payload.Tracks[0].Name != "Battery" || payload.Tracks[0].Length != "5:12" {
		t.Errorf("unexpected first track: %#v", payload.Tracks[0])
	}
	if payload.Tracks[1].Length != "8:35" {
		t.Errorf("Length = %q, want 8:35", payload.Tracks[1].Length)
	}
}

func TestFetchKeepsTracksWhenCoverFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/album":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"data":[{"id":42,"title":"Master of Puppets","cover_xl":%q,"artist":{"name":"Metallica"}}]}`,
				"http://"+r.Host+"/cover.jpg")
		case "/album/42/tracks":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":[{"title":"Battery","duration":312}]}`))
		case "/cover.jpg":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	client, err := deezer.New(server.URL, 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{Artist: "Metallica", Title: "Master of Puppets"}
	payload, err := client.Fetch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if payload == nil || len(payload.Tracks) != 1 {
		t.Fatalf("expected tracks despite cover failure, got %#v", payload)
	}
	if payload.Cover != nil {
		t.Error("expected no cover when the download fails")
	}
}

func TestFetchNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := deezer.New(server.URL, 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := &album.Album{Artist: "Metallica", Title: "Master of Puppets"}
	payload, err := client.Fetch(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if payload != nil {
		t.Fatal("expected nil payload for empty search")
	}
}

func TestAlbumTracksRequiresPositiveID(t *testing.T) {
	client, err := deezer.New("https://example.com", 0.55)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.AlbumTracks(context.Background(), 0); err == nil {
		t.Fatal("expected error for non-positive album id")
	}
}
