package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestCandidateInputTriStateGenres(t *testing.T) {
	var in candidateInput
	if err := json.Unmarshal([]byte(`{"artist":"a","album":"b","genre_1":"Metal","genre_2":null}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cand := in.toCandidate()
	if !cand.Genre1.Present() || cand.Genre1.Value() != "Metal" {
		t.Errorf("genre_1 should be an explicit value, got %#v", cand.Genre1)
	}
	if !cand.Genre2.Present() || cand.Genre2.Value() != "" {
		t.Errorf("genre_2: explicit null should clear, got %#v", cand.Genre2)
	}

	var absent candidateInput
	if err := json.Unmarshal([]byte(`{"artist":"a","album":"b"}`), &absent); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if absent.toCandidate().Genre1.Present() {
		t.Error("absent genre key must stay unset")
	}
}

func TestReadCandidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	payload := `[{"album_id":"mb-1","artist":"Metallica","album":"Ride the Lightning",
		"release_date":"1984-07-27","country":"US",
		"tracks":[{"name":"Fight Fire with Fire","length":"4:45"}]}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cands, err := readCandidates(path)
	if err != nil {
		t.Fatalf("readCandidates: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	cand := cands[0]
	if cand.AlbumID != "mb-1" || cand.Artist != "Metallica" || cand.Album != "Ride the Lightning" {
		t.Errorf("unexpected identity: %#v", cand)
	}
	if len(cand.Tracks) != 1 || cand.Tracks[0].Length != "4:45" {
		t.Errorf("unexpected tracks: %#v", cand.Tracks)
	}
}

func TestReadCandidatesRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readCandidates(path); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}
