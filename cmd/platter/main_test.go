package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"platter/internal/config"
)

// writeTestConfig materializes an isolated config with every provider
// disabled so CLI tests never touch the network.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Providers.MusicBrainz.Enabled = false
	cfg.Providers.CoverArtArchive.Enabled = false
	cfg.Providers.ITunes.Enabled = false
	cfg.Providers.Deezer.Enabled = false

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	full := append([]string{"--config", configPath}, args...)
	cmd.SetArgs(full)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestIngestAndStatus(t *testing.T) {
	configPath := writeTestConfig(t)

	payload := `[
		{"album_id": "mb-123", "artist": "Metallica", "album": "Master of Puppets",
		 "tracks": [{"name": "Battery", "length": "5:12"}]},
		{"artist": "Radiohead", "album": "OK Computer", "genre_1": "Alternative"}
	]`
	input := filepath.Join(t.TempDir(), "albums.json")
	if err := os.WriteFile(input, []byte(payload), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	out, err := runCLI(t, configPath, "ingest", input)
	if err != nil {
		t.Fatalf("ingest: %v\n%s", err, out)
	}
	requireContains(t, out, "Ingested 2 candidates: 2 inserted, 0 merged")

	out, err = runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "2")

	out, err = runCLI(t, configPath, "show", "mb-123")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	requireContains(t, out, "Master of Puppets")
	requireContains(t, out, "Battery")
}

func TestIngestMergesDuplicates(t *testing.T) {
	configPath := writeTestConfig(t)

	first := filepath.Join(t.TempDir(), "first.json")
	if err := os.WriteFile(first, []byte(`[{"artist": "Metallica", "album": "Master of Puppets"}]`), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	second := filepath.Join(t.TempDir(), "second.json")
	if err := os.WriteFile(second, []byte(`[{"album_id": "mb-123", "artist": "Metallica", "album": "Master of Puppets", "country": "US"}]`), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if out, err := runCLI(t, configPath, "ingest", "--no-enrich", first); err != nil {
		t.Fatalf("first ingest: %v\n%s", err, out)
	}
	out, err := runCLI(t, configPath, "ingest", "--no-enrich", second)
	if err != nil {
		t.Fatalf("second ingest: %v\n%s", err, out)
	}
	requireContains(t, out, "0 inserted, 1 merged")

	out, err = runCLI(t, configPath, "show", "mb-123")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	requireContains(t, out, "US")
}

func TestShowRequiresIdentity(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCLI(t, configPath, "show"); err == nil {
		t.Fatal("expected error without album id or name flags")
	}
}
