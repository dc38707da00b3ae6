package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"soapmirror/internal/download"
	"soapmirror/internal/index"
)

func TestLegacyImportSurvivesStartupPrune(t *testing.T) {
	ctx := context.Background()
	cwd := t.TempDir()
	lib := download.Library{Root: filepath.Join(t.TempDir(), "Videos", "soapmirror")}

	film := filepath.Join(cwd, "media", "m", "Film.mp4")
	if err := os.MkdirAll(filepath.Dir(film), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(film, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	legacy := `[{"origin":"https://soap2day.mx/movie/film","path":"media/m/Film.mp4"}]`
	if err := os.WriteFile(filepath.Join(cwd, index.LegacyIndexFile), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := index.Open(ctx, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	entries, _, err := store.ImportLegacy(ctx, cwd, lib)
	if err != nil || entries != 1 {
		t.Fatalf("ImportLegacy() = (%d, %v), want (1, nil)", entries, err)
	}

	stop, err := schedulePrune(ctx, store, lib, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	stop()

	path, ok, err := store.Lookup(ctx, "https://soap2day.mx/movie/film")
	if err != nil || !ok || path != "media/m/Film.mp4" {
		t.Errorf("Lookup after startup prune = (%q, %v, %v)", path, ok, err)
	}
	if !lib.Exists(path) {
		t.Errorf("%s missing from the library", path)
	}
}
