package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"soapmirror/internal/download"
	"soapmirror/internal/httputil"
	"soapmirror/internal/media"
)

// Legacy JSON files written by earlier mirror servers in their working directory.
const (
	LegacyIndexFile     = "dlindex.json"
	LegacyPositionsFile = "videopersistance.json"
)

// ImportLegacy loads the legacy JSON index and position files from dir into
// the store and renames each imported file with an ".imported" suffix so it
// is read only once. Missing files are skipped.
//
// Legacy paths are relative to dir. Videos found there are moved into lib so
// the imported entries point at files the library can serve; entries whose
// video is in neither place are dropped.
func (s *Store) ImportLegacy(ctx context.Context, dir string, lib download.Library) (entries, positions int, err error) {
	var idx []media.IndexEntry
	ok, err := readLegacy(filepath.Join(dir, LegacyIndexFile), &idx)
	if err != nil {
		return 0, 0, err
	}
	if ok {
		for _, e := range idx {
			if e.Origin == "" || e.Path == "" {
				continue
			}
			libPath := download.Normalize(e.Path)
			found, err := adoptLegacyFile(dir, e.Path, lib, libPath)
			if err != nil {
				return entries, 0, err
			}
			if !found {
				continue
			}
			if err := s.Add(ctx, e.Origin, libPath); err != nil {
				return entries, 0, err
			}
			entries++
		}
		if err := markImported(filepath.Join(dir, LegacyIndexFile)); err != nil {
			return entries, 0, err
		}
	}

	var pos []media.Position
	ok, err = readLegacy(filepath.Join(dir, LegacyPositionsFile), &pos)
	if err != nil {
		return entries, 0, err
	}
	if ok {
		for _, p := range pos {
			if p.Path == "" {
				continue
			}
			if err := s.SetPosition(ctx, download.Normalize(p.Path), p.Seconds); err != nil {
				return entries, positions, err
			}
			positions++
		}
		if err := markImported(filepath.Join(dir, LegacyPositionsFile)); err != nil {
			return entries, positions, err
		}
	}

	return entries, positions, nil
}

// adoptLegacyFile makes sure libPath exists in lib, moving the legacy copy
// under dir into place when needed. It reports false when neither exists.
func adoptLegacyFile(dir, legacyPath string, lib download.Library, libPath string) (bool, error) {
	if lib.Exists(libPath) {
		return true, nil
	}
	src, err := httputil.ContainedPath(dir, legacyPath)
	if err != nil {
		return false, nil
	}
	if fi, err := os.Stat(src); err != nil || !fi.Mode().IsRegular() {
		return false, nil
	}
	dst, err := lib.Resolve(libPath)
	if err != nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, fmt.Errorf("creating library dir: %w", err)
	}
	if err := moveFile(src, dst); err != nil {
		return false, fmt.Errorf("moving %s into library: %w", src, err)
	}
	return true, nil
}

// moveFile renames src to dst, copying across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp)
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Remove(src)
}

func readLegacy(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

func markImported(path string) error {
	if err := os.Rename(path, path+".imported"); err != nil {
		return fmt.Errorf("renaming imported %s: %w", path, err)
	}
	return nil
}
