package download

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"soapmirror/internal/httputil"
)

// Library maps library paths ("media/...") onto the media directory on disk.
type Library struct {
	Root string
}

// Resolve returns the on-disk path for a library path. A missing "media/"
// prefix is tolerated; paths escaping the root are rejected.
func (l Library) Resolve(libPath string) (string, error) {
	rel := strings.TrimPrefix(strings.TrimLeft(libPath, "/"), LibraryPrefix)
	if rel == "" {
		return "", fmt.Errorf("empty library path")
	}
	return httputil.ContainedPath(l.Root, rel)
}

// Exists reports whether a regular file exists at libPath.
func (l Library) Exists(libPath string) bool {
	p, err := l.Resolve(libPath)
	if err != nil {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// Normalize returns libPath with the "media/" prefix, as handed to clients.
func Normalize(libPath string) string {
	libPath = strings.TrimLeft(libPath, "/")
	if strings.HasPrefix(libPath, LibraryPrefix) {
		return libPath
	}
	return LibraryPrefix + libPath
}

// URLPath returns the path under which the file server exposes libPath.
func URLPath(libPath string) string {
	return "/" + filepath.ToSlash(Normalize(libPath))
}

// TitleOf turns a library path into a display title:
// "media/t/Show.Name/S01E02.mp4" becomes "Show Name S01E02".
func TitleOf(libPath string) string {
	dir, file := path.Split(strings.TrimSuffix(filepath.ToSlash(libPath), "/"))
	stem := strings.TrimSuffix(file, path.Ext(file))
	parent := path.Base(strings.TrimSuffix(dir, "/"))
	if strings.Contains("/"+dir, "/t/") && parent != "t" {
		stem = parent + " " + stem
	}
	return strings.ReplaceAll(stem, ".", " ")
}
