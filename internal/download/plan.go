package download

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"soapmirror/internal/httputil"
	"soapmirror/internal/media"
)

// LibraryPrefix starts every library path handed out to clients.
const LibraryPrefix = "media/"

const partialExt = ".partial"

// Plan describes where a remote video lands in the library.
type Plan struct {
	Type    media.MediaType
	Title   string
	Format  string // File extension without the dot, e.g. "mp4"
	Path    string // Final library path, e.g. "media/m/Movie.2020.1080p.mp4"
	Partial string // Library path written while downloading
	HLS     bool   // Source is an HLS playlist; fetched and remuxed by ffmpeg
}

// NewPlan derives the library layout from a CDN URL of the form
// https://host/<any>/<kind>/<show>/<file.ext>. A kind starting with "m" is a
// movie stored under media/m/; anything else is an episode stored under
// media/t/<show>/.
func NewPlan(dlURL string) (Plan, error) {
	u, err := url.Parse(dlURL)
	if err != nil {
		return Plan{}, fmt.Errorf("parsing download URL: %w", err)
	}

	// split the escaped path so an encoded "/" stays inside its segment
	segs := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")
	if len(segs) < 4 {
		return Plan{}, fmt.Errorf("download URL %q has %d path segments, want at least 4", dlURL, len(segs))
	}
	for i, s := range segs {
		if segs[i], err = url.PathUnescape(s); err != nil {
			return Plan{}, fmt.Errorf("decoding download URL: %w", err)
		}
	}
	kind, show, file := segs[1], segs[2], segs[3]

	ext := path.Ext(file)
	if len(ext) < 2 {
		return Plan{}, fmt.Errorf("download URL %q has no file extension", dlURL)
	}
	format := strings.ToLower(ext[1:])
	stem := httputil.SanitizeFilename(strings.TrimSuffix(file, ext))

	p := Plan{Type: media.Movie, Format: format}
	if format == "m3u8" {
		p.HLS = true
		p.Format = "mp4"
	}
	if !strings.HasPrefix(kind, "m") {
		p.Type = media.TV
	}

	dir := LibraryPrefix + p.Type.Dir()
	if p.Type == media.TV {
		show = httputil.SanitizeFilename(show)
		dir += "/" + show
		p.Title = strings.ReplaceAll(show, ".", " ") + " " + stem
	} else {
		p.Title = titleFromStem(stem)
	}

	p.Path = dir + "/" + stem + "." + p.Format
	p.Partial = dir + "/" + stem + partialExt
	return p, nil
}

// titleFromStem drops the last dotted token (usually quality) and turns the
// remaining dots into spaces: "The.Film.2020.1080p" → "The Film 2020".
func titleFromStem(stem string) string {
	parts := strings.Split(stem, ".")
	if len(parts) > 1 {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, " ")
}
