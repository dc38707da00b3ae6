// Package media defines shared types for the soapmirror application.
package media

import "time"

// MediaType represents whether content is a movie or TV show.
type MediaType int

const (
	Movie MediaType = iota
	TV
)

func (m MediaType) String() string {
	switch m {
	case Movie:
		return "movie"
	case TV:
		return "tv"
	default:
		return "unknown"
	}
}

// Dir is the single-letter library folder used for the type ("m" or "t").
func (m MediaType) Dir() string {
	if m == TV {
		return "t"
	}
	return "m"
}

// IndexEntry maps a site page to a downloaded file in the media library.
type IndexEntry struct {
	Origin  string    `json:"origin"` // Normalised site page URL
	Path    string    `json:"path"`   // Library path, e.g. "media/m/Movie.2020.mp4"
	AddedAt time.Time `json:"added_at"`
}

// Position is the last known playback position of a library file.
type Position struct {
	Path    string  `json:"path"`
	Seconds float64 `json:"time"`
}

// DownloadState tracks where a download is in its lifecycle.
type DownloadState string

const (
	DownloadRunning DownloadState = "running"
	DownloadDone    DownloadState = "done"
	DownloadFailed  DownloadState = "failed"
)

// Download is a snapshot of one download job.
type Download struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Type      MediaType     `json:"type"`
	Path      string        `json:"path"` // Final library path
	URL       string        `json:"url"`  // Remote source
	Origins   []string      `json:"origins"`
	Bytes     int64         `json:"bytes"`
	Total     int64         `json:"total"`
	State     DownloadState `json:"state"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
}

// Percent returns download completion in [0,1], or 0 when the size is unknown.
func (d Download) Percent() float64 {
	if d.Total <= 0 {
		return 0
	}
	p := float64(d.Bytes) / float64(d.Total)
	if p > 1 {
		return 1
	}
	return p
}
