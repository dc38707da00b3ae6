package mirror

import (
	_ "embed"
	"html/template"
)

//go:embed player.html
var playerHTML string

var playerTemplate = template.Must(template.New("player").Parse(playerHTML))

type playerData struct {
	Title     string
	VideoPath string  // Library path, reported back with the playback position
	VideoURL  string  // Empty when the video is neither on disk nor downloading
	Start     float64 // Seconds
}
