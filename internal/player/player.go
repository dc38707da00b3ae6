// Package player launches local media players on library files.
// All player invocations use exec.CommandContext with explicit argument slices.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Media is what a player is asked to play.
type Media struct {
	Source string  // File path or URL
	Title  string  // Window / OSD title
	Start  float64 // Resume point in seconds
}

// Player is the interface for media player implementations.
type Player interface {
	// Play runs the player until it exits. It returns the last playback
	// position when the player can report one, otherwise 0.
	Play(ctx context.Context, m Media) (float64, error)

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name, ignoring case.
func New(name string) Player {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{} // Default to mpv
	}
}

// Positions stores playback positions by library path.
type Positions interface {
	Position(ctx context.Context, path string) (float64, error)
	SetPosition(ctx context.Context, path string, seconds float64) error
}

// Resume plays the library file at libPath (on disk at file) from its stored
// position and stores the position the player reports afterwards, so the
// browser player picks up where the local one stopped. start overrides the
// stored position when non-negative.
func Resume(ctx context.Context, p Player, store Positions, libPath, file, title string, start float64) (float64, error) {
	if start < 0 {
		pos, err := store.Position(ctx, libPath)
		if err != nil {
			return 0, err
		}
		start = pos
	}
	if start > 0 {
		slog.Info("resuming playback", "path", libPath, "at", FormatPosition(start))
	}

	pos, err := p.Play(ctx, Media{Source: file, Title: title, Start: start})
	if err != nil {
		return 0, err
	}
	if pos <= 0 {
		return 0, nil
	}
	if err := store.SetPosition(context.WithoutCancel(ctx), libPath, pos); err != nil {
		return pos, fmt.Errorf("saving position: %w", err)
	}
	return pos, nil
}

// FormatPosition formats seconds as H:MM:SS or M:SS.
func FormatPosition(seconds float64) string {
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// ParsePosition parses H:MM:SS, M:SS or plain seconds.
func ParsePosition(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	var total float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}
