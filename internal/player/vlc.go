package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool {
	_, err := exec.LookPath("vlc")
	return err == nil
}

// Play launches VLC. VLC doesn't have IPC position tracking like mpv,
// so we return 0 for position.
func (v *VLC) Play(ctx context.Context, media Media) (float64, error) {
	cmd := exec.CommandContext(ctx, "vlc", vlcArgs(media)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, nil // VLC exits non-zero on user close
		}
		return 0, fmt.Errorf("running vlc: %w", err)
	}
	return 0, nil
}

func vlcArgs(media Media) []string {
	args := []string{
		media.Source,
		"--meta-title", media.Title,
		"--play-and-exit",
	}
	if media.Start > 0 {
		args = append(args, fmt.Sprintf("--start-time=%.0f", media.Start))
	}
	return args
}
